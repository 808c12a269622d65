// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// ErrReservedInterface is returned when registering a handler under
// one of the standard interface names the server answers itself.
var ErrReservedInterface = errors.New("interface name is reserved by the object server")

// Server routes method calls to the handlers registered at object
// paths and answers the standard Properties, Introspectable, and Peer
// interfaces for every object.
//
// A transport calls HandleMessage from its read loop, one message at a
// time. Handlers whose interface prefers spawning run on their own
// goroutine. Everything else runs inline, so replies from those
// handlers leave in request order.
type Server struct {
	logger    *slog.Logger
	machineID func() (string, error)

	mu      sync.RWMutex
	objects map[names.ObjectPath]*object

	spawned sync.WaitGroup
}

// object is the set of handlers at one path, in registration order.
type object struct {
	interfaces []*ArcInterface
}

func (o *object) find(name names.InterfaceName) (*ArcInterface, int) {
	for index, arc := range o.interfaces {
		if arc.Name() == name {
			return arc, index
		}
	}
	return nil, -1
}

// Option configures a Server.
type Option func(*Server)

// WithMachineID replaces the source of the Peer.GetMachineId answer.
func WithMachineID(source func() (string, error)) Option {
	return func(s *Server) {
		s.machineID = source
	}
}

// New creates an empty object server.
func New(logger *slog.Logger, options ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := &Server{
		logger:    logger,
		machineID: readMachineID,
		objects:   make(map[names.ObjectPath]*object),
	}
	for _, option := range options {
		option(server)
	}
	return server
}

// At registers iface at path. It returns false when an interface of
// the same name is already registered there, leaving the existing one
// in place.
func (s *Server) At(path names.ObjectPath, iface Interface) (bool, error) {
	return s.AtArc(path, NewArcInterface(iface))
}

// AtArc registers an already wrapped handler. The same ArcInterface
// may be registered at several paths, sharing one lock.
func (s *Server) AtArc(path names.ObjectPath, arc *ArcInterface) (bool, error) {
	if path.IsZero() {
		return false, fmt.Errorf("registering %s: object path is empty", arc.Name())
	}
	if arc.Name().IsZero() {
		return false, fmt.Errorf("registering at %s: interface name is empty", path)
	}
	if isStandardInterface(arc.Name()) {
		return false, fmt.Errorf("registering %s at %s: %w", arc.Name(), path, ErrReservedInterface)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, exists := s.objects[path]
	if !exists {
		node = &object{}
		s.objects[path] = node
	}
	if existing, _ := node.find(arc.Name()); existing != nil {
		return false, nil
	}
	node.interfaces = append(node.interfaces, arc)
	s.logger.Debug("interface registered", "path", path, "interface", arc.Name())
	return true, nil
}

// Remove unregisters the named interface from path. It returns false
// when nothing was registered under that name.
func (s *Server) Remove(path names.ObjectPath, name names.InterfaceName) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, exists := s.objects[path]
	if !exists {
		return false
	}
	_, index := node.find(name)
	if index < 0 {
		return false
	}
	node.interfaces = slices.Delete(node.interfaces, index, index+1)
	if len(node.interfaces) == 0 {
		delete(s.objects, path)
	}
	s.logger.Debug("interface removed", "path", path, "interface", name)
	return true
}

// Interface returns the handler registered under name at path.
func (s *Server) Interface(path names.ObjectPath, name names.InterfaceName) (*ArcInterface, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, exists := s.objects[path]
	if !exists {
		return nil, false
	}
	arc, _ := node.find(name)
	return arc, arc != nil
}

// Paths returns every path with at least one registered interface,
// sorted.
func (s *Server) Paths() []names.ObjectPath {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]names.ObjectPath, 0, len(s.objects))
	for path := range s.objects {
		paths = append(paths, path)
	}
	slices.SortFunc(paths, names.ObjectPath.Compare)
	return paths
}

// Wait blocks until every spawned dispatch has finished.
func (s *Server) Wait() {
	s.spawned.Wait()
}

// resolved is a snapshot of what a request addresses, taken under the
// registry lock so handlers run without it.
type resolved struct {
	exists     bool
	interfaces []*ArcInterface
	children   []string
}

func (s *Server) resolve(path names.ObjectPath) resolved {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result resolved
	if node, exists := s.objects[path]; exists {
		result.exists = true
		result.interfaces = slices.Clone(node.interfaces)
	}
	seen := make(map[string]bool)
	for other := range s.objects {
		if element, ok := path.ChildElement(other); ok && !seen[element] {
			seen[element] = true
			result.children = append(result.children, element)
		}
	}
	slices.Sort(result.children)

	// Intermediate paths and the root exist for introspection even
	// without handlers of their own.
	if path.IsRoot() || len(result.children) > 0 {
		result.exists = true
	}
	return result
}

// HandleMessage dispatches one incoming message. Only method calls
// are handled. Other message types are ignored.
//
// Errors are delivered to the caller as error replies on conn, never
// returned. When the request carries the no-reply flag nothing is sent
// at all, but the handler still runs.
func (s *Server) HandleMessage(ctx context.Context, conn bus.Connection, msg *bus.Message) {
	if msg.Header.Type != bus.TypeMethodCall {
		s.logger.DebugContext(ctx, "ignoring non-call message", "message", msg.String())
		return
	}
	ctx = withLogger(ctx, s.logger)

	header := &msg.Header
	target := s.resolve(header.Path)

	switch header.Interface {
	case bus.PeerInterface:
		s.execute(ctx, false, conn, msg, func(ctx context.Context) error {
			return s.handlePeer(ctx, conn, msg)
		})
		return
	}

	if !target.exists {
		s.replyError(ctx, conn, msg, bus.UnknownObject(fmt.Sprintf("Unknown object '%s'", header.Path)))
		return
	}

	switch header.Interface {
	case bus.PropertiesInterface:
		s.dispatchProperties(ctx, conn, msg, target)

	case bus.IntrospectableInterface:
		s.execute(ctx, false, conn, msg, func(ctx context.Context) error {
			return s.handleIntrospectable(ctx, conn, msg, target)
		})

	case names.InterfaceName{}:
		s.dispatchUnqualified(ctx, conn, msg, target)

	default:
		arc := findInterface(target.interfaces, header.Interface)
		if arc == nil {
			s.replyError(ctx, conn, msg, bus.UnknownInterface(fmt.Sprintf("Unknown interface '%s'", header.Interface)))
			return
		}
		s.execute(ctx, arc.SpawnTasks(), conn, msg, func(ctx context.Context) error {
			handled, err := arc.DispatchCall(ctx, s, conn, msg, header.Member)
			if !handled {
				return unknownMethod(header)
			}
			return err
		})
	}
}

// dispatchUnqualified handles a call that names no interface. Every
// registered interface is offered the call in registration order, then
// the standard interfaces. The call is spawned only if every candidate
// prefers spawning.
func (s *Server) dispatchUnqualified(ctx context.Context, conn bus.Connection, msg *bus.Message, target resolved) {
	spawn := len(target.interfaces) > 0
	for _, arc := range target.interfaces {
		if !arc.SpawnTasks() {
			spawn = false
			break
		}
	}

	s.execute(ctx, spawn, conn, msg, func(ctx context.Context) error {
		for _, arc := range target.interfaces {
			handled, err := arc.DispatchCall(ctx, s, conn, msg, msg.Header.Member)
			if handled {
				return err
			}
		}
		if handler := standardMemberHandler(msg.Header.Member); handler != nil {
			return handler(s, ctx, conn, msg, target)
		}
		return unknownMethod(&msg.Header)
	})
}

// execute runs fn inline or on a tracked goroutine. A returned error
// becomes an error reply. A panic is recovered, logged with its stack,
// and answered with Failed.
func (s *Server) execute(ctx context.Context, spawn bool, conn bus.Connection, msg *bus.Message, fn func(context.Context) error) {
	if !spawn {
		s.executeWithRecovery(ctx, conn, msg, fn)
		return
	}
	s.spawned.Add(1)
	go func() {
		defer s.spawned.Done()
		s.executeWithRecovery(ctx, conn, msg, fn)
	}()
}

func (s *Server) executeWithRecovery(ctx context.Context, conn bus.Connection, msg *bus.Message, fn func(context.Context) error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.ErrorContext(ctx, "handler panic",
				"path", msg.Header.Path,
				"interface", msg.Header.Interface,
				"member", msg.Header.Member,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			s.replyError(ctx, conn, msg, bus.Failed(fmt.Sprintf("handler panic in %s: %v", msg.Header.Member, recovered)))
		}
	}()

	if err := fn(ctx); err != nil {
		s.replyError(ctx, conn, msg, bus.AsError(err))
	}
}

// reply sends a method return unless the caller asked for none.
func (s *Server) reply(ctx context.Context, conn bus.Connection, msg *bus.Message, body ...any) {
	if msg.Header.NoReplyExpected() {
		return
	}
	if err := conn.Reply(ctx, msg, body...); err != nil {
		logReplyFailure(ctx, s.logger, msg, err)
	}
}

// replyError sends an error reply unless the caller asked for none.
func (s *Server) replyError(ctx context.Context, conn bus.Connection, msg *bus.Message, busErr bus.Error) {
	if msg.Header.NoReplyExpected() {
		s.logger.DebugContext(ctx, "dropping error for no-reply call",
			"path", msg.Header.Path,
			"member", msg.Header.Member,
			"error", busErr,
		)
		return
	}
	if err := conn.ReplyError(ctx, &msg.Header, busErr); err != nil {
		logReplyFailure(ctx, s.logger, msg, err)
	}
}

func findInterface(interfaces []*ArcInterface, name names.InterfaceName) *ArcInterface {
	for _, arc := range interfaces {
		if arc.Name() == name {
			return arc
		}
	}
	return nil
}

func unknownMethod(header *bus.Header) error {
	if header.Interface.IsZero() {
		return bus.UnknownMethod(fmt.Sprintf("Unknown method '%s'", header.Member))
	}
	return bus.UnknownMethod(fmt.Sprintf("Unknown method '%s' on interface '%s'", header.Member, header.Interface))
}
