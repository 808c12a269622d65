// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bureau-foundation/objectbus/lib/bus"
	"github.com/bureau-foundation/objectbus/lib/names"
)

// command turns arguments into a request and prints its reply.
type command struct {
	usage string
	parse func(args []string) (request, error)
	print func(w io.Writer, reply *bus.Message) error
}

var commandOrder = []string{"call", "get", "set", "introspect", "ping", "machine-id"}

var commands = map[string]command{
	"call": {
		usage: "PATH INTERFACE MEMBER [ARG...]",
		parse: parseCall,
		print: printBody,
	},
	"get": {
		usage: "PATH INTERFACE [PROPERTY]",
		parse: parseGet,
		print: printBody,
	},
	"set": {
		usage: "PATH INTERFACE PROPERTY VALUE",
		parse: parseSet,
		print: printBody,
	},
	"introspect": {
		usage: "[PATH]",
		parse: standardCall(bus.IntrospectableInterface, "Introspect"),
		print: printString,
	},
	"ping": {
		usage: "[PATH]",
		parse: standardCall(bus.PeerInterface, "Ping"),
		print: func(w io.Writer, _ *bus.Message) error {
			_, err := fmt.Fprintln(w, "pong")
			return err
		},
	},
	"machine-id": {
		usage: "[PATH]",
		parse: standardCall(bus.PeerInterface, "GetMachineId"),
		print: printString,
	},
}

func parseCall(args []string) (request, error) {
	if len(args) < 3 {
		return request{}, errors.New("expected PATH INTERFACE MEMBER")
	}
	path, iface, err := parseTarget(args[0], args[1])
	if err != nil {
		return request{}, err
	}
	member, err := names.ParseMemberName(args[2])
	if err != nil {
		return request{}, err
	}
	body := make([]any, 0, len(args)-3)
	for _, arg := range args[3:] {
		body = append(body, parseValue(arg))
	}
	return request{path: path, iface: iface, member: member, body: body}, nil
}

func parseGet(args []string) (request, error) {
	if len(args) < 2 || len(args) > 3 {
		return request{}, errors.New("expected PATH INTERFACE [PROPERTY]")
	}
	path, iface, err := parseTarget(args[0], args[1])
	if err != nil {
		return request{}, err
	}
	if iface.IsZero() {
		return request{}, errors.New("an interface is required")
	}
	if len(args) == 2 {
		return propertiesRequest(path, "GetAll", iface.String()), nil
	}
	return propertiesRequest(path, "Get", iface.String(), args[2]), nil
}

func parseSet(args []string) (request, error) {
	if len(args) != 4 {
		return request{}, errors.New("expected PATH INTERFACE PROPERTY VALUE")
	}
	path, iface, err := parseTarget(args[0], args[1])
	if err != nil {
		return request{}, err
	}
	if iface.IsZero() {
		return request{}, errors.New("an interface is required")
	}
	return propertiesRequest(path, "Set", iface.String(), args[2], parseValue(args[3])), nil
}

func propertiesRequest(path names.ObjectPath, member string, body ...any) request {
	return request{
		path:   path,
		iface:  bus.PropertiesInterface,
		member: names.MustParseMemberName(member),
		body:   body,
	}
}

// standardCall builds a parser for a no-argument standard method on an
// optional path, defaulting to the root.
func standardCall(iface names.InterfaceName, member string) func([]string) (request, error) {
	return func(args []string) (request, error) {
		if len(args) > 1 {
			return request{}, errors.New("expected at most one PATH")
		}
		path := names.RootPath
		if len(args) == 1 {
			var err error
			if path, err = names.ParseObjectPath(args[0]); err != nil {
				return request{}, err
			}
		}
		return request{path: path, iface: iface, member: names.MustParseMemberName(member)}, nil
	}
}

// parseTarget parses an object path and an interface name, where "-"
// or "" leaves the interface unset.
func parseTarget(rawPath, rawInterface string) (names.ObjectPath, names.InterfaceName, error) {
	path, err := names.ParseObjectPath(rawPath)
	if err != nil {
		return names.ObjectPath{}, names.InterfaceName{}, err
	}
	if rawInterface == "-" || rawInterface == "" {
		return path, names.InterfaceName{}, nil
	}
	iface, err := names.ParseInterfaceName(rawInterface)
	if err != nil {
		return names.ObjectPath{}, names.InterfaceName{}, err
	}
	return path, iface, nil
}

// parseValue reads an argument as JSON, with integers as int64, and
// falls back to the raw string when it is not valid JSON.
func parseValue(raw string) any {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil || decoder.More() {
		return raw
	}
	return normalizeNumbers(value)
}

func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}
		if float, err := typed.Float64(); err == nil {
			return float
		}
		return typed.String()
	case []any:
		for i := range typed {
			typed[i] = normalizeNumbers(typed[i])
		}
		return typed
	case map[string]any:
		for key, element := range typed {
			typed[key] = normalizeNumbers(element)
		}
		return typed
	}
	return value
}

// printBody writes a reply body as indented JSON: nothing for an empty
// body, the bare value for one value, and an array otherwise.
func printBody(w io.Writer, reply *bus.Message) error {
	var value any
	switch len(reply.Body) {
	case 0:
		return nil
	case 1:
		value = reply.Body[0]
	default:
		value = reply.Body
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encoding reply: %w", err)
	}
	_, err := w.Write(buffer.Bytes())
	return err
}

// printString writes a single string reply verbatim.
func printString(w io.Writer, reply *bus.Message) error {
	text, err := reply.StringArg(0)
	if err != nil {
		return fmt.Errorf("unexpected reply: %w", err)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err = io.WriteString(w, text)
	return err
}
