// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/objectbus/lib/bus"
)

// ResultKind identifies what a handler did with a request.
type ResultKind uint8

const (
	// ResultNotFound: the handler does not have the member or
	// property. The caller tries the next candidate.
	ResultNotFound ResultKind = iota + 1

	// ResultRequiresMut: the handler needs exclusive access. The
	// caller retries through the exclusive variant.
	ResultRequiresMut

	// ResultAsync: the handler accepted the request and produced a
	// completion that must be run to finish it.
	ResultAsync
)

// String returns a human-readable name.
func (k ResultKind) String() string {
	switch k {
	case ResultNotFound:
		return "not_found"
	case ResultRequiresMut:
		return "requires_mut"
	case ResultAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Completion finishes an accepted request. For method calls it is
// responsible for sending the reply. It runs while the handler's
// lock is still held.
type Completion func(ctx context.Context) error

// DispatchResult is the outcome of offering a request to a handler.
// Build one with NotFound, RequiresMut, Async, or NewAsync.
type DispatchResult struct {
	kind       ResultKind
	completion Completion
}

var (
	// NotFound reports that the handler has no such member.
	NotFound = DispatchResult{kind: ResultNotFound}

	// RequiresMut asks for a retry under exclusive access.
	RequiresMut = DispatchResult{kind: ResultRequiresMut}
)

// Async wraps a completion. A nil completion is treated as one that
// does nothing and succeeds.
func Async(completion Completion) DispatchResult {
	if completion == nil {
		completion = func(context.Context) error { return nil }
	}
	return DispatchResult{kind: ResultAsync, completion: completion}
}

// Kind returns the result's kind. The zero DispatchResult reports
// ResultNotFound.
func (r DispatchResult) Kind() ResultKind {
	if r.kind == 0 {
		return ResultNotFound
	}
	return r.kind
}

// Run executes the completion of an Async result. It is a no-op for
// the other kinds.
func (r DispatchResult) Run(ctx context.Context) error {
	if r.kind != ResultAsync {
		return nil
	}
	return r.completion(ctx)
}

// NewAsync builds the completion for a method call whose work is f.
// The completion runs f and delivers the outcome to the caller:
//
//   - success: a method return. A bus.Body result is sent as multiple
//     return values, struct{} as an empty body, and anything else as
//     a single value.
//   - failure: an error reply. Errors that are not bus.Error values
//     are sent as org.freedesktop.DBus.Error.Failed.
//   - either, when the request has the no-reply flag: nothing is sent
//     and the outcome is logged at debug level.
//
// Reply transmission failures are logged, not returned. The caller
// has already been answered as far as this side can tell.
func NewAsync[T any](conn bus.Connection, msg *bus.Message, f func(ctx context.Context) (T, error)) DispatchResult {
	return Async(func(ctx context.Context) error {
		logger := loggerFrom(ctx)
		value, err := f(ctx)

		if msg.Header.NoReplyExpected() {
			if err != nil {
				logger.DebugContext(ctx, "dropping error for no-reply call",
					"member", msg.Header.Member,
					"serial", msg.Header.Serial,
					"error", err,
				)
			} else {
				logger.DebugContext(ctx, "dropping result for no-reply call",
					"member", msg.Header.Member,
					"serial", msg.Header.Serial,
				)
			}
			return nil
		}

		if err != nil {
			if sendErr := conn.ReplyError(ctx, &msg.Header, bus.AsError(err)); sendErr != nil {
				logReplyFailure(ctx, logger, msg, sendErr)
			}
			return nil
		}

		if sendErr := conn.Reply(ctx, msg, replyBody(value)...); sendErr != nil {
			logReplyFailure(ctx, logger, msg, sendErr)
		}
		return nil
	})
}

// replyBody spreads a handler's return value into reply values.
func replyBody(value any) []any {
	switch typed := value.(type) {
	case bus.Body:
		return typed
	case struct{}:
		return nil
	default:
		return []any{value}
	}
}

func logReplyFailure(ctx context.Context, logger *slog.Logger, msg *bus.Message, err error) {
	logger.DebugContext(ctx, "sending reply failed",
		"member", msg.Header.Member,
		"serial", msg.Header.Serial,
		"error", err,
	)
}

type loggerKey struct{}

// withLogger attaches the server's logger so completions built by
// NewAsync log through it.
func withLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
