// Package safecall is the single chokepoint every remote call passes through.
// It fails fast when the host is offline and turns errors and panics into
// result values, so nothing thrown by a remote client reaches the caller.
package safecall

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/metrics"
)

const (
	MessageOffline = "offline"
	MessageFailed  = "operation failed"
)

// Reachability is the host's current network-reachability flag.
type Reachability interface {
	Online() bool
}

// Result is the outcome of a wrapped call. Data holds the operation's value on
// success and the caller's fallback otherwise. Err keeps the original error so
// callers can map provider codes.
type Result[T any] struct {
	Success bool
	Data    T
	Message string
	Err     error
}

// Offline reports whether the call was short-circuited by the reachability check.
func (r Result[T]) Offline() bool {
	return !r.Success && r.Message == MessageOffline
}

// Caller carries the policy shared by every wrapped call.
type Caller struct {
	reach   Reachability
	log     *slog.Logger
	metrics metrics.Recorder
}

func NewCaller(reach Reachability, log *slog.Logger, rec metrics.Recorder) *Caller {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Caller{reach: reach, log: log, metrics: rec}
}

// Online exposes the reachability flag the caller checks.
func (c *Caller) Online() bool {
	return c.reach.Online()
}

// Do runs op unless the host is offline. It never panics and never returns an
// error: every failure mode is represented in the Result. No retry is made.
func Do[T any](ctx context.Context, c *Caller, name string, op func(context.Context) (T, error), fallback T) (res Result[T]) {
	if !c.reach.Online() {
		c.metrics.RecordCall(name, metrics.OutcomeOffline)
		c.log.Debug("remote call skipped while offline", "op", name)
		return Result[T]{Data: fallback, Message: MessageOffline, Err: domain.ErrOffline}
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s: %v", name, r)
			c.metrics.RecordCall(name, metrics.OutcomeFailure)
			c.log.Error("remote call panicked", "op", name, "err", err)
			res = Result[T]{Data: fallback, Message: MessageFailed, Err: err}
		}
	}()

	v, err := op(ctx)
	if err != nil {
		c.metrics.RecordCall(name, metrics.OutcomeFailure)
		c.log.Warn("remote call failed", "op", name, "err", err)
		msg := err.Error()
		if msg == "" {
			msg = MessageFailed
		}
		return Result[T]{Data: fallback, Message: msg, Err: err}
	}
	c.metrics.RecordCall(name, metrics.OutcomeSuccess)
	return Result[T]{Success: true, Data: v}
}

// Exec is Do for operations without a value.
func Exec(ctx context.Context, c *Caller, name string, op func(context.Context) error) Result[struct{}] {
	return Do(ctx, c, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, struct{}{})
}
