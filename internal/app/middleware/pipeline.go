// Package middleware wraps the command bus with cross-cutting behaviour:
// idempotent replay, transaction scoping and outbox flushing.
package middleware

import (
	"context"

	"staybook/internal/app/commands"
)

// Middleware decorates a command bus.
type Middleware func(next commands.Bus) commands.Bus

type busFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f busFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

// ChainCommands applies middlewares so the first listed runs outermost.
func ChainCommands(bus commands.Bus, mws ...Middleware) commands.Bus {
	wrapped := bus
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
