package middleware

import (
	"context"

	"staybook/internal/app/commands"
)

// Waker nudges the outbox relay so freshly committed events leave quickly
// instead of waiting for the next poll tick.
type Waker interface {
	Wake()
}

// OutboxFlush wakes the relay after every successful command.
func OutboxFlush(w Waker) Middleware {
	return func(next commands.Bus) commands.Bus {
		return busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err == nil && w != nil {
				w.Wake()
			}
			return res, err
		})
	}
}
