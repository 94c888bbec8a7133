package middleware

import (
	"context"
	"errors"

	"staybook/internal/app/commands"
)

var ErrDuplicateRequest = errors.New("middleware: duplicate request in flight")

// IdempotentCommand is implemented by commands carrying a client-supplied
// idempotency key. Commands without one pass through unchanged.
type IdempotentCommand interface {
	IdempotencyKey() string
}

// IdempotencyStore remembers finished requests so retries replay the stored
// outcome instead of re-running the handler.
type IdempotencyStore interface {
	// Reserve returns false when the key is already taken. A reserved key
	// must later be resolved with Complete or released with Release.
	Reserve(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string, result any) error
	Release(ctx context.Context, key string) error
	// Lookup returns the stored result and whether the key has completed.
	Lookup(ctx context.Context, key string) (any, bool, error)
}

// Idempotency deduplicates commands by their idempotency key.
func Idempotency(store IdempotencyStore) Middleware {
	return func(next commands.Bus) commands.Bus {
		return busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ic, ok := cmd.(IdempotentCommand)
			if !ok || ic.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + ic.IdempotencyKey()

			if cached, done, err := store.Lookup(ctx, key); err != nil {
				return nil, err
			} else if done {
				return cached, nil
			}

			reserved, err := store.Reserve(ctx, key)
			if err != nil {
				return nil, err
			}
			if !reserved {
				return nil, ErrDuplicateRequest
			}

			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if relErr := store.Release(ctx, key); relErr != nil {
					return nil, errors.Join(err, relErr)
				}
				return nil, err
			}
			if err := store.Complete(ctx, key, res); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
