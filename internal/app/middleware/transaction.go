package middleware

import (
	"context"
	"errors"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
)

// Transaction opens a unit of work per command, injects it into the context
// and commits on success. Any handler error rolls the unit back.
func Transaction(factory uow.Factory) Middleware {
	return func(next commands.Bus) commands.Bus {
		return busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			unit, err := factory.Begin(ctx, uow.TxOptions{})
			if err != nil {
				return nil, err
			}
			ctx = uow.ContextWithUnitOfWork(ctx, unit)

			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if rbErr := unit.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, uow.ErrAlreadyFinished) {
					return nil, errors.Join(err, rbErr)
				}
				return nil, err
			}
			if err := unit.Commit(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
