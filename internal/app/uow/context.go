package uow

import "context"

type ctxKey struct{}

// ContextWithUnitOfWork stores the active unit of work on the context so that
// handlers downstream of the transaction middleware can reach it.
func ContextWithUnitOfWork(ctx context.Context, u UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the unit of work placed on the context, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	u, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return u, ok
}
