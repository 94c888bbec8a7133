// Package policies holds the outbound ports the booking flows depend on.
// Infra supplies the adapters; tests supply fakes.
package policies

import (
	"context"

	"staybook/internal/domain/shared/money"
)

// Payments places and settles holds against the guest's payment method.
type Payments interface {
	// PlaceHold authorizes the amount and returns an opaque hold reference.
	PlaceHold(ctx context.Context, guestID string, amount money.Money) (string, error)
	Capture(ctx context.Context, holdRef string, amount money.Money) error
	Refund(ctx context.Context, holdRef string, amount money.Money) error
}

// Notifier delivers booking lifecycle notifications to guests and owners.
type Notifier interface {
	Send(ctx context.Context, recipientID, subject, body string) error
}
