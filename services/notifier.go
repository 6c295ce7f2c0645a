package services

import (
	"context"

	"food-marketplace-api/models"
)

// Notifier receives events after the change that caused them has committed.
// Implementations must not fail the caller; VerificationCode reports whether
// the code went out.
type Notifier interface {
	UserRegistered(ctx context.Context, user *models.User)
	VerificationCode(ctx context.Context, user *models.User, code string) bool
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus)
}

type nopNotifier struct{}

func (nopNotifier) UserRegistered(context.Context, *models.User) {}
func (nopNotifier) VerificationCode(context.Context, *models.User, string) bool {
	return false
}
func (nopNotifier) OrderPlaced(context.Context, *models.Order) {}
func (nopNotifier) OrderStatusChanged(context.Context, *models.Order, models.OrderStatus) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
