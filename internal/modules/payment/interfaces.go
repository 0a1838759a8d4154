package payment

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type orderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type paymentRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Payment, error)
	AttachGatewayOrder(ctx context.Context, p *domain.Payment) error
	Mutate(ctx context.Context, paymentID string, fn repository.MutateFunc) (*domain.Payment, error)
}

// Gateway is the subset of the payment provider API the reconciler needs.
// Amounts are in minor units.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	Capture(ctx context.Context, paymentID string, amount int64, currency string) (*GatewayPayment, error)
	Refund(ctx context.Context, paymentID string, amount int64, notes map[string]string) (*GatewayRefund, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}
