package order

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Repository is the Order Ledger persistence used by this module.
type Repository interface {
	CreateAggregate(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	List(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, int64, error)
	Mutate(ctx context.Context, orderID string, fn repository.MutateFunc) (*domain.Order, error)
}
