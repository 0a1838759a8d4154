package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MutateFunc changes a locked order aggregate in memory. tx is the open
// transaction for any extra reads or inserts the change needs.
type MutateFunc func(tx *gorm.DB, o *domain.Order) error

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateAggregate inserts the order and its four dependent records in one
// transaction. Nothing is persisted if any insert fails.
func (r *OrderRepository) CreateAggregate(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		if len(o.Items) > 0 {
			if err := tx.Create(&o.Items).Error; err != nil {
				return err
			}
		}
		if o.ShippingAddress != nil {
			o.ShippingAddress.OrderID = o.ID
			if err := tx.Create(o.ShippingAddress).Error; err != nil {
				return err
			}
		}
		if o.Billing != nil {
			o.Billing.OrderID = o.ID
			if err := tx.Create(o.Billing).Error; err != nil {
				return err
			}
		}
		if o.Payment != nil {
			o.Payment.OrderID = o.ID
			if err := tx.Omit(clause.Associations).Create(o.Payment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := withAggregate(r.db.WithContext(ctx)).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	err := withAggregate(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error
	return orders, err
}

// List returns all orders, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Order{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []domain.Order
	err := withAggregate(scoped()).Order("order_date DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

// Mutate loads the order and its payment under a write lock, applies fn and
// persists the resulting statuses. The fresh aggregate is returned.
func (r *OrderRepository) Mutate(ctx context.Context, orderID string, fn MutateFunc) (*domain.Order, error) {
	if err := mutateAggregate(ctx, r.db, orderID, fn); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

func withAggregate(q *gorm.DB) *gorm.DB {
	return q.Preload("Items").
		Preload("ShippingAddress").
		Preload("Billing").
		Preload("Payment").
		Preload("Payment.Refunds")
}

// mutateAggregate always locks the order row before the payment row so the
// order-side and payment-side paths cannot deadlock each other.
func mutateAggregate(ctx context.Context, db *gorm.DB, orderID string, fn MutateFunc) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", orderID).First(&o).Error; err != nil {
			return err
		}
		var p domain.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id = ?", orderID).First(&p).Error
		switch {
		case err == nil:
			o.Payment = &p
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := fn(tx, &o); err != nil {
			return err
		}
		return saveAggregateState(tx, &o, time.Now().UTC())
	})
}

func saveAggregateState(tx *gorm.DB, o *domain.Order, now time.Time) error {
	if err := tx.Model(&domain.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":        o.Status,
		"delivery_date": o.DeliveryDate,
		"updated_at":    now,
	}).Error; err != nil {
		return err
	}
	p := o.Payment
	if p == nil {
		return nil
	}
	return tx.Model(&domain.Payment{}).Where("id = ?", p.ID).Updates(map[string]any{
		"status":             p.Status,
		"paid_at":            p.PaidAt,
		"method":             p.Method,
		"gateway_payment_id": p.GatewayPaymentID,
		"gateway_signature":  p.GatewaySignature,
		"updated_at":         now,
	}).Error
}
