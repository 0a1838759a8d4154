package repository

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrGatewayOrderAttached is returned when a payment already carries a
// gateway order id.
var ErrGatewayOrderAttached = errors.New("gateway order already attached")

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

func (r *PaymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Payment, error) {
	return r.first(ctx, "gateway_order_id = ?", gatewayOrderID)
}

func (r *PaymentRepository) first(ctx context.Context, query string, args ...any) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Preload("Refunds").Where(query, args...).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AttachGatewayOrder stores the gateway order reference once. A concurrent
// request that attached first wins and this call reports
// ErrGatewayOrderAttached.
func (r *PaymentRepository) AttachGatewayOrder(ctx context.Context, p *domain.Payment) error {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND gateway_order_id IS NULL", p.ID).
		Updates(map[string]any{
			"gateway_order_id": p.GatewayOrderID,
			"currency":         p.Currency,
			"customer_name":    p.CustomerName,
			"customer_email":   p.CustomerEmail,
			"customer_phone":   p.CustomerPhone,
		})
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return ErrGatewayOrderAttached
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGatewayOrderAttached
	}
	return nil
}

// Mutate locks the payment's order aggregate and applies fn. See
// OrderRepository.Mutate.
func (r *PaymentRepository) Mutate(ctx context.Context, paymentID string, fn MutateFunc) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Select("id", "order_id").Where("id = ?", paymentID).First(&p).Error; err != nil {
		return nil, err
	}
	if err := mutateAggregate(ctx, r.db, p.OrderID, fn); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, paymentID)
}

// ProcessedRefundTotal sums processed refunds for a payment inside tx.
func ProcessedRefundTotal(tx *gorm.DB, paymentID string) (decimal.Decimal, error) {
	var refunds []domain.PaymentRefund
	err := tx.Where("payment_id = ? AND status = ?", paymentID, domain.RefundProcessed).Find(&refunds).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, rf := range refunds {
		total = total.Add(rf.Amount)
	}
	return total, nil
}

func CreateRefund(tx *gorm.DB, rf *domain.PaymentRefund) error {
	return tx.Create(rf).Error
}
