package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentCreated           PaymentStatus = "CREATED"
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentCreated, PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentPartiallyRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodRazorpay PaymentMethod = "razorpay"
	MethodCOD      PaymentMethod = "cod"
	MethodWallet   PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodRazorpay || m == MethodCOD || m == MethodWallet
}

type Payment struct {
	ID      string `json:"id" gorm:"primaryKey;size:36"`
	OrderID string `json:"order_id" gorm:"size:36;uniqueIndex;not null"`

	// GatewayOrderID is nil until a gateway order is created; the unique index
	// makes that a one-shot operation per domain order.
	GatewayOrderID   *string `json:"gateway_order_id" gorm:"size:64;uniqueIndex"`
	GatewayPaymentID string  `json:"gateway_payment_id,omitempty" gorm:"size:64;index"`
	GatewaySignature string  `json:"-" gorm:"size:128"`

	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency string          `json:"currency" gorm:"size:3;not null"`
	Method   PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	Status   PaymentStatus   `json:"status" gorm:"type:varchar(20);index;not null"`

	CustomerName  string `json:"customer_name,omitempty" gorm:"size:255"`
	CustomerEmail string `json:"customer_email,omitempty" gorm:"size:254"`
	CustomerPhone string `json:"customer_phone,omitempty" gorm:"size:20"`

	PaidAt  *time.Time      `json:"paid_at"`
	Refunds []PaymentRefund `json:"refunds,omitempty" gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

type PaymentRefund struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	PaymentID       string          `json:"payment_id" gorm:"size:36;index;not null"`
	GatewayRefundID string          `json:"gateway_refund_id" gorm:"size:64;uniqueIndex;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status          RefundStatus    `json:"status" gorm:"type:varchar(20);not null"`
	Reason          string          `json:"reason,omitempty" gorm:"type:text"`
	ProcessedAt     *time.Time      `json:"processed_at"`
	CreatedAt       time.Time       `json:"created_at"`
}
