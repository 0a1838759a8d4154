package queue

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoutingOrderStatusChanged   = "order.status_changed"
	RoutingPaymentRefundRequest = "payment.refund_requested"
)

// OrderStatusChanged is emitted after any committed order or payment status
// change.
type OrderStatusChanged struct {
	OrderID       string    `json:"order_id"`
	UserID        int64     `json:"user_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	Source        string    `json:"source"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RefundRequested is emitted when a cascade recorded refund intent that the
// reconciler has not executed yet.
type RefundRequested struct {
	OrderID    string          `json:"order_id"`
	PaymentID  string          `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Reason     string          `json:"reason"`
	OccurredAt time.Time       `json:"occurred_at"`
}
