package domain

import (
	"time"

	"storefront/internal/pkg/apperr"

	"github.com/shopspring/decimal"
)

// State machine for orders and their payment. Every function here is pure:
// it mutates the in-memory aggregate and reports what changed. Callers load
// the rows under a write lock, call one of these, then persist.

var (
	ErrOrderNotCancellable  = apperr.State("ORDER_NOT_CANCELLABLE", "Order cannot be cancelled in its current status", "")
	ErrOrderNotReturnable   = apperr.State("ORDER_NOT_RETURNABLE", "Only delivered orders can be returned", "")
	ErrOrderTransition      = apperr.State("INVALID_ORDER_TRANSITION", "Order status transition is not allowed", "")
	ErrPaymentTransition    = apperr.State("INVALID_PAYMENT_TRANSITION", "Payment status transition is not allowed", "")
	ErrPaymentNotRefundable = apperr.State("PAYMENT_NOT_REFUNDABLE", "Payment is not in a refundable status", "")
	ErrOrderHasNoPayment    = apperr.State("ORDER_HAS_NO_PAYMENT", "Order has no payment record", "")
)

// Outcome reports which parts of the aggregate a transition touched.
type Outcome struct {
	OrderFrom      OrderStatus
	OrderChanged   bool
	PaymentFrom    PaymentStatus
	PaymentChanged bool

	// RefundRequested is set when a cascade moved the payment to REFUNDED.
	// The gateway refund itself is a separate step.
	RefundRequested bool
}

func (o Outcome) Changed() bool { return o.OrderChanged || o.PaymentChanged }

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:           {PaymentPending, PaymentPaid, PaymentFailed},
	PaymentPending:           {PaymentPaid, PaymentFailed},
	PaymentPaid:              {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentPartiallyRefunded: {PaymentPartiallyRefunded, PaymentRefunded},
	PaymentRefunded:          {PaymentPartiallyRefunded},
}

var fulfilmentNext = map[OrderStatus]OrderStatus{
	OrderPending:   OrderConfirmed,
	OrderConfirmed: OrderShipped,
	OrderShipped:   OrderDelivered,
}

// CanCancel is false for DELIVERED, CANCELLED and RETURNED.
func CanCancel(s OrderStatus) bool {
	return s != OrderDelivered && s != OrderCancelled && s != OrderReturned
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Refundable reports whether money has been taken and may be returned.
func Refundable(s PaymentStatus) bool {
	return s == PaymentPaid || s == PaymentPartiallyRefunded || s == PaymentRefunded
}

// RefundStatusFor derives the payment status from the cumulative processed refunds.
func RefundStatusFor(refunded, amount decimal.Decimal) PaymentStatus {
	if refunded.GreaterThanOrEqual(amount) {
		return PaymentRefunded
	}
	return PaymentPartiallyRefunded
}

func CancelOrder(o *Order) (Outcome, error) {
	if !CanCancel(o.Status) {
		return Outcome{}, ErrOrderNotCancellable.WithState(string(o.Status))
	}
	out := Outcome{OrderFrom: o.Status, OrderChanged: true}
	o.Status = OrderCancelled
	if p := o.Payment; p != nil && p.Status == PaymentPaid {
		out.PaymentFrom = p.Status
		out.PaymentChanged = true
		out.RefundRequested = true
		p.Status = PaymentRefunded
	}
	return out, nil
}

func ReturnOrder(o *Order) (Outcome, error) {
	if o.Status != OrderDelivered {
		return Outcome{}, ErrOrderNotReturnable.WithState(string(o.Status))
	}
	out := Outcome{OrderFrom: o.Status, OrderChanged: true}
	o.Status = OrderReturned
	if p := o.Payment; p != nil && p.Status != PaymentRefunded {
		out.PaymentFrom = p.Status
		out.PaymentChanged = true
		out.RefundRequested = true
		p.Status = PaymentRefunded
	}
	return out, nil
}

// AdvanceOrder moves an order along PENDING -> CONFIRMED -> SHIPPED -> DELIVERED,
// or to one of the side exits through CancelOrder/ReturnOrder.
func AdvanceOrder(o *Order, to OrderStatus, now time.Time) (Outcome, error) {
	switch to {
	case OrderCancelled:
		return CancelOrder(o)
	case OrderReturned:
		return ReturnOrder(o)
	}
	if o.Status == to {
		return Outcome{}, nil
	}
	if fulfilmentNext[o.Status] != to {
		return Outcome{}, ErrOrderTransition.WithState(string(o.Status))
	}
	out := Outcome{OrderFrom: o.Status, OrderChanged: true}
	o.Status = to
	if to == OrderDelivered {
		o.DeliveryDate = &now
	}
	return out, nil
}

// ApplyPaymentStatus moves the payment to `to` and derives the order status:
// PAID confirms a pending order, FAILED cancels a cancellable one. Writing the
// current status again is a no-op.
func ApplyPaymentStatus(o *Order, to PaymentStatus, now time.Time) (Outcome, error) {
	p := o.Payment
	if p == nil {
		return Outcome{}, ErrOrderHasNoPayment.WithState(string(o.Status))
	}
	if p.Status == to {
		return Outcome{}, nil
	}
	if !CanTransitionPayment(p.Status, to) {
		return Outcome{}, ErrPaymentTransition.WithState(string(p.Status))
	}
	return applyPayment(o, to, now), nil
}

// ConfirmGatewayPayment records a payment the gateway has verified as
// captured. Unlike ApplyPaymentStatus it accepts FAILED -> PAID: a customer
// may retry on the same gateway order after a failed attempt. On an order
// the failure already cancelled, the money is marked for refund.
func ConfirmGatewayPayment(o *Order, now time.Time) (Outcome, error) {
	if p := o.Payment; p != nil && p.Status == PaymentFailed {
		return applyPayment(o, PaymentPaid, now), nil
	}
	return ApplyPaymentStatus(o, PaymentPaid, now)
}

func applyPayment(o *Order, to PaymentStatus, now time.Time) Outcome {
	p := o.Payment
	out := Outcome{PaymentFrom: p.Status, PaymentChanged: true}
	p.Status = to

	switch to {
	case PaymentPaid:
		if p.PaidAt == nil {
			p.PaidAt = &now
		}
		switch o.Status {
		case OrderPending:
			out.OrderFrom = o.Status
			out.OrderChanged = true
			o.Status = OrderConfirmed
		case OrderCancelled, OrderReturned:
			// Money arrived for an order that is already closed.
			p.Status = PaymentRefunded
			out.RefundRequested = true
		}
	case PaymentFailed:
		if CanCancel(o.Status) {
			out.OrderFrom = o.Status
			out.OrderChanged = true
			o.Status = OrderCancelled
		}
	}
	return out
}
