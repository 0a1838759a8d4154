package order

import (
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultCurrency = "INR"

// BuildOrder assembles the five rows of a new order from a request. Line
// totals and billing totals are recomputed here and never taken from the
// client; a client value that disagrees is a validation error listing every
// offending field.
func BuildOrder(userID int64, req CreateOrderRequest, now time.Time) (*domain.Order, error) {
	fields := map[string]string{}

	items := make([]domain.OrderItem, 0, len(req.Items))
	lineTotals := make([]decimal.Decimal, 0, len(req.Items))
	for i, in := range req.Items {
		key := fmt.Sprintf("items[%d]", i)
		if !validAmount(in.Price) {
			fields[key+".price"] = "invalid"
			continue
		}
		total := money.LineTotal(in.Quantity, in.Price)
		if in.TotalPrice != nil && !in.TotalPrice.Equal(total) {
			fields[key+".total_price"] = "mismatch"
		}
		lineTotals = append(lineTotals, total)
		items = append(items, domain.OrderItem{
			ProductID:   in.ProductID,
			ProductName: strings.TrimSpace(in.Name),
			Quantity:    in.Quantity,
			UnitPrice:   in.Price,
			TotalPrice:  total,
		})
	}

	b := req.Billing
	for name, v := range map[string]decimal.Decimal{
		"billing.discount":         b.Discount,
		"billing.tax":              b.Tax,
		"billing.shipping_charges": b.ShippingCharges,
	} {
		if !validAmount(v) {
			fields[name] = "invalid"
		}
	}

	subtotal := money.Sum(lineTotals...)
	if b.Subtotal != nil && !b.Subtotal.Equal(subtotal) {
		fields["billing.subtotal"] = "mismatch"
	}
	total := money.Total(subtotal, b.Discount, b.Tax, b.ShippingCharges)
	if total.IsNegative() {
		fields["billing.total_amount"] = "negative"
	} else if b.TotalAmount != nil && !b.TotalAmount.Equal(total) {
		fields["billing.total_amount"] = "mismatch"
	}

	if len(fields) > 0 {
		return nil, ErrInvalidTotals.WithFields(fields)
	}

	method := domain.PaymentMethod(req.Payment.Method)
	if method == "" {
		method = domain.MethodRazorpay
	}
	currency := req.Payment.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	orderID := uuid.NewString()
	return &domain.Order{
		ID:        orderID,
		UserID:    userID,
		Status:    domain.OrderPending,
		OrderDate: now,
		Items:     items,
		ShippingAddress: &domain.ShippingAddress{
			FullAddress: strings.TrimSpace(req.ShippingAddress.FullAddress),
			City:        strings.TrimSpace(req.ShippingAddress.City),
			State:       strings.TrimSpace(req.ShippingAddress.State),
			Pincode:     strings.TrimSpace(req.ShippingAddress.Pincode),
		},
		Billing: &domain.Billing{
			Subtotal:        subtotal,
			Discount:        b.Discount,
			Tax:             b.Tax,
			ShippingCharges: b.ShippingCharges,
			TotalAmount:     total,
		},
		Payment: &domain.Payment{
			ID:       uuid.NewString(),
			OrderID:  orderID,
			Amount:   total,
			Currency: currency,
			Method:   method,
			Status:   domain.PaymentCreated,
		},
	}, nil
}

func validAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && money.HasMinorPrecision(d)
}

// Timeline derives the tracking updates shown to the customer from the
// order's current state.
func Timeline(o *domain.Order) []TrackingUpdate {
	updates := []TrackingUpdate{{
		Status:      "Order Placed",
		Timestamp:   o.OrderDate,
		Description: "Your order has been placed successfully",
	}}

	switch o.Status {
	case domain.OrderConfirmed, domain.OrderShipped, domain.OrderDelivered, domain.OrderReturned:
		updates = append(updates, TrackingUpdate{"Order Confirmed", confirmedAt(o), "Your order has been confirmed"})
	}
	switch o.Status {
	case domain.OrderShipped, domain.OrderDelivered, domain.OrderReturned:
		updates = append(updates, TrackingUpdate{"Order Shipped", confirmedAt(o), "Your order has been shipped"})
	}
	if o.DeliveryDate != nil {
		updates = append(updates, TrackingUpdate{"Order Delivered", *o.DeliveryDate, "Your order has been delivered"})
	}

	switch o.Status {
	case domain.OrderCancelled:
		updates = append(updates, TrackingUpdate{"Order Cancelled", o.UpdatedAt, "Your order has been cancelled"})
	case domain.OrderReturned:
		updates = append(updates, TrackingUpdate{"Order Returned", o.UpdatedAt, "Your return request has been received"})
	}
	if p := o.Payment; p != nil && (p.Status == domain.PaymentRefunded || p.Status == domain.PaymentPartiallyRefunded) {
		updates = append(updates, TrackingUpdate{"Refund Initiated", p.UpdatedAt, "Your refund is being processed"})
	}
	return updates
}

// confirmedAt is the payment time when known, the order date otherwise.
func confirmedAt(o *domain.Order) time.Time {
	if o.Payment != nil && o.Payment.PaidAt != nil {
		return *o.Payment.PaidAt
	}
	return o.OrderDate
}
