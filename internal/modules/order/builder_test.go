package order

import (
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Items: []ItemInput{
			{ProductID: 1, Name: "Headphones", Quantity: 2, Price: dec("999.99")},
		},
		ShippingAddress: AddressInput{
			FullAddress: "12 MG Road",
			City:        "Bengaluru",
			State:       "KA",
			Pincode:     "560001",
		},
		Billing: BillingInput{
			Discount:        dec("100.00"),
			Tax:             dec("180.00"),
			ShippingCharges: dec("50.00"),
		},
	}
}

func TestBuildOrder_BillingIsExact(t *testing.T) {
	req := sampleRequest()
	req.Billing.Subtotal = decPtr("1999.98")
	req.Billing.TotalAmount = decPtr("2129.98")

	o, err := BuildOrder(7, req, time.Now())
	require.NoError(t, err)

	assert.True(t, o.Billing.Subtotal.Equal(dec("1999.98")))
	assert.True(t, o.Billing.TotalAmount.Equal(dec("2129.98")), o.Billing.TotalAmount.String())
	assert.Equal(t, "2129.98", o.Billing.TotalAmount.StringFixed(2))
	assert.True(t, o.Items[0].TotalPrice.Equal(dec("1999.98")))
}

func TestBuildOrder_Defaults(t *testing.T) {
	o, err := BuildOrder(7, sampleRequest(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, int64(7), o.UserID)
	assert.NotEmpty(t, o.ID)
	require.NotNil(t, o.Payment)
	assert.Equal(t, domain.PaymentCreated, o.Payment.Status)
	assert.Equal(t, domain.MethodRazorpay, o.Payment.Method)
	assert.Equal(t, "INR", o.Payment.Currency)
	assert.Equal(t, o.ID, o.Payment.OrderID)
	assert.True(t, o.Payment.Amount.Equal(o.Billing.TotalAmount))
}

func TestBuildOrder_IDsAreUnique(t *testing.T) {
	a, err := BuildOrder(1, sampleRequest(), time.Now())
	require.NoError(t, err)
	b, err := BuildOrder(1, sampleRequest(), time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Payment.ID, b.Payment.ID)
}

func TestBuildOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateOrderRequest)
		field  string
		rule   string
	}{
		{"line total mismatch", func(r *CreateOrderRequest) { r.Items[0].TotalPrice = decPtr("1999.99") }, "items[0].total_price", "mismatch"},
		{"negative price", func(r *CreateOrderRequest) { r.Items[0].Price = dec("-1") }, "items[0].price", "invalid"},
		{"sub-paise price", func(r *CreateOrderRequest) { r.Items[0].Price = dec("9.999") }, "items[0].price", "invalid"},
		{"subtotal mismatch", func(r *CreateOrderRequest) { r.Billing.Subtotal = decPtr("2000") }, "billing.subtotal", "mismatch"},
		{"total mismatch", func(r *CreateOrderRequest) { r.Billing.TotalAmount = decPtr("2129.97") }, "billing.total_amount", "mismatch"},
		{"negative discount", func(r *CreateOrderRequest) { r.Billing.Discount = dec("-5") }, "billing.discount", "invalid"},
		{"discount exceeds order", func(r *CreateOrderRequest) { r.Billing.Discount = dec("5000") }, "billing.total_amount", "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest()
			tt.mutate(&req)

			_, err := BuildOrder(1, req, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTotals)
			e := apperr.From(err)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tt.rule, e.Fields[tt.field])
		})
	}
}

func TestTimeline(t *testing.T) {
	placed := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	delivered := placed.Add(72 * time.Hour)

	o := &domain.Order{Status: domain.OrderPending, OrderDate: placed}
	assert.Len(t, Timeline(o), 1)

	o.Status = domain.OrderDelivered
	o.DeliveryDate = &delivered
	updates := Timeline(o)
	require.Len(t, updates, 4)
	assert.Equal(t, "Order Delivered", updates[3].Status)
	assert.Equal(t, delivered, updates[3].Timestamp)

	o = &domain.Order{Status: domain.OrderCancelled, OrderDate: placed, Payment: &domain.Payment{Status: domain.PaymentRefunded}}
	updates = Timeline(o)
	assert.Equal(t, "Order Cancelled", updates[1].Status)
	assert.Equal(t, "Refund Initiated", updates[2].Status)
}
