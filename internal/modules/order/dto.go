package order

import (
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	Items           []ItemInput  `json:"items" binding:"required,min=1,max=100,dive"`
	ShippingAddress AddressInput `json:"shipping_address"`
	Billing         BillingInput `json:"billing"`
	Payment         PaymentInput `json:"payment"`
}

// ItemInput is one order line. TotalPrice is optional; when present it
// must match quantity * price.
type ItemInput struct {
	ProductID  int64            `json:"product_id" binding:"required,gt=0"`
	Name       string           `json:"name" binding:"required,max=255"`
	Quantity   int              `json:"quantity" binding:"required,gt=0,lte=1000"`
	Price      decimal.Decimal  `json:"price"`
	TotalPrice *decimal.Decimal `json:"total_price"`
}

type AddressInput struct {
	FullAddress string `json:"full_address" binding:"required"`
	City        string `json:"city" binding:"required,max=100"`
	State       string `json:"state" binding:"required,max=100"`
	Pincode     string `json:"pincode" binding:"required,max=10"`
}

// BillingInput carries the charges. Subtotal and TotalAmount are derived;
// when supplied they must agree with the derived values.
type BillingInput struct {
	Subtotal        *decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal  `json:"discount"`
	Tax             decimal.Decimal  `json:"tax"`
	ShippingCharges decimal.Decimal  `json:"shipping_charges"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
}

type PaymentInput struct {
	Method   string `json:"method" binding:"omitempty,oneof=razorpay cod wallet"`
	Currency string `json:"currency" binding:"omitempty,oneof=INR USD EUR"`
}

type ReturnRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type UpdatePaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Method    string `json:"method" binding:"omitempty,oneof=razorpay cod wallet"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TrackingUpdate struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

type Tracking struct {
	OrderID      string               `json:"order_id"`
	Status       domain.OrderStatus   `json:"status"`
	OrderDate    time.Time            `json:"order_date"`
	DeliveryDate *time.Time           `json:"delivery_date"`
	Payment      domain.PaymentStatus `json:"payment_status,omitempty"`
	Updates      []TrackingUpdate     `json:"tracking_updates"`
}

type ReturnResponse struct {
	Order      *domain.Order `json:"order"`
	Reason     string        `json:"reason"`
	ReturnDate time.Time     `json:"return_date"`
}

type OrderListResponse struct {
	Orders []domain.Order `json:"orders"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
