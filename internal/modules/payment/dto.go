package payment

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type CustomerDetails struct {
	Name  string `json:"name" binding:"required,max=255" example:"Asha Rao"`
	Email string `json:"email" binding:"required,email,max=254" example:"asha@example.com"`
	Phone string `json:"phone" binding:"required,max=20" example:"+919800000000"`
}

type CreateOrderRequest struct {
	OrderID         string          `json:"orderId" binding:"required" example:"0b5c8a0e-7d4f-4a4e-9a51-0f1f3c1d2e3f"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"2129.98"`
	Currency        string          `json:"currency" binding:"required" example:"INR"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
}

// GatewayOrderRef is what the checkout widget needs to collect the payment.
type GatewayOrderRef struct {
	OrderID         string          `json:"orderId"`
	GatewayOrderID  string          `json:"gatewayOrderId"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string"`
	AmountMinor     int64           `json:"amountMinor"`
	Currency        string          `json:"currency"`
	KeyID           string          `json:"keyId"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
}

type VerifyRequest struct {
	OrderID          string `json:"orderId" binding:"required"`
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	GatewaySignature string `json:"gateway_signature" binding:"required"`
}

type VerifyResponse struct {
	OrderID     string               `json:"orderId"`
	PaymentID   string               `json:"paymentId"`
	Status      domain.PaymentStatus `json:"status"`
	OrderStatus domain.OrderStatus   `json:"orderStatus"`
}

type CaptureRequest struct {
	OrderID          string          `json:"orderId" binding:"required"`
	GatewayPaymentID string          `json:"gateway_payment_id" binding:"required"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"string"`
}

type CaptureResponse struct {
	OrderID        string               `json:"orderId"`
	PaymentID      string               `json:"paymentId"`
	CapturedAmount decimal.Decimal      `json:"capturedAmount" swaggertype:"string"`
	GatewayStatus  string               `json:"gatewayStatus"`
	Status         domain.PaymentStatus `json:"status"`
}

// RefundRequest refunds the remaining balance when Amount is omitted.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount" swaggertype:"string"`
	Reason string           `json:"reason" binding:"max=500"`
}

type RefundResponse struct {
	OrderID       string               `json:"orderId"`
	PaymentID     string               `json:"paymentId"`
	RefundID      string               `json:"refundId"`
	RefundAmount  decimal.Decimal      `json:"refundAmount" swaggertype:"string"`
	RefundedTotal decimal.Decimal      `json:"refundedTotal" swaggertype:"string"`
	Status        domain.PaymentStatus `json:"status"`
}

// webhookEvent is the part of a Razorpay webhook body the reconciler reads.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity GatewayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
