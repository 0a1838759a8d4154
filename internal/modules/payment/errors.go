package payment

import "storefront/internal/pkg/apperr"

var (
	ErrPaymentNotFound     = apperr.NotFound("PAYMENT_NOT_FOUND", "Payment order not found")
	ErrOrderNotFound       = apperr.NotFound("ORDER_NOT_FOUND", "Order not found")
	ErrForbidden           = apperr.Permission("PAYMENT_FORBIDDEN", "You do not have permission to access this payment")
	ErrRefundRequiresAdmin = apperr.Permission("REFUND_REQUIRES_ADMIN", "Only cancelled or returned orders can be refunded by the customer")

	ErrInvalidSignature        = apperr.Validation("INVALID_SIGNATURE", "Invalid payment signature")
	ErrInvalidWebhookSignature = apperr.Validation("INVALID_WEBHOOK_SIGNATURE", "Invalid webhook signature")
	ErrInvalidAmount           = apperr.Validation("INVALID_AMOUNT", "Amount must be greater than zero")
	ErrFractionalAmount        = apperr.Validation("FRACTIONAL_MINOR_UNIT", "Amount must be a whole number of minor currency units")
	ErrUnsupportedCurrency     = apperr.Validation("UNSUPPORTED_CURRENCY", "Currency must be one of INR, USD, EUR")
	ErrAmountMismatch          = apperr.Validation("AMOUNT_MISMATCH", "Amount does not match the order total")
	ErrRefundExceedsPayment    = apperr.Validation("REFUND_EXCEEDS_PAYMENT", "Refund amount cannot exceed payment amount")
	ErrRefundExceedsRemaining  = apperr.Validation("REFUND_EXCEEDS_REMAINING", "Refund amount exceeds the amount not yet refunded")
	ErrMalformedWebhook        = apperr.Validation("MALFORMED_WEBHOOK", "Malformed webhook payload")

	ErrGatewayOrderExists   = apperr.Conflict("GATEWAY_ORDER_EXISTS", "A payment order already exists for this order")
	ErrPaymentAlreadyBound  = apperr.Conflict("PAYMENT_ALREADY_VERIFIED", "Order is already paid with a different payment")
	ErrOrderNotPayable      = apperr.State("ORDER_NOT_PAYABLE", "Order is not awaiting payment", "")
	ErrNoGatewayPayment     = apperr.State("NO_GATEWAY_PAYMENT", "Payment has no gateway payment to act on", "")
	ErrPaymentFullyRefunded = apperr.State("PAYMENT_FULLY_REFUNDED", "Payment has already been fully refunded", "")

	ErrNotConfigured = &apperr.Error{Kind: apperr.KindInternal, Code: "GATEWAY_NOT_CONFIGURED", Message: "Payment gateway is not configured"}
)

var supportedCurrencies = map[string]bool{"INR": true, "USD": true, "EUR": true}
