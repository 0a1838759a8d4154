package order

import "storefront/internal/pkg/apperr"

var (
	ErrOrderNotFound     = apperr.NotFound("ORDER_NOT_FOUND", "Order not found")
	ErrForbidden         = apperr.Permission("ORDER_FORBIDDEN", "You do not have permission to access this order")
	ErrInvalidTotals     = apperr.Validation("INVALID_ORDER_TOTALS", "Order amounts are inconsistent")
	ErrInvalidStatus     = apperr.Validation("INVALID_STATUS", "Unknown status")
	ErrPaymentIDMismatch = apperr.Validation("PAYMENT_ID_MISMATCH", "paymentId does not belong to this order")
)
