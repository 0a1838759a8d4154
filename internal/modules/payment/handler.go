package payment

import (
	"io"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/response"
	"storefront/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

var ErrWebhookBody = apperr.Validation("WEBHOOK_BODY_UNREADABLE", "Webhook body could not be read")

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	payments := protected.Group("/payments")
	{
		payments.POST("/create-order", h.CreateOrder)
		payments.POST("/verify", h.Verify)
		payments.POST("/capture", h.Capture)
		payments.POST("/:id/refund", h.Refund)
		payments.GET("/:id/status", h.Status)
	}
}

func (h *Handler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.POST("/payments/webhook", h.Webhook)
}

// CreateOrder godoc
// @Summary      Create gateway order
// @Description  Opens the Razorpay order for a domain order. One per order.
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateOrderRequest true "orderId, amount, currency, customerDetails"
// @Success      201 {object} response.Envelope "GatewayOrderRef"
// @Failure      400 {object} response.Envelope
// @Failure      409 {object} response.Envelope "gateway order already exists"
// @Failure      502 {object} response.Envelope "gateway unavailable, retryable"
// @Router       /payments/create-order [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	ref, err := h.service.CreateGatewayOrder(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Payment order created", ref)
}

// Verify godoc
// @Summary      Verify payment signature
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body VerifyRequest true "gateway ids and signature"
// @Success      200 {object} response.Envelope "VerifyResponse"
// @Failure      400 {object} response.Envelope "invalid signature"
// @Router       /payments/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	res, err := h.service.Verify(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payment verified successfully", res)
}

func (h *Handler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	res, err := h.service.Capture(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payment captured successfully", res)
}

// Refund godoc
// @Summary      Refund payment
// @Description  Refunds the given amount, or the remaining balance when omitted.
// @Tags         Payments
// @Security     BearerAuth
// @Param        id   path string        true "payment id"
// @Param        body body RefundRequest false "amount, reason"
// @Success      200 {object} response.Envelope "RefundResponse"
// @Failure      400 {object} response.Envelope
// @Router       /payments/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	var req RefundRequest
	if c.Request.ContentLength != 0 {
		if err := validator.BindJSON(c, &req); err != nil {
			response.Fail(c, err)
			return
		}
	}
	res, err := h.service.Refund(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Refund processed successfully", res)
}

func (h *Handler) Status(c *gin.Context) {
	p, err := h.service.Status(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payment status", p)
}

// Webhook godoc
// @Summary      Razorpay webhook
// @Description  Verifies X-Razorpay-Signature over the raw body and applies payment events
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature header string true "HMAC-SHA256 of the body"
// @Success      200 {object} response.Envelope
// @Failure      400 {object} response.Envelope "invalid signature"
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Fail(c, ErrWebhookBody.Wrap(err))
		return
	}
	if err := h.service.HandleWebhook(c.Request.Context(), raw, c.GetHeader("X-Razorpay-Signature")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Webhook processed", nil)
}
