package order

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/pkg/response"
	"storefront/internal/pkg/utils"
	"storefront/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	orders := protected.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.ListMine)
		orders.GET("/:id", h.Get)
		orders.GET("/:id/track", h.Track)
		orders.PUT("/:id/cancel", h.Cancel)
		orders.POST("/:id/return", h.Return)
		orders.PUT("/:id/payment", middleware.AdminOnly(), h.UpdatePayment)
	}
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/orders", h.AdminList)
	admin.PUT("/orders/:id/status", h.AdminSetStatus)
}

// Create places an order with its items, shipping address, billing and payment.
// @Summary		Create order
// @Tags		Orders
// @Security	BearerAuth
// @Param		request	body	CreateOrderRequest	true	"items, shipping_address, billing, payment"
// @Success		201	{object}	response.Envelope	"created order"
// @Failure		400	{object}	response.Envelope	"validation error with field detail"
// @Router		/orders [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Order created successfully", o)
}

func (h *Handler) ListMine(c *gin.Context) {
	orders, err := h.service.ListMine(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	response.Success(c, http.StatusOK, "Orders", orders)
}

func (h *Handler) Get(c *gin.Context) {
	o, err := h.service.Get(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Order", o)
}

func (h *Handler) Track(c *gin.Context) {
	t, err := h.service.Track(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Order tracking", t)
}

// Cancel cancels an order that has not been delivered yet.
// @Summary		Cancel order
// @Tags		Orders
// @Security	BearerAuth
// @Param		id	path	string	true	"order id"
// @Success		200	{object}	response.Envelope	"updated order"
// @Failure		400	{object}	response.Envelope	"order is delivered, cancelled or returned; payload.current_status"
// @Router		/orders/{id}/cancel [PUT]
func (h *Handler) Cancel(c *gin.Context) {
	o, err := h.service.Cancel(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Order cancelled successfully", o)
}

// Return requests a return for a delivered order.
// @Summary		Return order
// @Tags		Orders
// @Security	BearerAuth
// @Param		id		path	string			true	"order id"
// @Param		request	body	ReturnRequest	true	"reason"
// @Success		200	{object}	response.Envelope
// @Failure		400	{object}	response.Envelope	"order is not delivered"
// @Router		/orders/{id}/return [POST]
func (h *Handler) Return(c *gin.Context) {
	var req ReturnRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	o, err := h.service.Return(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Return request submitted successfully", ReturnResponse{
		Order:      o,
		Reason:     req.Reason,
		ReturnDate: o.UpdatedAt,
	})
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	o, err := h.service.UpdatePayment(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payment updated successfully", o)
}

func (h *Handler) AdminList(c *gin.Context) {
	limit, offset := utils.Page(c)
	orders, total, err := h.service.AdminList(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	response.Success(c, http.StatusOK, "Orders", OrderListResponse{Orders: orders, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) AdminSetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	o, err := h.service.AdminSetStatus(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Order status updated", o)
}
