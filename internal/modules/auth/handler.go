package auth

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/pkg/response"
	"storefront/internal/pkg/utils"
	"storefront/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the credential endpoints. limiter guards the
// endpoints that accept passwords or refresh tokens.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, limiter gin.HandlerFunc) {
	v1.POST("/register", limiter, h.Register)
	v1.POST("/login", limiter, h.Login)
	v1.POST("/refresh-token", limiter, h.Refresh)
	v1.POST("/logout", h.Logout)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/me", h.GetMe)
	protected.PUT("/me", h.UpdateProfile)
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	users := admin.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.PUT("/:id/active", h.SetActive)
		users.PUT("/:id/role", middleware.SuperAdminOnly(), h.SetRole)
	}
}

// Register creates a common user account and logs it in.
// @Summary		Register
// @Tags		Auth
// @Param		request	body	RegisterRequest	true	"username, email, password"
// @Success		201	{object}	response.Envelope	"login payload"
// @Failure		400	{object}	response.Envelope	"validation error"
// @Failure		409	{object}	response.Envelope	"username or email taken"
// @Router		/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Registered successfully", toLoginResponse(res))
}

// Login issues an access and refresh token pair.
// @Summary		Login
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"username, password"
// @Success		200	{object}	response.Envelope	"access_token, refresh_token, expires_in"
// @Failure		401	{object}	response.Envelope	"invalid credentials or inactive account"
// @Router		/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Login successful", toLoginResponse(res))
}

// Refresh exchanges a refresh token for a new access token.
// @Summary		Refresh access token
// @Tags		Auth
// @Param		request	body	RefreshRequest	true	"refresh_token"
// @Success		200	{object}	response.Envelope	"access_token, expires_in"
// @Failure		401	{object}	response.Envelope	"invalid, expired or revoked refresh token"
// @Router		/refresh-token [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, ErrInvalidRefreshToken)
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Token refreshed", res)
}

// Logout deactivates the given refresh token. It always succeeds.
// @Summary		Logout
// @Tags		Auth
// @Param		request	body	LogoutRequest	false	"refresh_token"
// @Success		200	{object}	response.Envelope
// @Router		/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	h.service.Logout(c.Request.Context(), middleware.IdentityFrom(c), req.RefreshToken)
	response.Success(c, http.StatusOK, "Logged out", nil)
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Profile", toUserPublic(user))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.IdentityFrom(c).UserID, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Profile updated", toUserPublic(user))
}

// ListUsers returns users ordered by id.
// @Summary		List users
// @Tags		Admin
// @Security	BearerAuth
// @Param		limit	query	int	false	"page size (default 20, max 100)"
// @Param		offset	query	int	false	"offset"
// @Success		200	{object}	response.Envelope	"users, total"
// @Router		/admin/users [GET]
func (h *Handler) ListUsers(c *gin.Context) {
	limit, offset := utils.Page(c)

	users, total, err := h.service.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}

	out := make([]UserPublic, 0, len(users))
	for i := range users {
		out = append(out, toUserPublic(&users[i]))
	}
	response.Success(c, http.StatusOK, "Users", UserListResponse{Users: out, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) SetActive(c *gin.Context) {
	id, err := utils.Int64Param(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req SetActiveRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.service.SetActive(c.Request.Context(), middleware.IdentityFrom(c), id, *req.IsActive)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User updated", toUserPublic(user))
}

func (h *Handler) SetRole(c *gin.Context) {
	id, err := utils.Int64Param(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req SetRoleRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.service.SetRole(c.Request.Context(), middleware.IdentityFrom(c), id, req.Role)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Role updated", toUserPublic(user))
}

func toLoginResponse(res *LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		User:         toUserPublic(res.User),
	}
}
