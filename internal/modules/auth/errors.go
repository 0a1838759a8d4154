package auth

import "storefront/internal/pkg/apperr"

var (
	ErrInvalidCredentials  = apperr.Auth("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountInactive     = apperr.Auth("ACCOUNT_INACTIVE", "User account is disabled")
	ErrInvalidRefreshToken = apperr.Auth("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
	ErrUsernameExists      = apperr.Conflict("USERNAME_EXISTS", "Username is already taken")
	ErrEmailExists         = apperr.Conflict("EMAIL_EXISTS", "Email is already registered")
	ErrUserNotFound        = apperr.NotFound("USER_NOT_FOUND", "User not found")
	ErrInvalidRole         = apperr.Validation("INVALID_ROLE", "Role must be one of common, admin, superadmin")
	ErrSelfRoleChange      = apperr.Permission("SELF_ROLE_CHANGE", "You cannot change your own role")
	ErrSelfDeactivate      = apperr.Permission("SELF_DEACTIVATE", "You cannot deactivate your own account")
)
