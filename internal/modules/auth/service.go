package auth

import (
	"context"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Service contains the credential and user management logic.
type Service struct {
	users  UserRepository
	tokens *TokenManager
	log    zerolog.Logger
}

type LoginResult struct {
	User      *domain.User
	Tokens    *TokenPair
	ExpiresIn int64
}

func NewService(users UserRepository, tokens *TokenManager, log zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

func (s *Service) Tokens() *TokenManager { return s.tokens }

// Register creates an active common user and logs them in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	user, err := s.CreateUser(ctx, NewUser{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Mobile:    req.Mobile,
		Role:      domain.RoleCommon,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Mobile    string
	Role      domain.Role
}

// CreateUser stores an active user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*domain.User, error) {
	if _, ok := domain.ParseRole(string(in.Role)); !ok {
		return nil, ErrInvalidRole
	}
	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Mobile:       strings.TrimSpace(in.Mobile),
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if repository.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		return nil, apperr.Internal(err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

// Login checks credentials and issues a new token pair. Every login creates
// a new refresh token row.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *domain.User) (*LoginResult, error) {
	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: pair, ExpiresIn: s.tokens.ExpiresIn()}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	grant, err := s.tokens.RotateAccess(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: grant.AccessToken, ExpiresIn: s.tokens.ExpiresIn()}, nil
}

// Logout revokes the refresh token. Failures are logged and swallowed so
// the caller always gets a successful response.
func (s *Service) Logout(ctx context.Context, caller domain.Identity, refreshToken string) {
	if err := s.tokens.Revoke(ctx, caller.UserID, refreshToken); err != nil {
		s.log.Warn().Err(err).Int64("user_id", caller.UserID).Msg("logout: revoke failed")
	}
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.getUser(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && !strings.EqualFold(strings.TrimSpace(*req.Email), user.Email) {
		exists, err := s.users.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if exists {
			return nil, ErrEmailExists
		}
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Mobile != nil {
		user.Mobile = strings.TrimSpace(*req.Mobile)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}

// SetActive toggles a user's activation flag. Deactivation also revokes all
// of the user's refresh tokens; access tokens already issued run out on
// their own.
func (s *Service) SetActive(ctx context.Context, actor domain.Identity, userID int64, active bool) (*domain.User, error) {
	if !active && actor.UserID == userID {
		return nil, ErrSelfDeactivate
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}

	if !active {
		n, err := s.tokens.RevokeAll(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.log.Info().Int64("user_id", userID).Int64("actor_id", actor.UserID).Int64("revoked", n).Msg("user deactivated")
	}
	return s.getUser(ctx, userID)
}

func (s *Service) SetRole(ctx context.Context, actor domain.Identity, userID int64, raw string) (*domain.User, error) {
	role, ok := domain.ParseRole(raw)
	if !ok {
		return nil, ErrInvalidRole
	}
	if actor.UserID == userID {
		return nil, ErrSelfRoleChange
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	s.log.Info().Int64("user_id", userID).Int64("actor_id", actor.UserID).Str("role", raw).Msg("role changed")
	return s.getUser(ctx, userID)
}

func (s *Service) getUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *Service) ensureUnique(ctx context.Context, username, email string) error {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return apperr.Internal(err)
	}
	if exists {
		return ErrUsernameExists
	}
	exists, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return apperr.Internal(err)
	}
	if exists {
		return ErrEmailExists
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
