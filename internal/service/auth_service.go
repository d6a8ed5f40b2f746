package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/care-scheduling-service/internal/auth"
	"github.com/spec-kit/care-scheduling-service/internal/config"
	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/validation"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// TokenPair bundles issued credentials.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginContext carries request facts recorded in the login audit trail.
type LoginContext struct {
	SourceIP  string
	UserAgent string
}

// AuthService coordinates registration, login and token refresh flows.
type AuthService struct {
	users      repository.UserRepository
	refresh    repository.RefreshTokenRepository
	attempts   repository.LoginAttemptRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	LoginAttemptRepo repository.LoginAttemptRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		refresh:    deps.RefreshTokenRepo,
		attempts:   deps.LoginAttemptRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMin, cfg.Auth.RefreshTokenTTLHours),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new principal account.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	fieldErrs := validation.FieldErrors{}
	if !validation.ValidName(name) {
		fieldErrs.Add("name", "must be 2-150 letters")
	}
	if !validation.ValidEmail(email) {
		fieldErrs.Add("email", "invalid email format")
	}
	if len(password) < 8 {
		fieldErrs.Add("password", "must have at least 8 characters")
	}
	if !domain.ValidRole(role) {
		fieldErrs.Add("role", "unknown role")
	}
	if !fieldErrs.Empty() {
		return nil, apperrors.NewValidationError("invalid registration payload", fieldErrs.Details())
	}

	email = validation.NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         validation.CollapseSpaces(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a principal and issues an access/refresh token pair.
// Every attempt is recorded regardless of outcome.
func (s *AuthService) Login(ctx context.Context, email, password string, loginCtx LoginContext) (*domain.User, *TokenPair, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.recordAttempt(ctx, email, loginCtx, false, "unknown email")
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !user.Active {
		s.recordAttempt(ctx, email, loginCtx, false, "account disabled")
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordAttempt(ctx, email, loginCtx, false, "wrong password")
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.recordAttempt(ctx, email, loginCtx, true, "")
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// refresh token so a replayed old token is rejected.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*domain.User, *TokenPair, error) {
	stored, err := s.refresh.GetByHash(ctx, auth.HashRefreshToken(rawRefreshToken))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, nil, err
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, nil, apperrors.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, apperrors.NewUnauthorized("account disabled")
	}

	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	rawRefresh, refreshHash, refreshExp, err := s.tokenMgr.GenerateRefreshToken()
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.refresh.Rotate(ctx, stored.ID, user.ID, refreshHash, refreshExp); err != nil {
		return nil, nil, err
	}

	return user, &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rawRefresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes every refresh token held by the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.refresh.RevokeAllForUser(ctx, userID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	rawRefresh, refreshHash, refreshExp, err := s.tokenMgr.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if _, err := s.refresh.Create(ctx, user.ID, refreshHash, refreshExp); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rawRefresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) recordAttempt(ctx context.Context, email string, loginCtx LoginContext, success bool, reason string) {
	if s.attempts == nil {
		return
	}
	// best effort: auditing must not break login
	_ = s.attempts.Record(ctx, &domain.LoginAttempt{
		Email:         email,
		SourceIP:      loginCtx.SourceIP,
		UserAgent:     loginCtx.UserAgent,
		Success:       success,
		FailureReason: reason,
	})
}
