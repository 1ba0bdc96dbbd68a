package service

import (
	"context"
	"errors"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/auth"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
	apperrors "github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/pkg/util/errorutil"
)

// PasswordResetNotifier delivers password reset links.
type PasswordResetNotifier interface {
	SendPasswordReset(ctx context.Context, user *domain.User, token string) error
}

// AuthService coordinates registration, sign-in and account flows.
type AuthService struct {
	users        repository.UserRepository
	resets       repository.PasswordResetRepository
	revocations  repository.TokenRevocationRepository
	preferences  repository.PreferencesRepository
	notifier     PasswordResetNotifier
	tokenMgr     *auth.TokenManager
	logger       *zap.Logger
	bcryptCost   int
	resetTTL     time.Duration
	allowSupport bool
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	RevocationRepo    repository.TokenRevocationRepository
	PreferencesRepo   repository.PreferencesRepository
	Notifier          PasswordResetNotifier
	Logger            *zap.Logger
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	FirstName      string
	LastName       string
	NationalID     string
	Extension      string
	Department     string
	Role           string
	Email          string
	AlternateEmail string
	Password       string
}

// ProfileUpdate carries the profile fields to change. Nil fields are left alone.
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	NationalID     *string
	Extension      *string
	Department     *string
	Email          *string
	AlternateEmail *string
}

// Session is a signed-in user with its access token.
type Session struct {
	User        *domain.User
	AccessToken string
	Token       *domain.Token
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:        deps.UserRepo,
		resets:       deps.PasswordResetRepo,
		revocations:  deps.RevocationRepo,
		preferences:  deps.PreferencesRepo,
		notifier:     deps.Notifier,
		tokenMgr:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		logger:       logger,
		bcryptCost:   cfg.BcryptCost,
		resetTTL:     time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		allowSupport: cfg.AllowSupportSignup,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = domain.NormalizeEmail(input.Email)

	var missing []string
	for name, value := range map[string]string{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"email":      input.Email,
		"password":   input.Password,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, apperrors.NewValidationError("please complete all required fields", map[string]any{"missing": missing})
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	role := domain.UserRoleAdministrative
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := domain.ParseUserRole(input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
		}
		role = parsed
	}
	if role == domain.UserRoleSupport && !s.allowSupport {
		return nil, apperrors.NewForbidden("support accounts cannot be self-registered")
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, mapRepoError("account lookup", "user", err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		NationalID:     strings.TrimSpace(input.NationalID),
		Extension:      strings.TrimSpace(input.Extension),
		Department:     strings.TrimSpace(input.Department),
		Role:           role,
		Email:          input.Email,
		AlternateEmail: domain.NormalizeEmail(input.AlternateEmail),
		PasswordHash:   hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, mapRepoError("account creation", "user", err)
	}
	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, mapRepoError("account lookup", "user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	signed, token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, AccessToken: signed, Token: token}, nil
}

// Logout revokes the access token until it expires.
func (s *AuthService) Logout(ctx context.Context, token *domain.Token) error {
	if s.revocations == nil || token == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return apperrors.NewUnavailable("sign out", err)
	}
	return nil
}

// RequestPasswordReset stores a single-use token and sends it by email.
// Unknown addresses succeed silently so accounts cannot be enumerated.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return mapRepoError("account lookup", "user", err)
	}

	token := uuid.NewString()
	if err := s.resets.Create(ctx, token, user.ID, s.resetTTL); err != nil {
		return apperrors.NewUnavailable("password reset", err)
	}
	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
			return apperrors.NewUnavailable("password reset email", err)
		}
	}
	return nil
}

// ConfirmPasswordReset consumes the token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.NewValidationError("reset token is required", nil)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("reset token is invalid or expired", nil)
		}
		return apperrors.NewUnavailable("password reset", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapRepoError("account lookup", "user", err)
	}
	return s.setPassword(ctx, user, newPassword)
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapRepoError("account lookup", "user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError("password update", "user", err)
	}
	return nil
}

// CurrentUser loads the signed-in account.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError("account lookup", "user", err)
	}
	return user, nil
}

// UpdateProfile changes profile fields. A new email must not belong to another account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError("account lookup", "user", err)
	}

	if update.Email != nil {
		email := domain.NormalizeEmail(*update.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			existing, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, apperrors.NewConflict("email already registered", nil)
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, mapRepoError("account lookup", "user", err)
			}
			user.Email = email
		}
	}
	applyTrimmed(&user.FirstName, update.FirstName)
	applyTrimmed(&user.LastName, update.LastName)
	applyTrimmed(&user.NationalID, update.NationalID)
	applyTrimmed(&user.Extension, update.Extension)
	applyTrimmed(&user.Department, update.Department)
	if update.AlternateEmail != nil {
		user.AlternateEmail = domain.NormalizeEmail(*update.AlternateEmail)
	}
	if user.FirstName == "" || user.LastName == "" {
		return nil, apperrors.NewValidationError("name cannot be empty", nil)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, mapRepoError("profile update", "user", err)
	}
	return user, nil
}

// DeleteAccount removes the account and its preferences and revokes the current token.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string, token *domain.Token) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return mapRepoError("account deletion", "user", err)
	}
	if s.preferences != nil {
		if err := s.preferences.Delete(ctx, userID); err != nil {
			s.logger.Warn("preferences cleanup failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if err := s.Logout(ctx, token); err != nil {
		s.logger.Warn("token revocation failed after account deletion", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

func applyTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("invalid email address", map[string]any{"email": email})
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password is too weak", map[string]any{"min_length": auth.MinPasswordLength})
	}
	return nil
}
