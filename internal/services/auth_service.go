package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"elibrary/internal/apperror"
	"elibrary/internal/models"
	"elibrary/internal/repositories"
	"elibrary/pkg/otp"
	"elibrary/pkg/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Messages returned on success by the registration flow.
const (
	MsgVerificationSent = "verification code sent"
	MsgEmailVerified    = "email verified"
	MsgAlreadyVerified  = "already verified"
)

// MsgInvalidCredentials is the only message a caller sees for an unknown
// identity or a wrong password.
const MsgInvalidCredentials = "invalid credentials"

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
}

// AuthService handles registration, email verification and login.
type AuthService struct {
	users         repositories.UserRepository
	verifications repositories.VerificationRepository
	notifier      Notifier
	tokens        *TokenService
	otpTTL        time.Duration
	now           func() time.Time
	newCode       func() (string, error)
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repositories.UserRepository,
	verifications repositories.VerificationRepository,
	notifier Notifier,
	tokens *TokenService,
	otpTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		verifications: verifications,
		notifier:      notifier,
		tokens:        tokens,
		otpTTL:        otpTTL,
		now:           time.Now,
		newCode:       otp.NewCode,
	}
}

// WithClock replaces the clock.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// WithCodeGenerator replaces the one-time code generator.
func (s *AuthService) WithCodeGenerator(gen func() (string, error)) *AuthService {
	s.newCode = gen
	return s
}

// Register creates an unverified user and emails a verification code.
// The user and the code are persisted before the email is attempted.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = normalizeIdentity(username)
	email = normalizeIdentity(email)
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.Validation("username/email/password required")
	}
	if ok, reason := security.IsStrong(password); !ok {
		return nil, apperror.Validation(reason)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to check existing user")
		return nil, apperror.Dependency("registration is temporarily unavailable", err)
	}
	if exists {
		return nil, apperror.Conflict("user exists", nil)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, apperror.Internal("failed to generate verification code", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Role:          models.RoleUser,
		EmailVerified: false,
		CreatedAt:     now,
	}
	verification := s.newVerification(user.ID, code, now)

	if err := s.users.CreatePending(ctx, user, verification); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Conflict("user exists", err)
		}
		log.Error().Err(err).Str("username", username).Msg("failed to persist registration")
		return nil, apperror.Dependency("registration is temporarily unavailable", err)
	}

	if err := s.sendCode(ctx, user.Email, code); err != nil {
		return user, err
	}
	log.Info().Str("user_id", user.ID).Msg("user registered, verification pending")
	return user, nil
}

// ConfirmEmail consumes the latest verification code for email and activates
// the account. Confirming an already active account is a no-op.
func (s *AuthService) ConfirmEmail(ctx context.Context, email, rawCode string) (string, error) {
	email = normalizeIdentity(email)
	code := normalizeCode(rawCode)
	if email == "" || len(code) != otp.Length {
		return "", apperror.Validation("invalid code")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.Validation("invalid email")
		}
		log.Error().Err(err).Str("email", email).Msg("failed to look up user for confirmation")
		return "", apperror.Dependency("verification is temporarily unavailable", err)
	}
	if user.EmailVerified {
		return MsgAlreadyVerified, nil
	}

	verification, err := s.verifications.Latest(ctx, user.ID, models.PurposeConfirmEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperror.State("no code found", nil)
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to load verification")
		return "", apperror.Dependency("verification is temporarily unavailable", err)
	}
	if verification.IsExpired(s.now()) {
		return "", apperror.State("code expired", nil)
	}

	if subtle.ConstantTimeCompare([]byte(otp.Hash(code)), []byte(verification.CodeHash)) != 1 {
		if err := s.verifications.IncrementAttempts(ctx, verification.ID); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record verification attempt")
		}
		return "", apperror.Validation("invalid code")
	}

	if err := s.verifications.Consume(ctx, verification); err != nil {
		if errors.Is(err, repositories.ErrAlreadyVerified) {
			return MsgAlreadyVerified, nil
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to consume verification")
		return "", apperror.Dependency("verification is temporarily unavailable", err)
	}

	log.Info().Str("user_id", user.ID).Msg("email verified")
	return MsgEmailVerified, nil
}

// ResendVerification issues a fresh code that supersedes earlier ones. An
// unknown email gets the same answer as a known one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = normalizeIdentity(email)
	if email == "" {
		return "", apperror.Validation("email required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Debug().Str("email", email).Msg("resend requested for unknown email")
			return MsgVerificationSent, nil
		}
		log.Error().Err(err).Str("email", email).Msg("failed to look up user for resend")
		return "", apperror.Dependency("verification is temporarily unavailable", err)
	}
	if user.EmailVerified {
		return MsgAlreadyVerified, nil
	}

	code, err := s.newCode()
	if err != nil {
		return "", apperror.Internal("failed to generate verification code", err)
	}
	verification := s.newVerification(user.ID, code, s.now().UTC())
	if err := s.verifications.Create(ctx, verification); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to persist verification")
		return "", apperror.Dependency("verification is temporarily unavailable", err)
	}

	if err := s.sendCode(ctx, user.Email, code); err != nil {
		return "", err
	}
	return MsgVerificationSent, nil
}

// Login authenticates by username or email and issues an access token.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*LoginResult, error) {
	key := normalizeIdentity(usernameOrEmail)
	if key == "" || password == "" {
		return nil, apperror.Validation("username/email and password required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Info().Str("login", key).Msg("login failed: unknown user")
			return nil, apperror.Authentication(MsgInvalidCredentials)
		}
		log.Error().Err(err).Str("login", key).Msg("failed to look up user for login")
		return nil, apperror.Dependency("login is temporarily unavailable", err)
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		log.Info().Str("user_id", user.ID).Msg("login failed: wrong password")
		return nil, apperror.Authentication(MsgInvalidCredentials)
	}
	if !user.EmailVerified {
		return nil, apperror.EmailNotVerified("please confirm your email before logging in")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

func (s *AuthService) newVerification(userID, code string, now time.Time) *models.EmailVerification {
	return &models.EmailVerification{
		ID:        uuid.New().String(),
		UserID:    userID,
		CodeHash:  otp.Hash(code),
		Purpose:   models.PurposeConfirmEmail,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
}

func (s *AuthService) sendCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf("Your code is %s (expires in %d minutes).", code, int(s.otpTTL.Minutes()))
	if err := s.notifier.Send(ctx, to, "eLibrary verification code", body); err != nil {
		log.Error().Err(err).Str("email", to).Msg("failed to send verification code")
		return apperror.Dependency("verification code could not be sent, request a new code", err)
	}
	return nil
}

func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeCode keeps only ASCII digits, dropping separators, whitespace and
// invisible characters picked up by copy and paste.
func normalizeCode(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}
