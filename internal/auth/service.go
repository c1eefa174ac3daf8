package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// resetTokenTTL is how long a password-reset token stays valid.
const resetTokenTTL = 10 * time.Minute

// UserStore is the slice of user persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*user.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, hash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error
}

// EmailService defines the interface for out-of-band notifications.
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
}

// SignupInput is the write-time shape of a signup request. PasswordConfirm
// is checked once and never persisted.
type SignupInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Service handles authentication business logic
type Service struct {
	users         UserStore
	tokens        TokenService
	emails        EmailService
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewService(users UserStore, tokens TokenService, emails EmailService, logger *logging.Logger, tokenDuration time.Duration) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		emails:        emails,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// Signup creates a new account with the plain user role and returns the
// created record with a fresh session token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*user.User, string, error) {
	if err := validateSignup(in); err != nil {
		return nil, "", err
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &user.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: passwordHash,
		Role:         user.RoleUser,
		Active:       true,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", apperror.Duplicate("email address already in use")
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.CreateToken(newUser.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	// Welcome email is best-effort and must not block signup
	go func() {
		if err := s.emails.SendWelcomeEmail(context.Background(), newUser.Email, newUser.Name); err != nil {
			s.logger.Warn("failed to send welcome email", "email", newUser.Email, "error", err)
		}
	}()

	return newUser, token, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperror.Validation("please provide email and password")
	}

	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", apperror.Unauthenticated("incorrect email or password")
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !CheckPassword(existing.PasswordHash, password) {
		return nil, "", apperror.Unauthenticated("incorrect email or password")
	}

	token, err := s.tokens.CreateToken(existing.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existing, token, nil
}

// ForgotPassword generates a reset token, stores only its hash with a short
// expiry and mails the plaintext to the account owner. If delivery fails the
// stored token is rolled back so a dead token never lingers.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.NotFound("there is no user with that email address")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	plaintext, hash, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, existing.ID, hash, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", resetURLBase, plaintext)
	if err := s.emails.SendPasswordResetEmail(ctx, existing.Email, resetURL); err != nil {
		s.logger.Error("failed to send password reset email", "email", existing.Email, "error", err)
		if clearErr := s.users.ClearResetToken(ctx, existing.ID); clearErr != nil {
			s.logger.Error("failed to roll back reset token", "error", clearErr)
		}
		return apperror.Fatal(fmt.Errorf("sending reset email: %w", err))
	}

	return nil
}

// ResetPassword consumes a reset token: the supplied plaintext is hashed and
// matched against an unexpired stored hash. Writing the new password clears
// the token fields, so consumption is single-use.
func (s *Service) ResetPassword(ctx context.Context, plainToken, password, passwordConfirm string) (*user.User, string, error) {
	if err := validatePassword(password, passwordConfirm); err != nil {
		return nil, "", err
	}

	existing, err := s.users.GetByResetTokenHash(ctx, hashToken(plainToken))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", apperror.Validation("token is invalid or has expired")
		}
		return nil, "", fmt.Errorf("failed to look up reset token: %w", err)
	}

	if err := s.changePassword(ctx, existing, password); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.CreateToken(existing.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existing, token, nil
}

// UpdatePassword changes the password of an authenticated user after
// re-checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password, passwordConfirm string) (*user.User, string, error) {
	if err := validatePassword(password, passwordConfirm); err != nil {
		return nil, "", err
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", apperror.NotFound("user not found")
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !CheckPassword(existing.PasswordHash, current) {
		return nil, "", apperror.Unauthenticated("your current password is wrong")
	}

	if err := s.changePassword(ctx, existing, password); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.CreateToken(existing.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return existing, token, nil
}

// changePassword persists a new password hash, stamps password_changed_at
// slightly in the past so a token issued in the same second stays valid, and
// clears any outstanding reset token.
func (s *Service) changePassword(ctx context.Context, u *user.User, password string) error {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := time.Now().Add(-time.Second)
	if err := s.users.UpdatePassword(ctx, u.ID, passwordHash, changedAt); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func validateSignup(in SignupInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.Validation("please tell us your name")
	}
	if in.Email == "" {
		return apperror.Validation("please provide your email")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperror.Validation("please provide a valid email")
	}
	return validatePassword(in.Password, in.PasswordConfirm)
}

func validatePassword(password, passwordConfirm string) error {
	if password == "" {
		return apperror.Validation("please provide a password")
	}
	if len(password) < 8 {
		return apperror.Validation("password must be at least 8 characters")
	}
	if password != passwordConfirm {
		return apperror.Validation("passwords are not the same")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
