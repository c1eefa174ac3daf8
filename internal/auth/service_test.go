package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// mockUserStore keeps users in memory, indexed the way the SQL queries do.
type mockUserStore struct {
	users map[uuid.UUID]*user.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (m *mockUserStore) Create(ctx context.Context, u *user.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.users[id]
	if !ok || !u.Active {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserStore) GetByResetTokenHash(ctx context.Context, hash string) (*user.User, error) {
	for _, u := range m.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == hash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(time.Now()) {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserStore) SetResetToken(ctx context.Context, id uuid.UUID, hash string, expires time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordResetToken = &hash
	u.PasswordResetExpires = &expires
	return nil
}

func (m *mockUserStore) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

// mockEmailService records the last reset URL instead of sending anything.
type mockEmailService struct {
	lastResetURL string
	failSend     bool
}

func (m *mockEmailService) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	return nil
}

func (m *mockEmailService) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	if m.failSend {
		return assert.AnError
	}
	m.lastResetURL = resetURL
	return nil
}

func newTestService(t *testing.T) (*Service, *mockUserStore, *mockEmailService) {
	t.Helper()

	tokens, err := NewPasetoService(testKey())
	require.NoError(t, err)

	store := newMockUserStore()
	emails := &mockEmailService{}
	svc := NewService(store, tokens, emails, logging.NewLogger(true), time.Hour)
	return svc, store, emails
}

func signupInput() SignupInput {
	return SignupInput{
		Name:            "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	}
}

func TestService_Signup(t *testing.T) {
	svc, _, _ := newTestService(t)

	u, token, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, token)

	assert.Equal(t, user.RoleUser, u.Role)
	assert.True(t, u.Active)
	assert.NotEqual(t, "pass1234", u.PasswordHash)

	claims, err := svc.tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
}

func TestService_Signup_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*SignupInput)
	}{
		{"missing name", func(in *SignupInput) { in.Name = " " }},
		{"missing email", func(in *SignupInput) { in.Email = "" }},
		{"bad email", func(in *SignupInput) { in.Email = "not-an-email" }},
		{"short password", func(in *SignupInput) { in.Password = "short"; in.PasswordConfirm = "short" }},
		{"confirm mismatch", func(in *SignupInput) { in.PasswordConfirm = "different1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := signupInput()
			tt.mutate(&in)

			_, _, err := svc.Signup(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
		})
	}
}

func TestService_Signup_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)

	_, _, err = svc.Signup(context.Background(), signupInput())
	require.Error(t, err)
	assert.Equal(t, apperror.KindDuplicate, apperror.From(err).Kind)
}

func TestService_Login(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, _, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)

	u, token, err := svc.Login(context.Background(), "Ada@Example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEmpty(t, token)
}

func TestService_Login_Failures(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)

	t.Run("missing credentials", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "", "")
		require.Error(t, err)
		assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
	})

	// Unknown email and wrong password must yield identical errors
	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "pass1234")
		require.Error(t, err)
		assert.Equal(t, apperror.KindUnauthenticated, apperror.From(err).Kind)
		assert.Equal(t, "incorrect email or password", apperror.From(err).Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "ada@example.com", "wrongpass")
		require.Error(t, err)
		assert.Equal(t, apperror.KindUnauthenticated, apperror.From(err).Kind)
		assert.Equal(t, "incorrect email or password", apperror.From(err).Message)
	})
}

func TestService_PasswordResetFlow(t *testing.T) {
	svc, store, emails := newTestService(t)

	created, _, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)

	err = svc.ForgotPassword(context.Background(), "ada@example.com", "http://localhost:8080")
	require.NoError(t, err)
	require.NotEmpty(t, emails.lastResetURL)

	// The stored hash must not be the plaintext from the mail
	plaintext := emails.lastResetURL[len("http://localhost:8080/api/v1/users/resetPassword/"):]
	require.NotNil(t, store.users[created.ID].PasswordResetToken)
	assert.NotEqual(t, plaintext, *store.users[created.ID].PasswordResetToken)

	u, token, err := svc.ResetPassword(context.Background(), plaintext, "newpass123", "newpass123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, created.ID, u.ID)

	// New password works, old does not
	_, _, err = svc.Login(context.Background(), "ada@example.com", "newpass123")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "ada@example.com", "pass1234")
	require.Error(t, err)

	// Consumption is single-use
	_, _, err = svc.ResetPassword(context.Background(), plaintext, "another123", "another123")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
}

func TestService_ForgotPassword_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.ForgotPassword(context.Background(), "nobody@example.com", "http://localhost:8080")
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.From(err).Kind)
}

func TestService_ForgotPassword_SendFailureRollsBack(t *testing.T) {
	svc, store, emails := newTestService(t)
	emails.failSend = true

	created, _, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)

	err = svc.ForgotPassword(context.Background(), "ada@example.com", "http://localhost:8080")
	require.Error(t, err)
	assert.Equal(t, apperror.KindFatal, apperror.From(err).Kind)
	assert.Nil(t, store.users[created.ID].PasswordResetToken)
}

func TestService_UpdatePassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, _, err := svc.Signup(context.Background(), signupInput())
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		_, _, err := svc.UpdatePassword(context.Background(), created.ID, "wrongpass", "newpass123", "newpass123")
		require.Error(t, err)
		assert.Equal(t, apperror.KindUnauthenticated, apperror.From(err).Kind)
	})

	t.Run("success", func(t *testing.T) {
		u, token, err := svc.UpdatePassword(context.Background(), created.ID, "pass1234", "newpass123", "newpass123")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.NotNil(t, u.PasswordChangedAt)

		_, _, err = svc.Login(context.Background(), "ada@example.com", "newpass123")
		require.NoError(t, err)
	})
}
