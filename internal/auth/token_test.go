package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestNewPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"))
	require.Error(t, err)

	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestPasetoService_RoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestPasetoService_ExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoService_TamperedToken(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = svc.VerifyToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoService_WrongKey(t *testing.T) {
	svc, err := NewPasetoService(testKey())
	require.NoError(t, err)

	other, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
