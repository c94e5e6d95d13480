package tracking

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/labourcheck/internal/models"
)

const testSecret = "0123456789abcdef-test-secret"

func newSigner(t *testing.T, ttl time.Duration) *Signer {
	t.Helper()
	s, err := NewSigner(testSecret, "https://labourcheck.example/", ttl)
	require.NoError(t, err)
	return s
}

func TestNewSigner_Validation(t *testing.T) {
	_, err := NewSigner("short", "https://x", time.Hour)
	assert.Error(t, err)

	_, err = NewSigner(testSecret, "", time.Hour)
	assert.Error(t, err)
}

func TestSigner_RoundTrip(t *testing.T) {
	s := newSigner(t, time.Hour)

	token, err := s.Issue("session-123")
	require.NoError(t, err)

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "session-123", id)
}

func TestSigner_TokensAreUnique(t *testing.T) {
	s := newSigner(t, 0)
	a, err := s.Issue("s1")
	require.NoError(t, err)
	b, err := s.Issue("s1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSigner_Link(t *testing.T) {
	s := newSigner(t, time.Hour)

	link, err := s.Link("s1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://labourcheck.example/t/"), link)

	id, err := s.Verify(strings.TrimPrefix(link, "https://labourcheck.example/t/"))
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
}

func TestSigner_RejectsBadTokens(t *testing.T) {
	s := newSigner(t, time.Hour)
	good, err := s.Issue("s1")
	require.NoError(t, err)

	other, err := NewSigner("another-secret-of-enough-length", "https://x", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("s1")
	require.NoError(t, err)

	wrongPurpose, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Purpose:        "login",
		StandardClaims: jwt.StandardClaims{Subject: "s1", Issuer: issuer},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Purpose:        purposeFollowUp,
		StandardClaims: jwt.StandardClaims{Subject: "s1", Issuer: issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered payload", tampered},
		{"foreign secret", foreign},
		{"wrong purpose", wrongPurpose},
		{"none algorithm", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			assert.True(t, errors.Is(err, models.ErrInvalidToken), "got %v", err)
		})
	}
}

func TestSigner_Expired(t *testing.T) {
	s := newSigner(t, time.Hour)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := s.Issue("s1")
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidToken))
	assert.Contains(t, err.Error(), "expired")
}
