// Package tracking issues and verifies the signed follow-up links sent by SMS.
package tracking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/harrison/labourcheck/internal/models"
)

const (
	issuer          = "labourcheck"
	purposeFollowUp = "follow_up"

	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 12
)

// Claims carried by a follow-up token. Subject is the session ID.
type Claims struct {
	Purpose string `json:"pur"`
	jwt.StandardClaims
}

// Signer creates and checks follow-up tokens with an HMAC secret.
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner creates a signer. A zero ttl issues tokens that never expire.
func NewSigner(secret, baseURL string, ttl time.Duration) (*Signer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("tracking secret must be at least 16 bytes")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("tracking base url is required")
	}
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Issue returns a signed token for sessionID.
func (s *Signer) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("issue token: session id is required")
	}
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := s.now()
	claims := &Claims{
		Purpose: purposeFollowUp,
		StandardClaims: jwt.StandardClaims{
			Id:       id,
			Subject:  sessionID,
			Issuer:   issuer,
			IssuedAt: now.Unix(),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = now.Add(s.ttl).Unix()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Link returns the tracked follow-up URL for sessionID.
func (s *Signer) Link(sessionID string) (string, error) {
	token, err := s.Issue(sessionID)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/t/" + token, nil
}

// Verify checks the token and returns the session ID it was issued for.
// Every failure wraps models.ErrInvalidToken.
func (s *Signer) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", fmt.Errorf("%w: expired", models.ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Purpose != purposeFollowUp || claims.Issuer != issuer || claims.Subject == "" {
		return "", fmt.Errorf("%w: unexpected claims", models.ErrInvalidToken)
	}
	return claims.Subject, nil
}
