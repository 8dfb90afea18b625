// Package jwttoken issues and validates the bearer tokens that identify the
// caller of an HTTP request.
package jwttoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"keeptrack/pkg/requestcontext"
)

// DefaultCallerType is used when a token carries no caller_type claim.
const DefaultCallerType = "User"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims represents the JWT claims of a caller token. The subject is the
// caller ID.
type Claims struct {
	CallerType string `json:"caller_type,omitempty"`
	Name       string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
}

// Issue signs a token for caller valid for ttl.
func (s *Service) Issue(caller *requestcontext.Caller, ttl time.Duration) (string, error) {
	if caller == nil || caller.ID == "" {
		return "", errors.New("caller id is required")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		CallerType: caller.Type,
		Name:       caller.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken resolves a token to the caller it was issued for.
func (s *Service) ValidateToken(tokenString string) (*requestcontext.Caller, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	callerType := claims.CallerType
	if callerType == "" {
		callerType = DefaultCallerType
	}
	return &requestcontext.Caller{
		ID:   claims.Subject,
		Type: callerType,
		Name: claims.Name,
	}, nil
}
