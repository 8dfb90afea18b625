package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeptrack/pkg/requestcontext"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("secret", "keeptrack")

	token, err := svc.Issue(&requestcontext.Caller{ID: "u-1", Name: "Michael"}, time.Hour)
	require.NoError(t, err)

	caller, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &requestcontext.Caller{ID: "u-1", Type: DefaultCallerType, Name: "Michael"}, caller)
}

func TestValidateKeepsCallerType(t *testing.T) {
	svc := NewService("secret", "keeptrack")
	token, err := svc.Issue(&requestcontext.Caller{ID: "svc-9", Type: "Service"}, time.Hour)
	require.NoError(t, err)

	caller, err := svc.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "Service", caller.Type)
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("secret", "keeptrack")
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.Issue(&requestcontext.Caller{ID: "u-1"}, time.Hour)
	require.NoError(t, err)
	svc.now = time.Now

	_, err = svc.Validate(token)

	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsWrongKeyAndIssuer(t *testing.T) {
	token, err := NewService("secret", "keeptrack").Issue(&requestcontext.Caller{ID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewService("other", "keeptrack").Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewService("secret", "elsewhere").Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "keeptrack"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewService("secret", "keeptrack").Validate(token)

	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresCallerID(t *testing.T) {
	_, err := NewService("secret", "keeptrack").Issue(&requestcontext.Caller{}, time.Hour)
	require.Error(t, err)
}
