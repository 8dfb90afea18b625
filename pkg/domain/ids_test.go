package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseActivityID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseActivityID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseActivityID("")
		require.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseActivityID("not-a-uuid")
		require.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseActivityID(uuid.Nil.String())
		require.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		got, err := ParseActivityID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, ActivityID(valid), got)
		assert.False(t, got.IsNil())
	})
}

func TestParseActivityID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE activities;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseActivityID(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidID)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestActivityID_TextRoundTrip(t *testing.T) {
	want := NewActivityID()
	text, err := want.MarshalText()
	require.NoError(t, err)

	var got ActivityID
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, want, got)

	require.ErrorIs(t, got.UnmarshalText([]byte("nope")), ErrInvalidID)
}
