package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier fails parsing at a trust boundary.
var ErrInvalidID = errors.New("invalid id")

// ActivityID identifies a persisted activity record.
type ActivityID uuid.UUID

// NewActivityID returns a fresh random activity ID.
func NewActivityID() ActivityID {
	return ActivityID(uuid.New())
}

// ParseActivityID parses s and rejects empty, malformed and nil UUIDs.
func ParseActivityID(s string) (ActivityID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return ActivityID{}, err
	}
	return ActivityID(parsed), nil
}

func (id ActivityID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id ActivityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form.
func (id ActivityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses a canonical UUID.
func (id *ActivityID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	*id = ActivityID(parsed)
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil uuid", ErrInvalidID)
	}
	return parsed, nil
}
