// Package id holds the identifier kinds used across the service:
// BIGSERIAL keys for bases and ledger rows, UUIDv7 for audit entries.
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used for audit entries.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseSerial parses a positive database key such as a base or ledger row id.
func ParseSerial(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return v, nil
}
