// Package base provides the Base catalog: the physical locations that hold stock.
package base

import (
	"context"
	"strings"
	"time"

	"mams/internal/core/apperror"
)

const (
	maxNameLen     = 100
	maxCodeLen     = 20
	maxLocationLen = 120
)

// Base is a location holding inventory. Name and code are unique.
type Base struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Normalize trims user-supplied text fields.
func (b *Base) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Code = strings.TrimSpace(b.Code)
	if b.Location != nil {
		loc := strings.TrimSpace(*b.Location)
		if loc == "" {
			b.Location = nil
		} else {
			b.Location = &loc
		}
	}
}

// Validate checks required fields and lengths.
func (b *Base) Validate(_ context.Context) error {
	if b.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(b.Name) > maxNameLen {
		return apperror.NewValidation("name is too long").
			WithDetail("field", "name").
			WithDetail("max", maxNameLen)
	}
	if b.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if len(b.Code) > maxCodeLen {
		return apperror.NewValidation("code is too long").
			WithDetail("field", "code").
			WithDetail("max", maxCodeLen)
	}
	if b.Location != nil && len(*b.Location) > maxLocationLen {
		return apperror.NewValidation("location is too long").
			WithDetail("field", "location").
			WithDetail("max", maxLocationLen)
	}
	return nil
}

// Ref addresses a base by id or by name. ID wins when both are set.
type Ref struct {
	ID   *int64
	Name string
}

// IsZero reports whether the reference names nothing.
func (r Ref) IsZero() bool {
	return r.ID == nil && strings.TrimSpace(r.Name) == ""
}
