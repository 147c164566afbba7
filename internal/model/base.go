package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id" bson:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// Role identifies which identity collection a principal belongs to.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// Principal is the acting identity resolved from a bearer token.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
	// TokenID is the jti of the token the principal was resolved from.
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

func (p *Principal) IsDoctor() bool {
	return p != nil && p.Role == RoleDoctor
}

func (p *Principal) IsPatient() bool {
	return p != nil && p.Role == RolePatient
}
