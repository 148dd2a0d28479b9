package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdopter Role = "adopter"
)

// Numeric role codes accepted on the wire
const (
	roleCodeOwner   = 1
	roleCodeAdopter = 2
)

// UnmarshalJSON accepts a role name (any case) or its numeric code, as a
// number or a string. Anything else decodes to an invalid role so that
// validation reports it.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*r = ""
	case float64:
		*r = roleFromCode(v, strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		v = strings.TrimSpace(v)
		if code, err := strconv.ParseFloat(v, 64); err == nil {
			*r = roleFromCode(code, v)
			return nil
		}
		*r = Role(strings.ToLower(v))
	default:
		return errors.New("role must be a name or a numeric code")
	}
	return nil
}

func roleFromCode(code float64, raw string) Role {
	switch code {
	case roleCodeOwner:
		return RoleOwner
	case roleCodeAdopter:
		return RoleAdopter
	default:
		return Role(raw)
	}
}

// RoleForDescription returns the role whose default description is desc, or
// "" when desc is not one of them.
func RoleForDescription(desc string) Role {
	for _, role := range []Role{RoleOwner, RoleAdopter} {
		if strings.EqualFold(strings.TrimSpace(desc), role.Description()) {
			return role
		}
	}
	return ""
}

// Valid reports whether r is one of the two account roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdopter
}

// Description is the default human label stored with new accounts.
func (r Role) Description() string {
	switch r {
	case RoleOwner:
		return "Pet Owner"
	case RoleAdopter:
		return "Pet Adopter"
	default:
		return ""
	}
}

// CanListPets reports whether the role may create adoption listings.
func (r Role) CanListPets() bool {
	return r == RoleOwner
}

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email           string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash    string    `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	Role            Role      `gorm:"type:varchar(20);not null" json:"role"`
	RoleDescription string    `gorm:"type:varchar(100)" json:"roleDescription"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Contact is the only view of a user shown to other users.
type Contact struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Contact() Contact {
	return Contact{Username: u.Username, Email: u.Email}
}
