// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

// UserRoles lists every accepted role.
var UserRoles = []string{RoleUser, RoleAgent, RoleAdmin, RoleSystem}

// User is an account that can own properties and author posts.
// PasswordHash is a bcrypt hash and never leaves the store.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	IsActive     bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
