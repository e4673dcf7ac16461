package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of privilege levels a token can carry.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw claim value onto a Role. Anything unknown, including
// the empty string in tokens minted before roles existed, degrades to
// RoleUser.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

type User struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email      string             `json:"email" bson:"email"`
	Name       string             `json:"name" bson:"name"`
	Password   string             `json:"-" bson:"password"`
	IsVerified bool               `json:"is_verified" bson:"is_verified"`
	IsAdmin    bool               `json:"is_admin" bson:"is_admin"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// Role derives the token role from the admin flag.
func (u *User) Role() Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
