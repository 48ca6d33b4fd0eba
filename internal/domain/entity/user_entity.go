package entity

import (
	"strings"
	"time"
)

// Role represents an authorization role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCoach   Role = "coach"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleStudent:
		return true
	}
	return false
}

// Elevated reports whether the role may act on records it does not own.
func (r Role) Elevated() bool { return r == RoleAdmin || r == RoleCoach }

// UserStatus gates login. Some deployments use "active" instead of "approved".
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusActive   UserStatus = "active"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusActive:
		return true
	}
	return false
}

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in PasswordHash and never serialized.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NormalizeEmail is the stored and compared form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFilter narrows ListUsers. Zero values mean "no constraint".
// Limit <= 0 disables paging.
type UserFilter struct {
	Status UserStatus
	Role   Role
	Limit  int
	Offset int
}

func (f UserFilter) Match(u *User) bool {
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	return true
}

// UserPatch carries a partial update; nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Role         *Role
	Status       *UserStatus
	PasswordHash *string
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Role == nil && p.Status == nil && p.PasswordHash == nil
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
}
