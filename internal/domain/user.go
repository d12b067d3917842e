package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleSystem UserRole = "system"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleUser || r == UserRoleSystem
}

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}
