package models

import "time"

// Role is the fixed closed set of staff roles.
type Role string

const (
	RoleRegistrar Role = "registrar" // registration desk / nursing intake
	RolePhysician Role = "physician"
	RoleStats     Role = "stats" // statistics viewer
	RoleAdmin     Role = "admin"
)

// AdminUsername is reserved. The admin account is synthesized from config
// at directory load and is never written to the store.
const AdminUsername = "admin"

// User represents the 'users' table.
type User struct {
	Username     string    `gorm:"primaryKey;size:50" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	FullName     string    `gorm:"size:100" json:"full_name"`
	Token        string    `gorm:"size:512" json:"-"` // long-lived reconnect token, only sent back on auth_success
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserInput is the payload of a create_user op.
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
}

// UpdateUserInput edits display name and/or password. Role and username
// are fixed once created.
type UpdateUserInput struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// LoginInput is the REST login payload.
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
