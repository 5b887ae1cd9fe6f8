package model

import "time"

// StaffRole is the sum type over back-office roles. Role dispatch happens
// once in the middleware layer, not per handler.
type StaffRole string

const (
	RoleAdmin        StaffRole = "ADMIN"
	RoleCollaborator StaffRole = "COLLABORATOR"
)

// Staff represents a back-office user (admin or collaborator).
type Staff struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         StaffRole `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StaffLoginRequest is the payload for staff authentication.
type StaffLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// StaffLoginResponse is returned after successful staff login.
type StaffLoginResponse struct {
	Token string `json:"token"`
	Staff Staff  `json:"staff"`
}
