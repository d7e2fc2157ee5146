package dto

import (
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// CreateUserRequest entrada para crear un operador (el PIN se hashea en el use case).
type CreateUserRequest struct {
	Email  string `json:"email" validate:"required,email"`
	PIN    string `json:"pin" validate:"required,min=4,max=64"`
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Role   string `json:"role" validate:"required,oneof=ROL_DUENO ROL_ENCARGADO ROL_EMPLEADO ROL_CUSTOM"`
	Master bool   `json:"master"`
}

// UserResponse salida de un usuario (sin PIN).
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Master       bool      `json:"master"`
	Capabilities []string  `json:"capabilities"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest entrada para login con email y PIN.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	PIN   string `json:"pin" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CapabilityRequest capacidad a conceder o retirar.
type CapabilityRequest struct {
	Capability string `json:"capability" validate:"required"`
}

// RoleRequest nuevo rol base.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ROL_DUENO ROL_ENCARGADO ROL_EMPLEADO ROL_CUSTOM"`
}

// EffectiveResponse capacidades efectivas bajo el plan activo.
type EffectiveResponse struct {
	UserID       string   `json:"user_id"`
	Tier         string   `json:"tier"`
	Capabilities []string `json:"capabilities"`
}

// FromUser mapea la entidad a la respuesta.
func FromUser(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	caps := u.ExtraCapabilities
	if caps == nil {
		caps = []string{}
	}
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Master:       u.Master,
		Capabilities: caps,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
