package entity

import "time"

// User operador del punto de venta. Role y ExtraCapabilities se guardan con sus
// nombres estables (ROL_ENCARGADO, POS_VOID_TICKET, ...).
type User struct {
	ID                string
	Name              string
	Email             string
	PinHash           string // bcrypt, nunca el PIN plano
	Role              string
	Master            bool
	ExtraCapabilities []string
	Status            string // active, inactive
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Active indica si el usuario puede iniciar sesión.
func (u *User) Active() bool { return u.Status == "" || u.Status == "active" }
