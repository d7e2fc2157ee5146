package entity

import "time"

// DefaultCategory categoría a la que pasan los productos de una categoría eliminada.
const DefaultCategory = "General"

// Category categoría de productos (plana, identificada por nombre).
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
