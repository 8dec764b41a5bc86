package entity

import "time"

// Customer representa un cliente. Email es la llave natural:
// crear una venta con un email existente reutiliza el cliente.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
