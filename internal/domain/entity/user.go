package entity

import "time"

// Roles de usuario. El rol determina la visibilidad de bodegas:
// admin ve todas; vendedor y bodeguero solo su bodega asignada.
const (
	RoleAdmin     = "admin"
	RoleVendedor  = "vendedor"
	RoleBodeguero = "bodeguero"
)

// User representa un usuario del back-office (vendedor, bodeguero, admin).
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	WarehouseID  *string // bodega asignada; nil para admin
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
