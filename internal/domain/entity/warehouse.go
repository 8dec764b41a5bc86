package entity

import "time"

// Warehouse representa una bodega o punto de venta donde viven las unidades.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
