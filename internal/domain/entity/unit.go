package entity

import "time"

// Unit representa un ítem físico individualizable de un producto (ej. con IMEI).
// Se crea al asentar un movimiento de ingreso y nunca se borra: se desactiva.
// Invariante: a lo sumo una línea de venta viva es dueña de la unidad (SaleLineID).
type Unit struct {
	ID          string
	ProductID   string
	IMEI        *string // identificador externo único; nil si no aplica
	WarehouseID string  // última bodega conocida (proyección del libro)
	SaleLineID  *string // línea de venta dueña; nil mientras no esté vendida
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Available indica si la unidad puede asignarse a una venta
// (activa y sin dueño). La presencia física se resuelve aparte contra el libro.
func (u *Unit) Available() bool {
	return u.Active && u.SaleLineID == nil
}
