package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta. Anular no muta el libro: se asientan
// movimientos compensatorios y la venta pasa a VOIDED.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusVoided    = "VOIDED"
)

// Sale representa la cabecera de una venta.
type Sale struct {
	ID         string
	Number     int64 // consecutivo por secuencia
	CustomerID string
	SellerID   string
	Total      decimal.Decimal
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaleLine representa una línea de venta con las unidades que la satisfacen.
type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	UnitIDs   []string
}

// Payment representa un pago aplicado a una venta.
type Payment struct {
	ID       string
	SaleID   string
	MethodID string
	Amount   decimal.Decimal
}
