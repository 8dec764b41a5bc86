package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario. El libro es append-only:
// una corrección es siempre un movimiento compensatorio nuevo.
const (
	MovementTypeIN       = "IN"       // ingreso: acuña unidades nuevas
	MovementTypeOUT      = "OUT"      // salida: la unidad deja de estar presente
	MovementTypeTRANSFER = "TRANSFER" // traslado lateral entre bodegas
)

// Movement representa un asiento inmutable del libro de movimientos.
// El movimiento más reciente que toca una unidad determina su estado físico:
// IN/TRANSFER = presente en WarehouseID; OUT = ya no existe en bodega.
// Seq desempata movimientos con el mismo CreatedAt (orden de inserción).
type Movement struct {
	ID              string
	Seq             int64
	ProductID       string
	Type            string
	Quantity        int64
	UnitCost        *decimal.Decimal // nil en salidas (las ventas no se re-costean)
	WarehouseID     string           // bodega destino (IN/TRANSFER) u origen (OUT)
	FromWarehouseID *string          // bodega origen en TRANSFER
	Reference       string           // venta, orden de compra, nota, etc.
	CreatedBy       string
	CreatedAt       time.Time
	UnitIDs         []string // unidades que el asiento afecta
}

// Inbound indica si el asiento deja las unidades físicamente presentes.
func (m *Movement) Inbound() bool {
	return m.Type == MovementTypeIN || m.Type == MovementTypeTRANSFER
}
