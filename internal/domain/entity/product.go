package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo con inventario serializado.
// Quantity es un contador cacheado: proyección del libro de movimientos que
// solo se actualiza en la misma transacción que asienta el movimiento.
type Product struct {
	ID          string
	SKU         string
	Name        string
	BrandID     string
	ModelID     string
	CategoryID  string
	Cost        decimal.Decimal  // costo unitario
	PVP         decimal.Decimal  // precio de venta al público
	OfferPrice  *decimal.Decimal // precio de oferta (nil = sin oferta)
	IsOfferBase bool             // puede anclar una oferta en la misma venta
	Quantity    int64            // contador agregado cacheado
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasOffer indica si el producto tiene precio de oferta configurado.
func (p *Product) HasOffer() bool {
	return p.OfferPrice != nil
}
