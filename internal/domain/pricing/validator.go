package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// Line es una línea de venta vista por el validador: producto ya cargado
// y precio unitario tal como lo envió el vendedor.
type Line struct {
	Index     int
	Product   *entity.Product
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Validate evalúa las reglas de oferta sobre el conjunto completo de líneas
// de una venta (servicio de dominio puro, sin efectos):
//
//  1. Una línea a precio de oferta exige al menos una línea con producto base
//     (IsOfferBase) en la misma venta.
//  2. Si hay producto base, las líneas de productos con oferta deben venderse
//     exactamente al precio de oferta configurado.
//
// Devuelve *domain.PricingViolationError con la línea y el precio esperado.
func Validate(lines []Line) error {
	hasBase := false
	for _, l := range lines {
		if l.Product.IsOfferBase {
			hasBase = true
			break
		}
	}

	for _, l := range lines {
		p := l.Product
		if !p.HasOffer() || p.IsOfferBase {
			continue
		}
		offer := *p.OfferPrice
		atOffer := l.UnitPrice.Equal(offer)
		if atOffer && !hasBase {
			return &domain.PricingViolationError{
				LineIndex:     l.Index,
				ProductID:     p.ID,
				Reason:        "el precio de oferta requiere un producto base en la misma venta",
				ExpectedPrice: p.PVP,
				GivenPrice:    l.UnitPrice,
			}
		}
		if hasBase && !atOffer {
			return &domain.PricingViolationError{
				LineIndex:     l.Index,
				ProductID:     p.ID,
				Reason:        "con producto base presente debe venderse al precio de oferta",
				ExpectedPrice: offer,
				GivenPrice:    l.UnitPrice,
			}
		}
	}
	return nil
}

// legitimateOfferLine indica si la línea vende al precio de oferta con
// producto base presente (único caso en que se permite vender bajo costo).
func legitimateOfferLine(l Line, hasBase bool) bool {
	p := l.Product
	return hasBase && p.HasOffer() && !p.IsOfferBase && l.UnitPrice.Equal(*p.OfferPrice)
}

// BelowCost devuelve las líneas cuyo precio efectivo queda por debajo del costo
// del producto y que no son líneas de oferta legítimas. La política de bloqueo
// la decide el orquestador; aquí solo se detectan.
func BelowCost(lines []Line) []Line {
	hasBase := false
	for _, l := range lines {
		if l.Product.IsOfferBase {
			hasBase = true
			break
		}
	}
	var flagged []Line
	for _, l := range lines {
		if l.UnitPrice.LessThan(l.Product.Cost) && !legitimateOfferLine(l, hasBase) {
			flagged = append(flagged, l)
		}
	}
	return flagged
}
