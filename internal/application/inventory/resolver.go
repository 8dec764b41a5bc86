package inventory

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// Resolver deriva el estado físico de las unidades desde el libro de
// movimientos: el asiento más reciente que toca una unidad manda. Si es
// ingreso o traslado la unidad está presente en esa bodega; si es salida,
// la unidad ya no existe en inventario. El desempate entre asientos con el
// mismo timestamp es por secuencia de inserción (determinista).
//
// Todas las consultas son agrupadas: un round-trip para las unidades y otro
// para el último movimiento de todas ellas, nunca una consulta por unidad.
type Resolver struct {
	movRepo  repository.MovementRepository
	unitRepo repository.UnitRepository
}

// NewResolver construye el resolutor de estado físico.
func NewResolver(movRepo repository.MovementRepository, unitRepo repository.UnitRepository) *Resolver {
	return &Resolver{movRepo: movRepo, unitRepo: unitRepo}
}

// IsPhysicallyPresent indica si la unidad existe físicamente en alguna bodega.
func (r *Resolver) IsPhysicallyPresent(ctx context.Context, unitID string) (bool, error) {
	latest, err := r.movRepo.LatestPerUnit(ctx, []string{unitID})
	if err != nil {
		return false, err
	}
	m, ok := latest[unitID]
	return ok && m.Inbound(), nil
}

// LocationOf devuelve la bodega donde está la unidad, o nil si no está presente.
func (r *Resolver) LocationOf(ctx context.Context, unitID string) (*string, error) {
	latest, err := r.movRepo.LatestPerUnit(ctx, []string{unitID})
	if err != nil {
		return nil, err
	}
	m, ok := latest[unitID]
	if !ok || !m.Inbound() {
		return nil, nil
	}
	wh := m.WarehouseID
	return &wh, nil
}

// ListPresentUnits lista las unidades del producto físicamente presentes en la
// bodega indicada (warehouseID vacío = cualquier bodega).
func (r *Resolver) ListPresentUnits(ctx context.Context, productID, warehouseID string) ([]*entity.Unit, error) {
	units, err := r.unitRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(units))
	byID := make(map[string]*entity.Unit, len(units))
	for _, u := range units {
		if !u.Active {
			continue
		}
		ids = append(ids, u.ID)
		byID[u.ID] = u
	}
	latest, err := r.movRepo.LatestPerUnit(ctx, ids)
	if err != nil {
		return nil, err
	}

	var present []*entity.Unit
	for _, id := range ids {
		m, ok := latest[id]
		if !ok || !m.Inbound() {
			continue
		}
		if warehouseID != "" && m.WarehouseID != warehouseID {
			continue
		}
		present = append(present, byID[id])
	}
	return present, nil
}

// ListAvailableUnits lista unidades vendibles: presentes, activas y sin línea
// de venta dueña. Es la vista que alimenta la búsqueda por IMEI del vendedor.
func (r *Resolver) ListAvailableUnits(ctx context.Context, productID, warehouseID string) ([]*entity.Unit, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	present, err := r.ListPresentUnits(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	var available []*entity.Unit
	for _, u := range present {
		if u.Available() {
			available = append(available, u)
		}
	}
	return available, nil
}
