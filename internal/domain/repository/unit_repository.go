package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// UnitRepository define el puerto de persistencia para unidades serializadas.
//
// ClaimAvailable es el contrato crítico del asignador: reclama exactamente
// quantity unidades elegibles (activas, sin dueño y físicamente presentes según
// el libro; warehouseID vacío = cualquier bodega) marcándolas con saleLineID en
// una sola operación atómica. El orden de selección es id ascendente. Si hay
// menos elegibles que quantity devuelve las disponibles sin reclamar nada.
type UnitRepository interface {
	CreateBatch(ctx context.Context, units []*entity.Unit) error
	GetByID(ctx context.Context, id string) (*entity.Unit, error)
	GetByIMEI(ctx context.Context, imei string) (*entity.Unit, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Unit, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Unit, error)

	// ListAvailable lista unidades activas, sin dueño y presentes en la bodega.
	ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.Unit, error)
	CountAvailable(ctx context.Context, productID, warehouseID string) (int64, error)

	ClaimAvailable(ctx context.Context, productID, warehouseID string, quantity int64, saleLineID string) ([]*entity.Unit, error)
	// ClaimByIDs reclama unidades concretas ya elegidas por el vendedor (búsqueda
	// por IMEI). Exige la misma elegibilidad que ClaimAvailable: activa, sin dueño
	// y presente según el libro (warehouseID vacío = cualquier bodega). El error
	// nombra la unidad que falla: inexistente (ErrNotFound), ausente o en otra
	// bodega (InvalidMovement), ya reclamada (ErrConcurrencyConflict).
	ClaimByIDs(ctx context.Context, unitIDs []string, warehouseID, saleLineID string) ([]*entity.Unit, error)
	// ReleaseBySaleLine limpia la propiedad al anular una venta.
	ReleaseBySaleLine(ctx context.Context, saleLineID string) ([]string, error)

	// UpdateWarehouse sincroniza la proyección de bodega tras un traslado.
	UpdateWarehouse(ctx context.Context, unitIDs []string, warehouseID string) error
}
