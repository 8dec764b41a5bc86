package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// PresentCount es la proyección de conteo físico por producto y bodega.
type PresentCount struct {
	ProductID   string
	WarehouseID string
	Count       int64
}

// ExportRow es una fila del export de inventario físico.
type ExportRow struct {
	ProductName   string
	IMEI          string
	WarehouseName string
}

// MovementRepository define el puerto del libro de movimientos.
// El libro es append-only: no existe Update ni Delete. La resolución de estado
// físico usa consultas agrupadas (último movimiento por unidad) en un solo
// round-trip, nunca una consulta por unidad.
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)

	// LatestPerUnit devuelve el movimiento más reciente de cada unidad
	// (ordenado por created_at y seq como desempate determinista).
	LatestPerUnit(ctx context.Context, unitIDs []string) (map[string]*entity.Movement, error)

	// CountPresent agrupa por producto y bodega las unidades cuyo último
	// movimiento no es una salida (I2: conteo físicamente presente).
	CountPresent(ctx context.Context, warehouseIDs []string) ([]PresentCount, error)

	// CountPresentByProduct deriva del libro el total vivo por producto,
	// para conciliarlo contra el contador cacheado (I5).
	CountPresentByProduct(ctx context.Context) (map[string]int64, error)

	// ExportRows lista producto, IMEI y bodega de cada unidad presente.
	ExportRows(ctx context.Context, warehouseIDs []string) ([]ExportRow, error)
}
