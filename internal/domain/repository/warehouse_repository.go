package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para bodegas.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	ListActive(ctx context.Context) ([]*entity.Warehouse, error)
}
