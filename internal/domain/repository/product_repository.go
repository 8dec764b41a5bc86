package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos.
// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para que el chequeo agregado
// y el decremento del contador ocurran sin carreras dentro de la transacción.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
	ListAll(ctx context.Context) ([]*entity.Product, error)
	AdjustQuantity(ctx context.Context, id string, delta int64) error
}
