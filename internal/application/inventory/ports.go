package inventory

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad entre el asiento en el
// libro, las unidades y el contador agregado del producto.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
	) error) error
}
