package sales

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios de venta atados a esa tx. Todo el camino mutante de createSale
// (venta, líneas, asignación de unidades, asiento de salida, contador y pagos)
// vive dentro de una sola transacción: cualquier fallo revierte todo.
type TxRunner interface {
	RunSale(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
		customerRepo repository.CustomerRepository,
		saleRepo repository.SaleRepository,
	) error) error
}
