package sales

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// VoidSale anula una venta sin tocar el libro hacia atrás: por cada línea se
// asienta un movimiento de ingreso compensatorio que devuelve las unidades a
// la bodega de la que salieron, se libera su propiedad y se restaura el
// contador agregado. La venta pasa a VOIDED; los asientos originales quedan.
func (uc *CreateSaleUseCase) VoidSale(ctx context.Context, userID, saleID string) error {
	now := time.Now()

	return uc.txRunner.RunSale(ctx, func(
		movRepo repository.MovementRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
		_ repository.CustomerRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if sale.Status != entity.SaleStatusCompleted {
			return domain.ErrInvalidInput
		}

		lines, err := saleRepo.GetLines(ctx, saleID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			unitIDs, err := unitRepo.ReleaseBySaleLine(ctx, line.ID)
			if err != nil {
				return err
			}
			if len(unitIDs) == 0 {
				continue
			}

			// La bodega de retorno es la del asiento de salida original.
			latest, err := movRepo.LatestPerUnit(ctx, unitIDs)
			if err != nil {
				return err
			}
			byWarehouse := make(map[string][]string)
			for _, id := range unitIDs {
				m, ok := latest[id]
				if !ok {
					return domain.ErrConcurrencyConflict
				}
				byWarehouse[m.WarehouseID] = append(byWarehouse[m.WarehouseID], id)
			}

			product, err := productRepo.GetForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			for warehouseID, ids := range byWarehouse {
				cost := product.Cost
				mov := &entity.Movement{
					ID:          uuid.New().String(),
					ProductID:   line.ProductID,
					Type:        entity.MovementTypeIN,
					Quantity:    int64(len(ids)),
					UnitCost:    &cost,
					WarehouseID: warehouseID,
					Reference:   saleID,
					CreatedBy:   userID,
					CreatedAt:   now,
					UnitIDs:     ids,
				}
				if err := movRepo.Append(ctx, mov); err != nil {
					return err
				}
			}
			if err := productRepo.AdjustQuantity(ctx, line.ProductID, int64(len(unitIDs))); err != nil {
				return err
			}
		}

		return saleRepo.UpdateStatus(ctx, saleID, entity.SaleStatusVoided)
	})
}
