package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/infrastructure/metrics"
)

// RegisterMovementUseCase asienta movimientos en el libro de inventario de
// forma transaccional. IN acuña unidades nuevas; OUT y TRANSFER referencian
// unidades existentes y verifican su presencia física contra el libro antes
// de asentar. El contador agregado del producto se actualiza en la misma tx.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// MovementInput entrada para asentar un movimiento.
// IN: Quantity unidades nuevas, UnitCost obligatorio, IMEIs opcional (si viene,
// uno por unidad). OUT: UnitIDs de unidades presentes en WarehouseID.
// TRANSFER: UnitIDs presentes en FromWarehouseID; WarehouseID es el destino.
type MovementInput struct {
	UserID          string
	ProductID       string
	Type            string
	Quantity        int64
	UnitCost        *decimal.Decimal
	WarehouseID     string
	FromWarehouseID string
	UnitIDs         []string
	IMEIs           []string
	Reference       string
}

// MovementResult asiento creado y unidades acuñadas (solo IN).
type MovementResult struct {
	MovementID string
	UnitIDs    []string
}

// Register valida la entrada, abre la transacción y asienta el movimiento.
func (uc *RegisterMovementUseCase) Register(ctx context.Context, input MovementInput) (*MovementResult, error) {
	if err := uc.validate(ctx, input); err != nil {
		return nil, err
	}

	now := time.Now()
	var result *MovementResult

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
	) error {
		var err error
		switch input.Type {
		case entity.MovementTypeIN:
			result, err = uc.doIN(ctx, movRepo, unitRepo, productRepo, input, now)
		case entity.MovementTypeOUT:
			result, err = uc.doOUT(ctx, movRepo, unitRepo, productRepo, input, now)
		case entity.MovementTypeTRANSFER:
			result, err = uc.doTRANSFER(ctx, movRepo, unitRepo, input, now)
		default:
			err = domain.ErrInvalidInput
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.MovementsTotal.WithLabelValues(input.Type).Inc()
	return result, nil
}

// validate chequeos de pre-vuelo fuera de la transacción (solo lectura).
func (uc *RegisterMovementUseCase) validate(ctx context.Context, input MovementInput) error {
	if input.Quantity <= 0 {
		return &domain.InvalidMovementError{Reason: "la cantidad debe ser mayor que cero"}
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.Active {
		return domain.ErrNotFound
	}

	switch input.Type {
	case entity.MovementTypeIN:
		if input.UnitCost == nil || input.UnitCost.LessThan(decimal.Zero) {
			return &domain.InvalidMovementError{Reason: "un ingreso requiere costo unitario"}
		}
		if len(input.IMEIs) > 0 && int64(len(input.IMEIs)) != input.Quantity {
			return &domain.InvalidMovementError{Reason: "la lista de IMEIs no coincide con la cantidad"}
		}
	case entity.MovementTypeOUT:
		if int64(len(input.UnitIDs)) != input.Quantity {
			return &domain.InvalidMovementError{Reason: "una salida debe referenciar exactamente las unidades que salen"}
		}
	case entity.MovementTypeTRANSFER:
		if int64(len(input.UnitIDs)) != input.Quantity {
			return &domain.InvalidMovementError{Reason: "un traslado debe referenciar exactamente las unidades trasladadas"}
		}
		if input.FromWarehouseID == "" || input.FromWarehouseID == input.WarehouseID {
			return &domain.InvalidMovementError{Reason: "el traslado requiere bodegas origen y destino distintas"}
		}
		fromWh, err := uc.warehouseRepo.GetByID(ctx, input.FromWarehouseID)
		if err != nil {
			return err
		}
		if fromWh == nil {
			return domain.ErrNotFound
		}
	default:
		return domain.ErrInvalidInput
	}

	wh, err := uc.warehouseRepo.GetByID(ctx, input.WarehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.ErrNotFound
	}
	return nil
}

// doIN acuña las unidades nuevas y asienta el ingreso.
func (uc *RegisterMovementUseCase) doIN(
	ctx context.Context,
	movRepo repository.MovementRepository,
	unitRepo repository.UnitRepository,
	productRepo repository.ProductRepository,
	input MovementInput,
	now time.Time,
) (*MovementResult, error) {
	units := make([]*entity.Unit, 0, input.Quantity)
	ids := make([]string, 0, input.Quantity)
	for i := int64(0); i < input.Quantity; i++ {
		u := &entity.Unit{
			ID:          uuid.New().String(),
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if len(input.IMEIs) > 0 {
			imei := input.IMEIs[i]
			u.IMEI = &imei
		}
		units = append(units, u)
		ids = append(ids, u.ID)
	}
	if err := unitRepo.CreateBatch(ctx, units); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ID:          uuid.New().String(),
		ProductID:   input.ProductID,
		Type:        entity.MovementTypeIN,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		WarehouseID: input.WarehouseID,
		Reference:   input.Reference,
		CreatedBy:   input.UserID,
		CreatedAt:   now,
		UnitIDs:     ids,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	if err := productRepo.AdjustQuantity(ctx, input.ProductID, input.Quantity); err != nil {
		return nil, err
	}
	return &MovementResult{MovementID: mov.ID, UnitIDs: ids}, nil
}

// checkUnits carga las unidades referenciadas y verifica pertenencia al
// producto, estado activo y presencia física en la bodega indicada.
func checkUnits(
	ctx context.Context,
	movRepo repository.MovementRepository,
	unitRepo repository.UnitRepository,
	productID, warehouseID string,
	unitIDs []string,
) error {
	units, err := unitRepo.ListByIDs(ctx, unitIDs)
	if err != nil {
		return err
	}
	if len(units) != len(unitIDs) {
		return &domain.InvalidMovementError{Reason: "una o más unidades referenciadas no existen"}
	}
	for _, u := range units {
		if u.ProductID != productID {
			return &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s no pertenece al producto %s", u.ID, productID)}
		}
		if !u.Active {
			return &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s está retirada", u.ID)}
		}
	}

	latest, err := movRepo.LatestPerUnit(ctx, unitIDs)
	if err != nil {
		return err
	}
	for _, id := range unitIDs {
		m, ok := latest[id]
		if !ok || !m.Inbound() {
			return &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s no está físicamente presente", id)}
		}
		if m.WarehouseID != warehouseID {
			return &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s no está en la bodega %s", id, warehouseID)}
		}
	}
	return nil
}

// doOUT asienta una salida manual (merma, garantía, baja) de unidades presentes.
func (uc *RegisterMovementUseCase) doOUT(
	ctx context.Context,
	movRepo repository.MovementRepository,
	unitRepo repository.UnitRepository,
	productRepo repository.ProductRepository,
	input MovementInput,
	now time.Time,
) (*MovementResult, error) {
	if err := checkUnits(ctx, movRepo, unitRepo, input.ProductID, input.WarehouseID, input.UnitIDs); err != nil {
		return nil, err
	}
	// Las salidas no se re-costean: UnitCost queda nulo.
	mov := &entity.Movement{
		ID:          uuid.New().String(),
		ProductID:   input.ProductID,
		Type:        entity.MovementTypeOUT,
		Quantity:    input.Quantity,
		WarehouseID: input.WarehouseID,
		Reference:   input.Reference,
		CreatedBy:   input.UserID,
		CreatedAt:   now,
		UnitIDs:     input.UnitIDs,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	if err := productRepo.AdjustQuantity(ctx, input.ProductID, -input.Quantity); err != nil {
		return nil, err
	}
	return &MovementResult{MovementID: mov.ID, UnitIDs: input.UnitIDs}, nil
}

// doTRANSFER asienta el traslado lateral y sincroniza la bodega proyectada.
// No altera el contador agregado: las unidades siguen existiendo.
func (uc *RegisterMovementUseCase) doTRANSFER(
	ctx context.Context,
	movRepo repository.MovementRepository,
	unitRepo repository.UnitRepository,
	input MovementInput,
	now time.Time,
) (*MovementResult, error) {
	if err := checkUnits(ctx, movRepo, unitRepo, input.ProductID, input.FromWarehouseID, input.UnitIDs); err != nil {
		return nil, err
	}
	from := input.FromWarehouseID
	mov := &entity.Movement{
		ID:              uuid.New().String(),
		ProductID:       input.ProductID,
		Type:            entity.MovementTypeTRANSFER,
		Quantity:        input.Quantity,
		WarehouseID:     input.WarehouseID,
		FromWarehouseID: &from,
		Reference:       input.Reference,
		CreatedBy:       input.UserID,
		CreatedAt:       now,
		UnitIDs:         input.UnitIDs,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	if err := unitRepo.UpdateWarehouse(ctx, input.UnitIDs, input.WarehouseID); err != nil {
		return nil, err
	}
	return &MovementResult{MovementID: mov.ID, UnitIDs: input.UnitIDs}, nil
}
