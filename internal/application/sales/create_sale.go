package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/pricing"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/infrastructure/metrics"
)

// paymentTolerance tolerancia de redondeo entre total y suma de pagos.
var paymentTolerance = decimal.NewFromFloat(0.01)

// CreateSaleUseCase orquesta la venta completa: resolver cliente, validar
// precios y disponibilidad, asignar unidades concretas, asentar la salida en
// el libro, descontar el contador y registrar pagos — todo en una transacción.
type CreateSaleUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
}

// NewCreateSaleUseCase construye el orquestador.
func NewCreateSaleUseCase(txRunner TxRunner, productRepo repository.ProductRepository) *CreateSaleUseCase {
	return &CreateSaleUseCase{txRunner: txRunner, productRepo: productRepo}
}

// CreateSale ejecuta los pasos de la venta. Los chequeos 1–5 (cliente,
// productos, disponibilidad agregada, precios, cuadre de pagos) cortan antes
// de mutar nada; los pasos mutantes corren dentro de la transacción y un
// fallo de asignación (carrera perdida) revierte la venta ya insertada.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, sellerID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.CustomerID == "" && in.NewCustomer == nil {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		if len(l.UnitIDs) > 0 && int64(len(l.UnitIDs)) != l.Quantity {
			return nil, domain.ErrInvalidInput
		}
	}

	// Pre-vuelo: cargar productos y validar precios (solo lectura).
	productsByID := make(map[string]*entity.Product, len(in.Lines))
	priceLines := make([]pricing.Line, 0, len(in.Lines))
	for i, l := range in.Lines {
		p, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.Active {
			return nil, fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)
		}
		productsByID[l.ProductID] = p
		priceLines = append(priceLines, pricing.Line{
			Index:     i,
			Product:   p,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	if err := pricing.Validate(priceLines); err != nil {
		return nil, err
	}
	// Política: vender bajo costo solo vía oferta válida.
	if flagged := pricing.BelowCost(priceLines); len(flagged) > 0 {
		f := flagged[0]
		return nil, &domain.PricingViolationError{
			LineIndex:     f.Index,
			ProductID:     f.Product.ID,
			Reason:        "precio por debajo del costo sin oferta válida",
			ExpectedPrice: f.Product.Cost,
			GivenPrice:    f.UnitPrice,
		}
	}

	// Total y cuadre de pagos (tolerancia de un centavo).
	total := decimal.Zero
	for _, l := range in.Lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)).Sub(l.Discount)
		total = total.Add(lineTotal)
	}
	if len(in.Payments) > 0 {
		paid := decimal.Zero
		for _, p := range in.Payments {
			paid = paid.Add(p.Amount)
		}
		if paid.Sub(total).Abs().GreaterThan(paymentTolerance) {
			return nil, &domain.PaymentMismatchError{SaleTotal: total, PaidTotal: paid}
		}
	}

	now := time.Now()
	var resp *dto.SaleResponse

	err := uc.txRunner.RunSale(ctx, func(
		movRepo repository.MovementRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
		customerRepo repository.CustomerRepository,
		saleRepo repository.SaleRepository,
	) error {
		customerID, err := resolveCustomer(ctx, customerRepo, in, now)
		if err != nil {
			return err
		}

		// Bloquear productos y chequear disponibilidad agregada bajo el lock.
		for _, l := range in.Lines {
			p, err := productRepo.GetForUpdate(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if p == nil || !p.Active {
				return fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)
			}
			if p.Quantity < l.Quantity {
				return &domain.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   l.Quantity,
					Available:   p.Quantity,
				}
			}
		}

		number, err := saleRepo.NextNumber(ctx)
		if err != nil {
			return err
		}
		sale := &entity.Sale{
			ID:         uuid.New().String(),
			Number:     number,
			CustomerID: customerID,
			SellerID:   sellerID,
			Total:      total,
			Status:     entity.SaleStatusCompleted,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		resp = &dto.SaleResponse{
			ID:         sale.ID,
			Number:     sale.Number,
			CustomerID: customerID,
			Total:      total,
			Status:     sale.Status,
		}

		for _, l := range in.Lines {
			p := productsByID[l.ProductID]
			subtotal := l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
			line := &entity.SaleLine{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Discount:  l.Discount,
				Subtotal:  subtotal,
				Total:     subtotal.Sub(l.Discount),
			}
			if err := saleRepo.CreateLine(ctx, line); err != nil {
				return err
			}

			// Asignación: reclamo atómico de unidades concretas. Segundo
			// chequeo a nivel de unidad: el contador y el conteo vivo pueden
			// divergir y aquí es donde una carrera perdida se detecta.
			units, err := allocate(ctx, unitRepo, p, l, in.WarehouseID, line.ID)
			if err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrConcurrencyConflict) {
					metrics.SaleConflictsTotal.Inc()
				}
				return err
			}
			unitIDs := make([]string, 0, len(units))
			for _, u := range units {
				unitIDs = append(unitIDs, u.ID)
			}
			line.UnitIDs = unitIDs

			// Asiento de salida por bodega de origen; las ventas no se re-costean.
			for warehouseID, ids := range groupByWarehouse(units) {
				mov := &entity.Movement{
					ID:          uuid.New().String(),
					ProductID:   l.ProductID,
					Type:        entity.MovementTypeOUT,
					Quantity:    int64(len(ids)),
					WarehouseID: warehouseID,
					Reference:   sale.ID,
					CreatedBy:   sellerID,
					CreatedAt:   now,
					UnitIDs:     ids,
				}
				if err := movRepo.Append(ctx, mov); err != nil {
					return err
				}
			}

			if err := productRepo.AdjustQuantity(ctx, l.ProductID, -l.Quantity); err != nil {
				return err
			}

			resp.Lines = append(resp.Lines, dto.SaleLineResponse{
				ID:        line.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Total:     line.Total,
				UnitIDs:   unitIDs,
			})
		}

		for _, pay := range in.Payments {
			payment := &entity.Payment{
				ID:       uuid.New().String(),
				SaleID:   sale.ID,
				MethodID: pay.MethodID,
				Amount:   pay.Amount,
			}
			if err := saleRepo.CreatePayment(ctx, payment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SalesCreatedTotal.Inc()
	return resp, nil
}

// resolveCustomer reutiliza el cliente por email (llave natural) o lo crea.
func resolveCustomer(ctx context.Context, customerRepo repository.CustomerRepository, in dto.CreateSaleRequest, now time.Time) (string, error) {
	if in.CustomerID != "" {
		c, err := customerRepo.GetByID(ctx, in.CustomerID)
		if err != nil {
			return "", err
		}
		if c == nil {
			return "", fmt.Errorf("cliente %s: %w", in.CustomerID, domain.ErrNotFound)
		}
		return c.ID, nil
	}

	nc := in.NewCustomer
	if nc.Email != "" {
		existing, err := customerRepo.GetByEmail(ctx, nc.Email)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return existing.ID, nil
		}
	}
	c := &entity.Customer{
		ID:        uuid.New().String(),
		Name:      nc.Name,
		Email:     nc.Email,
		Phone:     nc.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := customerRepo.Create(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// allocate reclama exactamente line.Quantity unidades para la línea: las
// elegidas por IMEI cuando el vendedor las especificó, o las primeras
// elegibles por id ascendente en caso contrario. Ambos caminos exigen la misma
// elegibilidad: una unidad cuyo último asiento es una salida no es vendible
// aunque el vendedor la nombre explícitamente.
func allocate(ctx context.Context, unitRepo repository.UnitRepository, p *entity.Product, l dto.SaleLineRequest, warehouseID, lineID string) ([]*entity.Unit, error) {
	if len(l.UnitIDs) > 0 {
		units, err := unitRepo.ClaimByIDs(ctx, l.UnitIDs, warehouseID, lineID)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if u.ProductID != p.ID {
				return nil, &domain.InvalidMovementError{
					Reason: fmt.Sprintf("la unidad %s no pertenece al producto %s", u.ID, p.ID),
				}
			}
		}
		return units, nil
	}

	units, err := unitRepo.ClaimAvailable(ctx, p.ID, warehouseID, l.Quantity, lineID)
	if err != nil {
		return nil, err
	}
	if int64(len(units)) < l.Quantity {
		return nil, &domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   l.Quantity,
			Available:   int64(len(units)),
		}
	}
	return units, nil
}

// groupByWarehouse agrupa las unidades asignadas por su bodega de origen.
func groupByWarehouse(units []*entity.Unit) map[string][]string {
	groups := make(map[string][]string)
	for _, u := range units {
		groups[u.WarehouseID] = append(groups[u.WarehouseID], u.ID)
	}
	return groups
}
