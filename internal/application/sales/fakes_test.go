package sales_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// store estado compartido en memoria para los fakes de repositorio del camino
// de venta. Reproduce el contrato de los adaptadores de PostgreSQL: asignación
// atómica por orden de id ascendente y presencia derivada del último asiento.
type store struct {
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	units      map[string]*entity.Unit
	movements  []*entity.Movement
	customers  map[string]*entity.Customer
	salesByID  map[string]*entity.Sale
	lines      map[string][]*entity.SaleLine
	payments   map[string][]*entity.Payment
	seq        int64
	saleNumber int64
}

func newStore() *store {
	return &store{
		products:   make(map[string]*entity.Product),
		warehouses: make(map[string]*entity.Warehouse),
		units:      make(map[string]*entity.Unit),
		customers:  make(map[string]*entity.Customer),
		salesByID:  make(map[string]*entity.Sale),
		lines:      make(map[string][]*entity.SaleLine),
		payments:   make(map[string][]*entity.Payment),
	}
}

func (s *store) latestFor(unitID string) *entity.Movement {
	var best *entity.Movement
	for _, m := range s.movements {
		touches := false
		for _, id := range m.UnitIDs {
			if id == unitID {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		if best == nil || m.CreatedAt.After(best.CreatedAt) ||
			(m.CreatedAt.Equal(best.CreatedAt) && m.Seq > best.Seq) {
			best = m
		}
	}
	return best
}

func (s *store) presentIn(unitID, warehouseID string) bool {
	m := s.latestFor(unitID)
	if m == nil || !m.Inbound() {
		return false
	}
	return warehouseID == "" || m.WarehouseID == warehouseID
}

// addUnit acuña una unidad presente en la bodega (asienta el IN correspondiente).
func (s *store) addUnit(id, productID, warehouseID string) {
	s.units[id] = &entity.Unit{
		ID:          id,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Active:      true,
	}
	s.seq++
	s.movements = append(s.movements, &entity.Movement{
		ID:          "mov-in-" + id,
		Seq:         s.seq,
		ProductID:   productID,
		Type:        entity.MovementTypeIN,
		Quantity:    1,
		WarehouseID: warehouseID,
		UnitIDs:     []string{id},
	})
	s.products[productID].Quantity++
}

// outUnit asienta una salida manual (merma) de una unidad presente. La unidad
// sigue activa y sin dueño, pero su último asiento la deja ausente.
func (s *store) outUnit(id, productID, warehouseID string) {
	s.seq++
	s.movements = append(s.movements, &entity.Movement{
		ID:          "mov-out-" + id,
		Seq:         s.seq,
		ProductID:   productID,
		Type:        entity.MovementTypeOUT,
		Quantity:    1,
		WarehouseID: warehouseID,
		UnitIDs:     []string{id},
	})
	s.products[productID].Quantity--
}

// ── MovementRepository ────────────────────────────────────────────────────────

type fakeMovementRepo struct{ s *store }

func (r *fakeMovementRepo) Append(_ context.Context, m *entity.Movement) error {
	r.s.seq++
	m.Seq = r.s.seq
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r *fakeMovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].ProductID == productID {
			list = append(list, r.s.movements[i])
		}
	}
	return list, nil
}

func (r *fakeMovementRepo) LatestPerUnit(_ context.Context, unitIDs []string) (map[string]*entity.Movement, error) {
	result := make(map[string]*entity.Movement)
	for _, id := range unitIDs {
		if m := r.s.latestFor(id); m != nil {
			result[id] = m
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) CountPresent(_ context.Context, _ []string) ([]repository.PresentCount, error) {
	return nil, nil
}

func (r *fakeMovementRepo) CountPresentByProduct(_ context.Context) (map[string]int64, error) {
	return nil, nil
}

func (r *fakeMovementRepo) ExportRows(_ context.Context, _ []string) ([]repository.ExportRow, error) {
	return nil, nil
}

// ── UnitRepository ────────────────────────────────────────────────────────────

type fakeUnitRepo struct{ s *store }

func (r *fakeUnitRepo) CreateBatch(_ context.Context, units []*entity.Unit) error {
	for _, u := range units {
		cp := *u
		r.s.units[u.ID] = &cp
	}
	return nil
}

func (r *fakeUnitRepo) GetByID(_ context.Context, id string) (*entity.Unit, error) {
	return r.s.units[id], nil
}

func (r *fakeUnitRepo) GetByIMEI(_ context.Context, imei string) (*entity.Unit, error) {
	for _, u := range r.s.units {
		if u.IMEI != nil && *u.IMEI == imei {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUnitRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.Unit, error) {
	var list []*entity.Unit
	for _, id := range ids {
		if u, ok := r.s.units[id]; ok {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *fakeUnitRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Unit, error) {
	var list []*entity.Unit
	for _, u := range r.s.units {
		if u.ProductID == productID {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *fakeUnitRepo) eligible(productID, warehouseID string) []*entity.Unit {
	var list []*entity.Unit
	for _, u := range r.s.units {
		if u.ProductID != productID || !u.Available() {
			continue
		}
		if !r.s.presentIn(u.ID, warehouseID) {
			continue
		}
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *fakeUnitRepo) ListAvailable(_ context.Context, productID, warehouseID string) ([]*entity.Unit, error) {
	return r.eligible(productID, warehouseID), nil
}

func (r *fakeUnitRepo) CountAvailable(_ context.Context, productID, warehouseID string) (int64, error) {
	return int64(len(r.eligible(productID, warehouseID))), nil
}

func (r *fakeUnitRepo) ClaimAvailable(_ context.Context, productID, warehouseID string, quantity int64, saleLineID string) ([]*entity.Unit, error) {
	eligible := r.eligible(productID, warehouseID)
	if int64(len(eligible)) < quantity {
		return eligible, nil
	}
	claimed := eligible[:quantity]
	for _, u := range claimed {
		lineID := saleLineID
		u.SaleLineID = &lineID
	}
	return claimed, nil
}

func (r *fakeUnitRepo) ClaimByIDs(_ context.Context, unitIDs []string, warehouseID, saleLineID string) ([]*entity.Unit, error) {
	var list []*entity.Unit
	for _, id := range unitIDs {
		u, ok := r.s.units[id]
		if !ok {
			return nil, fmt.Errorf("unidad %s: %w", id, domain.ErrNotFound)
		}
		if u.SaleLineID != nil {
			return nil, fmt.Errorf("unidad %s ya reclamada: %w", id, domain.ErrConcurrencyConflict)
		}
		if !u.Active {
			return nil, &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s está retirada", id)}
		}
		if !r.s.presentIn(id, warehouseID) {
			return nil, &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s no está físicamente presente", id)}
		}
		list = append(list, u)
	}
	for _, u := range list {
		lineID := saleLineID
		u.SaleLineID = &lineID
	}
	return list, nil
}

func (r *fakeUnitRepo) ReleaseBySaleLine(_ context.Context, saleLineID string) ([]string, error) {
	var ids []string
	for _, u := range r.s.units {
		if u.SaleLineID != nil && *u.SaleLineID == saleLineID {
			u.SaleLineID = nil
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeUnitRepo) UpdateWarehouse(_ context.Context, unitIDs []string, warehouseID string) error {
	for _, id := range unitIDs {
		if u, ok := r.s.units[id]; ok {
			u.WarehouseID = warehouseID
		}
	}
	return nil
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type fakeProductRepo struct{ s *store }

func (r *fakeProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.s.products[id], nil
}

func (r *fakeProductRepo) GetForUpdate(_ context.Context, id string) (*entity.Product, error) {
	return r.s.products[id], nil
}

func (r *fakeProductRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	var list []*entity.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			list = append(list, p)
		}
	}
	return list, nil
}

func (r *fakeProductRepo) ListAll(_ context.Context) ([]*entity.Product, error) {
	var list []*entity.Product
	for _, p := range r.s.products {
		list = append(list, p)
	}
	return list, nil
}

func (r *fakeProductRepo) AdjustQuantity(_ context.Context, id string, delta int64) error {
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Quantity += delta
	return nil
}

// ── CustomerRepository ────────────────────────────────────────────────────────

type fakeCustomerRepo struct{ s *store }

func (r *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.s.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.s.customers[id], nil
}

func (r *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*entity.Customer, error) {
	for _, c := range r.s.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCustomerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	var list []*entity.Customer
	for _, c := range r.s.customers {
		list = append(list, c)
	}
	return list, nil
}

// ── SaleRepository ────────────────────────────────────────────────────────────

type fakeSaleRepo struct{ s *store }

func (r *fakeSaleRepo) NextNumber(_ context.Context) (int64, error) {
	r.s.saleNumber++
	return r.s.saleNumber, nil
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	r.s.salesByID[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) CreateLine(_ context.Context, line *entity.SaleLine) error {
	r.s.lines[line.SaleID] = append(r.s.lines[line.SaleID], line)
	return nil
}

func (r *fakeSaleRepo) CreatePayment(_ context.Context, payment *entity.Payment) error {
	r.s.payments[payment.SaleID] = append(r.s.payments[payment.SaleID], payment)
	return nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return r.s.salesByID[id], nil
}

func (r *fakeSaleRepo) GetLines(_ context.Context, saleID string) ([]*entity.SaleLine, error) {
	return r.s.lines[saleID], nil
}

func (r *fakeSaleRepo) GetPayments(_ context.Context, saleID string) ([]*entity.Payment, error) {
	return r.s.payments[saleID], nil
}

func (r *fakeSaleRepo) UpdateStatus(_ context.Context, saleID, status string) error {
	sale, ok := r.s.salesByID[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	sale.Status = status
	return nil
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type fakeTxRunner struct{ s *store }

var _ sales.TxRunner = (*fakeTxRunner)(nil)

func (r *fakeTxRunner) RunSale(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	unitRepo repository.UnitRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return fn(
		&fakeMovementRepo{s: r.s},
		&fakeUnitRepo{s: r.s},
		&fakeProductRepo{s: r.s},
		&fakeCustomerRepo{s: r.s},
		&fakeSaleRepo{s: r.s},
	)
}
