package inventory_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/ventas-api/internal/application/inventory"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// store estado compartido en memoria para los fakes de repositorio.
// Reproduce el contrato de los adaptadores de PostgreSQL: el libro es
// append-only con seq creciente y la presencia física se deriva del último
// asiento por unidad.
type store struct {
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	units      map[string]*entity.Unit
	movements  []*entity.Movement
	seq        int64
}

func newStore() *store {
	return &store{
		products:   make(map[string]*entity.Product),
		warehouses: make(map[string]*entity.Warehouse),
		units:      make(map[string]*entity.Unit),
	}
}

// latestFor devuelve el último asiento que toca la unidad (created_at, seq).
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
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
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

func (r *fakeMovementRepo) CountPresent(_ context.Context, warehouseIDs []string) ([]repository.PresentCount, error) {
	inScope := func(wh string) bool {
		if len(warehouseIDs) == 0 {
			return true
		}
		for _, w := range warehouseIDs {
			if w == wh {
				return true
			}
		}
		return false
	}
	counts := make(map[[2]string]int64)
	for id, u := range r.s.units {
		if !u.Active {
			continue
		}
		m := r.s.latestFor(id)
		if m == nil || !m.Inbound() || !inScope(m.WarehouseID) {
			continue
		}
		counts[[2]string{u.ProductID, m.WarehouseID}]++
	}
	var list []repository.PresentCount
	for key, n := range counts {
		list = append(list, repository.PresentCount{ProductID: key[0], WarehouseID: key[1], Count: n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ProductID != list[j].ProductID {
			return list[i].ProductID < list[j].ProductID
		}
		return list[i].WarehouseID < list[j].WarehouseID
	})
	return list, nil
}

func (r *fakeMovementRepo) CountPresentByProduct(_ context.Context) (map[string]int64, error) {
	result := make(map[string]int64)
	for id, u := range r.s.units {
		if !u.Active {
			continue
		}
		if m := r.s.latestFor(id); m != nil && m.Inbound() {
			result[u.ProductID]++
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) ExportRows(_ context.Context, warehouseIDs []string) ([]repository.ExportRow, error) {
	var rows []repository.ExportRow
	for id, u := range r.s.units {
		m := r.s.latestFor(id)
		if m == nil || !m.Inbound() || !u.Active {
			continue
		}
		inScope := len(warehouseIDs) == 0
		for _, w := range warehouseIDs {
			if w == m.WarehouseID {
				inScope = true
			}
		}
		if !inScope {
			continue
		}
		imei := ""
		if u.IMEI != nil {
			imei = *u.IMEI
		}
		rows = append(rows, repository.ExportRow{
			ProductName:   r.s.products[u.ProductID].Name,
			IMEI:          imei,
			WarehouseName: r.s.warehouses[m.WarehouseID].Name,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductName != rows[j].ProductName {
			return rows[i].ProductName < rows[j].ProductName
		}
		return rows[i].IMEI < rows[j].IMEI
	})
	return rows, nil
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
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
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

// ── WarehouseRepository ───────────────────────────────────────────────────────

type fakeWarehouseRepo struct{ s *store }

func (r *fakeWarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.warehouses[w.ID] = w
	return nil
}

func (r *fakeWarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	return r.s.warehouses[id], nil
}

func (r *fakeWarehouseRepo) ListActive(_ context.Context) ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if w.Active {
			list = append(list, w)
		}
	}
	return list, nil
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type fakeTxRunner struct{ s *store }

var _ inventory.TxRunner = (*fakeTxRunner)(nil)

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	unitRepo repository.UnitRepository,
	productRepo repository.ProductRepository,
) error) error {
	return fn(&fakeMovementRepo{s: r.s}, &fakeUnitRepo{s: r.s}, &fakeProductRepo{s: r.s})
}
