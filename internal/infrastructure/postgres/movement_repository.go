package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// latestAllCTE calcula el último asiento de cada unidad del libro completo.
const latestAllCTE = `
	WITH latest AS (
		SELECT DISTINCT ON (mu.unit_id) mu.unit_id, m.product_id, m.type, m.warehouse_id
		FROM movement_units mu
		JOIN movements m ON m.id = mu.movement_id
		ORDER BY mu.unit_id, m.created_at DESC, m.seq DESC
	)`

// MovementRepo implementación del puerto MovementRepository sobre PostgreSQL (usable con pool o tx).
// El libro es append-only: este adaptador solo inserta y consulta.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del libro de movimientos. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append asienta un movimiento y sus unidades afectadas. La BD asigna seq
// (BIGSERIAL) y queda escrito en la entidad para el desempate determinista.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.Movement) error {
	query := `
		INSERT INTO movements (id, product_id, type, quantity, unit_cost, warehouse_id, from_warehouse_id, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity,
		movement.UnitCost, movement.WarehouseID, movement.FromWarehouseID,
		movement.Reference, nullableID(movement.CreatedBy), movement.CreatedAt,
	).Scan(&movement.Seq)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	if len(movement.UnitIDs) > 0 {
		_, err = r.q.Exec(ctx,
			`INSERT INTO movement_units (movement_id, unit_id) SELECT $1, unnest($2::uuid[])`,
			movement.ID, movement.UnitIDs,
		)
		if err != nil {
			return fmt.Errorf("insert movement units: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un movimiento con sus unidades afectadas.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `
		SELECT m.id, m.seq, m.product_id, m.type, m.quantity, m.unit_cost, m.warehouse_id, m.from_warehouse_id, m.reference, m.created_by, m.created_at,
		       COALESCE((SELECT array_agg(mu.unit_id ORDER BY mu.unit_id) FROM movement_units mu WHERE mu.movement_id = m.id), ARRAY[]::uuid[])
		FROM movements m WHERE m.id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista el historial de un producto, más reciente primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT m.id, m.seq, m.product_id, m.type, m.quantity, m.unit_cost, m.warehouse_id, m.from_warehouse_id, m.reference, m.created_by, m.created_at,
		       COALESCE((SELECT array_agg(mu.unit_id ORDER BY mu.unit_id) FROM movement_units mu WHERE mu.movement_id = m.id), ARRAY[]::uuid[])
		FROM movements m
		WHERE m.product_id = $1
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// LatestPerUnit resuelve en un solo round-trip el asiento más reciente de cada
// unidad pedida. Unidades sin asientos simplemente no aparecen en el mapa.
func (r *MovementRepo) LatestPerUnit(ctx context.Context, unitIDs []string) (map[string]*entity.Movement, error) {
	if len(unitIDs) == 0 {
		return map[string]*entity.Movement{}, nil
	}
	query := `
		SELECT DISTINCT ON (mu.unit_id) mu.unit_id,
		       m.id, m.seq, m.product_id, m.type, m.quantity, m.unit_cost, m.warehouse_id, m.from_warehouse_id, m.reference, m.created_by, m.created_at
		FROM movement_units mu
		JOIN movements m ON m.id = mu.movement_id
		WHERE mu.unit_id = ANY($1::uuid[])
		ORDER BY mu.unit_id, m.created_at DESC, m.seq DESC`
	rows, err := r.q.Query(ctx, query, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("latest movement per unit: %w", err)
	}
	defer rows.Close()
	result := make(map[string]*entity.Movement, len(unitIDs))
	for rows.Next() {
		var unitID string
		var m entity.Movement
		var createdBy *string
		err := rows.Scan(
			&unitID,
			&m.ID, &m.Seq, &m.ProductID, &m.Type, &m.Quantity, &m.UnitCost,
			&m.WarehouseID, &m.FromWarehouseID, &m.Reference, &createdBy, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan latest movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		result[unitID] = &m
	}
	return result, rows.Err()
}

// CountPresent agrupa por producto y bodega las unidades cuyo último asiento
// no es una salida. Con warehouseIDs vacío cuenta todas las bodegas.
func (r *MovementRepo) CountPresent(ctx context.Context, warehouseIDs []string) ([]repository.PresentCount, error) {
	query := latestAllCTE + `
		SELECT l.product_id, l.warehouse_id, count(*)
		FROM latest l
		JOIN units u ON u.id = l.unit_id
		WHERE l.type <> 'OUT' AND u.active
		  AND ($1::uuid[] IS NULL OR l.warehouse_id = ANY($1::uuid[]))
		GROUP BY l.product_id, l.warehouse_id
		ORDER BY l.product_id, l.warehouse_id`
	rows, err := r.q.Query(ctx, query, nullableIDs(warehouseIDs))
	if err != nil {
		return nil, fmt.Errorf("count present units: %w", err)
	}
	defer rows.Close()
	var list []repository.PresentCount
	for rows.Next() {
		var pc repository.PresentCount
		if err := rows.Scan(&pc.ProductID, &pc.WarehouseID, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan present count: %w", err)
		}
		list = append(list, pc)
	}
	return list, rows.Err()
}

// CountPresentByProduct deriva del libro el total vivo por producto.
func (r *MovementRepo) CountPresentByProduct(ctx context.Context) (map[string]int64, error) {
	query := latestAllCTE + `
		SELECT l.product_id, count(*)
		FROM latest l
		JOIN units u ON u.id = l.unit_id
		WHERE l.type <> 'OUT' AND u.active
		GROUP BY l.product_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count present by product: %w", err)
	}
	defer rows.Close()
	result := make(map[string]int64)
	for rows.Next() {
		var productID string
		var n int64
		if err := rows.Scan(&productID, &n); err != nil {
			return nil, fmt.Errorf("scan present by product: %w", err)
		}
		result[productID] = n
	}
	return result, rows.Err()
}

// ExportRows lista producto, IMEI y bodega de cada unidad presente.
func (r *MovementRepo) ExportRows(ctx context.Context, warehouseIDs []string) ([]repository.ExportRow, error) {
	query := latestAllCTE + `
		SELECT p.name, COALESCE(u.imei, ''), w.name
		FROM latest l
		JOIN units u ON u.id = l.unit_id
		JOIN products p ON p.id = l.product_id
		JOIN warehouses w ON w.id = l.warehouse_id
		WHERE l.type <> 'OUT' AND u.active
		  AND ($1::uuid[] IS NULL OR l.warehouse_id = ANY($1::uuid[]))
		ORDER BY p.name, u.imei`
	rows, err := r.q.Query(ctx, query, nullableIDs(warehouseIDs))
	if err != nil {
		return nil, fmt.Errorf("export present units: %w", err)
	}
	defer rows.Close()
	var list []repository.ExportRow
	for rows.Next() {
		var er repository.ExportRow
		if err := rows.Scan(&er.ProductName, &er.IMEI, &er.WarehouseName); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		list = append(list, er)
	}
	return list, rows.Err()
}

func nullableIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func scanMovement(row pgx.Row, withUnits bool) (*entity.Movement, error) {
	var m entity.Movement
	var createdBy *string
	dest := []any{
		&m.ID, &m.Seq, &m.ProductID, &m.Type, &m.Quantity, &m.UnitCost,
		&m.WarehouseID, &m.FromWarehouseID, &m.Reference, &createdBy, &m.CreatedAt,
	}
	if withUnits {
		dest = append(dest, &m.UnitIDs)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}
