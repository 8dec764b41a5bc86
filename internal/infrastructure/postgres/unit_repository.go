package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.UnitRepository = (*UnitRepo)(nil)

const unitColumns = `id, product_id, imei, warehouse_id, sale_line_id, active, created_at, updated_at`

// latestCTE calcula el último movimiento de cada unidad de un producto.
// created_at DESC con seq como desempate determinista para asientos simultáneos.
const latestCTE = `
	WITH latest AS (
		SELECT DISTINCT ON (mu.unit_id) mu.unit_id, m.type, m.warehouse_id
		FROM movement_units mu
		JOIN movements m ON m.id = mu.movement_id
		WHERE m.product_id = $1
		ORDER BY mu.unit_id, m.created_at DESC, m.seq DESC
	)`

// eligibleWhere filtra unidades asignables: activas, sin dueño y cuyo último
// asiento las deja presentes ($2 NULL = cualquier bodega).
const eligibleWhere = `
	u.product_id = $1
	  AND u.active
	  AND u.sale_line_id IS NULL
	  AND l.type <> 'OUT'
	  AND ($2::uuid IS NULL OR l.warehouse_id = $2::uuid)`

// UnitRepo implementación del puerto UnitRepository sobre PostgreSQL (usable con pool o tx).
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador de persistencia para unidades. Pasar pool o tx (Querier).
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

func scanUnit(row pgx.Row) (*entity.Unit, error) {
	var u entity.Unit
	err := row.Scan(
		&u.ID, &u.ProductID, &u.IMEI, &u.WarehouseID, &u.SaleLineID,
		&u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// CreateBatch inserta las unidades acuñadas por un ingreso en un solo round-trip.
func (r *UnitRepo) CreateBatch(ctx context.Context, units []*entity.Unit) error {
	if len(units) == 0 {
		return nil
	}
	ids := make([]string, len(units))
	productIDs := make([]string, len(units))
	imeis := make([]*string, len(units))
	warehouseIDs := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
		productIDs[i] = u.ProductID
		imeis[i] = u.IMEI
		warehouseIDs[i] = u.WarehouseID
	}
	query := `
		INSERT INTO units (id, product_id, imei, warehouse_id, active, created_at, updated_at)
		SELECT unnest($1::uuid[]), unnest($2::uuid[]), unnest($3::text[]), unnest($4::uuid[]), TRUE, now(), now()`
	_, err := r.q.Exec(ctx, query, ids, productIDs, imeis, warehouseIDs)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert units: %w", err)
	}
	return nil
}

// GetByID obtiene una unidad por ID.
func (r *UnitRepo) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = $1`
	u, err := scanUnit(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return u, nil
}

// GetByIMEI obtiene una unidad por su identificador externo.
func (r *UnitRepo) GetByIMEI(ctx context.Context, imei string) (*entity.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE imei = $1`
	u, err := scanUnit(r.q.QueryRow(ctx, query, imei))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit by imei: %w", err)
	}
	return u, nil
}

// ListByIDs obtiene varias unidades en un solo round-trip.
func (r *UnitRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Unit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = ANY($1::uuid[]) ORDER BY id`
	return r.queryUnits(ctx, query, ids)
}

// ListByProduct lista todas las unidades de un producto.
func (r *UnitRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE product_id = $1 ORDER BY id`
	return r.queryUnits(ctx, query, productID)
}

// ListAvailable lista unidades activas, sin dueño y presentes según el libro.
func (r *UnitRepo) ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.Unit, error) {
	query := latestCTE + `
		SELECT u.` + unitColumnsPrefixed + `
		FROM units u
		JOIN latest l ON l.unit_id = u.id
		WHERE ` + eligibleWhere + `
		ORDER BY u.id`
	return r.queryUnits(ctx, query, productID, nullableID(warehouseID))
}

// CountAvailable cuenta unidades asignables sin traerlas.
func (r *UnitRepo) CountAvailable(ctx context.Context, productID, warehouseID string) (int64, error) {
	query := latestCTE + `
		SELECT count(*)
		FROM units u
		JOIN latest l ON l.unit_id = u.id
		WHERE ` + eligibleWhere
	var n int64
	if err := r.q.QueryRow(ctx, query, productID, nullableID(warehouseID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count available units: %w", err)
	}
	return n, nil
}

// ClaimAvailable reclama atómicamente quantity unidades elegibles en orden de id
// ascendente, saltando las que otra transacción ya bloqueó (SKIP LOCKED).
// Con menos elegibles que quantity devuelve las disponibles sin marcar ninguna;
// si el UPDATE posterior toca menos filas que las seleccionadas, otra venta
// ganó la carrera y se reporta conflicto para que el llamador decida.
func (r *UnitRepo) ClaimAvailable(ctx context.Context, productID, warehouseID string, quantity int64, saleLineID string) ([]*entity.Unit, error) {
	query := latestCTE + `
		SELECT u.` + unitColumnsPrefixed + `
		FROM units u
		JOIN latest l ON l.unit_id = u.id
		WHERE ` + eligibleWhere + `
		ORDER BY u.id
		LIMIT $3
		FOR UPDATE OF u SKIP LOCKED`
	selected, err := r.queryUnits(ctx, query, productID, nullableID(warehouseID), quantity)
	if err != nil {
		return nil, fmt.Errorf("select units for claim: %w", err)
	}
	if int64(len(selected)) < quantity {
		return selected, nil
	}

	ids := make([]string, len(selected))
	for i, u := range selected {
		ids[i] = u.ID
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE units SET sale_line_id = $1, updated_at = now() WHERE id = ANY($2::uuid[]) AND sale_line_id IS NULL`,
		saleLineID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("claim units: %w", err)
	}
	if cmd.RowsAffected() != int64(len(ids)) {
		return nil, domain.ErrConcurrencyConflict
	}
	for _, u := range selected {
		lineID := saleLineID
		u.SaleLineID = &lineID
	}
	return selected, nil
}

// ClaimByIDs reclama unidades concretas ya elegidas por el vendedor. Verifica
// bajo lock la misma elegibilidad que ClaimAvailable — activa, sin dueño y
// físicamente presente según el libro — y nombra la unidad que no cumple.
func (r *UnitRepo) ClaimByIDs(ctx context.Context, unitIDs []string, warehouseID, saleLineID string) ([]*entity.Unit, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (mu.unit_id) mu.unit_id, m.type, m.warehouse_id
			FROM movement_units mu
			JOIN movements m ON m.id = mu.movement_id
			WHERE mu.unit_id = ANY($1::uuid[])
			ORDER BY mu.unit_id, m.created_at DESC, m.seq DESC
		)
		SELECT u.id, u.sale_line_id, u.active, l.type, l.warehouse_id
		FROM units u
		LEFT JOIN latest l ON l.unit_id = u.id
		WHERE u.id = ANY($1::uuid[])
		FOR UPDATE OF u`
	rows, err := r.q.Query(ctx, query, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("select units for claim by ids: %w", err)
	}
	defer rows.Close()

	type unitState struct {
		saleLineID    *string
		active        bool
		lastType      *string
		lastWarehouse *string
	}
	states := make(map[string]unitState, len(unitIDs))
	for rows.Next() {
		var id string
		var st unitState
		if err := rows.Scan(&id, &st.saleLineID, &st.active, &st.lastType, &st.lastWarehouse); err != nil {
			return nil, fmt.Errorf("scan unit state: %w", err)
		}
		states[id] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select units for claim by ids: %w", err)
	}

	for _, id := range unitIDs {
		st, ok := states[id]
		if !ok {
			return nil, fmt.Errorf("unidad %s: %w", id, domain.ErrNotFound)
		}
		if st.saleLineID != nil {
			return nil, fmt.Errorf("unidad %s ya reclamada: %w", id, domain.ErrConcurrencyConflict)
		}
		if !st.active {
			return nil, &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s está retirada", id)}
		}
		if st.lastType == nil || *st.lastType == entity.MovementTypeOUT {
			return nil, &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s no está físicamente presente", id)}
		}
		if warehouseID != "" && (st.lastWarehouse == nil || *st.lastWarehouse != warehouseID) {
			return nil, &domain.InvalidMovementError{Reason: fmt.Sprintf("la unidad %s no está en la bodega %s", id, warehouseID)}
		}
	}

	cmd, err := r.q.Exec(ctx,
		`UPDATE units SET sale_line_id = $1, updated_at = now() WHERE id = ANY($2::uuid[]) AND sale_line_id IS NULL AND active`,
		saleLineID, unitIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("claim units by ids: %w", err)
	}
	if cmd.RowsAffected() != int64(len(unitIDs)) {
		return nil, domain.ErrConcurrencyConflict
	}
	return r.ListByIDs(ctx, unitIDs)
}

// ReleaseBySaleLine limpia la propiedad de las unidades de una línea anulada
// y devuelve sus IDs para asentar los movimientos compensatorios.
func (r *UnitRepo) ReleaseBySaleLine(ctx context.Context, saleLineID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`UPDATE units SET sale_line_id = NULL, updated_at = now() WHERE sale_line_id = $1 RETURNING id`,
		saleLineID,
	)
	if err != nil {
		return nil, fmt.Errorf("release units: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan released unit: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateWarehouse sincroniza la proyección de bodega tras un traslado.
func (r *UnitRepo) UpdateWarehouse(ctx context.Context, unitIDs []string, warehouseID string) error {
	if len(unitIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`UPDATE units SET warehouse_id = $1, updated_at = now() WHERE id = ANY($2::uuid[])`,
		warehouseID, unitIDs,
	)
	if err != nil {
		return fmt.Errorf("update unit warehouse: %w", err)
	}
	return nil
}

const unitColumnsPrefixed = `id, u.product_id, u.imei, u.warehouse_id, u.sale_line_id, u.active, u.created_at, u.updated_at`

func (r *UnitRepo) queryUnits(ctx context.Context, query string, args ...any) ([]*entity.Unit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()
	var list []*entity.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
