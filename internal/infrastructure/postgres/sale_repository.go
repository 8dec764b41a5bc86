package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación del puerto SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de persistencia para ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// NextNumber obtiene el siguiente consecutivo de venta.
func (r *SaleRepo) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('sale_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sale number: %w", err)
	}
	return n, nil
}

// Create persiste la cabecera de una venta.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (id, number, customer_id, seller_id, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, sale.Number, sale.CustomerID, sale.SellerID,
		sale.Total, sale.Status, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateLine persiste una línea de venta.
func (r *SaleRepo) CreateLine(ctx context.Context, line *entity.SaleLine) error {
	query := `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, discount, subtotal, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		line.ID, line.SaleID, line.ProductID, line.Quantity,
		line.UnitPrice, line.Discount, line.Subtotal, line.Total,
	)
	if err != nil {
		return fmt.Errorf("insert sale line: %w", err)
	}
	return nil
}

// CreatePayment persiste un pago de la venta.
func (r *SaleRepo) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	query := `INSERT INTO payments (id, sale_id, method_id, amount) VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, query, payment.ID, payment.SaleID, payment.MethodID, payment.Amount)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de una venta.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, number, customer_id, seller_id, total, status, created_at, updated_at
		FROM sales WHERE id = $1`
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Number, &s.CustomerID, &s.SellerID,
		&s.Total, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// GetLines obtiene las líneas de una venta con las unidades que las satisfacen.
func (r *SaleRepo) GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error) {
	query := `
		SELECT sl.id, sl.sale_id, sl.product_id, sl.quantity, sl.unit_price, sl.discount, sl.subtotal, sl.total,
		       COALESCE((SELECT array_agg(u.id ORDER BY u.id) FROM units u WHERE u.sale_line_id = sl.id), ARRAY[]::uuid[])
		FROM sale_lines sl
		WHERE sl.sale_id = $1
		ORDER BY sl.id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.SaleLine
	for rows.Next() {
		var l entity.SaleLine
		err := rows.Scan(
			&l.ID, &l.SaleID, &l.ProductID, &l.Quantity,
			&l.UnitPrice, &l.Discount, &l.Subtotal, &l.Total, &l.UnitIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// GetPayments obtiene los pagos de una venta.
func (r *SaleRepo) GetPayments(ctx context.Context, saleID string) ([]*entity.Payment, error) {
	query := `SELECT id, sale_id, method_id, amount FROM payments WHERE sale_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.MethodID, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de una venta (COMPLETED -> VOIDED).
func (r *SaleRepo) UpdateStatus(ctx context.Context, saleID, status string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE sales SET status = $2, updated_at = now() WHERE id = $1`,
		saleID, status,
	)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	return nil
}
