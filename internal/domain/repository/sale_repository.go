package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas, líneas y pagos.
type SaleRepository interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, sale *entity.Sale) error
	CreateLine(ctx context.Context, line *entity.SaleLine) error
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error)
	GetPayments(ctx context.Context, saleID string) ([]*entity.Payment, error)
	UpdateStatus(ctx context.Context, saleID, status string) error
}
