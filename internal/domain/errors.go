package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInvalidMovement     = errors.New("movimiento inválido")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrPricingViolation    = errors.New("violación de reglas de precio")
	ErrPaymentMismatch     = errors.New("pagos no cuadran con el total")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia en asignación")
)

// InsufficientStockError reporta el faltante por producto (chequeo agregado o por unidades).
// Envuelve ErrInsufficientStock para que errors.Is siga funcionando en los handlers.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s (%s): solicitado %d, disponible %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall devuelve cuántas unidades faltaron.
func (e *InsufficientStockError) Shortfall() int64 { return e.Requested - e.Available }

// PricingViolationError indica qué línea rompe una regla de precio y el precio esperado.
type PricingViolationError struct {
	LineIndex     int
	ProductID     string
	Reason        string
	ExpectedPrice decimal.Decimal
	GivenPrice    decimal.Decimal
}

func (e *PricingViolationError) Error() string {
	return fmt.Sprintf("línea %d (producto %s): %s (esperado %s, recibido %s)",
		e.LineIndex, e.ProductID, e.Reason, e.ExpectedPrice.StringFixed(2), e.GivenPrice.StringFixed(2))
}

func (e *PricingViolationError) Unwrap() error { return ErrPricingViolation }

// PaymentMismatchError reporta total de venta vs suma de pagos.
type PaymentMismatchError struct {
	SaleTotal decimal.Decimal
	PaidTotal decimal.Decimal
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("los pagos (%s) no cuadran con el total de la venta (%s)",
		e.PaidTotal.StringFixed(2), e.SaleTotal.StringFixed(2))
}

func (e *PaymentMismatchError) Unwrap() error { return ErrPaymentMismatch }

// InvalidMovementError detalla por qué un movimiento no puede asentarse en el libro.
type InvalidMovementError struct {
	Reason string
}

func (e *InvalidMovementError) Error() string {
	return "movimiento inválido: " + e.Reason
}

func (e *InvalidMovementError) Unwrap() error { return ErrInvalidMovement }
