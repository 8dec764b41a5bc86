package dto

import "github.com/shopspring/decimal"

// NewCustomerDTO datos mínimos para crear el cliente en la misma venta.
// Si ya existe un cliente con ese email, se reutiliza en vez de duplicar.
type NewCustomerDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// SaleLineRequest línea de venta. UnitIDs opcional: cuando el vendedor eligió
// unidades concretas por IMEI, deben ser exactamente quantity unidades.
type SaleLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount,omitempty"`
	UnitIDs   []string        `json:"unit_ids,omitempty"`
}

// PaymentRequest pago aplicado a la venta.
type PaymentRequest struct {
	MethodID string          `json:"method_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// CreateSaleRequest venta completa: cliente por referencia o por datos nuevos,
// bodega de donde salen las unidades, líneas y pagos.
type CreateSaleRequest struct {
	CustomerID  string           `json:"customer_id,omitempty"`
	NewCustomer *NewCustomerDTO  `json:"new_customer,omitempty"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	Lines       []SaleLineRequest `json:"lines"`
	Payments    []PaymentRequest  `json:"payments,omitempty"`
}

// SaleLineResponse línea creada con sus unidades asignadas.
type SaleLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	UnitIDs   []string        `json:"unit_ids"`
}

// SaleResponse venta creada.
type SaleResponse struct {
	ID         string             `json:"id"`
	Number     int64              `json:"number"`
	CustomerID string             `json:"customer_id"`
	Total      decimal.Decimal    `json:"total"`
	Status     string             `json:"status"`
	Lines      []SaleLineResponse `json:"lines"`
}
