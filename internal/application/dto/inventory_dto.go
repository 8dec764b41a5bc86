package dto

import "github.com/shopspring/decimal"

// RecordMovementRequest asienta un movimiento en el libro.
// IN: quantity unidades nuevas; IMEIs opcional pero si viene debe tener quantity
// elementos. OUT: unit_ids de unidades presentes. TRANSFER: unit_ids presentes
// en from_warehouse_id; warehouse_id es la bodega destino.
type RecordMovementRequest struct {
	ProductID       string           `json:"product_id"`
	Type            string           `json:"type"`
	Quantity        int64            `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	WarehouseID     string           `json:"warehouse_id"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty"`
	UnitIDs         []string         `json:"unit_ids,omitempty"`
	IMEIs           []string         `json:"imeis,omitempty"`
	Reference       string           `json:"reference,omitempty"`
}

// RecordMovementResponse devuelve el asiento creado y las unidades acuñadas.
type RecordMovementResponse struct {
	MovementID string   `json:"movement_id"`
	UnitIDs    []string `json:"unit_ids"`
}

// AvailableUnitDTO unidad disponible para venta (listado por producto/bodega).
type AvailableUnitDTO struct {
	UnitID string `json:"unit_id"`
	IMEI   string `json:"imei,omitempty"`
}

// PhysicalProductDTO fila del inventario físico por producto.
type PhysicalProductDTO struct {
	ProductID         string           `json:"product_id"`
	ProductName       string           `json:"product_name"`
	Cost              decimal.Decimal  `json:"cost"`
	PVP               decimal.Decimal  `json:"pvp"`
	PerWarehouseCount map[string]int64 `json:"per_warehouse_count"`
	TotalCount        int64            `json:"total_count"`
}

// PhysicalInventoryResponse inventario físico con totales valorizados.
type PhysicalInventoryResponse struct {
	PerProduct []PhysicalProductDTO `json:"per_product"`
	TotalCost  decimal.Decimal      `json:"total_cost"`
	TotalPVP   decimal.Decimal      `json:"total_pvp"`
}

// ReconciliationRowDTO compara el contador cacheado contra el libro.
type ReconciliationRowDTO struct {
	ProductID      string `json:"product_id"`
	CachedQuantity int64  `json:"cached_quantity"`
	LedgerQuantity int64  `json:"ledger_quantity"`
	Diverged       bool   `json:"diverged"`
}
