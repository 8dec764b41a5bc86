package inventory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// ReportUseCase proyecciones de solo lectura sobre el libro: inventario físico
// valorizado, export a Excel y conciliación contador-vs-libro. El alcance de
// bodegas llega siempre como parámetro explícito (visibilidad del usuario).
type ReportUseCase struct {
	movRepo     repository.MovementRepository
	productRepo repository.ProductRepository
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(movRepo repository.MovementRepository, productRepo repository.ProductRepository) *ReportUseCase {
	return &ReportUseCase{movRepo: movRepo, productRepo: productRepo}
}

// PhysicalInventory agrega el conteo presente por producto y bodega y lo
// valoriza a costo y PVP (conteo vivo × precio unitario del producto).
func (uc *ReportUseCase) PhysicalInventory(ctx context.Context, warehouseIDs []string) (*dto.PhysicalInventoryResponse, error) {
	counts, err := uc.movRepo.CountPresent(ctx, warehouseIDs)
	if err != nil {
		return nil, err
	}

	perProduct := make(map[string]*dto.PhysicalProductDTO)
	productIDs := make([]string, 0)
	for _, c := range counts {
		row, ok := perProduct[c.ProductID]
		if !ok {
			row = &dto.PhysicalProductDTO{
				ProductID:         c.ProductID,
				PerWarehouseCount: make(map[string]int64),
			}
			perProduct[c.ProductID] = row
			productIDs = append(productIDs, c.ProductID)
		}
		row.PerWarehouseCount[c.WarehouseID] += c.Count
		row.TotalCount += c.Count
	}

	products, err := uc.productRepo.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	resp := &dto.PhysicalInventoryResponse{
		TotalCost: decimal.Zero,
		TotalPVP:  decimal.Zero,
	}
	for _, p := range products {
		row := perProduct[p.ID]
		row.ProductName = p.Name
		row.Cost = p.Cost
		row.PVP = p.PVP
		count := decimal.NewFromInt(row.TotalCount)
		resp.TotalCost = resp.TotalCost.Add(p.Cost.Mul(count))
		resp.TotalPVP = resp.TotalPVP.Add(p.PVP.Mul(count))
	}

	sort.Strings(productIDs)
	for _, id := range productIDs {
		resp.PerProduct = append(resp.PerProduct, *perProduct[id])
	}
	return resp, nil
}

// Export genera el inventario físico en XLSX: una fila por unidad presente
// con producto, IMEI y bodega.
func (uc *ReportUseCase) Export(ctx context.Context, warehouseIDs []string) (*bytes.Buffer, error) {
	rows, err := uc.movRepo.ExportRows(ctx, warehouseIDs)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"producto", "imei", "bodega"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: encabezado: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("export: celda: %w", err)
		}
		row := []interface{}{r.ProductName, r.IMEI, r.WarehouseName}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export: fila %d: %w", i+2, err)
		}
	}
	return f.WriteToBuffer()
}

// Reconcile compara el contador cacheado de cada producto contra el total vivo
// derivado del libro. Cualquier divergencia indica una ruta de mutación que no
// actualizó ambos en la misma transacción.
func (uc *ReportUseCase) Reconcile(ctx context.Context) ([]dto.ReconciliationRowDTO, error) {
	ledger, err := uc.movRepo.CountPresentByProduct(ctx)
	if err != nil {
		return nil, err
	}
	products, err := uc.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ReconciliationRowDTO, 0, len(products))
	for _, p := range products {
		live := ledger[p.ID]
		rows = append(rows, dto.ReconciliationRowDTO{
			ProductID:      p.ID,
			CachedQuantity: p.Quantity,
			LedgerQuantity: live,
			Diverged:       p.Quantity != live,
		})
	}
	return rows, nil
}
