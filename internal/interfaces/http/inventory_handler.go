package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/inventory"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// InventoryHandler maneja movimientos, inventario físico y reportes (protegido).
type InventoryHandler struct {
	register *inventory.RegisterMovementUseCase
	resolver *inventory.Resolver
	report   *inventory.ReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	register *inventory.RegisterMovementUseCase,
	resolver *inventory.Resolver,
	report *inventory.ReportUseCase,
) *InventoryHandler {
	return &InventoryHandler{register: register, resolver: resolver, report: report}
}

// warehouseScope resuelve las bodegas visibles para el usuario: admin ve todas
// (o la del query param si filtra); vendedor y bodeguero solo la suya.
func warehouseScope(c *fiber.Ctx) []string {
	if GetRole(c) == entity.RoleAdmin {
		if wh := c.Query("warehouse_id"); wh != "" {
			return []string{wh}
		}
		return nil
	}
	if wh := GetWarehouseID(c); wh != "" {
		return []string{wh}
	}
	return nil
}

// RegisterMovement asienta un movimiento en el libro (IN, OUT o TRANSFER).
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.register.Register(c.Context(), inventory.MovementInput{
		UserID:          userID,
		ProductID:       in.ProductID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		UnitIDs:         in.UnitIDs,
		IMEIs:           in.IMEIs,
		Reference:       in.Reference,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordMovementResponse{
		MovementID: result.MovementID,
		UnitIDs:    result.UnitIDs,
	})
}

// PhysicalInventory devuelve el inventario físico derivado del libro,
// valorizado a costo y PVP, limitado a las bodegas visibles del usuario.
func (h *InventoryHandler) PhysicalInventory(c *fiber.Ctx) error {
	resp, err := h.report.PhysicalInventory(c.Context(), warehouseScope(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// ExportPhysical descarga el inventario físico como XLSX.
func (h *InventoryHandler) ExportPhysical(c *fiber.Ctx) error {
	buf, err := h.report.Export(c.Context(), warehouseScope(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="inventario_fisico.xlsx"`)
	return c.Send(buf.Bytes())
}

// Reconciliation compara el contador cacheado contra el libro.
// La ruta va protegida con RequireRole("admin").
func (h *InventoryHandler) Reconciliation(c *fiber.Ctx) error {
	rows, err := h.report.Reconcile(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(rows), "rows": rows})
}

// AvailableUnits lista unidades vendibles de un producto (búsqueda por IMEI).
func (h *InventoryHandler) AvailableUnits(c *fiber.Ctx) error {
	productID := c.Params("id")
	warehouseID := c.Query("warehouse_id")
	if GetRole(c) != entity.RoleAdmin {
		warehouseID = GetWarehouseID(c)
	}
	units, err := h.resolver.ListAvailableUnits(c.Context(), productID, warehouseID)
	if err != nil {
		return respondError(c, err)
	}
	list := make([]dto.AvailableUnitDTO, 0, len(units))
	for _, u := range units {
		row := dto.AvailableUnitDTO{UnitID: u.ID}
		if u.IMEI != nil {
			row.IMEI = *u.IMEI
		}
		list = append(list, row)
	}
	return c.JSON(fiber.Map{"total": len(list), "units": list})
}
