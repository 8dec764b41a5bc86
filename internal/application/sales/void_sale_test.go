package sales_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

func TestVoidSale_CompensaYLiberaUnidades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.s.addUnit("00000000-0000-0000-0000-000000000101", prodTel, bodegaA)
	f.s.addUnit("00000000-0000-0000-0000-000000000102", prodTel, bodegaA)

	resp, err := f.uc.CreateSale(ctx, vendedorID, dto.CreateSaleRequest{
		NewCustomer: clienteNuevo(),
		WarehouseID: bodegaA,
		Lines:       []dto.SaleLineRequest{lineaTel(2, 500)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), f.s.products[prodTel].Quantity)
	movimientosTrasVenta := len(f.s.movements)

	require.NoError(t, f.uc.VoidSale(ctx, vendedorID, resp.ID))

	// La venta queda VOIDED; los asientos originales no se tocan.
	assert.Equal(t, entity.SaleStatusVoided, f.s.salesByID[resp.ID].Status)
	assert.Greater(t, len(f.s.movements), movimientosTrasVenta,
		"anular agrega asientos compensatorios, nunca borra")

	// Ingreso compensatorio a la bodega de origen, costeado al costo del producto.
	comp := f.s.movements[len(f.s.movements)-1]
	assert.Equal(t, entity.MovementTypeIN, comp.Type)
	assert.Equal(t, int64(2), comp.Quantity)
	assert.Equal(t, bodegaA, comp.WarehouseID)
	assert.Equal(t, resp.ID, comp.Reference)
	require.NotNil(t, comp.UnitCost)
	assert.True(t, comp.UnitCost.Equal(decimal.NewFromInt(300)))

	// Unidades liberadas y de vuelta en inventario.
	for _, id := range resp.Lines[0].UnitIDs {
		assert.Nil(t, f.s.units[id].SaleLineID)
		assert.True(t, f.s.presentIn(id, bodegaA))
	}
	assert.Equal(t, int64(2), f.s.products[prodTel].Quantity,
		"el contador agregado se restaura")
}

func TestVoidSale_VentaYaAnulada_Rechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.s.addUnit("00000000-0000-0000-0000-000000000101", prodTel, bodegaA)

	resp, err := f.uc.CreateSale(ctx, vendedorID, dto.CreateSaleRequest{
		NewCustomer: clienteNuevo(),
		WarehouseID: bodegaA,
		Lines:       []dto.SaleLineRequest{lineaTel(1, 500)},
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.VoidSale(ctx, vendedorID, resp.ID))
	err = f.uc.VoidSale(ctx, vendedorID, resp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "anular dos veces no es idempotente silencioso")
}

func TestVoidSale_VentaInexistente(t *testing.T) {
	f := newFixture(t)

	err := f.uc.VoidSale(context.Background(), vendedorID, "00000000-0000-0000-0000-0000000000ff")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVoidSale_UnidadesVendiblesTrasAnular(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.s.addUnit("00000000-0000-0000-0000-000000000101", prodTel, bodegaA)

	resp, err := f.uc.CreateSale(ctx, vendedorID, dto.CreateSaleRequest{
		NewCustomer: clienteNuevo(),
		WarehouseID: bodegaA,
		Lines:       []dto.SaleLineRequest{lineaTel(1, 500)},
	})
	require.NoError(t, err)
	require.NoError(t, f.uc.VoidSale(ctx, vendedorID, resp.ID))

	// La misma unidad puede venderse de nuevo.
	resp2, err := f.uc.CreateSale(ctx, vendedorID, dto.CreateSaleRequest{
		NewCustomer: clienteNuevo(),
		WarehouseID: bodegaA,
		Lines:       []dto.SaleLineRequest{lineaTel(1, 500)},
	})
	require.NoError(t, err)
	assert.Equal(t, resp.Lines[0].UnitIDs, resp2.Lines[0].UnitIDs)
	assert.Equal(t, int64(2), resp2.Number)
}
