package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/inventory"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// La secuencia canónica de una unidad: ingreso → traslado → salida.
// El último asiento manda en cada paso.
func TestResolver_SecuenciaIngresoTrasladoSalida(t *testing.T) {
	f := newFixture(t)
	resolver := inventory.NewResolver(f.movRepo, f.unitRepo)
	ctx := context.Background()

	ids := f.ingresa(t, 1, bodegaA, nil)
	unitID := ids[0]

	// Tras el ingreso: presente en A.
	present, err := resolver.IsPhysicallyPresent(ctx, unitID)
	require.NoError(t, err)
	assert.True(t, present)
	loc, err := resolver.LocationOf(ctx, unitID)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, bodegaA, *loc)

	// Tras el traslado: presente en B, ya no en A.
	_, err = f.register.Register(ctx, inventory.MovementInput{
		UserID:          userTest,
		ProductID:       prodTel,
		Type:            entity.MovementTypeTRANSFER,
		Quantity:        1,
		WarehouseID:     bodegaB,
		FromWarehouseID: bodegaA,
		UnitIDs:         ids,
	})
	require.NoError(t, err)
	loc, err = resolver.LocationOf(ctx, unitID)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, bodegaB, *loc)

	enA, err := resolver.ListPresentUnits(ctx, prodTel, bodegaA)
	require.NoError(t, err)
	assert.Empty(t, enA, "tras el traslado la unidad ya no está en A")

	// Tras la salida: no presente en ninguna bodega.
	_, err = f.register.Register(ctx, inventory.MovementInput{
		UserID:      userTest,
		ProductID:   prodTel,
		Type:        entity.MovementTypeOUT,
		Quantity:    1,
		WarehouseID: bodegaB,
		UnitIDs:     ids,
	})
	require.NoError(t, err)

	present, err = resolver.IsPhysicallyPresent(ctx, unitID)
	require.NoError(t, err)
	assert.False(t, present)
	loc, err = resolver.LocationOf(ctx, unitID)
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestResolver_UnidadSinAsientos_NoPresente(t *testing.T) {
	f := newFixture(t)
	resolver := inventory.NewResolver(f.movRepo, f.unitRepo)

	present, err := resolver.IsPhysicallyPresent(context.Background(), "00000000-0000-0000-0000-0000000000ff")
	require.NoError(t, err)
	assert.False(t, present, "una unidad sin asientos en el libro no está presente")
}

func TestResolver_ListAvailable_ExcluyeReclamadas(t *testing.T) {
	f := newFixture(t)
	resolver := inventory.NewResolver(f.movRepo, f.unitRepo)
	ctx := context.Background()

	ids := f.ingresa(t, 3, bodegaA, nil)

	// Una unidad reclamada por una línea de venta deja de ser vendible,
	// aunque siga físicamente presente.
	lineID := "l0000000-0000-0000-0000-000000000001"
	f.s.units[ids[0]].SaleLineID = &lineID

	available, err := resolver.ListAvailableUnits(ctx, prodTel, bodegaA)
	require.NoError(t, err)
	assert.Len(t, available, 2)
	for _, u := range available {
		assert.NotEqual(t, ids[0], u.ID)
	}

	present, err := resolver.ListPresentUnits(ctx, prodTel, bodegaA)
	require.NoError(t, err)
	assert.Len(t, present, 3, "la unidad reclamada sigue presente hasta que salga del libro")
}
