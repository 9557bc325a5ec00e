package authz_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/lotes-api/internal/domain/authz"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

func actor(role string) authz.Actor {
	return authz.Actor{ID: "u-1", Role: role}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestGate_RolesDeEscrituraDeInventario(t *testing.T) {
	assert.True(t, authz.CanModifyInventory(actor(entity.RoleAdmin)))
	assert.True(t, authz.CanModifyInventory(actor(entity.RoleProduccion)))
	assert.False(t, authz.CanModifyInventory(actor(entity.RoleVentas)))
	assert.False(t, authz.CanModifyInventory(actor(entity.RoleFinanzas)))
	assert.False(t, authz.CanModifyInventory(actor(entity.RoleVisor)),
		"el visor es estrictamente de solo lectura")
}

func TestGate_RolesDeBatches(t *testing.T) {
	assert.True(t, authz.CanManageBatches(actor(entity.RoleAdmin)))
	assert.True(t, authz.CanManageBatches(actor(entity.RoleProduccion)))
	assert.False(t, authz.CanManageBatches(actor(entity.RoleVentas)))
	assert.False(t, authz.CanManageBatches(actor(entity.RoleVisor)))
}

func TestGate_DatosFinancieros(t *testing.T) {
	assert.True(t, authz.CanAccessFinancialData(actor(entity.RoleAdmin)))
	assert.True(t, authz.CanAccessFinancialData(actor(entity.RoleFinanzas)))
	assert.False(t, authz.CanAccessFinancialData(actor(entity.RoleProduccion)),
		"producción opera inventario pero no ve costos agregados")
	assert.False(t, authz.CanAccessFinancialData(actor(entity.RoleVentas)))
}

func TestGate_Clientes(t *testing.T) {
	assert.True(t, authz.CanManageCustomers(actor(entity.RoleVentas)))
	assert.False(t, authz.CanManageCustomers(actor(entity.RoleFinanzas)))
}

func TestGate_RolDesconocidoSinPermisos(t *testing.T) {
	for _, role := range []string{"", "superuser", "ADMIN", "root"} {
		a := actor(role)
		assert.False(t, authz.CanModifyInventory(a), "rol %q debe negarse por defecto", role)
		assert.False(t, authz.CanManageBatches(a), "rol %q debe negarse por defecto", role)
		assert.False(t, authz.CanAccessFinancialData(a), "rol %q debe negarse por defecto", role)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Desviación de precios
// ──────────────────────────────────────────────────────────────────────────────

func TestCanOverridePrice_VentasDentroDelLimite(t *testing.T) {
	list := decimal.NewFromInt(1000)

	assert.True(t, authz.CanOverridePrice(actor(entity.RoleVentas), list, decimal.NewFromInt(800)),
		"20%% de descuento es exactamente el límite de ventas")
	assert.True(t, authz.CanOverridePrice(actor(entity.RoleVentas), list, decimal.NewFromInt(1200)),
		"la desviación se mide en ambas direcciones")
	assert.False(t, authz.CanOverridePrice(actor(entity.RoleVentas), list, decimal.NewFromInt(799)))
}

func TestCanOverridePrice_AdminSinLimite(t *testing.T) {
	list := decimal.NewFromInt(1000)
	assert.True(t, authz.CanOverridePrice(actor(entity.RoleAdmin), list, decimal.NewFromInt(1)))
}

func TestCanOverridePrice_RolesSinAjusteDePrecios(t *testing.T) {
	list := decimal.NewFromInt(1000)
	assert.False(t, authz.CanOverridePrice(actor(entity.RoleProduccion), list, list),
		"ni siquiera el precio de lista: el rol no participa en precios")
	assert.False(t, authz.CanOverridePrice(actor(entity.RoleVisor), list, list))
}

func TestCanOverridePrice_EntradasInvalidas(t *testing.T) {
	assert.False(t, authz.CanOverridePrice(actor(entity.RoleVentas), decimal.Zero, decimal.NewFromInt(10)),
		"precio de lista cero no permite calcular desviación")
	assert.False(t, authz.CanOverridePrice(actor(entity.RoleVentas), decimal.NewFromInt(100), decimal.NewFromInt(-1)))
}
