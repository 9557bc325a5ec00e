package authz

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// Actor es la identidad que ejecuta una operación (resuelta por el middleware
// de auth a partir del JWT). El gate solo mira el rol.
type Actor struct {
	ID   string
	Role string
}

// Permission identifica un par recurso/acción.
type Permission string

const (
	PermInventoryWrite Permission = "inventory:write"
	PermBatchWrite     Permission = "batch:write"
	PermOrderRead      Permission = "order:read"
	PermOrderWrite     Permission = "order:write"
	PermCustomerManage Permission = "customer:manage"
	PermFinanceRead    Permission = "finance:read"
	PermFinanceWrite   Permission = "finance:write"
)

// grants es la tabla única rol -> permisos. El source original dispersaba
// estas decisiones en condicionales; acá viven en un solo lugar y el gate es
// una función pura. Rol desconocido = sin permisos (deny by default).
var grants = map[string]map[Permission]bool{
	entity.RoleAdmin: {
		PermInventoryWrite: true,
		PermBatchWrite:     true,
		PermOrderRead:      true,
		PermOrderWrite:     true,
		PermCustomerManage: true,
		PermFinanceRead:    true,
		PermFinanceWrite:   true,
	},
	entity.RoleProduccion: {
		PermInventoryWrite: true,
		PermBatchWrite:     true,
	},
	entity.RoleVentas: {
		PermOrderRead:      true,
		PermOrderWrite:     true,
		PermCustomerManage: true,
	},
	entity.RoleFinanzas: {
		PermOrderRead:    true,
		PermFinanceRead:  true,
		PermFinanceWrite: true,
	},
	entity.RoleVisor: {
		// solo lectura: las consultas no pasan por el gate
	},
}

// Allowed consulta la tabla; deny by default para roles no reconocidos.
func Allowed(role string, p Permission) bool {
	perms, ok := grants[role]
	if !ok {
		return false
	}
	return perms[p]
}

// CanModifyInventory: decrementos, incrementos e ingreso de lotes.
func CanModifyInventory(a Actor) bool { return Allowed(a.Role, PermInventoryWrite) }

// CanManageBatches: crear, actualizar, completar y revertir batches.
func CanManageBatches(a Actor) bool { return Allowed(a.Role, PermBatchWrite) }

// CanAccessFinancialData: costos agregados, reportes financieros.
func CanAccessFinancialData(a Actor) bool { return Allowed(a.Role, PermFinanceRead) }

// CanManageCustomers: altas y ediciones de clientes.
func CanManageCustomers(a Actor) bool { return Allowed(a.Role, PermCustomerManage) }

// maxPriceDeviationPct es la desviación máxima (en %) sobre el precio de lista
// que cada rol puede aplicar. -1 = sin límite. Rol ausente = no puede ajustar.
var maxPriceDeviationPct = map[string]decimal.Decimal{
	entity.RoleAdmin:  decimal.NewFromInt(-1),
	entity.RoleVentas: decimal.NewFromInt(20),
}

// CanOverridePrice verifica que el precio pedido no se desvíe del precio de
// lista más allá del porcentaje permitido para el rol del actor.
func CanOverridePrice(a Actor, listPrice, requestedPrice decimal.Decimal) bool {
	maxPct, ok := maxPriceDeviationPct[a.Role]
	if !ok {
		return false
	}
	if maxPct.IsNegative() {
		return true // sin límite
	}
	if !listPrice.GreaterThan(decimal.Zero) || requestedPrice.IsNegative() {
		return false
	}
	deviation := requestedPrice.Sub(listPrice).Abs().Div(listPrice).Mul(decimal.NewFromInt(100))
	return deviation.LessThanOrEqual(maxPct)
}
