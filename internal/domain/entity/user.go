package entity

import "time"

// Roles válidos para User. La tabla rol -> capacidades vive en internal/domain/authz.
const (
	RoleAdmin      = "admin"      // todo
	RoleProduccion = "produccion" // inventario + batches
	RoleVentas     = "ventas"     // pedidos/clientes
	RoleFinanzas   = "finanzas"   // facturación/finanzas, lectura de pedidos
	RoleVisor      = "visor"      // solo lectura
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, produccion, ventas, finanzas, visor
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
