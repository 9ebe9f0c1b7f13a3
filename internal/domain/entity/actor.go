package entity

// Niveles de rol: menor número = mayor privilegio.
const (
	RoleLevelSuperAdmin = 1  // nivel más alto (único que puede eliminar órdenes)
	RoleLevelHQAdmin    = 10 // administrador de casa matriz
	RoleLevelPowerUser  = 20 // usuario avanzado (aprobaciones)
	RoleLevelManager    = 30
	RoleLevelStaff      = 40
	RoleLevelViewer     = 50
)

// Actor identidad resuelta por el proveedor de sesión (token opaco -> usuario, organización, nivel).
// El núcleo confía en esta resolución.
type Actor struct {
	UserID         string
	OrganizationID string
	RoleLevel      int
}
