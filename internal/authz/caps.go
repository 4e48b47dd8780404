// Package authz evalúa capacidades de usuarios dentro del blog activo y las
// puertas de registro y lectura de la red.
package authz

// Capacidades por blog.
const (
	CapRead         = "read"
	CapListUsers    = "list_users"
	CapPromoteUsers = "promote_users"
	CapRemoveUsers  = "remove_users"
)

// Capacidades de red (cuentas de servicio).
const (
	CapManageSites        = "manage_sites"
	CapManageNetworkUsers = "manage_network_users"
)

// Roles por blog, de mayor a menor privilegio.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleAuthor        = "author"
	RoleContributor   = "contributor"
	RoleSubscriber    = "subscriber"
)

// roleCaps: qué capacidades otorga cada rol. Gestión de usuarios y listado
// quedan reservados al administrador del blog.
var roleCaps = map[string]map[string]bool{
	RoleAdministrator: {
		CapRead:         true,
		CapListUsers:    true,
		CapPromoteUsers: true,
		CapRemoveUsers:  true,
	},
	RoleEditor:      {CapRead: true},
	RoleAuthor:      {CapRead: true},
	RoleContributor: {CapRead: true},
	RoleSubscriber:  {CapRead: true},
}

func ValidRole(role string) bool {
	_, ok := roleCaps[role]
	return ok
}

// RoleGrants indica si role otorga capability.
func RoleGrants(role, capability string) bool {
	caps, ok := roleCaps[role]
	return ok && caps[capability]
}
