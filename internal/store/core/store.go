package core

import "context"

// Store define las operaciones del almacén multi-tenant consumidas por la
// capa XML-RPC. Los drivers (pg, memory) la implementan completa.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	// ─── Blogs ───

	GetBlog(ctx context.Context, id int64) (*Blog, error)
	// GetBlogIDByName resuelve nombre→id. ErrNotFound si no existe.
	GetBlogIDByName(ctx context.Context, name string) (int64, error)
	// SearchBlogs retorna ids de blogs cuyo path comienza por prefix,
	// ordenados por path.
	SearchBlogs(ctx context.Context, prefix string) ([]int64, error)
	// CreateBlog inserta el blog y rellena b.ID. ErrConflict si el nombre
	// ya está tomado.
	CreateBlog(ctx context.Context, b *Blog) error
	// BlogsOfUser retorna los ids de blogs donde el usuario tiene al menos
	// un rol.
	BlogsOfUser(ctx context.Context, userID string) ([]int64, error)

	// ─── Opciones de sitio (red completa) ───

	GetSiteOption(ctx context.Context, key string) (string, error)
	SetSiteOption(ctx context.Context, key, value string) error

	// ─── Usuarios ───

	GetUserByLogin(ctx context.Context, login string) (*User, error)
	// UpsertUserByLogin provisiona un usuario de forma idempotente: si ya
	// existe una cuenta con ese login la retorna sin duplicar.
	UpsertUserByLogin(ctx context.Context, u *User) (*User, error)

	// ─── Cuentas de servicio y capacidades de red ───

	GetServiceAccount(ctx context.Context, login string) (*ServiceAccount, error)
	// NetworkCapabilities retorna las capacidades de red (manage_sites,
	// manage_network_users) de una cuenta de servicio.
	NetworkCapabilities(ctx context.Context, login string) ([]string, error)

	// ─── Membresías ───

	// AddMembership asigna role al usuario en el blog. ErrConflict si ya
	// tiene ese rol.
	AddMembership(ctx context.Context, blogID int64, userID, role string) error
	// RemoveMembership elimina todos los roles del usuario en el blog.
	// No es error si no era miembro.
	RemoveMembership(ctx context.Context, blogID int64, userID string) error
	MembershipRoles(ctx context.Context, blogID int64, userID string) ([]string, error)
	IsMember(ctx context.Context, blogID int64, userID string) (bool, error)

	// ─── Grupos sincronizados ───

	// UpsertSyncedGroup crea o reemplaza la regla (BlogID, GroupDN)→Role.
	UpsertSyncedGroup(ctx context.Context, g *SyncedGroup) error
	ListSyncedGroups(ctx context.Context, blogID int64) ([]SyncedGroup, error)
	DeleteSyncedGroup(ctx context.Context, blogID int64, groupDN string) error
	// AllSyncedGroups retorna todas las reglas de la red (para el barrido
	// programado).
	AllSyncedGroups(ctx context.Context) ([]SyncedGroup, error)
}
