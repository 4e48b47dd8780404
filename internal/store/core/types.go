package core

import "time"

// Visibilidad de un blog (opción blog_public).
// El umbral "semi-público" es VisibilitySemiPublic: cualquier visitante puede
// leer la info del blog aunque no tenga rol en él.
const (
	VisibilityPublic     = 1
	VisibilityUnlisted   = 0
	VisibilitySemiPublic = -1
	VisibilityPrivate    = -2
)

type Blog struct {
	ID        int64
	Name      string // segmento de path o subdominio (único por red)
	Domain    string
	Path      string
	Title     string
	Public    int
	Archived  bool
	Deleted   bool
	CreatedAt time.Time
}

// CanBeReadPublicly indica si la visibilidad alcanza el umbral semi-público.
func (b *Blog) CanBeReadPublicly() bool {
	return b.Public >= VisibilitySemiPublic
}

type User struct {
	ID          string
	Login       string // login del directorio (CAS ID)
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// ServiceAccount es una cuenta de servicio para integraciones confiables.
// SecretHash es un PHC string argon2id.
type ServiceAccount struct {
	Login      string
	SecretHash string
	Disabled   bool
	CreatedAt  time.Time
}

type Membership struct {
	BlogID    int64
	UserID    string
	Role      string
	CreatedAt time.Time
}

// SyncedGroup es la regla declarativa {blog, group_dn, role}.
// Unicidad: una regla activa por (BlogID, GroupDN); cambiar el rol reemplaza
// la regla anterior.
type SyncedGroup struct {
	BlogID       int64
	GroupDN      string
	Role         string
	CreatedAt    time.Time
	LastSyncedAt *time.Time
}
