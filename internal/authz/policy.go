package authz

import (
	"context"

	core "github.com/dropDatabas3/multiblog/internal/store/core"
)

// Opción de sitio que pisa la política de registro de la config.
const OptionRegistration = "registration"

// Políticas de registro reconocidas. Cualquier otro valor deniega.
const (
	SignupAll  = "all"
	SignupNone = "none"
	SignupBlog = "blog"
)

// Policy evalúa autorización contra los roles del store. Compartida entre
// requests (no guarda estado de request: eso vive en BlogContext).
type Policy struct {
	Store core.Store
	// SignupPolicy es el default de config; la opción de sitio
	// "registration" lo pisa si está seteada.
	SignupPolicy string
	// SignupFilter es el punto de extensión sobre la política efectiva
	// (equivalente al filter hook del original). nil = sin filtro.
	SignupFilter func(policy string) string
}

// CanUser evalúa capability para userID dentro del blog activo de bc.
func (p *Policy) CanUser(ctx context.Context, bc *BlogContext, userID, capability string) (bool, error) {
	blogID, ok := bc.Current()
	if !ok {
		return false, ErrNoActiveBlog
	}
	roles, err := p.Store.MembershipRoles(ctx, blogID, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if RoleGrants(r, capability) {
			return true, nil
		}
	}
	return false, nil
}

// InBlog ejecuta fn con blogID como blog activo, restaurando el contexto
// anterior en todo camino de salida, incluido panic.
func (p *Policy) InBlog(bc *BlogContext, blogID int64, fn func() error) error {
	leave := bc.Enter(blogID)
	defer leave()
	return fn()
}

// Authorize entra al blog, evalúa capability y sale. Conveniencia para
// operaciones que solo necesitan el check.
func (p *Policy) Authorize(ctx context.Context, bc *BlogContext, blogID int64, userID, capability string) (bool, error) {
	var allowed bool
	err := p.InBlog(bc, blogID, func() error {
		var err error
		allowed, err = p.CanUser(ctx, bc, userID, capability)
		return err
	})
	return allowed, err
}

// ServiceHasNetworkCaps verifica que la cuenta de servicio tenga TODAS las
// capacidades de red pedidas.
func (p *Policy) ServiceHasNetworkCaps(ctx context.Context, login string, caps ...string) (bool, error) {
	have, err := p.Store.NetworkCapabilities(ctx, login)
	if err != nil {
		return false, err
	}
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	for _, c := range caps {
		if !set[c] {
			return false, nil
		}
	}
	return true, nil
}

// CanRegisterBlog aplica la política tri-estado de registro de blogs.
// privileged (cuenta de servicio con manage_sites) saltea la puerta.
func (p *Policy) CanRegisterBlog(ctx context.Context, actorLogin string, privileged bool) (bool, error) {
	if privileged {
		return true, nil
	}
	policy := p.SignupPolicy
	if v, err := p.Store.GetSiteOption(ctx, OptionRegistration); err == nil && v != "" {
		policy = v
	} else if err != nil && !core.IsNotFound(err) {
		return false, err
	}
	if p.SignupFilter != nil {
		policy = p.SignupFilter(policy)
	}
	switch policy {
	case SignupAll:
		return true, nil
	case SignupBlog:
		return actorLogin != "", nil
	default:
		// "none" y valores no reconocidos deniegan
		return false, nil
	}
}

// CanReadBlog: legible si la visibilidad alcanza el umbral semi-público, o
// si el usuario tiene capability de lectura en ese blog.
func (p *Policy) CanReadBlog(ctx context.Context, bc *BlogContext, userID string, b *core.Blog) (bool, error) {
	if b.CanBeReadPublicly() {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	return p.Authorize(ctx, bc, b.ID, userID, CapRead)
}
