package authz

import "errors"

// BlogContext es el blog activo de una request: el equivalente al par
// switch/restore del contexto de tenant. Una instancia por request, nunca
// compartida entre requests. Las evaluaciones de capacidad leen el blog
// activo de acá, no de parámetros sueltos.
type BlogContext struct {
	stack []int64
}

var ErrNoActiveBlog = errors.New("authz: no active blog context")

// Enter apila blogID como blog activo y devuelve el leave correspondiente.
// El leave es seguro de diferir: restaura el blog anterior exactamente una
// vez aunque el cuerpo haga panic, y llamadas repetidas son no-op.
func (c *BlogContext) Enter(blogID int64) (leave func()) {
	c.stack = append(c.stack, blogID)
	done := false
	return func() {
		if done {
			return
		}
		done = true
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Current devuelve el blog activo, ok=false si no se entró a ninguno.
func (c *BlogContext) Current() (int64, bool) {
	if len(c.stack) == 0 {
		return 0, false
	}
	return c.stack[len(c.stack)-1], true
}

// Depth expone la profundidad de anidamiento (para asserts en tests).
func (c *BlogContext) Depth() int { return len(c.stack) }
