package xmlrpc

import "fmt"

// Códigos de fault preservados del protocolo original.
const (
	CodeBadRequest   = 400 // argumento faltante o inválido
	CodeForbidden    = 403 // autenticación/autorización denegada
	CodeServerError  = 500 // fallo inesperado de resolución
	CodeSoftConflict = 200 // fallo benigno ("ya es miembro")
)

// Fault es el error con código que viaja por el wire como <fault>.
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string { return fmt.Sprintf("fault %d: %s", f.Code, f.Message) }

func NewFault(code int, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}
