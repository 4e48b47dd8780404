package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - RPC
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// RPCMethod crea un campo para el método XML-RPC invocado.
func RPCMethod(v string) zap.Field {
	return zap.String("rpc_method", v)
}

// FaultCode crea un campo para el código de fault devuelto.
func FaultCode(v int) zap.Field {
	return zap.Int("fault_code", v)
}

// Duration crea un campo para la duración de la llamada.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status HTTP de la respuesta.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Bytes crea un campo para los bytes escritos.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// BlogID crea un campo para el id del blog (tenant).
func BlogID(v int64) zap.Field {
	return zap.Int64("blog_id", v)
}

// BlogName crea un campo para el nombre del blog.
func BlogName(v string) zap.Field {
	return zap.String("blog_name", v)
}

// ActorLogin crea un campo para el login del actor efectivo.
func ActorLogin(v string) zap.Field {
	return zap.String("actor", v)
}

// ServiceLogin crea un campo para la cuenta de servicio autenticada.
func ServiceLogin(v string) zap.Field {
	return zap.String("service_account", v)
}

// GroupDN crea un campo para el DN del grupo de directorio.
func GroupDN(v string) zap.Field {
	return zap.String("group_dn", v)
}

// Role crea un campo para el rol asignado.
func Role(v string) zap.Field {
	return zap.String("role", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}
