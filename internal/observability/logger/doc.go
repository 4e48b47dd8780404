// Package logger provides a singleton Zap logger with context-based scoping.
//
//   - Singleton: Una sola instancia global inicializada con Init().
//   - Context Scoping: Cada request XML-RPC lleva su logger "scoped" con
//     request_id, rpc_method, blog_id, etc. sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: os.Getenv("LOG_LEVEL")})
//	defer logger.Sync()
//
// En handlers/services:
//
//	log := logger.From(ctx)
//	log.Info("membership granted", logger.BlogID(id), logger.Role(role))
package logger
