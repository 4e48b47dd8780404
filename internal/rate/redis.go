// Package rate acota intentos fallidos de autenticación por origen.
// Solo cuentan los fallos: un origen que autentica bien nunca se bloquea.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// RedisFailureLimiter: fixed window sencillo (INCR + EXPIRE) compartido
// entre instancias.
type RedisFailureLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisFailureLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisFailureLimiter {
	if prefix == "" {
		prefix = "authfail:"
	}
	return &RedisFailureLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *RedisFailureLimiter) key(k string) string {
	winStart := time.Now().UTC().Truncate(l.Window)
	return fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(k, " ", "_"), winStart.Unix())
}

// Allow indica si el origen aún puede intentar autenticar en esta ventana.
// Ante error de redis deja pasar: el limiter nunca debe tirar el login.
func (l *RedisFailureLimiter) Allow(ctx context.Context, key string) bool {
	n, err := l.Client.Get(ctx, l.key(key)).Int64()
	if err != nil {
		return true
	}
	return n < l.Max
}

// RecordFailure suma un fallo a la ventana vigente.
func (l *RedisFailureLimiter) RecordFailure(ctx context.Context, key string) {
	rk := l.key(key)
	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, rk)
	if _, err := pipe.Exec(ctx); err != nil {
		return
	}
	if incr.Val() == 1 {
		_ = l.Client.Expire(ctx, rk, l.Window).Err()
	}
}
