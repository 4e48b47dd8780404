// Package memory es el driver en proceso de cache.Cache, sobre go-cache.
// Guarda y devuelve copias de los bytes para que ninguna entrada quede
// aliasada con el slice del llamador.
package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/multiblog/internal/cache"
)

// Cada cuánto poda go-cache las entradas vencidas.
const sweepEvery = time.Minute

type Store struct{ c *gocache.Cache }

func New(defaultTTL time.Duration) cache.Cache {
	return &Store{c: gocache.New(defaultTTL, sweepEvery)}
}

func (s *Store) Get(k string) ([]byte, bool) {
	v, ok := s.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (s *Store) Set(k string, v []byte, ttl time.Duration) {
	s.c.Set(k, append([]byte(nil), v...), ttl)
}

func (s *Store) Delete(k string) { s.c.Delete(k) }
