// Package cache define la abstracción de cache usada para la resolución
// nombre→id de blogs. Drivers: memory (go-cache) y redis.
package cache

import (
	"strconv"
	"time"
)

type Cache interface {
	Get(key string) (value []byte, ok bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}

func blogNameKey(name string) string { return "blogname:" + name }

// LookupBlogID recupera una resolución nombre→id cacheada. ok=false en miss
// o con una entrada que no parsea como id.
func LookupBlogID(c Cache, name string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	b, ok := c.Get(blogNameKey(name))
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PutBlogID guarda una resolución nombre→id con el TTL por defecto del
// driver. Los drivers guardan bytes; la convención de clave y codificación
// vive acá para que memory y redis la compartan.
func PutBlogID(c Cache, name string, id int64) {
	if c == nil {
		return
	}
	c.Set(blogNameKey(name), []byte(strconv.FormatInt(id, 10)), 0)
}
