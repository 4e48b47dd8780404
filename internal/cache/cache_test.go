package cache_test

import (
	"testing"
	"time"

	"github.com/dropDatabas3/multiblog/internal/cache"
	"github.com/dropDatabas3/multiblog/internal/cache/memory"
)

func TestBlogIDRoundTrip(t *testing.T) {
	c := memory.New(time.Minute)

	if _, ok := cache.LookupBlogID(c, "aula"); ok {
		t.Fatal("miss expected on empty cache")
	}

	cache.PutBlogID(c, "aula", 7)
	id, ok := cache.LookupBlogID(c, "aula")
	if !ok || id != 7 {
		t.Fatalf("got (%d, %v), want (7, true)", id, ok)
	}
}

func TestBlogIDNilCacheIsNoop(t *testing.T) {
	cache.PutBlogID(nil, "aula", 7)
	if _, ok := cache.LookupBlogID(nil, "aula"); ok {
		t.Fatal("nil cache must always miss")
	}
}

func TestBlogIDCorruptEntryIsMiss(t *testing.T) {
	c := memory.New(time.Minute)
	c.Set("blogname:aula", []byte("no-numérico"), 0)
	if _, ok := cache.LookupBlogID(c, "aula"); ok {
		t.Fatal("unparseable entry must read as miss")
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	c := memory.New(time.Minute)
	c.Set("k", []byte("abc"), 0)

	b, ok := c.Get("k")
	if !ok {
		t.Fatal("hit expected")
	}
	b[0] = 'z'

	again, _ := c.Get("k")
	if string(again) != "abc" {
		t.Fatalf("cached entry mutated through caller slice: %q", again)
	}
}
