package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/model"
)

func TestCompletionKey(t *testing.T) {
	k1 := CompletionKey("openai", "gpt-4o-mini", "What is entropy?")
	k2 := CompletionKey("openai", "gpt-4o-mini", "What is entropy?")
	if k1 != k2 {
		t.Error("same inputs must produce the same key")
	}
	if !strings.HasPrefix(k1, "veridex:v1:") {
		t.Errorf("key %q missing namespace prefix", k1)
	}

	variants := []string{
		CompletionKey("anthropic", "gpt-4o-mini", "What is entropy?"),
		CompletionKey("openai", "llama3.1", "What is entropy?"),
		CompletionKey("openai", "gpt-4o-mini", "What is disorder?"),
	}
	for _, v := range variants {
		if v == k1 {
			t.Errorf("distinct inputs collided: %q", v)
		}
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, 0)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache should miss")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Errorf("get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key should miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, 0)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expired entry should miss")
	}
}

func TestMemoryCacheCap(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, 3)

	for i := 0; i < 3; i++ {
		_ = c.Set(fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}
	// At capacity: a new key is dropped, memory stays bounded
	_ = c.Set("overflow", []byte("v"), time.Minute)
	if _, found := c.Get("overflow"); found {
		t.Error("cache over its cap should drop new entries")
	}
	// Existing keys still update fine
	_ = c.Set("k0", []byte("updated"), time.Minute)
	if got, _ := c.Get("k0"); string(got) != "updated" {
		t.Errorf("update at capacity failed, got %q", got)
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache should miss")
	}

	if err := c.Set("k", []byte(`{"text":"hello"}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != `{"text":"hello"}` {
		t.Errorf("get = %q, %v", got, found)
	}

	// Survives a fresh handle on the same directory
	c2 := NewDiskCache(dir, time.Minute)
	if _, found := c2.Get("k"); !found {
		t.Error("entry should persist across cache instances")
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key should miss")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expired entry should miss")
	}
}

func TestDiskCacheDefaultTTL(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	_ = c.Set("k", []byte("v"), 0) // 0 = use default

	if _, found := c.Get("k"); !found {
		t.Error("entry with default TTL should be readable")
	}
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, 0, dir, time.Minute)

	// Seed only the disk layer, as if from an earlier process
	disk := NewDiskCache(dir, time.Minute)
	_ = disk.Set("k", []byte("v"), time.Minute)

	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Fatalf("layered get = %q, %v", got, found)
	}

	// The hit must have been promoted into memory
	mem := c.memory
	if _, found := mem.Get("k"); !found {
		t.Error("disk hit was not promoted to the memory layer")
	}
}

func TestLayeredCacheSetAndClear(t *testing.T) {
	c := NewLayeredCache(time.Minute, 0, t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("set entry should hit")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("cleared cache should miss")
	}
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(model.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled config: %v", err)
	}
	if c != nil {
		t.Error("disabled cache config should yield nil")
	}

	dir := t.TempDir()
	c, err = FromConfig(model.CacheConfig{
		Enabled:   true,
		Dir:       dir,
		MemoryTTL: 60,
		DiskTTL:   120,
	})
	if err != nil {
		t.Fatalf("enabled config: %v", err)
	}
	if c == nil {
		t.Fatal("enabled cache config should yield a cache")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("configured cache should round-trip")
	}
}
