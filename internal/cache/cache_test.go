package cache

import (
	"testing"
	"time"
)

func TestKey_Stable(t *testing.T) {
	a := Key("facts", "CLM-1")
	if a != Key("facts", "CLM-1") {
		t.Error("expected stable key")
	}
	if a == Key("facts", "CLM-2") || a == Key("factsCLM-1") {
		t.Error("expected distinct keys for distinct parts")
	}
}

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	val := []byte("payload")
	if err := c.Set("k", val, 0); err != nil {
		t.Fatal(err)
	}
	val[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != "payload" {
		t.Errorf("expected stored copy, got %q ok=%v", got, ok)
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("fresh", []byte("a"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("stale", []byte("b"), -time.Second); err != nil {
		t.Fatal(err)
	}

	if got, ok := c.Get("fresh"); !ok || string(got) != "a" {
		t.Errorf("expected fresh hit, got %q ok=%v", got, ok)
	}
	if _, ok := c.Get("stale"); ok {
		t.Error("expected expired entry to miss")
	}
	if err := c.Delete("missing"); err != nil {
		t.Errorf("deleting a missing key must not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("from-disk"), 0); err != nil {
		t.Fatal(err)
	}

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := c.Get("k")
	if !ok || string(got) != "from-disk" {
		t.Fatalf("expected disk hit, got %q ok=%v", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("expected disk hit promoted to memory")
	}
}

func TestLayeredCache_MemoryOnly(t *testing.T) {
	c := NewLayeredCache(time.Minute, "", 0)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("expected memory hit, got %q ok=%v", got, ok)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}
