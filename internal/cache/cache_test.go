package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("https://example.com/article")
	b := Key("https://example.com/other")
	if a == b {
		t.Error("Distinct URLs must map to distinct keys")
	}
	if a != Key("https://example.com/article") {
		t.Error("Key derivation must be stable")
	}
	if len(a) != len("hrec:v1:")+64 {
		t.Errorf("Unexpected key shape %q", a)
	}
}

func TestMemory_SetGetExpiry(t *testing.T) {
	m := NewMemory(time.Hour, time.Hour)

	if err := m.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if val, ok := m.Get("k"); !ok || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("Get = %q, %v", val, ok)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get("k"); ok {
		t.Error("Expected expiry after TTL")
	}
}

func TestDisk_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	d1 := NewDisk(dir, time.Hour)
	if err := d1.Set(Key("u"), []byte("result"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	d2 := NewDisk(dir, time.Hour)
	val, ok := d2.Get(Key("u"))
	if !ok || !bytes.Equal(val, []byte("result")) {
		t.Errorf("Expected persisted value, got %q, %v", val, ok)
	}
}

func TestDisk_ExpiredEntryIsDroppedAndRemoved(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Hour)
	if err := d.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := d.Get("k"); ok {
		t.Error("Expected expired entry dropped")
	}
	if _, ok := d.Get("k"); ok {
		t.Error("Expected expired entry removed on first read")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	memory := NewMemory(time.Hour, time.Hour)
	disk := NewDisk(t.TempDir(), time.Hour)
	l := NewLayered(memory, disk)

	// Seed only the disk tier, as a previous run would have.
	if err := disk.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if val, ok := l.Get("k"); !ok || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("Layered Get = %q, %v", val, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("Expected disk hit promoted into memory")
	}
}

func TestLayered_MemoryOnly(t *testing.T) {
	l := NewLayered(NewMemory(time.Hour, time.Hour), nil)

	if err := l.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if val, ok := l.Get("k"); !ok || !bytes.Equal(val, []byte("v")) {
		t.Errorf("Get = %q, %v", val, ok)
	}
	if err := l.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := l.Get("k"); ok {
		t.Error("Expected cleared cache to miss")
	}
}
