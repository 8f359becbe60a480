package cache

import "time"

// Layered reads through a memory tier into an optional disk tier, promoting
// disk hits into memory. Writes go to both.
type Layered struct {
	memory Cache
	disk   Cache // may be nil
}

// NewLayered composes the tiers; disk may be nil for memory-only caching
func NewLayered(memory, disk Cache) *Layered {
	return &Layered{memory: memory, disk: disk}
}

func (l *Layered) Get(key string) ([]byte, bool) {
	if val, ok := l.memory.Get(key); ok {
		return val, true
	}
	if l.disk == nil {
		return nil, false
	}
	val, ok := l.disk.Get(key)
	if ok {
		_ = l.memory.Set(key, val, 0)
	}
	return val, ok
}

func (l *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if l.disk != nil {
		return l.disk.Set(key, value, ttl)
	}
	return nil
}

func (l *Layered) Delete(key string) error {
	if err := l.memory.Delete(key); err != nil && l.disk == nil {
		return err
	}
	if l.disk != nil {
		return l.disk.Delete(key)
	}
	return nil
}

func (l *Layered) Clear() error {
	_ = l.memory.Clear()
	if l.disk != nil {
		return l.disk.Clear()
	}
	return nil
}
