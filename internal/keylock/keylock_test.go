package keylock

import (
	"sync"
	"testing"
)

func TestLockSerializesPerKey(t *testing.T) {
	km := New()

	// Each counter is only ever touched under its own key's lock, so
	// any lost increment means the lock failed to serialize.
	const goroutines = 50
	var counterA, counterB int

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		if i%2 == 0 {
			go func() {
				defer wg.Done()
				unlock := km.Lock("a")
				defer unlock()
				counterA++
			}()
		} else {
			go func() {
				defer wg.Done()
				unlock := km.Lock("b")
				defer unlock()
				counterB++
			}()
		}
	}
	wg.Wait()

	if counterA != goroutines/2 || counterB != goroutines/2 {
		t.Errorf("counters = %d/%d, want %d each", counterA, counterB, goroutines/2)
	}
}

func TestLockAllOverlappingSets(t *testing.T) {
	km := New()

	// Opposite acquisition orders would deadlock without sorted
	// multi-acquire.
	var wg sync.WaitGroup
	shared := 0
	for i := 0; i < 100; i++ {
		keys := []string{"x", "y", "z"}
		if i%2 == 0 {
			keys = []string{"z", "x"}
		}
		wg.Add(1)
		go func(keys []string) {
			defer wg.Done()
			unlock := km.LockAll(keys)
			defer unlock()
			shared++
		}(keys)
	}
	wg.Wait()

	if shared != 100 {
		t.Errorf("shared = %d, want 100", shared)
	}
}

func TestLockAllDuplicateKeys(t *testing.T) {
	km := New()

	unlock := km.LockAll([]string{"dup", "dup", "dup"})
	unlock()

	// Relocking must succeed; a double-acquire above would still hold it.
	unlock = km.Lock("dup")
	unlock()
}
