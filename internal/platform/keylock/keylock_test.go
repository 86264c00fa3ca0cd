package keylock

import (
	"sync"
	"testing"
)

func TestSerializesSameKey(t *testing.T) {
	t.Parallel()

	kl := New()
	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("user1_course1")
			defer kl.Unlock("user1_course1")
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("counter = %d, want %d", counter, workers)
	}
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	kl := New()
	kl.Lock("a")
	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()
	<-done
	kl.Unlock("a")
}

func TestEntriesDroppedWhenReleased(t *testing.T) {
	t.Parallel()

	kl := New()
	for i := 0; i < 100; i++ {
		kl.Lock("k")
		kl.Unlock("k")
	}
	kl.mu.Lock()
	n := len(kl.locks)
	kl.mu.Unlock()
	if n != 0 {
		t.Fatalf("lock map holds %d entries after release, want 0", n)
	}
}

func TestUnlockUnheldPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("Unlock of unheld key did not panic")
		}
	}()
	New().Unlock("never-locked")
}
