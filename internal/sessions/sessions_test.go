package sessions

import (
	"sync"
	"testing"
	"time"
)

func TestLocker_SerializesSameSession(t *testing.T) {
	l := NewLocker(time.Hour)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}

func TestLocker_IndependentSessionsDoNotBlock(t *testing.T) {
	l := NewLocker(time.Hour)

	unlock := l.Lock("s1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := l.Lock("s2")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking a different session blocked")
	}
}

func TestLocker_PrunesIdleEntries(t *testing.T) {
	l := NewLocker(time.Millisecond)

	l.Lock("old")()
	time.Sleep(5 * time.Millisecond)
	l.Lock("new")()

	if got := l.Len(); got != 1 {
		t.Fatalf("expected 1 live entry after prune, got %d", got)
	}
}
