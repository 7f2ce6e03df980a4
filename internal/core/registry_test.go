package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newDetachedSession(t *testing.T, queueSize int) *Session {
	t.Helper()
	logger := zerolog.Nop()
	return newSession(newFakeConn(), queueSize, &logger)
}

func TestRegistryRegisterAndRemove(t *testing.T) {
	r := NewRegistry(2)
	alice := newDetachedSession(t, 4)
	bob := newDetachedSession(t, 4)

	if err := r.TryRegister("alice", alice); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if alice.State() != StateRegistered || alice.Nickname() != "alice" {
		t.Fatalf("alice not marked registered: %v %q", alice.State(), alice.Nickname())
	}
	if err := r.TryRegister("alice", bob); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if err := r.TryRegister("Alice", bob); err != nil {
		t.Fatalf("nicknames are case-sensitive, got %v", err)
	}
	if !r.Full() || r.Size() != 2 {
		t.Fatalf("expected full registry of 2, got size %d", r.Size())
	}

	if !r.Remove(alice) {
		t.Fatal("expected alice to be removed")
	}
	if r.Remove(alice) {
		t.Fatal("second remove should be a no-op")
	}
	if r.Contains("alice") {
		t.Fatal("alice still indexed after remove")
	}

	carol := newDetachedSession(t, 4)
	if err := r.TryRegister("alice", carol); err != nil {
		t.Fatalf("nickname should be free again: %v", err)
	}
	if got := r.Members(); len(got) != 2 || got[0] != bob || got[1] != carol {
		t.Fatalf("unexpected member order: %v", got)
	}
}

func TestRegistryDuplicateReportedBeforeCapacity(t *testing.T) {
	r := NewRegistry(1)
	if err := r.TryRegister("alice", newDetachedSession(t, 1)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.TryRegister("alice", newDetachedSession(t, 1)); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if err := r.TryRegister("bob", newDetachedSession(t, 1)); !errors.Is(err, ErrCapacityFull) {
		t.Fatalf("expected ErrCapacityFull, got %v", err)
	}
}

func TestRegistrySnapshotOrder(t *testing.T) {
	r := NewRegistry(3)
	a := newDetachedSession(t, 1)
	b := newDetachedSession(t, 1)
	_ = r.TryRegister("bob", b)
	_ = r.TryRegister("alice", a)

	got := r.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if got[0] != "bob at IP: 127.0.0.1 and port: "+port(b) {
		t.Fatalf("unexpected first entry %q", got[0])
	}
	if got[1] != "alice at IP: 127.0.0.1 and port: "+port(a) {
		t.Fatalf("unexpected second entry %q", got[1])
	}
}

func port(s *Session) string {
	return s.RemoteAddr[len("127.0.0.1:"):]
}

func TestConcurrentRegistrationRespectsCapacity(t *testing.T) {
	const attempts = 12
	h := newTestHub(t, Options{MaxUsers: 3})
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		mu       sync.Mutex
		accepted int
		full     int
	)
	for i := range attempts {
		s := newDetachedSession(t, 64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := h.Register(ctx, s, fmt.Sprintf("user%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrCapacityFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if accepted != 3 || full != attempts-3 {
		t.Fatalf("accepted=%d full=%d, want 3 and %d", accepted, full, attempts-3)
	}
	if h.Size() != 3 {
		t.Fatalf("registry size = %d", h.Size())
	}
}

func TestConcurrentRegistrationSameName(t *testing.T) {
	const attempts = 8
	h := newTestHub(t, Options{MaxUsers: attempts})
	ctx := context.Background()

	var (
		wg         sync.WaitGroup
		start      = make(chan struct{})
		mu         sync.Mutex
		accepted   int
		duplicates int
	)
	for range attempts {
		s := newDetachedSession(t, 64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := h.Register(ctx, s, "alice")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrDuplicateName):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if accepted != 1 || duplicates != attempts-1 {
		t.Fatalf("accepted=%d duplicates=%d", accepted, duplicates)
	}
	if h.Size() != 1 || !h.Contains("alice") {
		t.Fatalf("registry should hold exactly alice, size=%d", h.Size())
	}
}
