package bridges

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestRegistryWrap(t *testing.T) {
	const limit = 3
	r := NewRegistry(limit, nil)
	var handles []Handle
	for i := range limit + 2 {
		handles = append(handles, r.Register(i))
	}
	for i, want := range []Handle{0, 1, 2, 3, 0} {
		if handles[i] != want {
			t.Fatalf("got %v", handles)
		}
	}
	// handle 0 now refers to the newest registration
	v, ok := r.Lookup(0)
	if !ok || v != limit+1 {
		t.Fatalf("got %v", v)
	}
	v, ok = r.Lookup(3)
	if !ok || v != 3 {
		t.Fatalf("got %v", v)
	}
	if c := r.Counter(); c != 1 {
		t.Fatalf("got %v", c)
	}
}

func TestRegistryZeroLimit(t *testing.T) {
	r := NewRegistry(0, nil)
	for i := range 3 {
		if h := r.Register(i); h != 0 {
			t.Fatalf("got %v", h)
		}
	}
	if v, _ := r.Lookup(0); v != 2 {
		t.Fatalf("got %v", v)
	}

	r = NewRegistry(-5, nil)
	if r.Limit() != 0 {
		t.Fatalf("got %v", r.Limit())
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry(4, nil)
	r.Register("a")
	for _, h := range []Handle{-1, 1, 4, 5, 100} {
		if _, ok := r.Lookup(h); ok {
			t.Fatalf("%v found", h)
		}
	}
}

func TestRegistrySetLimit(t *testing.T) {
	r := NewRegistry(5, nil)
	for i := range 4 {
		r.Register(i)
	}

	r.SetLimit(10)
	if r.Limit() != 10 || r.Counter() != 4 {
		t.Fatalf("got %v %v", r.Limit(), r.Counter())
	}
	if v, ok := r.Lookup(3); !ok || v != 3 {
		t.Fatalf("got %v", v)
	}

	r.SetLimit(2)
	if r.Limit() != 2 || r.Counter() != 0 {
		t.Fatalf("got %v %v", r.Limit(), r.Counter())
	}
	if _, ok := r.Lookup(3); ok {
		t.Fatal("should be dropped")
	}
	if v, ok := r.Lookup(2); !ok || v != 2 {
		t.Fatalf("got %v", v)
	}
	if h := r.Register("x"); h != 0 {
		t.Fatalf("got %v", h)
	}
}

func TestRegistryConcurrent(t *testing.T) {
	const workers, each = 10, 50
	r := NewRegistry(workers*each, nil)

	var mu sync.Mutex
	seen := make(map[Handle]bool)
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for i := range each {
				h := r.Register(i)
				mu.Lock()
				if seen[h] {
					t.Errorf("duplicated handle %v", h)
				}
				seen[h] = true
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if len(seen) != workers*each {
		t.Fatalf("got %v", len(seen))
	}
	if c := r.Counter(); int(c) != workers*each {
		t.Fatalf("got %v", c)
	}
}

func TestRegistryLogOverwrite(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	r := NewRegistry(1, logger)
	r.Register(1)
	r.Register(2)
	if strings.Contains(buf.String(), "registry overwrite") {
		t.Fatalf("got %s", buf.String())
	}
	r.Register(3)
	if !strings.Contains(buf.String(), "registry overwrite") ||
		!strings.Contains(buf.String(), "handle=0") {
		t.Fatalf("got %s", buf.String())
	}
}

func TestRegistryMaxLimit(t *testing.T) {
	r := NewRegistry(math.MaxInt, nil)
	if r.Limit() != MaxLimit {
		t.Fatalf("got %v", r.Limit())
	}
	r = NewRegistry(3, nil)
	r.SetLimit(math.MaxInt)
	if r.Limit() != MaxLimit {
		t.Fatalf("got %v", r.Limit())
	}
}
