package bridges

import (
	"sync"

	"github.com/reusee/bridgestr/logs"
)

// Handle identifies a registered callable for the remote side.
type Handle int

// Registry maps handles to callables in a fixed ring of limit+1 slots.
//
// Handles are unique only until the counter wraps. After that a registration
// silently replaces whatever callable held the reused handle, so a remote side
// holding a stale handle will resolve it to an unrelated callable.
type Registry struct {
	mu      sync.Mutex
	table   []slot
	counter Handle
	logger  logs.Logger
}

type slot struct {
	callable any
	valid    bool
}

// MaxLimit bounds the ring, which is allocated up front.
const MaxLimit = 1 << 20

func NewRegistry(limit int, logger logs.Logger) *Registry {
	limit = clampLimit(limit)
	return &Registry{
		table:  make([]slot, limit+1),
		logger: logger,
	}
}

func (r *Registry) Register(callable any) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle := r.counter
	if r.table[handle].valid && r.logger != nil {
		r.logger.Debug("registry overwrite",
			"handle", int(handle),
		)
	}
	r.table[handle] = slot{
		callable: callable,
		valid:    true,
	}

	r.counter++
	if int(r.counter) > r.limit() {
		r.counter = 0
	}

	return handle
}

// Lookup resolves a handle. The result may be a newer callable than the one
// the handle was issued for if the counter has wrapped since.
func (r *Registry) Lookup(handle Handle) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle < 0 || int(handle) >= len(r.table) {
		return nil, false
	}
	s := r.table[handle]
	if !s.valid {
		return nil, false
	}
	return s.callable, true
}

// Counter returns the handle the next registration will use.
func (r *Registry) Counter() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

func (r *Registry) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit()
}

func (r *Registry) limit() int {
	return len(r.table) - 1
}

func clampLimit(limit int) int {
	return max(0, min(limit, MaxLimit))
}

// SetLimit resizes the ring. Entries above the new limit are dropped.
func (r *Registry) SetLimit(limit int) {
	limit = clampLimit(limit)

	r.mu.Lock()
	defer r.mu.Unlock()

	table := make([]slot, limit+1)
	copy(table, r.table)
	r.table = table
	if int(r.counter) > limit {
		r.counter = 0
	}

	if r.logger != nil {
		r.logger.Debug("registry limit",
			"limit", limit,
		)
	}
}
