package activation

import (
	"sync"

	"github.com/weftlab/weft/pkg/ref"
)

// instanceKey identifies one shared slot: a part within a boundary.
type instanceKey struct {
	boundary string
	part     ref.TypeRef
}

// slot arbitrates creation of one shared instance. The slot mutex is held
// across construction so later requests for the same key block until the
// first creation finishes, then read its result.
type slot struct {
	mu    sync.Mutex
	done  bool
	value any
}

// Scope owns live shared-part instances. The zero value is not usable; create
// scopes with NewScope and derive nested ones with Nested.
//
// A nested scope resolves the boundaries it was created with locally and
// delegates every other boundary to its parent, so a factory invocation can
// get fresh instances for its declared boundaries while still sharing the
// rest with its creator.
type Scope struct {
	parent *Scope
	owned  map[string]bool // boundaries resolved at this level; root owns all

	mu    sync.Mutex
	slots map[instanceKey]*slot
}

// NewScope creates a root scope.
func NewScope() *Scope {
	return &Scope{slots: make(map[instanceKey]*slot)}
}

// Nested derives a child scope in which the named boundaries start empty.
// All other boundaries continue to resolve against the parent.
func (s *Scope) Nested(boundaries ...string) *Scope {
	owned := make(map[string]bool, len(boundaries))
	for _, b := range boundaries {
		owned[b] = true
	}
	return &Scope{
		parent: s,
		owned:  owned,
		slots:  make(map[instanceKey]*slot),
	}
}

// owner returns the scope that holds instances for a boundary.
func (s *Scope) owner(boundary string) *Scope {
	for cur := s; ; cur = cur.parent {
		if cur.parent == nil || cur.owned[boundary] {
			return cur
		}
	}
}

// getOrCreate returns the shared instance for key, invoking create under the
// key's slot lock when no instance exists yet. A failed creation leaves the
// slot empty.
func (s *Scope) getOrCreate(key instanceKey, create func() (any, error)) (any, error) {
	owner := s.owner(key.boundary)

	owner.mu.Lock()
	sl, ok := owner.slots[key]
	if !ok {
		sl = &slot{}
		owner.slots[key] = sl
	}
	owner.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.done {
		return sl.value, nil
	}
	v, err := create()
	if err != nil {
		return nil, err
	}
	sl.value = v
	sl.done = true
	return v, nil
}
