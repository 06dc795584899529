// Package world provides in-memory implementations of the scheduler's two
// collaborators: a dense actor registry serving per-cycle position snapshots,
// and a static collider world serving batched line casts. Game engines with
// their own spatial backend implement [posts.Caster] and
// [posts.SnapshotProvider] directly and skip this package.
package world

import (
	"sync"

	"github.com/codewandler/posts-go/core/geom"
	"github.com/codewandler/posts-go/core/posts"
)

// LayerDefault is the collision layer colliders land on unless told otherwise.
const LayerDefault uint32 = 1 << 0

// Registry is a dense in-memory actor registry. Positions live in one dense
// slice with a handle index on the side, so a snapshot is a single copy.
type Registry struct {
	mu    sync.RWMutex
	index map[posts.Handle]int
	data  []posts.ActorData
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[posts.Handle]int)}
}

// Upsert sets the actor's position, adding it on first use.
func (r *Registry) Upsert(h posts.Handle, pos geom.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[h]; ok {
		r.data[i].Pos = pos
		return
	}
	r.index[h] = len(r.data)
	r.data = append(r.data, posts.ActorData{Handle: h, Pos: pos})
}

// Remove deletes the actor. The dense slice stays dense: the last entry is
// swapped into the removed slot.
func (r *Registry) Remove(h posts.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[h]
	if !ok {
		return
	}
	last := len(r.data) - 1
	if i != last {
		r.data[i] = r.data[last]
		r.index[r.data[i].Handle] = i
	}
	r.data = r.data[:last]
	delete(r.index, h)
}

// Len returns the number of registered actors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Snapshot returns a read-only copy of the registry, valid for one consume
// cycle. Later registry mutations do not show through.
func (r *Registry) Snapshot() posts.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &snapshot{
		index: make(map[posts.Handle]int, len(r.index)),
		data:  make([]posts.ActorData, len(r.data)),
	}
	for h, i := range r.index {
		s.index[h] = i
	}
	copy(s.data, r.data)
	return s
}

type snapshot struct {
	index map[posts.Handle]int
	data  []posts.ActorData
}

func (s *snapshot) Lookup(h posts.Handle) (geom.Vec3, bool) {
	i, ok := s.index[h]
	if !ok {
		return geom.Vec3{}, false
	}
	return s.data[i].Pos, true
}
