package registry

import (
	"cmp"
	"slices"
	"time"
)

// HandleInfo is a point-in-time copy of a [Handle]'s state.
type HandleInfo struct {
	ID       uint64
	Key      Key
	Path     string
	Access   Access
	Share    Share
	OpenedAt time.Time
	Current  bool
}

// Snapshot is a point-in-time copy of the [Registry] state.
type Snapshot struct {
	Handles          []HandleInfo
	Locked           []Key
	CurrentDirectory string
}

// Snapshot returns a copy of the registry state, with handles ordered by ID
// and locked directories ordered by key.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Handles:          make([]HandleInfo, 0, len(r.handles)),
		Locked:           make([]Key, 0, len(r.locked)),
		CurrentDirectory: r.currentDirectory,
	}

	for _, h := range r.handles {
		snap.Handles = append(snap.Handles, HandleInfo{
			ID:       h.id,
			Key:      h.key,
			Path:     h.path,
			Access:   h.access,
			Share:    h.share,
			OpenedAt: h.openedAt,
			Current:  h == r.currentHandle,
		})
	}

	for key := range r.locked {
		snap.Locked = append(snap.Locked, key)
	}

	slices.SortFunc(snap.Handles, func(a, b HandleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	slices.Sort(snap.Locked)

	return snap
}
