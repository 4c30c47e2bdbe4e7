package registry

import (
	"sync/atomic"
	"time"
)

// Handle is the record of one outstanding open. It is created by
// [Registry.RegisterOpen] and must be released with [Handle.Release] (or
// [Registry.DeregisterOpen]) on every exit path once the native resource is
// closed.
type Handle struct {
	id       uint64
	key      Key
	path     string
	access   Access
	share    Share
	openedAt time.Time

	registry *Registry
	closer   func() error // guarded by the registry lock
	evicted  atomic.Bool
}

// ID returns the registry-unique identifier of the handle.
func (h *Handle) ID() uint64 {
	return h.id
}

// Key returns the canonical path of the handle.
func (h *Handle) Key() Key {
	return h.key
}

// Path returns the normalized, case-preserving path of the handle.
func (h *Handle) Path() string {
	return h.path
}

// Access returns the access the handle was granted.
func (h *Handle) Access() Access {
	return h.access
}

// Share returns the share mode the handle was granted.
func (h *Handle) Share() Share {
	return h.share
}

// OpenedAt returns the time of registration.
func (h *Handle) OpenedAt() time.Time {
	return h.openedAt
}

// Evicted reports whether the handle was forcibly removed together with its
// volume root. Any further I/O through the handle must be refused.
func (h *Handle) Evicted() bool {
	return h.evicted.Load()
}

// Attach binds the native close callback, invoked should the volume be
// removed while the handle is open. The callback runs under the registry lock
// and must not call back into the [Registry]. [ErrHandleEvicted] is returned
// if the handle was evicted before the callback could be attached, in which
// case the caller remains responsible for closing the native resource.
func (h *Handle) Attach(closer func() error) error {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()

	if h.evicted.Load() {
		return ErrHandleEvicted
	}

	h.closer = closer

	return nil
}

// Release deregisters the handle. It is safe to call more than once.
func (h *Handle) Release() {
	h.registry.DeregisterOpen(h)
}

// DirLock is the token of a directory locked with [Registry.LockDirectory].
type DirLock struct {
	key      Key
	registry *Registry
}

// Key returns the canonical path of the locked directory.
func (l *DirLock) Key() Key {
	return l.key
}

// Unlock releases the directory lock. It is safe to call more than once.
func (l *DirLock) Unlock() {
	l.registry.UnlockDirectory(l)
}
