// Package registry implements the open-handle registry: the single source of
// truth for which paths are open (and with which share mode), which
// directories are locked for exclusive operations and which directory is the
// current working directory.
//
// All state is guarded by one mutex and every operation either succeeds as a
// whole or leaves the state untouched. Operations never block beyond the
// critical section, and the registry never logs.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/desertwitch/volguard/internal/pathing"
)

// Registry arbitrates concurrent access to paths. It is meant to be created
// once per process with [New] and shared by reference.
type Registry struct {
	mu sync.Mutex

	handles map[uint64]*Handle
	locked  map[Key]*DirLock
	nextID  uint64

	currentDirectory string
	currentHandle    *Handle

	metrics Metrics
	now     func() time.Time
}

// Option configures a [Registry].
type Option func(*Registry)

// WithMetrics sets the [Metrics] receiving observations of the [Registry].
func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// New returns a pointer to a new, empty [Registry].
func New(opts ...Option) *Registry {
	r := &Registry{
		handles: make(map[uint64]*Handle),
		locked:  make(map[Key]*DirLock),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RegisterOpen records the intent to open path with the given access and
// share mode. It fails with an error wrapping [ErrUnauthorizedAccess] if path
// lies within a locked directory, or if it is already open with a share mode
// incompatible to the request.
func (r *Registry) RegisterOpen(path string, access Access, share Share) (*Handle, error) {
	if access&AccessReadWrite == 0 || access&^AccessReadWrite != 0 {
		return nil, fmt.Errorf("(registry-open) %w: %d", ErrInvalidAccess, access)
	}

	key, display, err := canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("(registry-open) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOpen(key, access, share); err != nil {
		return nil, fmt.Errorf("(registry-open) %w: %s", err, display)
	}

	return r.insertHandle(key, display, access, share), nil
}

// DeregisterOpen removes the record of h. Removing an already removed (or
// evicted) handle is a no-op.
func (r *Registry) DeregisterOpen(h *Handle) {
	if h == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.handles[h.id]; !ok || cur != h {
		return
	}

	delete(r.handles, h.id)
	if r.currentHandle == h {
		r.currentHandle = nil
	}

	if r.metrics != nil {
		r.metrics.ObserveDeregister(1)
	}
}

// LockDirectory locks path for an exclusive directory-level operation (such
// as a format). It fails with an error wrapping [ErrUnauthorizedAccess] if the
// directory is already locked or any open handle lies within it.
func (r *Registry) LockDirectory(path string) (*DirLock, error) {
	key, display, err := canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("(registry-lock) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.locked[key]; exists {
		r.observeConflict(ReasonAlreadyLocked)

		return nil, fmt.Errorf("(registry-lock) %w: %s", ErrAlreadyLocked, display)
	}

	if r.anyOpenInDirectory(key) {
		r.observeConflict(ReasonInUse)

		return nil, fmt.Errorf("(registry-lock) %w: %s", ErrDirectoryInUse, display)
	}

	l := &DirLock{key: key, registry: r}
	r.locked[key] = l

	if r.metrics != nil {
		r.metrics.ObserveLock()
	}

	return l, nil
}

// UnlockDirectory releases the lock represented by l. Releasing a lock twice
// is a no-op.
func (r *Registry) UnlockDirectory(l *DirLock) {
	if l == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.locked[l.key]; ok && cur == l {
		r.unlock(l.key)
	}
}

// UnlockDirectoryPath releases any lock held on path, regardless of which
// token acquired it.
func (r *Registry) UnlockDirectoryPath(path string) error {
	key, _, err := canonicalize(path)
	if err != nil {
		return fmt.Errorf("(registry-unlock) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locked[key]; ok {
		r.unlock(key)
	}

	return nil
}

// ForceRemoveRoot evicts every open handle within root in one critical
// section, invoking each attached native close callback. It is used when a
// volume is ejected or reformatted. The number of evicted handles is returned,
// along with the joined errors of any failed close callbacks.
func (r *Registry) ForceRemoveRoot(root string) (int, error) {
	key, _, err := canonicalize(root)
	if err != nil {
		return 0, fmt.Errorf("(registry-evict) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := make([]*Handle, 0)
	for _, h := range r.handles {
		if h.key.Within(key) {
			evicted = append(evicted, h)
		}
	}

	slices.SortFunc(evicted, func(a, b *Handle) int {
		return cmp.Compare(a.id, b.id)
	})

	var errs []error
	for _, h := range evicted {
		delete(r.handles, h.id)
		h.evicted.Store(true)

		if r.currentHandle == h {
			r.currentHandle = nil
			if root, ok := pathing.GetPathRoot(r.currentDirectory); ok {
				r.currentDirectory = root
			}
		}

		if h.closer != nil {
			if err := h.closer(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", h.path, err))
			}
			h.closer = nil
		}
	}

	if r.metrics != nil && len(evicted) > 0 {
		r.metrics.ObserveEviction(len(evicted))
	}

	if err := errors.Join(errs...); err != nil {
		return len(evicted), fmt.Errorf("(registry-evict) %w", err)
	}

	return len(evicted), nil
}

// AnyOpenInDirectory reports whether any open handle lies within path.
func (r *Registry) AnyOpenInDirectory(path string) (bool, error) {
	key, _, err := canonicalize(path)
	if err != nil {
		return false, fmt.Errorf("(registry-inuse) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.anyOpenInDirectory(key), nil
}

// IsOpen reports whether path itself has an open handle.
func (r *Registry) IsOpen(path string) (bool, error) {
	key, _, err := canonicalize(path)
	if err != nil {
		return false, fmt.Errorf("(registry-isopen) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.handles {
		if h.key == key {
			return true, nil
		}
	}

	return false, nil
}

// checkOpen returns the reason why an open of key cannot be granted, if any.
// The caller must hold the lock.
func (r *Registry) checkOpen(key Key, access Access, share Share) error {
	for locked := range r.locked {
		if key.Within(locked) {
			r.observeConflict(ReasonLocked)

			return ErrDirectoryLocked
		}
	}

	for _, h := range r.handles {
		if h.key == key && !compatible(h.share, access, share) {
			r.observeConflict(ReasonShare)

			return ErrShareConflict
		}
	}

	return nil
}

// insertHandle creates and records a new [Handle]. The caller must hold the
// lock.
func (r *Registry) insertHandle(key Key, display string, access Access, share Share) *Handle {
	r.nextID++

	h := &Handle{
		id:       r.nextID,
		key:      key,
		path:     display,
		access:   access,
		share:    share,
		openedAt: r.now(),
		registry: r,
	}
	r.handles[h.id] = h

	if r.metrics != nil {
		r.metrics.ObserveRegister(access, share)
	}

	return h
}

// anyOpenInDirectory reports whether a handle lies within key. The caller must
// hold the lock.
func (r *Registry) anyOpenInDirectory(key Key) bool {
	for _, h := range r.handles {
		if h.key.Within(key) {
			return true
		}
	}

	return false
}

// unlock removes key from the locked directories. The caller must hold the
// lock.
func (r *Registry) unlock(key Key) {
	delete(r.locked, key)

	if r.metrics != nil {
		r.metrics.ObserveUnlock()
	}
}

func (r *Registry) observeConflict(reason string) {
	if r.metrics != nil {
		r.metrics.ObserveConflict(reason)
	}
}

func canonicalize(path string) (Key, string, error) {
	display, err := displayPath(path)
	if err != nil {
		return "", "", err
	}

	return canonicalKey(display), display, nil
}
