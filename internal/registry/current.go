package registry

import (
	"fmt"

	"github.com/desertwitch/volguard/internal/pathing"
)

// SetCurrentDirectory makes path the current working directory. Unless path
// is a volume root, it is tracked as an open read handle, so the directory
// cannot be locked (formatted, deleted or unmounted) while it is current. The
// handle tracking the previous current directory is released.
func (r *Registry) SetCurrentDirectory(path string) error {
	key, display, err := canonicalize(path)
	if err != nil {
		return fmt.Errorf("(registry-cwd) %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var h *Handle
	if !key.IsRoot() {
		if err := r.checkOpen(key, AccessRead, ShareReadWrite); err != nil {
			return fmt.Errorf("(registry-cwd) %w: %s", err, display)
		}
		h = r.insertHandle(key, display, AccessRead, ShareReadWrite)
	} else if display[len(display)-1] == pathing.VolumeSeparator {
		display += string(pathing.DirectorySeparator)
	}

	if prev := r.currentHandle; prev != nil {
		if cur, ok := r.handles[prev.id]; ok && cur == prev {
			delete(r.handles, prev.id)

			if r.metrics != nil {
				r.metrics.ObserveDeregister(1)
			}
		}
	}

	r.currentHandle = h
	r.currentDirectory = display

	return nil
}

// CurrentDirectory returns the current working directory, which is empty
// until [Registry.SetCurrentDirectory] was called.
func (r *Registry) CurrentDirectory() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentDirectory
}
