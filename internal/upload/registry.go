package upload

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sakanhub/listing/internal/model"
)

// localScheme prefixes every handle minted by a Registry. Remote previews
// (persisted URLs/paths) never carry it and are never revoked.
const localScheme = "local://"

// Registry owns the transient preview handles for one form session. A
// handle is created when a file is staged and must be revoked when it is
// superseded, removed, or the session is torn down; leaking handles is a
// resource defect.
type Registry struct {
	mu    sync.Mutex
	blobs map[string]*model.File
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{blobs: make(map[string]*model.File)}
}

// Create mints a new local handle for f.
func (r *Registry) Create(f *model.File) string {
	handle := localScheme + uuid.NewString()
	r.mu.Lock()
	r.blobs[handle] = f
	r.mu.Unlock()
	return handle
}

// Get resolves a local handle back to its staged file.
func (r *Registry) Get(handle string) (*model.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.blobs[handle]
	return f, ok
}

// Revoke releases a local handle. Remote references are left alone.
func (r *Registry) Revoke(handle string) {
	if !IsLocal(handle) {
		return
	}
	r.mu.Lock()
	delete(r.blobs, handle)
	r.mu.Unlock()
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}

// Close revokes every live handle.
func (r *Registry) Close() {
	r.mu.Lock()
	r.blobs = make(map[string]*model.File)
	r.mu.Unlock()
}

// IsLocal reports whether a preview value is a transient local handle.
func IsLocal(handle string) bool {
	return strings.HasPrefix(handle, localScheme)
}
