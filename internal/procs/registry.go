package procs

import "sync"

// Kind distinguishes the two supervised process flavors per camera.
type Kind string

const (
	KindDetection  Kind = "detection"
	KindContinuous Kind = "continuous"
)

// Handle is one supervised subprocess attached to a camera.
type Handle struct {
	CameraID int64
	Kind     Kind
	Proc     Process
	// Fingerprint captures the configuration in effect at launch so the
	// supervisors can detect parameter changes.
	Fingerprint string
}

type registryKey struct {
	cameraID int64
	kind     Kind
}

// Registry owns the camera -> subprocess handle mapping. It is mutated from
// the reconciliation loop and read from webhook handlers, so every access
// takes the lock.
type Registry struct {
	mu      sync.Mutex
	handles map[registryKey]*Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[registryKey]*Handle)}
}

func (r *Registry) Put(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[registryKey{h.CameraID, h.Kind}] = h
}

func (r *Registry) Get(cameraID int64, kind Kind) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[registryKey{cameraID, kind}]
	return h, ok
}

// Remove drops the handle and returns it so the caller can stop the process
// outside the lock.
func (r *Registry) Remove(cameraID int64, kind Kind) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{cameraID, kind}
	h, ok := r.handles[key]
	if ok {
		delete(r.handles, key)
	}
	return h, ok
}

// Snapshot returns the current handles of one kind keyed by camera id.
func (r *Registry) Snapshot(kind Kind) map[int64]*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*Handle)
	for key, h := range r.handles {
		if key.kind == kind {
			out[key.cameraID] = h
		}
	}
	return out
}

// Len reports the total number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
