package api

import (
	"sync"

	"github.com/prepvox/prepvox/internal/storage"
)

// registry holds in-flight sessions between creation and finalization. Each
// interactive client owns one session; access is guarded because different
// clients' requests may interleave.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*storage.Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*storage.Session)}
}

func (r *registry) put(sess *storage.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
}

func (r *registry) get(id string) (*storage.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
