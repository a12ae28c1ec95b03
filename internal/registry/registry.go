// Package registry owns the set of RAG instances (tenants). Each tenant
// pairs one vector store collection with a deduplicated document ledger;
// the registry tracks which tenant is active and keeps conversational state
// from leaking across tenants.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/store"
)

// Registry manages tenant lifecycle and active-tenant selection.
type Registry struct {
	mu       sync.RWMutex
	provider *store.Provider
	session  *session.Session
	logger   *slog.Logger
	tenants  map[string]*Tenant
	order    []string
	active   string
}

// New creates an empty registry. The session is shared with the chat layer
// and cleared whenever the active tenant changes.
func New(provider *store.Provider, sess *session.Session, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		provider: provider,
		session:  sess,
		logger:   logger,
		tenants:  make(map[string]*Tenant),
	}
}

// Create allocates a tenant with a fresh id and its own index collection,
// and returns the tenant id. The store is lifetime-bound to the tenant: it
// is created here and deleted with the tenant.
func (r *Registry) Create(ctx context.Context, name, description string) string {
	id := uuid.New().String()
	collection := collectionName(name, id)

	t := &Tenant{
		ID:             id,
		Name:           name,
		Description:    description,
		CollectionName: collection,
		CreatedAt:      time.Now(),
		store:          r.provider.OpenStore(ctx, collection),
	}

	r.mu.Lock()
	r.tenants[id] = t
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.logger.Info("created tenant", "tenant", id, "name", name, "collection", collection)
	return id
}

// Get returns the tenant with the given id.
func (r *Registry) Get(id string) (*Tenant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	return t, ok
}

// List returns all tenants in creation order.
func (r *Registry) List() []*Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tenant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tenants[id])
	}
	return out
}

// Active returns the currently selected tenant, if any.
func (r *Registry) Active() (*Tenant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil, false
	}
	t, ok := r.tenants[r.active]
	return t, ok
}

// SwitchActive selects a tenant and clears the session, so conversation
// context never carries over between unrelated corpora. Returns false for
// an unknown id.
func (r *Registry) SwitchActive(id string) bool {
	r.mu.Lock()
	if _, ok := r.tenants[id]; !ok {
		r.mu.Unlock()
		return false
	}
	r.active = id
	r.mu.Unlock()

	if r.session != nil {
		r.session.Reset()
	}
	r.logger.Info("switched active tenant", "tenant", id)
	return true
}

// Delete removes a tenant. The delete is two-phase: the index collection
// must be deleted first, and only on success is the tenant record dropped.
// A failed collection delete keeps the tenant so the failure stays visible.
func (r *Registry) Delete(ctx context.Context, id string) bool {
	r.mu.RLock()
	t, ok := r.tenants[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if !t.store.Delete(ctx) {
		r.logger.Error("collection delete failed, keeping tenant record", "tenant", id)
		return false
	}

	r.mu.Lock()
	delete(r.tenants, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	wasActive := r.active == id
	if wasActive {
		r.active = ""
	}
	r.mu.Unlock()

	if wasActive && r.session != nil {
		r.session.Reset()
	}

	r.logger.Info("deleted tenant", "tenant", id, "name", t.Name)
	return true
}
