package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-docgen/pkg/template"
)

// Loader is the persistence contract implemented outside the core. Load,
// save, delete, and list are external I/O; every call takes a context so
// callers can bound a hung backend.
type Loader interface {
	Name() string
	Load(ctx context.Context, id string) (template.Template, error)
	Save(ctx context.Context, t template.Template) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter template.Filter) ([]string, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type registeredLoader struct {
	loader   Loader
	priority int
	order    int // registration order breaks priority ties
}

// loaderRegistry holds loaders sorted descending by priority.
type loaderRegistry struct {
	mu      sync.RWMutex
	loaders []registeredLoader
}

func (r *loaderRegistry) add(l Loader, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loaders = append(r.loaders, registeredLoader{loader: l, priority: priority, order: len(r.loaders)})
	sort.SliceStable(r.loaders, func(i, j int) bool {
		if r.loaders[i].priority != r.loaders[j].priority {
			return r.loaders[i].priority > r.loaders[j].priority
		}
		return r.loaders[i].order < r.loaders[j].order
	})
}

// snapshot returns the loaders in priority order.
func (r *loaderRegistry) snapshot() []Loader {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Loader, len(r.loaders))
	for i, reg := range r.loaders {
		out[i] = reg.loader
	}
	return out
}

func (r *loaderRegistry) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loaders) == 0
}
