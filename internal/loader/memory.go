// Package loader provides the built-in template loaders: an in-memory store
// used by the engine's register/unregister fan-out and tests, and a
// read-only fs.FS loader that hosts the persisted JSON/YAML document codec
// for the CLI.
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-docgen/pkg/template"
)

// Memory is a thread-safe in-memory loader. It owns the authoritative copy
// of every template saved to it.
type Memory struct {
	mu    sync.RWMutex
	items map[string]template.Template
}

// NewMemory constructs an empty in-memory loader.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]template.Template)}
}

// Name identifies the loader in engine logs.
func (m *Memory) Name() string { return "memory" }

// Load returns a copy of the stored template.
func (m *Memory) Load(ctx context.Context, id string) (template.Template, error) {
	if err := ctx.Err(); err != nil {
		return template.Template{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.items[id]
	if !ok {
		return template.Template{}, fmt.Errorf("loader: template %q not found", id)
	}
	return tmpl.Clone(), nil
}

// Save stores a copy of the template keyed by its metadata id.
func (m *Memory) Save(ctx context.Context, t template.Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Metadata.ID == "" {
		return fmt.Errorf("loader: template has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[t.Metadata.ID] = t.Clone()
	return nil
}

// Delete removes the template. Deleting an absent id is not an error.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)
	return nil
}

// List returns the sorted ids of templates matching the filter.
func (m *Memory) List(ctx context.Context, filter template.Filter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, tmpl := range m.items {
		if filter.Matches(tmpl) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether the id is stored.
func (m *Memory) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[id]
	return ok, nil
}
