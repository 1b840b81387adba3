package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-docgen/pkg/template"
)

// FS reads persisted template documents (JSON or YAML) from an fs.FS. It is
// read-only: Save and Delete report that the backing store cannot be
// written, which the engine logs and tolerates during fan-out.
type FS struct {
	fsys fs.FS

	mu    sync.Mutex
	index map[string]string // template id -> file path
}

// NewFS constructs a loader over the supplied filesystem.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Name identifies the loader in engine logs.
func (l *FS) Name() string { return "fs" }

// Load parses the document whose metadata id matches.
func (l *FS) Load(ctx context.Context, id string) (template.Template, error) {
	if err := ctx.Err(); err != nil {
		return template.Template{}, err
	}
	file, ok, err := l.lookup(id)
	if err != nil {
		return template.Template{}, err
	}
	if !ok {
		return template.Template{}, fmt.Errorf("loader: template %q not found", id)
	}

	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return template.Template{}, fmt.Errorf("loader: read %s: %w", file, err)
	}
	return template.Parse(data, file)
}

// Save is unsupported; the fs loader is read-only.
func (l *FS) Save(ctx context.Context, t template.Template) error {
	return fmt.Errorf("loader: fs loader is read-only, cannot save %q", t.Metadata.ID)
}

// Delete is unsupported; the fs loader is read-only.
func (l *FS) Delete(ctx context.Context, id string) error {
	return fmt.Errorf("loader: fs loader is read-only, cannot delete %q", id)
}

// List returns the sorted ids of parseable documents matching the filter. The
// index is rebuilt so recently added documents are listed.
func (l *FS) List(ctx context.Context, filter template.Filter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.index = nil
	l.mu.Unlock()

	index, err := l.buildIndex()
	if err != nil {
		return nil, err
	}

	var ids []string
	for id, file := range index {
		data, err := fs.ReadFile(l.fsys, file)
		if err != nil {
			continue
		}
		tmpl, err := template.Parse(data, file)
		if err != nil {
			continue
		}
		if filter.Matches(tmpl) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether a document with the id is present.
func (l *FS) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok, err := l.lookup(id)
	return ok, err
}

// lookup resolves an id to its file. On a miss the index is rebuilt once, so
// documents added to the directory after the first walk are still found.
func (l *FS) lookup(id string) (string, bool, error) {
	index, err := l.buildIndex()
	if err != nil {
		return "", false, err
	}
	if file, ok := index[id]; ok {
		return file, true, nil
	}

	l.mu.Lock()
	l.index = nil
	l.mu.Unlock()

	index, err = l.buildIndex()
	if err != nil {
		return "", false, err
	}
	file, ok := index[id]
	return file, ok, nil
}

// buildIndex walks the filesystem once and maps template ids to files.
// Documents that fail to parse are skipped rather than failing the walk.
func (l *FS) buildIndex() (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index != nil {
		return l.index, nil
	}

	index := make(map[string]string)
	err := fs.WalkDir(l.fsys, ".", func(file string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(file) {
			return nil
		}
		data, err := fs.ReadFile(l.fsys, file)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", file, err)
		}
		tmpl, err := template.Parse(data, file)
		if err != nil || tmpl.Metadata.ID == "" {
			return nil
		}
		if _, dup := index[tmpl.Metadata.ID]; dup {
			return fmt.Errorf("loader: duplicate template id %q (file %s)", tmpl.Metadata.ID, file)
		}
		index[tmpl.Metadata.ID] = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.index = index
	return index, nil
}

func isTemplateFile(file string) bool {
	switch strings.ToLower(path.Ext(file)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
