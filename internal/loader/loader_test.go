package loader

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docgen/pkg/template"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()

	tmpl := template.Template{
		Metadata: template.Metadata{ID: "note", Version: "1.0.0"},
		Config:   template.Config{Type: template.TypeCustom, Language: "en", Format: template.FormatPlain},
		Content:  "{{body}}",
	}
	if err := mem.Save(ctx, tmpl); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := mem.Load(ctx, "note")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(tmpl, got); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}

	// Loaded copies never alias the stored template.
	got.Content = "mutated"
	again, _ := mem.Load(ctx, "note")
	if again.Content != "{{body}}" {
		t.Fatal("mutating a loaded template leaked into the store")
	}

	if err := mem.Delete(ctx, "note"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if exists, _ := mem.Exists(ctx, "note"); exists {
		t.Fatal("deleted template still exists")
	}
	// Deleting an absent id is not an error.
	if err := mem.Delete(ctx, "note"); err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
}

func TestMemorySaveRequiresID(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	if err := mem.Save(context.Background(), template.Template{}); err == nil {
		t.Fatal("template without an id was saved")
	}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"briefs/daily.json": &fstest.MapFile{Data: []byte(`{
			"metadata": {"id": "daily-brief", "version": "1.0.0"},
			"config": {"type": "daily", "language": "en", "format": "markdown"},
			"content": "# Brief {{date}}\n"
		}`)},
		"briefs/weekly.yaml": &fstest.MapFile{Data: []byte(`
metadata:
  id: weekly-brief
  version: 2.0.0
config:
  type: brief
  language: en
  format: markdown
content: "# Weekly {{date}}\n"
`)},
		"notes.txt":    &fstest.MapFile{Data: []byte("not a template")},
		"broken.json":  &fstest.MapFile{Data: []byte("{{{")},
		"unnamed.json": &fstest.MapFile{Data: []byte(`{"content": "no id"}`)},
	}
}

func TestFSLoadsJSONAndYAML(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewFS(testFS())

	daily, err := l.Load(ctx, "daily-brief")
	if err != nil {
		t.Fatalf("Load(daily-brief) returned error: %v", err)
	}
	if daily.Config.Type != template.TypeDaily {
		t.Fatalf("type = %q", daily.Config.Type)
	}

	weekly, err := l.Load(ctx, "weekly-brief")
	if err != nil {
		t.Fatalf("Load(weekly-brief) returned error: %v", err)
	}
	if weekly.Metadata.Version != "2.0.0" {
		t.Fatalf("version = %q", weekly.Metadata.Version)
	}

	if _, err := l.Load(ctx, "absent"); err == nil {
		t.Fatal("absent id loaded")
	}
}

func TestFSListSkipsUnparseable(t *testing.T) {
	t.Parallel()

	l := NewFS(testFS())
	got, err := l.List(context.Background(), template.Filter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	want := []string{"daily-brief", "weekly-brief"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestFSListAppliesFilter(t *testing.T) {
	t.Parallel()

	l := NewFS(testFS())
	got, err := l.List(context.Background(), template.Filter{Type: template.TypeDaily})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	want := []string{"daily-brief"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestFSIsReadOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewFS(testFS())

	if err := l.Save(ctx, template.Template{Metadata: template.Metadata{ID: "x"}}); err == nil {
		t.Fatal("Save succeeded on a read-only loader")
	}
	if err := l.Delete(ctx, "daily-brief"); err == nil {
		t.Fatal("Delete succeeded on a read-only loader")
	}
}

func TestFSSeesDocumentsAddedAfterFirstWalk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fsys := testFS()
	l := NewFS(fsys)

	// First lookup builds the index.
	if exists, err := l.Exists(ctx, "daily-brief"); err != nil || !exists {
		t.Fatalf("Exists(daily-brief) = %v, %v", exists, err)
	}

	fsys["briefs/late.json"] = &fstest.MapFile{Data: []byte(`{
		"metadata": {"id": "late-brief", "version": "1.0.0"},
		"config": {"type": "brief", "language": "en", "format": "markdown"},
		"content": "# Late {{date}}\n"
	}`)}

	if exists, err := l.Exists(ctx, "late-brief"); err != nil || !exists {
		t.Fatalf("Exists(late-brief) after adding the file = %v, %v", exists, err)
	}
	if _, err := l.Load(ctx, "late-brief"); err != nil {
		t.Fatalf("Load(late-brief) returned error: %v", err)
	}

	ids, err := l.List(ctx, template.Filter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	want := []string{"daily-brief", "late-brief", "weekly-brief"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestFSRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	fsys := testFS()
	fsys["copy.json"] = &fstest.MapFile{Data: []byte(`{
		"metadata": {"id": "daily-brief"},
		"config": {"type": "daily", "language": "en", "format": "markdown"},
		"content": "duplicate"
	}`)}

	l := NewFS(fsys)
	if _, err := l.Load(context.Background(), "daily-brief"); err == nil {
		t.Fatal("duplicate ids did not fail the index build")
	}
}
