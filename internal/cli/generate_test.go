package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectBindingsFromFlags(t *testing.T) {
	t.Parallel()

	bindings, err := collectBindings([]string{"name=Ada", "city=NYC"}, "")
	if err != nil {
		t.Fatalf("collectBindings returned error: %v", err)
	}
	if got, _ := bindings["name"].AsString(); got != "Ada" {
		t.Fatalf("name = %q", got)
	}
	if got, _ := bindings["city"].AsString(); got != "NYC" {
		t.Fatalf("city = %q", got)
	}

	// Values may contain '='; only the first one splits.
	bindings, err = collectBindings([]string{"eq=a=b"}, "")
	if err != nil {
		t.Fatalf("collectBindings returned error: %v", err)
	}
	if got, _ := bindings["eq"].AsString(); got != "a=b" {
		t.Fatalf("eq = %q", got)
	}
}

func TestCollectBindingsRejectsMalformedPairs(t *testing.T) {
	t.Parallel()

	for _, pair := range []string{"noequals", "=value", "  =x"} {
		if _, err := collectBindings([]string{pair}, ""); err == nil {
			t.Errorf("pair %q accepted", pair)
		}
	}
}

func TestCollectBindingsFileAndFlagMerge(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "vars.json")
	doc := `{"name": "FromFile", "count": 3, "nested": {"city": "NYC"}}`
	if err := os.WriteFile(file, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing vars file: %v", err)
	}

	bindings, err := collectBindings([]string{"name=FromFlag"}, file)
	if err != nil {
		t.Fatalf("collectBindings returned error: %v", err)
	}

	// The --var flag wins over the file.
	if got, _ := bindings["name"].AsString(); got != "FromFlag" {
		t.Fatalf("name = %q, want the flag value", got)
	}
	if got, _ := bindings["count"].AsNumber(); got != 3 {
		t.Fatalf("count = %v", bindings["count"])
	}
	nested, ok := bindings["nested"].AsObject()
	if !ok {
		t.Fatalf("nested = %v, want object", bindings["nested"])
	}
	if city, _ := nested["city"].AsString(); city != "NYC" {
		t.Fatalf("nested city = %q", city)
	}
}

func TestCollectBindingsMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := collectBindings(nil, filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing vars file accepted")
	}
}
