package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileFetch(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.json", `[{"id":"b1","title":"Go Developer","source":{"name":"board","kind":"api"}},{"id":"b2"}]`)
	write(t, dir, "a.jsonl", "{\"id\":\"a1\"}\n\n{\"id\":\"a2\",\"fetched_at\":\"2024-01-02T03:04:05Z\"}\n")
	write(t, dir, "empty.json", "")
	write(t, dir, "notes.txt", "ignored")

	f := NewFile(filepath.Join(dir, "*.json"), filepath.Join(dir, "*.jsonl"), filepath.Join(dir, "b.json"))

	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	ids := make([]string, 0, len(got))
	for _, raw := range got {
		ids = append(ids, raw.ID)
	}
	if diff := cmp.Diff([]string{"a1", "a2", "b1", "b2"}, ids); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}

	if got[0].Source.Name != "a" || got[0].Source.Kind != "file" {
		t.Fatalf("expected source defaults from file name, got %+v", got[0].Source)
	}
	if got[2].Source.Name != "board" || got[2].Source.Kind != "api" {
		t.Fatalf("expected explicit source kept, got %+v", got[2].Source)
	}
	if got[0].FetchedAt.IsZero() {
		t.Fatalf("expected fetched time defaulted from file")
	}
	if got[1].FetchedAt.Year() != 2024 {
		t.Fatalf("expected explicit fetched time kept, got %v", got[1].FetchedAt)
	}
}

func TestFileFetchErrors(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "bad.json", `{"id":`)

	tests := map[string]*File{
		"no match":    NewFile(filepath.Join(dir, "missing-*.json")),
		"bad content": NewFile(filepath.Join(dir, "bad.json")),
		"bad pattern": NewFile("[" + dir),
	}

	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.Fetch(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
