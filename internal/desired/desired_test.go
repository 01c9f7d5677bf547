package desired

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"explicit id wins", Entry{ID: "custom", Title: "Chapter One"}, "custom"},
		{"derived from title", Entry{Title: "Chapter One"}, "chapter-one"},
		{"url title", Entry{Title: "https://example.com/a"}, "https://example.com/a"},
		{"empty", Entry{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.CanonicalID(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromTitles(t *testing.T) {
	got := FromTitles([]string{"Intro", "  ", "Chapter 1: Start"})
	want := []Entry{
		{ID: "intro", Title: "Intro"},
		{ID: "chapter-1-start", Title: "Chapter 1: Start"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONShapes(t *testing.T) {
	want := []Entry{{ID: "intro", Title: "Introduction"}, {Title: "Summary"}}

	tests := []struct {
		name string
		data string
	}{
		{
			name: "flat list",
			data: `[{"id": "intro", "title": "Introduction"}, {"title": "Summary"}]`,
		},
		{
			name: "single config with destinations",
			data: `{"destinations": [{"id": "intro", "title": "Introduction"}, {"title": "Summary"}]}`,
		},
		{
			name: "single config with sections",
			data: `{"sections": [{"id": "intro", "title": "Introduction"}, {"title": "Summary"}]}`,
		},
		{
			name: "keyed by file name",
			data: `{"other.pdf": {"destinations": []},
			        "guide.pdf": {"sections": [{"id": "intro", "title": "Introduction"}, {"title": "Summary"}]}}`,
		},
		{
			name: "array of per-file entries",
			data: `[{"pdfFile": "other.pdf", "destinations": [{"title": "Nope"}]},
			        {"pdfFile": "guide.pdf", "destinations": [{"id": "intro", "title": "Introduction"}, {"title": "Summary"}]}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.data), "guide.pdf")
			if err != nil {
				t.Fatalf("ParseJSON: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", `{nope`, ErrInvalidInput},
		{"scalar top level", `42`, ErrInvalidInput},
		{"entry without title or id", `[{"name": "x"}]`, ErrInvalidInput},
		{"title is not a string", `{"destinations": [{"title": 5}]}`, ErrInvalidInput},
		{"missing file entry", `{"other.pdf": {"destinations": []}}`, ErrNotFound},
		{"missing per-file entry", `[{"pdfFile": "other.pdf", "destinations": []}]`, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data), "guide.pdf")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "destinations.yaml")
	content := `
guide.pdf:
  destinations:
    - title: Introduction
    - id: appendix
      title: Appendix A
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path, "guide.pdf")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []Entry{{Title: "Introduction"}, {ID: "appendix", Title: "Appendix A"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), "guide.pdf")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
