// Package desired loads the list of destinations a caller wants in a
// document, either from command-line titles or from a JSON or YAML file.
package desired

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/destinator/internal/annot"
)

var (
	// ErrNotFound is returned when a file has no entry for the requested PDF.
	ErrNotFound = errors.New("no destinations for file")

	// ErrInvalidInput is returned for unreadable or malformed files.
	ErrInvalidInput = errors.New("invalid destination file")
)

// Entry is one desired destination. ID defaults to annot.ToID(Title).
type Entry struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Title string `json:"title" yaml:"title"`
}

// CanonicalID returns the explicit id, the URL itself for URL titles, or the
// id derived from the title.
func (e Entry) CanonicalID() string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	title := strings.TrimSpace(e.Title)
	if annot.IsURL(title) {
		return title
	}
	return annot.ToID(title)
}

// DisplayTitle returns the title, falling back to the id.
func (e Entry) DisplayTitle() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return strings.TrimSpace(e.ID)
}

// FromTitles builds entries from plain titles. Blank titles are skipped.
func FromTitles(titles []string) []Entry {
	entries := make([]Entry, 0, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		entries = append(entries, Entry{ID: Entry{Title: t}.CanonicalID(), Title: t})
	}
	return entries
}

// LoadFile reads destinations for pdfName from a .json, .yaml or .yml file.
func LoadFile(path, pdfName string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, pdfName)
	default:
		return ParseJSON(data, pdfName)
	}
}

// ParseJSON extracts the entries for pdfName from JSON data.
func ParseJSON(data []byte, pdfName string) ([]Entry, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return extract(doc, pdfName)
}

// ParseYAML extracts the entries for pdfName from YAML data.
func ParseYAML(data []byte, pdfName string) ([]Entry, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return extract(doc, pdfName)
}

// extract accepts the supported file shapes:
//   - a flat array of {id?, title} records
//   - an object with a "destinations" or "sections" array
//   - an object keyed by PDF file name
//   - an array of per-file entries with "pdfFile"
func extract(doc any, pdfName string) ([]Entry, error) {
	var list any

	switch v := doc.(type) {
	case []any:
		if !isPerFileArray(v) {
			list = v
			break
		}
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := m["pdfFile"].(string); name == pdfName {
				list = listField(m)
				break
			}
		}
	case map[string]any:
		if l := listField(v); l != nil {
			list = l
		} else if entry, ok := v[pdfName].(map[string]any); ok {
			list = listField(entry)
		}
	case nil:
	default:
		return nil, fmt.Errorf("%w: top level must be an object or array", ErrInvalidInput)
	}

	if list == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pdfName)
	}
	return decodeList(list)
}

func isPerFileArray(items []any) bool {
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if _, ok := m["pdfFile"]; ok {
				return true
			}
		}
	}
	return false
}

// listField returns "destinations", falling back to its synonym "sections".
func listField(m map[string]any) any {
	if l, ok := m["destinations"]; ok && l != nil {
		return l
	}
	if l, ok := m["sections"]; ok && l != nil {
		return l
	}
	return nil
}

// decodeList normalizes list through JSON, validates it and decodes entries.
func decodeList(list any) ([]Entry, error) {
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	schema, err := destinationsSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return entries, nil
}

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id": {"type": "string"},
      "title": {"type": "string"}
    },
    "anyOf": [
      {"required": ["title"]},
      {"required": ["id"]}
    ]
  }
}`

var destinationsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("destinations.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load destinations schema: %w", err)
	}
	schema, err := compiler.Compile("destinations.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile destinations schema: %w", err)
	}
	return schema, nil
})
