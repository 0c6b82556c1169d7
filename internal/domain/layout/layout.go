// Package layout loads the declarative path layout: an ordered mapping of
// logical keys to template strings. Nested YAML groups flatten into dotted
// keys, so
//
//	models:
//	  base: ${project_root}/models
//	  cache: ${models.base}/cache
//
// declares the keys "models.base" and "models.cache". Declaration order is
// preserved because forward references resolve in a single pass.
package layout

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/fieldlens/backend/internal/shared/paths"
)

// Entry is one key/template pair of the layout.
type Entry struct {
	Key      string
	Template string
}

// Layout is an ordered set of entries with unique keys.
type Layout struct {
	entries []Entry
	index   map[string]int
}

// New builds a layout from entries, validating keys and templates.
func New(entries []Entry) (*Layout, error) {
	l := &Layout{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if err := paths.ValidateKey(e.Key); err != nil {
			return nil, err
		}
		if e.Template == "" {
			return nil, fmt.Errorf("layout key %q has an empty template", e.Key)
		}
		if _, dup := l.index[e.Key]; dup {
			return nil, fmt.Errorf("duplicate layout key %q", e.Key)
		}
		l.index[e.Key] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	if len(l.entries) == 0 {
		return nil, fmt.Errorf("layout declares no keys")
	}
	return l, nil
}

// Parse decodes a YAML layout document, preserving declaration order.
func Parse(data []byte) (*Layout, error) {
	var doc yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	entries, err := flatten("", doc)
	if err != nil {
		return nil, err
	}
	return New(entries)
}

// Load reads and parses a YAML layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return Parse(data)
}

// flatten walks the decoded document depth-first, joining group names with
// dots. Only mappings and strings are legal in the tree.
func flatten(prefix string, doc yaml.MapSlice) ([]Entry, error) {
	var entries []Entry
	for _, item := range doc {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("layout key %v is not a string", item.Key)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		switch v := item.Value.(type) {
		case string:
			entries = append(entries, Entry{Key: key, Template: v})
		case yaml.MapSlice:
			nested, err := flatten(key, v)
			if err != nil {
				return nil, err
			}
			entries = append(entries, nested...)
		default:
			return nil, fmt.Errorf("layout key %q must map to a string or a group, got %T", key, item.Value)
		}
	}
	return entries, nil
}

// Default returns the built-in layout used when no layout file is present.
func Default() *Layout {
	l, err := New([]Entry{
		{paths.ProjectRoot, "${PROJECT_ROOT}"},
		{paths.Src, "${project_root}/src"},
		{paths.Config, "${project_root}/config"},
		{paths.Tests, "${project_root}/tests"},
		{paths.DataInput, "${project_root}/data/input"},
		{paths.DataOutput, "${project_root}/data/output"},
		{paths.DataProcessed, "${project_root}/data/processed"},
		{paths.ModelsBase, "${project_root}/models"},
		{paths.ModelsModel, "${models.base}/pixtral-12b"},
		{paths.ModelsCache, "${models.base}/cache"},
		{paths.Logs, "${project_root}/logs"},
		{paths.Temp, "${TEMP_DIR}/fieldlens"},
		{paths.Cache, "${project_root}/cache"},
	})
	if err != nil {
		panic(fmt.Sprintf("default layout is invalid: %v", err))
	}
	return l
}

// Keys returns all keys in declaration order.
func (l *Layout) Keys() []string {
	keys := make([]string, len(l.entries))
	for i, e := range l.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in declaration order.
func (l *Layout) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Template returns the template for key.
func (l *Layout) Template(key string) (string, bool) {
	i, ok := l.index[key]
	if !ok {
		return "", false
	}
	return l.entries[i].Template, true
}

// Has reports whether key is declared.
func (l *Layout) Has(key string) bool {
	_, ok := l.index[key]
	return ok
}

// Len returns the number of declared keys.
func (l *Layout) Len() int { return len(l.entries) }
