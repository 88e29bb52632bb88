// FILE: lixenwraith/props/loader.go
package props

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Loader resolves properties against the resources and defaults it was built with.
// Every call reloads the resources, so edits to the underlying documents are picked up.
// It is safe for concurrent use.
type Loader struct {
	mu     sync.Mutex
	engine *Engine
	info   *PropertyInfo
}

func newLoader(e *Engine, info *PropertyInfo) *Loader {
	return &Loader{engine: e, info: info}
}

// merge builds a fresh store from the loader-level resources and the current overrides
func (l *Loader) merge() *Store {
	return l.engine.Merge(l.info.Resources, l.info.EffectiveIncludeKey(), l.info.EffectiveIncludesDelimiter())
}

// Engine returns the underlying resolution engine.
func (l *Loader) Engine() *Engine {
	return l.engine
}

// Info returns the loader-level descriptor every property inherits from.
func (l *Loader) Info() *PropertyInfo {
	return l.info
}

// Property creates a descriptor for key that inherits the loader defaults.
func (l *Loader) Property(key string, spec TypeSpec) *PropertyInfo {
	return NewPropertyInfo(l.info).WithKey(key).WithType(spec)
}

// NewTable creates a resolution table inheriting the loader defaults.
func (l *Loader) NewTable() *Table {
	return NewTable(l.info)
}

// Populate resolves every tagged field of target, a pointer to a struct.
func (l *Loader) Populate(target any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.engine.populate(target, l.info, l.merge())
}

// Resolve resolves a single descriptor, using the loader resources as the fallback store.
func (l *Loader) Resolve(info *PropertyInfo) (any, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.engine.Resolve(info.Request(), "", l.merge())
}

// ResolveTable resolves a table, using the loader resources as the lowest structure layer.
func (l *Loader) ResolveTable(t *Table) (map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.engine.resolveTable(t, t.Prefix, l.merge())
}

// Raw returns the reference-expanded text of key under the loader context.
func (l *Loader) Raw(key string) (string, bool, error) {
	v, ok, err := l.Resolve(l.Property(key, TypeOf[string]()).WithRequired(false))
	if err != nil || !ok {
		return "", ok, err
	}
	return v.(string), true, nil
}

// Keys returns every plain key visible to the loader, sorted. Context variants are folded into their base key.
func (l *Loader) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.keys(l.merge())
}

func (l *Loader) keys(store *Store) []string {
	flat := store.Flatten()

	marker := l.info.EffectiveContextPrefix()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		if strings.HasPrefix(k, marker) {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Values resolves every visible key to its expanded text.
// Keys whose references cannot be expanded keep their raw text.
func (l *Loader) Values() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	store := l.merge()
	values := make(map[string]string)
	for _, key := range l.keys(store) {
		info := l.Property(key, TypeOf[string]()).WithRequired(false)
		v, ok, err := l.engine.Resolve(info.Request(), "", store)
		if err != nil {
			l.engine.logger.Warn("value not expanded", "key", key, "err", err)
			v, ok = store.Get(key)
		}
		if ok {
			values[key] = fmt.Sprint(v)
		}
	}
	return values
}

// Debug returns a formatted string showing the loader settings, resources and values
func (l *Loader) Debug() string {
	var b strings.Builder
	b.WriteString("Loader Debug Info:\n")
	fmt.Fprintf(&b, "Context: %q (prefix %q)\n", l.info.EffectiveContext(), l.info.EffectiveContextPrefix())
	b.WriteString("Resources (highest priority first):\n")
	for _, res := range sortResources(l.info.Resources) {
		fmt.Fprintf(&b, "  [%d] %s: %s\n", res.Priority, res.Kind, strings.Join(res.Locations, " | "))
	}
	overrides := l.engine.overrides.Snapshot()
	b.WriteString("Current values:\n")
	values := l.Values()
	for _, key := range slices.Sorted(maps.Keys(values)) {
		source := ""
		if _, ok := overrides[key]; ok {
			source = " (override)"
		}
		fmt.Fprintf(&b, "  %s = %s%s\n", key, values[key], source)
	}
	return b.String()
}

// Dump writes the resolved values to w in the given format: properties, toml, yaml or json
func (l *Loader) Dump(w io.Writer, format string) error {
	data, err := encodeValues(l.Values(), format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// encodeValues renders flat values; structured formats nest them on dots.
func encodeValues(values map[string]string, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatProperties, "":
		p := properties.NewProperties()
		p.DisableExpansion = true
		for _, key := range slices.Sorted(maps.Keys(values)) {
			if _, _, err := p.Set(key, values[key]); err != nil {
				return nil, fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
		if _, err := p.Write(&buf, properties.UTF8); err != nil {
			return nil, fmt.Errorf("failed to encode properties: %w", err)
		}
		return buf.Bytes(), nil
	}

	nested, err := nestValues(values)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(nested); err != nil {
			return nil, fmt.Errorf("failed to marshal values to TOML: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(nested); err != nil {
			return nil, fmt.Errorf("failed to marshal values to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(nested); err != nil {
			return nil, fmt.Errorf("failed to marshal values to JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dump format %q", format)
	}
	return buf.Bytes(), nil
}

// nestValues turns dot keys into nested maps. A key that is both a value and a parent cannot be nested.
func nestValues(values map[string]string) (map[string]any, error) {
	nested := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(values)) {
		segments := strings.Split(key, ".")
		current := nested
		for i, segment := range segments {
			if i == len(segments)-1 {
				if _, exists := current[segment]; exists {
					return nil, fmt.Errorf("key %q is both a value and a parent", key)
				}
				current[segment] = values[key]
				break
			}
			next, exists := current[segment]
			if !exists {
				child := make(map[string]any)
				current[segment] = child
				current = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("key %q is both a value and a parent", strings.Join(segments[:i+1], "."))
			}
			current = child
		}
	}
	return nested, nil
}
