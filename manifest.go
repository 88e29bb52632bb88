// FILE: lixenwraith/props/manifest.go
package props

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Manifest is a declarative resolution table, read from TOML, YAML or JSON.
//
//	prefix = "app"
//	context = "dev"
//	resources = ["file:app.properties|defaults.properties@1"]
//
//	[[property]]
//	name = "port"
//	key = "server.port"
//	type = "int"
//	default = "8080"
//
//	[[child]]
//	name = "db"
//	prefix = "database"
//	[[child.property]]
//	key = "url"
//	required = true
type Manifest struct {
	ManifestAttrs `toml:",squash"`

	Prefix     string             `toml:"prefix"`
	Properties []ManifestProperty `toml:"property"`
	Children   []Manifest         `toml:"child"`
	// Name is the result-map alias of a child manifest
	Name string `toml:"name"`
}

// ManifestProperty declares one property of a manifest.
type ManifestProperty struct {
	ManifestAttrs `toml:",squash"`

	Name      string  `toml:"name"`
	Key       string  `toml:"key"`
	Type      string  `toml:"type"`
	Converter string  `toml:"converter"`
	Default   *string `toml:"default"`
}

// ManifestAttrs are the inheritable attributes shared by structures and properties.
type ManifestAttrs struct {
	Context           *string    `toml:"context"`
	ContextPrefix     *string    `toml:"context_prefix"`
	Required          *bool      `toml:"required"`
	Delimiter         string     `toml:"delimiter"`
	KeyValueDelimiter string     `toml:"kv_delimiter"`
	IncludeKey        *string    `toml:"include_key"`
	IncludesDelimiter string     `toml:"includes_delimiter"`
	Resources         []Resource `toml:"resources"`
}

var resourcesType = reflect.TypeFor[[]Resource]()

// ParseManifest decodes a manifest document. An empty format is detected from content.
func ParseManifest(data []byte, format string) (*Manifest, error) {
	if len(data) > MaxValueSize {
		return nil, fmt.Errorf("manifest exceeds %d bytes", MaxValueSize)
	}
	if format == "" {
		format = detectFormatFromContent(data)
	}
	raw, err := decodeStructured(format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var m Manifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		TagName:          "toml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       stringToResourcesHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("manifest decode failed: %w", err)
	}
	return &m, nil
}

// LoadManifest reads a manifest file, choosing the format by extension and then by content.
func LoadManifest(path string) (*Manifest, error) {
	data, err := readFileLimited(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	format := detectFileFormat(path)
	if format == FormatProperties || format == FormatDotenv {
		return nil, fmt.Errorf("manifest %s must be TOML, YAML or JSON", path)
	}
	return ParseManifest(data, format)
}

// Table converts the manifest into a resolution table inheriting from parent.
func (m *Manifest) Table(registry *Registry, parent *PropertyInfo) (*Table, error) {
	if registry == nil {
		registry = Default()
	}
	t := NewTable(parent)
	t.Prefix = m.Prefix
	m.apply(t.Info)

	for i, p := range m.Properties {
		if p.Key == "" {
			return nil, fmt.Errorf("property %d: key is required", i)
		}
		info := NewPropertyInfo(t.Info).WithKey(p.Key)
		p.apply(info)
		if p.Default != nil {
			info.WithDefault(*p.Default)
		}

		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		spec, err := registry.ParseType(typ)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Key, err)
		}
		info.WithType(spec)

		if p.Converter != "" {
			conv, ok := registry.Named(p.Converter)
			if !ok {
				return nil, fmt.Errorf("property %s: unknown converter %q", p.Key, p.Converter)
			}
			info.WithConverter(conv)
		}
		t.Entries = append(t.Entries, Entry{Name: p.Name, Info: info})
	}

	for _, c := range m.Children {
		if c.Prefix == "" {
			return nil, newPropertyError(ErrInvalidChildTarget, joinKey(m.Prefix, c.Name), "", fmt.Errorf("child needs a prefix"))
		}
		info := NewPropertyInfo(t.Info).WithPrefix(c.Prefix)
		child, err := c.Table(registry, info)
		if err != nil {
			return nil, err
		}
		// The child's prefix narrows through the entry, not the nested table
		child.Prefix = ""
		t.Entries = append(t.Entries, Entry{Name: c.Name, Info: info, Child: child})
	}
	return t, nil
}

func (a ManifestAttrs) apply(info *PropertyInfo) {
	if a.Context != nil {
		info.WithContext(*a.Context)
	}
	if a.ContextPrefix != nil {
		info.WithContextPrefix(*a.ContextPrefix)
	}
	if a.Required != nil {
		info.WithRequired(*a.Required)
	}
	info.WithDelimiters(a.Delimiter, a.KeyValueDelimiter)
	if a.IncludeKey != nil {
		info.WithIncludes(*a.IncludeKey, a.IncludesDelimiter)
	} else if a.IncludesDelimiter != "" {
		delim := a.IncludesDelimiter
		info.IncludesDelimiter = &delim
	}
	if len(a.Resources) > 0 {
		info.WithResources(a.Resources...)
	}
}

// stringToResourcesHookFunc handles resource descriptors written in the tag grammar
func stringToResourcesHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != resourcesType {
			return data, nil
		}

		var specs []string
		switch v := data.(type) {
		case string:
			specs = []string{v}
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					// Tables are decoded field by field
					return data, nil
				}
				specs = append(specs, s)
			}
		default:
			return data, nil
		}

		resources, err := ParseResources(strings.Join(specs, ";"))
		if err != nil {
			return nil, err
		}
		return resources, nil
	}
}
