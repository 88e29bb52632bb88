// FILE: lixenwraith/props/format.go
package props

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Document formats understood by the resource loader.
const (
	FormatProperties = "properties"
	FormatTOML       = "toml"
	FormatYAML       = "yaml"
	FormatJSON       = "json"
	FormatDotenv     = "env"
)

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return FormatDotenv
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties", ".props":
		return FormatProperties
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".env":
		return FormatDotenv
	default:
		// .conf, .config and anything else: detect from content
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
// Properties is the fallback since almost any text parses as properties.
func detectFormatFromContent(data []byte) string {
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil && len(tomlTest) > 0 {
		return FormatTOML
	}

	// YAML accepts plain scalars too; only a mapping counts
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil && len(yamlTest) > 0 {
		return FormatYAML
	}

	return FormatProperties
}

// parseDocument decodes data into flat key/value pairs.
func parseDocument(name string, data []byte) (map[string]string, error) {
	if len(data) > MaxValueSize {
		return nil, fmt.Errorf("document %s exceeds %d bytes", name, MaxValueSize)
	}

	format := detectFileFormat(name)
	if format == "" {
		format = detectFormatFromContent(data)
	}

	switch format {
	case FormatProperties:
		loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
		p, err := loader.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse properties %s: %w", name, err)
		}
		return p.Map(), nil

	case FormatDotenv:
		values, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse env file %s: %w", name, err)
		}
		return values, nil

	default:
		nested, err := decodeStructured(format, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s %s: %w", format, name, err)
		}
		return flattenMap(nested, ""), nil
	}
}

// decodeStructured decodes TOML, JSON or YAML into a nested map.
func decodeStructured(format string, data []byte) (map[string]any, error) {
	nested := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &nested); err != nil {
			return nil, err
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&nested); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &nested); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return nested, nil
}
