// File: lixenwraith/props/helper.go
package props

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// flattenMap converts a nested document into dot-notation keys with string values.
// Lists are joined with the default components delimiter so container converters can read them back.
func flattenMap(nested map[string]any, prefix string) map[string]string {
	flat := make(map[string]string)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			for subPath, subValue := range flattenMap(v, newPath) {
				flat[subPath] = subValue
			}
		case map[any]any:
			converted := make(map[string]any, len(v))
			for k, item := range v {
				converted[cast.ToString(k)] = item
			}
			for subPath, subValue := range flattenMap(converted, newPath) {
				flat[subPath] = subValue
			}
		case []map[string]any:
			// TOML arrays of tables are indexed by position
			for i, item := range v {
				for subPath, subValue := range flattenMap(item, newPath+"."+cast.ToString(i)) {
					flat[subPath] = subValue
				}
			}
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = escapeComponent(stringify(item), DefaultComponentsDelimiter)
			}
			flat[newPath] = strings.Join(parts, DefaultComponentsDelimiter)
		default:
			flat[newPath] = stringify(v)
		}
	}

	return flat
}

// stringify renders a scalar document value as property text.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(time.RFC3339)
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}

// escapeComponent protects literal delimiters inside a list element.
func escapeComponent(s, delimiter string) string {
	return strings.ReplaceAll(s, delimiter, string(escapeChar)+delimiter)
}

// isValidKeySegment checks if a single path segment is a valid key part.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	if strings.ContainsRune(s, '.') {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !isDigit && r != '_' && r != '-' && r != '%' {
			return false
		}
	}
	return true
}

// joinKey prefixes key with prefix and a dot, unless prefix is empty.
func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
