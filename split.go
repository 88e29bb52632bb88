// FILE: lixenwraith/props/split.go
package props

import "strings"

// escapeChar marks a delimiter occurrence that must not split.
const escapeChar = '\\'

// Split breaks input on every occurrence of delimiter that is not preceded by a
// backslash, then unescapes "\<delimiter>" inside each part.
// An empty input yields a single empty component; trailing empty components are dropped.
func Split(input, delimiter string) []string {
	if delimiter == "" {
		return []string{input}
	}
	if input == "" {
		return []string{""}
	}

	var parts []string
	start := 0
	for i := 0; i <= len(input)-len(delimiter); {
		if strings.HasPrefix(input[i:], delimiter) && (i == 0 || input[i-1] != escapeChar) {
			parts = append(parts, input[start:i])
			i += len(delimiter)
			start = i
			continue
		}
		i++
	}
	parts = append(parts, input[start:])

	// Trailing empties are not components
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	escaped := string(escapeChar) + delimiter
	for i, part := range parts {
		if strings.Contains(part, escaped) {
			parts[i] = strings.ReplaceAll(part, escaped, delimiter)
		}
	}

	return parts
}

// isBlankSingle reports whether parts is a lone whitespace-only component.
func isBlankSingle(parts []string) bool {
	return len(parts) == 1 && strings.TrimSpace(parts[0]) == ""
}
