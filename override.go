// FILE: lixenwraith/props/override.go
package props

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
)

// Lookup reads a single named value from a host-provided key/value source.
type Lookup func(name string) (string, bool)

// Overrides holds process-wide property overrides. They take precedence over every resource.
type Overrides struct {
	mu     sync.RWMutex
	values map[string]string
}

// DefaultOverrides is the process-wide override set used unless a loader is given its own.
var DefaultOverrides = NewOverrides()

// NewOverrides creates an empty override set.
func NewOverrides() *Overrides {
	return &Overrides{values: make(map[string]string)}
}

// SetOverride sets a process-wide override.
func SetOverride(key, value string) {
	DefaultOverrides.Set(key, value)
}

// ClearOverride removes a process-wide override.
func ClearOverride(key string) {
	DefaultOverrides.Delete(key)
}

// Set stores an override.
func (o *Overrides) Set(key, value string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = value
}

// Delete removes an override.
func (o *Overrides) Delete(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.values, key)
}

// Get returns the override for key.
func (o *Overrides) Get(key string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[key]
	return v, ok
}

// Snapshot returns a copy of all overrides.
func (o *Overrides) Snapshot() map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.values)
}

// Clone returns an independent copy.
func (o *Overrides) Clone() *Overrides {
	return &Overrides{values: o.Snapshot()}
}

// LoadArgs sets overrides from command-line arguments.
// Accepted forms: --key=value, --key value, --flag (true) and -Dkey=value.
func (o *Overrides) LoadArgs(args []string) error {
	parsed, err := parseArgs(args)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	maps.Copy(o.values, parsed)
	return nil
}

// parseArgs processes command-line arguments into flat key/value pairs.
func parseArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	i := 0
	for i < len(args) {
		arg := args[i]

		// -Dkey=value, the system-property form
		if strings.HasPrefix(arg, "-D") && len(arg) > 2 {
			key, value, found := strings.Cut(arg[2:], "=")
			if !found {
				value = "true"
			}
			if err := validateKeyPath(key); err != nil {
				return nil, err
			}
			result[key] = value
			i++
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// "--" separator
			i++
			continue
		}

		var keyPath, valueStr string
		if key, value, found := strings.Cut(argContent, "="); found {
			keyPath, valueStr = key, value
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}
		if err := validateKeyPath(keyPath); err != nil {
			return nil, err
		}
		result[keyPath] = valueStr
	}
	return result, nil
}

// validateKeyPath rejects keys with empty or malformed segments.
func validateKeyPath(keyPath string) error {
	for _, segment := range strings.Split(keyPath, ".") {
		if !isValidKeySegment(segment) {
			return fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
		}
	}
	return nil
}

// environ snapshots the process environment as a map.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
