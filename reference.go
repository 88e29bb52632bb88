// FILE: lixenwraith/props/reference.go
package props

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// referencePattern matches ${NAME}, ${ENV:NAME} and ${SYS:NAME}.
var referencePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

const (
	envTag = "ENV:"
	sysTag = "SYS:"
)

// Expander resolves ${...} references inside property values.
// Env serves ${ENV:NAME}, System serves ${SYS:NAME}; plain names are read from the store.
type Expander struct {
	Env      Lookup
	System   Lookup
	MaxDepth int
}

// NewExpander creates an expander over the process environment and the given overrides.
func NewExpander(overrides *Overrides) *Expander {
	if overrides == nil {
		overrides = DefaultOverrides
	}
	return &Expander{
		Env:      os.LookupEnv,
		System:   overrides.Get,
		MaxDepth: DefaultMaxReferenceDepth,
	}
}

// Expand replaces every resolvable reference in raw. Unresolvable references are kept verbatim.
func (e *Expander) Expand(store *Store, contextPrefix, context, raw string) (string, error) {
	return e.expand(store, contextPrefix, context, raw, nil)
}

// expand walks one level; chain holds the references currently being resolved.
func (e *Expander) expand(store *Store, contextPrefix, context, raw string, chain []string) (string, error) {
	matches := referencePattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw, nil
	}

	maxDepth := e.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxReferenceDepth
	}

	type replacement struct{ placeholder, value string }
	var replacements []replacement
	seen := make(map[string]bool, len(matches))

	for _, m := range matches {
		placeholder, name := m[0], m[1]
		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true

		for _, active := range chain {
			if active == placeholder {
				return "", fmt.Errorf("%w: %s", ErrReferenceCycle, strings.Join(append(chain, placeholder), " -> "))
			}
		}

		value, ok := e.lookup(store, contextPrefix, context, name)
		if !ok {
			continue
		}
		if len(chain) >= maxDepth {
			return "", fmt.Errorf("%w: depth %d exceeded at %s", ErrReferenceCycle, maxDepth, placeholder)
		}

		resolved, err := e.expand(store, contextPrefix, context, value, append(chain, placeholder))
		if err != nil {
			return "", err
		}
		replacements = append(replacements, replacement{placeholder, resolved})
	}

	for _, r := range replacements {
		raw = strings.ReplaceAll(raw, r.placeholder, r.value)
	}
	return raw, nil
}

// lookup resolves a single reference name against its source.
func (e *Expander) lookup(store *Store, contextPrefix, context, name string) (string, bool) {
	upper := strings.ToUpper(name)
	switch {
	case strings.HasPrefix(upper, envTag):
		if e.Env == nil {
			return "", false
		}
		return e.Env(name[len(envTag):])
	case strings.HasPrefix(upper, sysTag):
		if e.System == nil {
			return "", false
		}
		return e.System(name[len(sysTag):])
	}
	if store == nil {
		return "", false
	}
	store.SetContext(contextPrefix, context)
	return store.Get(name)
}
