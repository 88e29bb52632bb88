// FILE: lixenwraith/props/table.go
package props

// Table is a resolution specification for a structure: shared defaults plus ordered entries.
type Table struct {
	// Info holds structure-level defaults and the fallback resources; entries should inherit from it
	Info *PropertyInfo
	// Prefix narrows every key of the table
	Prefix  string
	Entries []Entry
}

// Entry is one named property, or one nested structure when Info.Prefix is set.
type Entry struct {
	// Name is the key of the value in the result map. Default: Info.Key, or Info.Prefix for children
	Name  string
	Info  *PropertyInfo
	Child *Table
}

// NewTable creates a table whose structure-level descriptor inherits from parent.
func NewTable(parent *PropertyInfo) *Table {
	return &Table{Info: NewPropertyInfo(parent)}
}

// Property appends a property entry inheriting from the table and returns its descriptor for configuration.
func (t *Table) Property(name, key string, spec TypeSpec) *PropertyInfo {
	info := NewPropertyInfo(t.Info).WithKey(key).WithType(spec)
	t.Entries = append(t.Entries, Entry{Name: name, Info: info})
	return info
}

// Child appends a nested structure entry under prefix and returns the nested table.
func (t *Table) Child(name, prefix string) *Table {
	info := NewPropertyInfo(t.Info).WithPrefix(prefix)
	child := &Table{Info: NewPropertyInfo(info)}
	t.Entries = append(t.Entries, Entry{Name: name, Info: info, Child: child})
	return child
}

func (en Entry) name() string {
	switch {
	case en.Name != "":
		return en.Name
	case en.Info != nil && en.Info.Prefix != "":
		return en.Info.Prefix
	case en.Info != nil:
		return en.Info.Key
	}
	return ""
}

// ResolveTable resolves every entry in declared order into a name to value map.
// Absent optional properties are omitted; nested structures yield nested maps.
// The first fatal error stops the pass.
func (e *Engine) ResolveTable(t *Table) (map[string]any, error) {
	return e.resolveTable(t, t.Prefix, nil)
}

// resolveTable resolves t with outer as the lowest structure-level layer.
// Nested tables see their parent's structure store beneath their own resources.
func (e *Engine) resolveTable(t *Table, prefix string, outer *Store) (map[string]any, error) {
	info := t.Info
	if info == nil {
		info = NewPropertyInfo(nil)
	}
	structure := outer
	if structure == nil || len(info.Resources) > 0 {
		structure = e.mergeOnto(outer, info.Resources, info.EffectiveIncludeKey(), info.EffectiveIncludesDelimiter())
	}

	values := make(map[string]any, len(t.Entries))
	for _, entry := range t.Entries {
		if entry.Info == nil {
			continue
		}
		name := entry.name()

		if entry.Info.Prefix != "" {
			if entry.Child == nil {
				return nil, newPropertyError(ErrInvalidChildTarget, joinKey(prefix, entry.Info.Prefix), typeName(entry.Info.Type), nil)
			}
			nested, err := e.resolveTable(entry.Child, joinKey(prefix, entry.Info.Prefix), structure)
			if err != nil {
				return nil, err
			}
			values[name] = nested
			continue
		}

		v, ok, err := e.Resolve(entry.Info.Request(), prefix, structure)
		if err != nil {
			return nil, err
		}
		if ok {
			values[name] = v
		}
	}
	return values, nil
}
