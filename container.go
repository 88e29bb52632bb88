// FILE: lixenwraith/props/container.go
package props

import (
	"cmp"
	"container/list"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
)

func registerContainers(r *Registry) {
	r.singles[AtomicReference] = atomicReferenceBuilder
	r.singles[List] = sliceBuilder
	r.singles[Collection] = sliceBuilder
	r.singles[ArrayList] = sliceBuilder
	r.singles[LinkedList] = linkedListBuilder
	r.singles[Set] = setBuilder
	r.singles[HashSet] = setBuilder
	r.singles[TreeSet] = treeSetBuilder

	r.pairs[Map] = mapBuilder
	r.pairs[HashMap] = mapBuilder
	r.pairs[TreeMap] = treeMapBuilder
}

// components splits raw for a container; a lone blank component means empty.
func components(raw, delimiter string) []string {
	parts := Split(raw, delimiter)
	if isBlankSingle(parts) {
		return nil
	}
	return parts
}

// convertAll applies child to every component in order.
func convertAll(parts []string, child Converter) ([]any, error) {
	values := make([]any, 0, len(parts))
	for i, part := range parts {
		v, err := child(part)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// atomicReferenceBuilder converts the whole raw string and stores it in an atomic.Value.
func atomicReferenceBuilder(_ reflect.Type, child Converter, _ string) Converter {
	return func(raw string) (any, error) {
		v, err := child(raw)
		if err != nil {
			return nil, err
		}
		ref := &atomic.Value{}
		ref.Store(v)
		return ref, nil
	}
}

// sliceBuilder produces an order-preserving []T.
func sliceBuilder(elem reflect.Type, child Converter, delimiter string) Converter {
	return func(raw string) (any, error) {
		values, err := convertAll(components(raw, delimiter), child)
		if err != nil {
			return nil, err
		}
		out := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(values))
		for _, v := range values {
			out = reflect.Append(out, reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}
}

// linkedListBuilder produces a *list.List holding T values in order.
func linkedListBuilder(_ reflect.Type, child Converter, delimiter string) Converter {
	return func(raw string) (any, error) {
		values, err := convertAll(components(raw, delimiter), child)
		if err != nil {
			return nil, err
		}
		l := list.New()
		for _, v := range values {
			l.PushBack(v)
		}
		return l, nil
	}
}

// setBuilder produces a map[T]struct{}.
func setBuilder(elem reflect.Type, child Converter, delimiter string) Converter {
	return func(raw string) (any, error) {
		if !elem.Comparable() {
			return nil, fmt.Errorf("set element type %s is not comparable", elem)
		}
		values, err := convertAll(components(raw, delimiter), child)
		if err != nil {
			return nil, err
		}
		out := reflect.MakeMapWithSize(reflect.MapOf(elem, emptyStructType), len(values))
		member := reflect.Zero(emptyStructType)
		for _, v := range values {
			out.SetMapIndex(reflect.ValueOf(v), member)
		}
		return out.Interface(), nil
	}
}

var emptyStructType = reflect.TypeFor[struct{}]()

// treeSetBuilder produces a sorted []T without duplicates.
func treeSetBuilder(elem reflect.Type, child Converter, delimiter string) Converter {
	return func(raw string) (any, error) {
		values, err := convertAll(components(raw, delimiter), child)
		if err != nil {
			return nil, err
		}
		if err := sortValues(values); err != nil {
			return nil, err
		}
		out := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(values))
		for i, v := range values {
			if i > 0 && compareAny(values[i-1], v) == 0 {
				continue
			}
			out = reflect.Append(out, reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}
}

// splitEntry splits one map component; ok is false unless it has exactly two parts.
func splitEntry(component, kvDelimiter string) (key, value string, ok bool) {
	kv := Split(component, kvDelimiter)
	if len(kv) != 2 {
		return "", "", false
	}
	return kv[0], kv[1], true
}

// mapBuilder produces a map[K]V, dropping components that are not key/value pairs.
func mapBuilder(key, value reflect.Type, keyConv, valueConv Converter, delimiter, kvDelimiter string) Converter {
	return func(raw string) (any, error) {
		if !key.Comparable() {
			return nil, fmt.Errorf("map key type %s is not comparable", key)
		}
		out := reflect.MakeMap(reflect.MapOf(key, value))
		for _, component := range components(raw, delimiter) {
			ks, vs, ok := splitEntry(component, kvDelimiter)
			if !ok {
				continue
			}
			k, err := keyConv(ks)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", ks, err)
			}
			v, err := valueConv(vs)
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", ks, err)
			}
			out.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}
}

// treeMapBuilder produces a *SortedMap ordered by key.
func treeMapBuilder(_, _ reflect.Type, keyConv, valueConv Converter, delimiter, kvDelimiter string) Converter {
	return func(raw string) (any, error) {
		m := &SortedMap{values: make(map[any]any)}
		for _, component := range components(raw, delimiter) {
			ks, vs, ok := splitEntry(component, kvDelimiter)
			if !ok {
				continue
			}
			k, err := keyConv(ks)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", ks, err)
			}
			v, err := valueConv(vs)
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", ks, err)
			}
			if !reflect.TypeOf(k).Comparable() {
				return nil, fmt.Errorf("map key type %T is not comparable", k)
			}
			if _, exists := m.values[k]; !exists {
				m.keys = append(m.keys, k)
			}
			m.values[k] = v
		}
		if err := sortValues(m.keys); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// SortedMap is the result of a tree-map conversion: entries ordered by key.
type SortedMap struct {
	keys   []any
	values map[any]any
}

// Keys returns the keys in ascending order.
func (m *SortedMap) Keys() []any {
	out := make([]any, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *SortedMap) Get(key any) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *SortedMap) Len() int {
	return len(m.keys)
}

// sortValues sorts values ascending; every value must be of a single ordered kind.
func sortValues(values []any) error {
	for _, v := range values {
		if !isOrdered(v) {
			return fmt.Errorf("type %T has no natural ordering", v)
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		return compareAny(values[i], values[j]) < 0
	})
	return nil
}

func isOrdered(v any) bool {
	switch v.(type) {
	case *big.Int, decimal.Decimal:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	}
	return false
}

// compareAny orders two values of the same ordered kind.
func compareAny(a, b any) int {
	switch x := a.(type) {
	case *big.Int:
		return x.Cmp(b.(*big.Int))
	case decimal.Decimal:
		return x.Cmp(b.(decimal.Decimal))
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(va.Int(), vb.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(va.Uint(), vb.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(va.Float(), vb.Float())
	case reflect.String:
		return cmp.Compare(va.String(), vb.String())
	case reflect.Bool:
		switch {
		case va.Bool() == vb.Bool():
			return 0
		case vb.Bool():
			return -1
		default:
			return 1
		}
	}
	return 0
}
