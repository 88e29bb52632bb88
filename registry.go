// FILE: lixenwraith/props/registry.go
package props

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Converter turns a raw property string into a typed value.
type Converter func(raw string) (any, error)

// SingleBuilder builds a converter for a one-parameter container from its element converter.
type SingleBuilder func(elem reflect.Type, child Converter, delimiter string) Converter

// PairBuilder builds a converter for a key/value container from its key and value converters.
type PairBuilder func(key, value reflect.Type, keyConv, valueConv Converter, delimiter, kvDelimiter string) Converter

// Container identifies a parametrized container kind.
type Container string

// Built-in container kinds.
const (
	AtomicReference Container = "atomic-reference"
	List            Container = "list"
	Collection      Container = "collection"
	Set             Container = "set"
	HashSet         Container = "hash-set"
	LinkedList      Container = "linked-list"
	ArrayList       Container = "array-list"
	TreeSet         Container = "tree-set"
	Map             Container = "map"
	HashMap         Container = "hash-map"
	TreeMap         Container = "tree-map"
)

// TypeSpec describes the declared type of a property.
// Type covers arrays, enums and scalars; Container with Params covers parametrized containers.
type TypeSpec struct {
	Type      reflect.Type
	Container Container
	Params    []reflect.Type
}

// TypeOf returns the spec of a plain Go type.
func TypeOf[T any]() TypeSpec {
	return TypeSpec{Type: reflect.TypeFor[T]()}
}

// ContainerOf returns the spec of a one-parameter container of T.
func ContainerOf[T any](c Container) TypeSpec {
	return TypeSpec{Container: c, Params: []reflect.Type{reflect.TypeFor[T]()}}
}

// MapOf returns the spec of a key/value container.
func MapOf[K, V any](c Container) TypeSpec {
	return TypeSpec{Container: c, Params: []reflect.Type{reflect.TypeFor[K](), reflect.TypeFor[V]()}}
}

// String renders the spec in type-expression syntax.
func (s TypeSpec) String() string {
	if s.Container == "" {
		if s.Type == nil {
			return "<nil>"
		}
		return s.Type.String()
	}
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.String()
	}
	return fmt.Sprintf("%s<%s>", s.Container, strings.Join(names, ","))
}

// IsZero reports whether no type was declared.
func (s TypeSpec) IsZero() bool {
	return s.Type == nil && s.Container == ""
}

type scalarEntry struct {
	name string
	conv Converter
}

// Registry dispatches declared types to converters.
// A registry is never mutated after construction; the With* methods return derived copies.
type Registry struct {
	scalars   map[reflect.Type]scalarEntry
	names     map[string]reflect.Type
	factories []func(reflect.Type) Converter
	singles   map[Container]SingleBuilder
	pairs     map[Container]PairBuilder
	named     map[string]Converter

	componentsDelimiter string
	keyValueDelimiter   string
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry holding the built-in converters.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all built-in converters and builders.
func NewRegistry() *Registry {
	r := &Registry{
		scalars:             make(map[reflect.Type]scalarEntry),
		names:               make(map[string]reflect.Type),
		singles:             make(map[Container]SingleBuilder),
		pairs:               make(map[Container]PairBuilder),
		named:               make(map[string]Converter),
		componentsDelimiter: DefaultComponentsDelimiter,
		keyValueDelimiter:   DefaultKeyValueDelimiter,
	}
	registerScalars(r)
	registerContainers(r)
	r.factories = append(r.factories, textUnmarshalerFactory)
	return r
}

// clone makes a shallow copy; maps are shared unless the caller replaces them.
func (r *Registry) clone() *Registry {
	c := *r
	return &c
}

// WithDelimiters returns a registry scoped to the given delimiters. Empty values keep the current ones.
func (r *Registry) WithDelimiters(components, keyValue string) *Registry {
	if (components == "" || components == r.componentsDelimiter) &&
		(keyValue == "" || keyValue == r.keyValueDelimiter) {
		return r
	}
	c := r.clone()
	if components != "" {
		c.componentsDelimiter = components
	}
	if keyValue != "" {
		c.keyValueDelimiter = keyValue
	}
	return c
}

// WithConverter returns a registry that also converts t with conv.
// A non-empty name makes t addressable from type expressions.
func (r *Registry) WithConverter(t reflect.Type, name string, conv Converter) *Registry {
	c := r.clone()
	c.scalars = make(map[reflect.Type]scalarEntry, len(r.scalars)+1)
	for k, v := range r.scalars {
		c.scalars[k] = v
	}
	c.scalars[t] = scalarEntry{name: name, conv: conv}
	if name != "" {
		c.names = make(map[string]reflect.Type, len(r.names)+1)
		for k, v := range r.names {
			c.names[k] = v
		}
		c.names[strings.ToLower(name)] = t
	}
	return c
}

// WithNamed returns a registry carrying a converter that properties can reference by name.
func (r *Registry) WithNamed(name string, conv Converter) *Registry {
	c := r.clone()
	c.named = make(map[string]Converter, len(r.named)+1)
	for k, v := range r.named {
		c.named[k] = v
	}
	c.named[name] = conv
	return c
}

// Named returns a converter registered with WithNamed.
func (r *Registry) Named(name string) (Converter, bool) {
	conv, ok := r.named[name]
	return conv, ok
}

// Delimiters returns the components and key/value delimiters in effect.
func (r *Registry) Delimiters() (components, keyValue string) {
	return r.componentsDelimiter, r.keyValueDelimiter
}

// Converter returns a converter for spec, or nil when the type is unsupported.
func (r *Registry) Converter(spec TypeSpec) Converter {
	if t := spec.Type; t != nil && spec.Container == "" {
		if isArrayType(t) {
			child := r.scalar(t.Elem())
			if child == nil {
				return nil
			}
			return arrayConverter(t, child, r.componentsDelimiter)
		}
		if t.Implements(enumType) {
			return enumConverter(t)
		}
		if conv := r.scalar(t); conv != nil {
			return conv
		}
	}

	if len(spec.Params) == 0 {
		return nil
	}

	if build, ok := r.singles[spec.Container]; ok && len(spec.Params) == 1 {
		child := r.scalar(spec.Params[0])
		if child == nil {
			return nil
		}
		return build(spec.Params[0], child, r.componentsDelimiter)
	}

	if build, ok := r.pairs[spec.Container]; ok && len(spec.Params) == 2 {
		keyConv := r.scalar(spec.Params[0])
		valueConv := r.scalar(spec.Params[1])
		if keyConv == nil || valueConv == nil {
			return nil
		}
		return build(spec.Params[0], spec.Params[1], keyConv, valueConv, r.componentsDelimiter, r.keyValueDelimiter)
	}

	return nil
}

// scalar finds a non-generic converter: exact table first, then factories.
func (r *Registry) scalar(t reflect.Type) Converter {
	if entry, ok := r.scalars[t]; ok {
		return entry.conv
	}
	for _, factory := range r.factories {
		if conv := factory(t); conv != nil {
			return conv
		}
	}
	return nil
}

// Convert converts raw to T using r, or the default registry when r is nil.
func Convert[T any](r *Registry, raw string) (T, error) {
	var zero T
	if r == nil {
		r = Default()
	}
	spec := TypeOf[T]()
	conv := r.Converter(spec)
	if conv == nil {
		return zero, fmt.Errorf("%w: %s", ErrUnsupportedConversion, spec)
	}
	v, err := safeConvert(conv, raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrConversionFailure, err)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: converter produced %T, want %s", ErrConversionFailure, v, spec)
	}
	return typed, nil
}

// safeConvert runs conv and turns a panic into an error.
func safeConvert(conv Converter, raw string) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v = nil
			err = fmt.Errorf("converter panic: %v", p)
		}
	}()
	return conv(raw)
}

// isArrayType matches unnamed slices and fixed arrays; named slices such as net.IP are scalars.
func isArrayType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return t.Name() == ""
	case reflect.Array:
		return t.Name() == ""
	}
	return false
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// textUnmarshalerFactory converts any type whose pointer implements encoding.TextUnmarshaler.
func textUnmarshalerFactory(t reflect.Type) Converter {
	target := t
	if t.Kind() == reflect.Pointer {
		target = t.Elem()
	}
	if !reflect.PointerTo(target).Implements(textUnmarshalerType) {
		return nil
	}
	return func(raw string) (any, error) {
		v := reflect.New(target)
		if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
			return nil, fmt.Errorf("failed to unmarshal text: %w", err)
		}
		if t.Kind() == reflect.Pointer {
			return v.Interface(), nil
		}
		return v.Elem().Interface(), nil
	}
}
