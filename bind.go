// FILE: lixenwraith/props/bind.go
package props

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Struct tags read by the binder.
//
//	prop:"server.port"            property key ("-" skips the field)
//	child:"db"                    nested structure under the prefix
//	default:"8080"                literal default
//	required:"true"               fail when absent
//	context:"dev"                 context variant; an explicit empty value clears an inherited one
//	ctxprefix:"@"                 context prefix
//	delim:";" kvdelim:"="         container delimiters
//	include:"include"             include key for the field's resources
//	includedelim:";"              includes delimiter
//	type:"tree-set<int>"          explicit type expression
//	converter:"name"              named converter from the registry
//	resource:"file:a.properties|b.properties@2;fs:conf/app.toml"
const (
	tagProp         = "prop"
	tagChild        = "child"
	tagDefault      = "default"
	tagRequired     = "required"
	tagContext      = "context"
	tagContextPre   = "ctxprefix"
	tagDelim        = "delim"
	tagKVDelim      = "kvdelim"
	tagInclude      = "include"
	tagIncludeDelim = "includedelim"
	tagType         = "type"
	tagConverter    = "converter"
	tagResource     = "resource"
)

// Describer is implemented by target structs that declare structure-level defaults:
// context, delimiters, required-ness and the fallback resources shared by all fields.
type Describer interface {
	DescribeProperties(info *PropertyInfo)
}

var describerType = reflect.TypeFor[Describer]()

// TableFor builds a resolution table from the tags of struct type t.
func TableFor(t reflect.Type, registry *Registry, parent *PropertyInfo) (*Table, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("table target must be a struct, got %s", t)
	}
	if registry == nil {
		registry = Default()
	}

	table := NewTable(parent)
	describe(t, table.Info)
	if err := addFields(table, t, registry); err != nil {
		return nil, err
	}
	return table, nil
}

// describe applies a Describer's structure-level defaults, if t has one.
func describe(t reflect.Type, info *PropertyInfo) {
	if reflect.PointerTo(t).Implements(describerType) {
		reflect.New(t).Interface().(Describer).DescribeProperties(info)
	}
}

func addFields(table *Table, t reflect.Type, registry *Registry) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		key, hasProp := field.Tag.Lookup(tagProp)
		prefix, hasChild := field.Tag.Lookup(tagChild)

		// Untagged embedded structs contribute their fields to the same table
		if field.Anonymous && !hasProp && !hasChild {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := addFields(table, ft, registry); err != nil {
					return err
				}
			}
			continue
		}

		switch {
		case hasChild:
			if err := addChild(table, field, prefix, registry); err != nil {
				return err
			}
		case hasProp && key != "-":
			if key == "" {
				key = field.Name
			}
			info, err := fieldInfo(table.Info, field, registry)
			if err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			info.Key = key
			table.Entries = append(table.Entries, Entry{Name: field.Name, Info: info})
		}
	}
	return nil
}

func addChild(table *Table, field reflect.StructField, prefix string, registry *Registry) error {
	if prefix == "" {
		prefix = field.Name
	}
	info := NewPropertyInfo(table.Info).WithPrefix(prefix)
	if ctx, ok := field.Tag.Lookup(tagContext); ok {
		info.WithContext(ctx)
	}

	ft := field.Type
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if ft.Kind() != reflect.Struct {
		return newPropertyError(ErrInvalidChildTarget, joinKey(table.Prefix, prefix), field.Type.String(), nil)
	}

	child := &Table{Info: NewPropertyInfo(info)}
	describe(ft, child.Info)
	if err := addFields(child, ft, registry); err != nil {
		return err
	}
	table.Entries = append(table.Entries, Entry{Name: field.Name, Info: info, Child: child})
	return nil
}

// fieldInfo translates a field's tags into a descriptor inheriting from parent.
func fieldInfo(parent *PropertyInfo, field reflect.StructField, registry *Registry) (*PropertyInfo, error) {
	info := NewPropertyInfo(parent)
	tag := field.Tag

	if v, ok := tag.Lookup(tagDefault); ok {
		info.WithDefault(v)
	}
	if v, ok := tag.Lookup(tagRequired); ok {
		required, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("invalid required tag %q: %w", v, err)
		}
		info.WithRequired(required)
	}
	if v, ok := tag.Lookup(tagContext); ok {
		info.WithContext(v)
	}
	if v, ok := tag.Lookup(tagContextPre); ok {
		info.WithContextPrefix(v)
	}
	info.WithDelimiters(tag.Get(tagDelim), tag.Get(tagKVDelim))
	if v, ok := tag.Lookup(tagInclude); ok {
		info.WithIncludes(v, tag.Get(tagIncludeDelim))
	} else if v := tag.Get(tagIncludeDelim); v != "" {
		info.IncludesDelimiter = &v
	}

	if v := tag.Get(tagResource); v != "" {
		resources, err := ParseResources(v)
		if err != nil {
			return nil, err
		}
		info.WithResources(resources...)
	}

	if name := tag.Get(tagConverter); name != "" {
		conv, ok := registry.Named(name)
		if !ok {
			return nil, fmt.Errorf("unknown converter %q", name)
		}
		info.WithConverter(conv)
	}

	spec, err := fieldSpec(field.Type, tag, registry)
	if err != nil {
		return nil, err
	}
	info.WithType(spec)
	return info, nil
}

// fieldSpec derives the declared type of a field.
func fieldSpec(t reflect.Type, tag reflect.StructTag, registry *Registry) (TypeSpec, error) {
	if expr := tag.Get(tagType); expr != "" {
		return registry.ParseType(expr)
	}

	switch t.Kind() {
	case reflect.Map:
		if t.Elem() == emptyStructType {
			return TypeSpec{Container: Set, Params: []reflect.Type{t.Key()}}, nil
		}
		return TypeSpec{Container: Map, Params: []reflect.Type{t.Key(), t.Elem()}}, nil
	}

	spec := TypeSpec{Type: t}
	if registry.Converter(spec) != nil {
		return spec, nil
	}

	// *T reads as T and named scalars read as their underlying kind; assign converts back
	if t.Kind() == reflect.Pointer {
		if elem := (TypeSpec{Type: t.Elem()}); registry.Converter(elem) != nil {
			return elem, nil
		}
	}
	if base, ok := kindTypes[t.Kind()]; ok && t != base {
		return TypeSpec{Type: base}, nil
	}
	return spec, nil
}

var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
	reflect.String:  reflect.TypeFor[string](),
}

// ParseResources parses the resource tag grammar:
// resources separated by ";", each "[kind:]location[|location...][@priority]".
// The kind is fs, file or env and defaults to fs.
func ParseResources(s string) ([]Resource, error) {
	var resources []Resource
	for _, spec := range strings.Split(s, ";") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}

		res := Resource{Kind: SourceFS}
		if at := strings.LastIndexByte(spec, '@'); at >= 0 {
			priority, err := cast.ToIntE(strings.TrimSpace(spec[at+1:]))
			if err != nil {
				return nil, fmt.Errorf("invalid resource priority in %q: %w", spec, err)
			}
			res.Priority = priority
			spec = spec[:at]
		}
		if kind, rest, found := strings.Cut(spec, ":"); found {
			switch SourceKind(strings.ToLower(kind)) {
			case SourceFS, SourceFile, SourceEnv:
				res.Kind = SourceKind(strings.ToLower(kind))
				spec = rest
			}
		}
		res.Locations = strings.Split(spec, "|")
		resources = append(resources, res)
	}
	return resources, nil
}

// Populate resolves every tagged field of target, which must be a non-nil pointer to a struct.
// Resources of defaults form the lowest structure-level layer.
// Absent optional properties leave their fields untouched.
func (e *Engine) Populate(target any, defaults *PropertyInfo) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("populate target must be non-nil pointer to struct, got %T", target)
	}

	var outer *Store
	if defaults != nil && len(defaults.Resources) > 0 {
		outer = e.Merge(defaults.Resources, defaults.EffectiveIncludeKey(), defaults.EffectiveIncludesDelimiter())
	}
	return e.populate(target, defaults, outer)
}

// populate binds target with outer as the lowest structure-level layer.
func (e *Engine) populate(target any, defaults *PropertyInfo, outer *Store) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("populate target must be non-nil pointer to struct, got %T", target)
	}

	table, err := TableFor(rv.Type(), e.registry, defaults)
	if err != nil {
		return err
	}
	values, err := e.resolveTable(table, table.Prefix, outer)
	if err != nil {
		return err
	}
	return assignTable(rv.Elem(), table, values, table.Prefix)
}

// assignTable writes resolved values into the struct fields named by the table entries.
func assignTable(target reflect.Value, table *Table, values map[string]any, prefix string) error {
	for _, entry := range table.Entries {
		v, ok := values[entry.Name]
		if !ok {
			continue
		}
		field := fieldByName(target, entry.Name)
		if !field.IsValid() || !field.CanSet() {
			continue
		}

		if entry.Child != nil {
			nested, _ := v.(map[string]any)
			childPrefix := joinKey(prefix, entry.Info.Prefix)
			if field.Kind() == reflect.Pointer {
				if field.IsNil() {
					field.Set(reflect.New(field.Type().Elem()))
				}
				field = field.Elem()
			}
			if err := assignTable(field, entry.Child, nested, childPrefix); err != nil {
				return err
			}
			continue
		}

		if err := assignValue(field, v); err != nil {
			return newPropertyError(ErrUnsupportedConversion, joinKey(prefix, entry.Info.Key), field.Type().String(), err)
		}
	}
	return nil
}

// fieldByName finds a field, looking through untagged embedded structs.
func fieldByName(v reflect.Value, name string) reflect.Value {
	return v.FieldByNameFunc(func(n string) bool { return n == name })
}

// assignValue stores v into field, adapting pointers and named types of the same kind.
func assignValue(field reflect.Value, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	ft := field.Type()

	switch {
	case rv.Type().AssignableTo(ft):
		field.Set(rv)
	case ft.Kind() == reflect.Pointer && rv.Type().AssignableTo(ft.Elem()):
		p := reflect.New(ft.Elem())
		p.Elem().Set(rv)
		field.Set(p)
	case rv.Kind() == ft.Kind() && rv.Type().ConvertibleTo(ft):
		field.Set(rv.Convert(ft))
	case ft.Kind() == reflect.Pointer && rv.Kind() == ft.Elem().Kind() && rv.Type().ConvertibleTo(ft.Elem()):
		p := reflect.New(ft.Elem())
		p.Elem().Set(rv.Convert(ft.Elem()))
		field.Set(p)
	default:
		return fmt.Errorf("cannot assign %s to field of type %s", rv.Type(), ft)
	}
	return nil
}
