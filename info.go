// FILE: lixenwraith/props/info.go
package props

// PropertyInfo describes how one property, or one structure of properties, is resolved.
// Unset optional attributes are inherited from Parent; Key, Prefix, Type and Converter never are.
// Resources are not inherited either: a parent's resources form the structure-level fallback store.
type PropertyInfo struct {
	Key       string
	Prefix    string // non-empty marks a nested structure
	Type      TypeSpec
	Converter Converter
	Resources []Resource

	Default             *string
	Required            *bool
	Context             *string
	ContextPrefix       *string
	ComponentsDelimiter *string
	KeyValueDelimiter   *string
	IncludeKey          *string
	IncludesDelimiter   *string

	parent *PropertyInfo
}

// NewPropertyInfo creates a descriptor inheriting unset attributes from parent, which may be nil.
// Chains can only be extended downwards, so every chain is finite.
func NewPropertyInfo(parent *PropertyInfo) *PropertyInfo {
	return &PropertyInfo{parent: parent}
}

// Parent returns the descriptor unset attributes are inherited from.
func (p *PropertyInfo) Parent() *PropertyInfo {
	return p.parent
}

// inherited walks the chain for the first set value of an attribute.
func inherited[T any](p *PropertyInfo, get func(*PropertyInfo) *T) (T, bool) {
	for cur := p; cur != nil; cur = cur.parent {
		if v := get(cur); v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

func inheritedString(p *PropertyInfo, get func(*PropertyInfo) *string, fallback string) string {
	if v, ok := inherited(p, get); ok {
		return v
	}
	return fallback
}

// IsRequired reports the effective required flag; unset everywhere means optional.
func (p *PropertyInfo) IsRequired() bool {
	v, _ := inherited(p, func(i *PropertyInfo) *bool { return i.Required })
	return v
}

// EffectiveContext returns the effective context, empty when unset.
func (p *PropertyInfo) EffectiveContext() string {
	return inheritedString(p, func(i *PropertyInfo) *string { return i.Context }, "")
}

// EffectiveContextPrefix returns the effective context prefix.
func (p *PropertyInfo) EffectiveContextPrefix() string {
	return inheritedString(p, func(i *PropertyInfo) *string { return i.ContextPrefix }, DefaultContextPrefix)
}

// EffectiveComponentsDelimiter returns the effective components delimiter.
func (p *PropertyInfo) EffectiveComponentsDelimiter() string {
	return inheritedString(p, func(i *PropertyInfo) *string { return i.ComponentsDelimiter }, DefaultComponentsDelimiter)
}

// EffectiveKeyValueDelimiter returns the effective key/value delimiter.
func (p *PropertyInfo) EffectiveKeyValueDelimiter() string {
	return inheritedString(p, func(i *PropertyInfo) *string { return i.KeyValueDelimiter }, DefaultKeyValueDelimiter)
}

// EffectiveIncludeKey returns the effective include key; empty disables includes.
func (p *PropertyInfo) EffectiveIncludeKey() string {
	return inheritedString(p, func(i *PropertyInfo) *string { return i.IncludeKey }, "")
}

// EffectiveIncludesDelimiter returns the effective includes delimiter.
func (p *PropertyInfo) EffectiveIncludesDelimiter() string {
	return inheritedString(p, func(i *PropertyInfo) *string { return i.IncludesDelimiter }, DefaultIncludesDelimiter)
}

// EffectiveDefault returns the effective default value.
func (p *PropertyInfo) EffectiveDefault() (string, bool) {
	return inherited(p, func(i *PropertyInfo) *string { return i.Default })
}

// WithKey sets the property key.
func (p *PropertyInfo) WithKey(key string) *PropertyInfo {
	p.Key = key
	return p
}

// WithType sets the declared type.
func (p *PropertyInfo) WithType(spec TypeSpec) *PropertyInfo {
	p.Type = spec
	return p
}

// WithPrefix marks the descriptor as a nested structure under prefix.
func (p *PropertyInfo) WithPrefix(prefix string) *PropertyInfo {
	p.Prefix = prefix
	return p
}

// WithConverter sets a converter that replaces registry dispatch.
func (p *PropertyInfo) WithConverter(conv Converter) *PropertyInfo {
	p.Converter = conv
	return p
}

// WithResources appends resources.
func (p *PropertyInfo) WithResources(resources ...Resource) *PropertyInfo {
	p.Resources = append(p.Resources, resources...)
	return p
}

// WithDefault sets the default value.
func (p *PropertyInfo) WithDefault(value string) *PropertyInfo {
	p.Default = &value
	return p
}

// WithRequired sets the required flag.
func (p *PropertyInfo) WithRequired(required bool) *PropertyInfo {
	p.Required = &required
	return p
}

// WithContext sets the context. An explicit empty context shadows an inherited one.
func (p *PropertyInfo) WithContext(context string) *PropertyInfo {
	p.Context = &context
	return p
}

// WithContextPrefix sets the context prefix.
func (p *PropertyInfo) WithContextPrefix(prefix string) *PropertyInfo {
	p.ContextPrefix = &prefix
	return p
}

// WithDelimiters sets the components and key/value delimiters. Empty values are left unset.
func (p *PropertyInfo) WithDelimiters(components, keyValue string) *PropertyInfo {
	if components != "" {
		p.ComponentsDelimiter = &components
	}
	if keyValue != "" {
		p.KeyValueDelimiter = &keyValue
	}
	return p
}

// WithIncludes sets the include key and delimiter. An empty delimiter is left unset.
func (p *PropertyInfo) WithIncludes(key, delimiter string) *PropertyInfo {
	p.IncludeKey = &key
	if delimiter != "" {
		p.IncludesDelimiter = &delimiter
	}
	return p
}

// Request flattens the chain into the record the engine consumes.
func (p *PropertyInfo) Request() Request {
	req := Request{
		Key:                 p.Key,
		Context:             p.EffectiveContext(),
		ContextPrefix:       p.EffectiveContextPrefix(),
		Required:            p.IsRequired(),
		ComponentsDelimiter: p.EffectiveComponentsDelimiter(),
		KeyValueDelimiter:   p.EffectiveKeyValueDelimiter(),
		IncludeKey:          p.EffectiveIncludeKey(),
		IncludesDelimiter:   p.EffectiveIncludesDelimiter(),
		Converter:           p.Converter,
		Type:                p.Type,
		Resources:           p.Resources,
		Child:               p.Prefix != "",
		ChildPrefix:         p.Prefix,
	}
	if def, ok := p.EffectiveDefault(); ok {
		req.Default = &def
	}
	return req
}

// Request is the fully resolved specification of a single property.
type Request struct {
	Key                 string
	Context             string
	ContextPrefix       string
	Required            bool
	Default             *string
	ComponentsDelimiter string
	KeyValueDelimiter   string
	IncludeKey          string
	IncludesDelimiter   string
	Converter           Converter
	Type                TypeSpec
	Resources           []Resource
	Child               bool
	ChildPrefix         string
}
