// FILE: lixenwraith/props/resolve.go
package props

import (
	"io/fs"
	"log/slog"
	"os"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Registry dispatches conversions. Default: the process-wide registry
	Registry *Registry
	// Overrides take precedence over every resource. Default: DefaultOverrides
	Overrides *Overrides
	// EnvLookup serves ${ENV:NAME}. Default: os.LookupEnv
	EnvLookup Lookup
	// Environ lists variables for SourceEnv resources. Default: the process environment
	Environ func() map[string]string
	// FS serves SourceFS resources and includes; Root is the search root tried first
	FS   fs.FS
	Root string
	// Dir is the base directory tried after a relative SourceFile location fails
	Dir string
	// Logger receives load diagnostics. Default: slog.Default()
	Logger *slog.Logger
	// MaxReferenceDepth bounds ${...} nesting. Default: DefaultMaxReferenceDepth
	MaxReferenceDepth int
	// MaxIncludeDepth bounds nested includes. Default: DefaultMaxIncludeDepth
	MaxIncludeDepth int
}

// Engine resolves properties. It keeps no state between calls besides its configuration.
type Engine struct {
	registry        *Registry
	overrides       *Overrides
	expander        *Expander
	environ         func() map[string]string
	fsys            fs.FS
	root            string
	dir             string
	logger          *slog.Logger
	maxIncludeDepth int
}

// NewEngine creates an engine, filling unset options with defaults.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Registry == nil {
		opts.Registry = Default()
	}
	if opts.Overrides == nil {
		opts.Overrides = DefaultOverrides
	}
	if opts.EnvLookup == nil {
		opts.EnvLookup = os.LookupEnv
	}
	if opts.Environ == nil {
		opts.Environ = environ
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxReferenceDepth <= 0 {
		opts.MaxReferenceDepth = DefaultMaxReferenceDepth
	}
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	}

	return &Engine{
		registry:  opts.Registry,
		overrides: opts.Overrides,
		expander: &Expander{
			Env:      opts.EnvLookup,
			System:   opts.Overrides.Get,
			MaxDepth: opts.MaxReferenceDepth,
		},
		environ:         opts.Environ,
		fsys:            opts.FS,
		root:            opts.Root,
		dir:             opts.Dir,
		logger:          opts.Logger,
		maxIncludeDepth: opts.MaxIncludeDepth,
	}
}

// Registry returns the engine's converter registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolve produces the typed value of one property.
// prefix narrows the key for nested structures; parent is the structure-level fallback store and may be nil.
// ok is false when the property is absent and not required.
func (e *Engine) Resolve(req Request, prefix string, parent *Store) (value any, ok bool, err error) {
	key := joinKey(prefix, req.Key)
	if req.Child {
		return nil, false, newPropertyError(ErrInvalidChildTarget, key, typeName(req.Type), nil)
	}

	raw, found, err := e.lookup(req, key, parent)
	if err != nil {
		return nil, false, err
	}

	if !found {
		if req.Required {
			return nil, false, newPropertyError(ErrRequiredPropertyMissing, key, "", nil)
		}
		return nil, false, nil
	}

	v, err := e.convert(req, key, raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// lookup walks overrides, the request's resources, the structure store and the default.
func (e *Engine) lookup(req Request, key string, parent *Store) (string, bool, error) {
	overrides := NewStore(nil)
	overrides.Load(e.overrides.Snapshot())

	// A context variant among the overrides beats the plain override
	overrides.SetContext(req.ContextPrefix, req.Context)
	if raw, ok := overrides.Get(key); ok {
		return e.expand(overrides, req, key, raw)
	}

	store := e.Merge(req.Resources, req.IncludeKey, req.IncludesDelimiter)
	store.SetContext(req.ContextPrefix, req.Context)
	if raw, ok := store.Get(key); ok {
		return e.expand(store, req, key, raw)
	}

	if parent != nil {
		parent.SetContext(req.ContextPrefix, req.Context)
		if raw, ok := parent.Get(key); ok {
			return e.expand(parent, req, key, raw)
		}
	}

	// Literal defaults are never expanded
	if req.Default != nil {
		return *req.Default, true, nil
	}
	return "", false, nil
}

func (e *Engine) expand(store *Store, req Request, key, raw string) (string, bool, error) {
	resolved, err := e.expander.Expand(store, req.ContextPrefix, req.Context, raw)
	if err != nil {
		return "", false, newPropertyError(ErrReferenceCycle, key, "", err)
	}
	return resolved, true, nil
}

// convert applies the override converter, or the registry scoped to the request's delimiters.
func (e *Engine) convert(req Request, key, raw string) (any, error) {
	conv := req.Converter
	if conv == nil {
		conv = e.registry.WithDelimiters(req.ComponentsDelimiter, req.KeyValueDelimiter).Converter(req.Type)
		if conv == nil {
			return nil, newPropertyError(ErrUnsupportedConversion, key, typeName(req.Type), nil)
		}
	}
	v, err := safeConvert(conv, raw)
	if err != nil {
		return nil, newPropertyError(ErrConversionFailure, key, typeName(req.Type), err)
	}
	return v, nil
}

// typeName renders a declared type for error messages; undeclared types render empty.
func typeName(spec TypeSpec) string {
	if spec.IsZero() {
		return ""
	}
	return spec.String()
}
