// FILE: lixenwraith/props/builder.go
package props

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"slices"
)

// Builder provides a fluent interface for building loaders
type Builder struct {
	info      *PropertyInfo
	opts      EngineOptions
	registry  *Registry
	args      []string
	discovery *FileDiscoveryOptions
	errs      []error
}

// NewBuilder creates a new loader builder
func NewBuilder() *Builder {
	return &Builder{
		info:     NewPropertyInfo(nil),
		registry: Default(),
	}
}

// WithContext sets the structure-level context, e.g. "dev" selects %dev.* variants
func (b *Builder) WithContext(context string) *Builder {
	b.info.WithContext(context)
	return b
}

// WithContextPrefix sets the marker placed before context names. Default: "%"
func (b *Builder) WithContextPrefix(prefix string) *Builder {
	if prefix == "" {
		b.errs = append(b.errs, fmt.Errorf("context prefix cannot be empty"))
		return b
	}
	b.info.WithContextPrefix(prefix)
	return b
}

// WithRequired makes every property required unless a field says otherwise
func (b *Builder) WithRequired(required bool) *Builder {
	b.info.WithRequired(required)
	return b
}

// WithDelimiters sets the container delimiters; empty values keep the defaults
func (b *Builder) WithDelimiters(components, keyValue string) *Builder {
	b.info.WithDelimiters(components, keyValue)
	return b
}

// WithIncludes sets the property that names included documents and its delimiter
func (b *Builder) WithIncludes(key, delimiter string) *Builder {
	b.info.WithIncludes(key, delimiter)
	return b
}

// WithResource adds a fallback resource shared by every property.
// Resources added later with the same priority lose to earlier ones.
func (b *Builder) WithResource(kind SourceKind, priority int, locations ...string) *Builder {
	switch kind {
	case SourceFS, SourceFile, SourceEnv:
	default:
		b.errs = append(b.errs, fmt.Errorf("unknown source kind %q", kind))
		return b
	}
	if len(locations) == 0 {
		b.errs = append(b.errs, fmt.Errorf("resource of kind %q has no locations", kind))
		return b
	}
	b.info.Resources = append(b.info.Resources, Resource{Kind: kind, Locations: locations, Priority: priority})
	return b
}

// WithFS sets the filesystem serving fs resources and includes; root is searched first
func (b *Builder) WithFS(fsys fs.FS, root string) *Builder {
	b.opts.FS = fsys
	b.opts.Root = root
	return b
}

// WithDir sets the base directory tried for relative file resources
func (b *Builder) WithDir(dir string) *Builder {
	b.opts.Dir = dir
	return b
}

// WithRegistry replaces the converter registry
func (b *Builder) WithRegistry(r *Registry) *Builder {
	if r == nil {
		b.errs = append(b.errs, fmt.Errorf("registry cannot be nil"))
		return b
	}
	b.registry = r
	return b
}

// WithConverter registers a converter for type t; a non-empty name exposes it to type expressions
func (b *Builder) WithConverter(t reflect.Type, name string, conv Converter) *Builder {
	if t == nil || conv == nil {
		b.errs = append(b.errs, fmt.Errorf("converter for %q needs a type and a function", name))
		return b
	}
	b.registry = b.registry.WithConverter(t, name, conv)
	return b
}

// WithNamedConverter registers a converter that fields select with converter:"name"
func (b *Builder) WithNamedConverter(name string, conv Converter) *Builder {
	if name == "" || conv == nil {
		b.errs = append(b.errs, fmt.Errorf("named converter needs a name and a function"))
		return b
	}
	b.registry = b.registry.WithNamed(name, conv)
	return b
}

// WithOverrides replaces the process-wide override set
func (b *Builder) WithOverrides(o *Overrides) *Builder {
	b.opts.Overrides = o
	return b
}

// WithArgs adds command-line overrides. The override set is copied, never modified.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithEnvLookup replaces the environment used by ${ENV:...} and env resources
func (b *Builder) WithEnvLookup(lookup Lookup, environ func() map[string]string) *Builder {
	b.opts.EnvLookup = lookup
	b.opts.Environ = environ
	return b
}

// WithLogger sets the logger receiving load diagnostics
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// WithFileDiscovery enables automatic file discovery; the found file becomes the lowest-priority resource
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	if opts.Name == "" {
		b.errs = append(b.errs, fmt.Errorf("file discovery needs a base name"))
		return b
	}
	b.discovery = &opts
	return b
}

// WithMaxDepth bounds reference nesting and include nesting; zero keeps a default
func (b *Builder) WithMaxDepth(references, includes int) *Builder {
	if references < 0 || includes < 0 {
		b.errs = append(b.errs, fmt.Errorf("depth limits cannot be negative"))
		return b
	}
	b.opts.MaxReferenceDepth = references
	b.opts.MaxIncludeDepth = includes
	return b
}

// Build creates the Loader with all specified options
func (b *Builder) Build() (*Loader, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid loader options: %w", errors.Join(b.errs...))
	}

	opts := b.opts
	opts.Registry = b.registry

	if len(b.args) > 0 {
		base := opts.Overrides
		if base == nil {
			base = DefaultOverrides
		}
		overrides := base.Clone()
		if err := overrides.LoadArgs(b.args); err != nil {
			return nil, fmt.Errorf("failed to parse arguments: %w", err)
		}
		opts.Overrides = overrides
	}

	info := *b.info
	info.Resources = slices.Clone(b.info.Resources)
	if b.discovery != nil {
		lookup := opts.EnvLookup
		res := DiscoverResource(*b.discovery, b.args, lookup)
		if len(res.Locations) > 0 {
			// Discovered files sit below every explicit resource
			res.Priority = lowestPriority(info.Resources) - 1
			info.Resources = append(info.Resources, res)
		}
	}

	return newLoader(NewEngine(opts), &info), nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Loader {
	l, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("loader build failed: %v", err))
	}
	return l
}

// BuildAndPopulate builds the loader and resolves every tagged field of target
func (b *Builder) BuildAndPopulate(target any) (*Loader, error) {
	l, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := l.Populate(target); err != nil {
		return l, fmt.Errorf("failed to populate %T: %w", target, err)
	}
	return l, nil
}

func lowestPriority(resources []Resource) int {
	lowest := 0
	for _, r := range resources {
		lowest = min(lowest, r.Priority)
	}
	return lowest
}
