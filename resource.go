// FILE: lixenwraith/props/resource.go
package props

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// SourceKind selects how a resource location is looked up.
type SourceKind string

const (
	// SourceFS reads from the engine's fs.FS, first under the search root, then at the FS root
	SourceFS SourceKind = "fs"
	// SourceFile reads from the OS filesystem, first as given, then under the base directory
	SourceFile SourceKind = "file"
	// SourceEnv reads environment variables whose names start with the location
	SourceEnv SourceKind = "env"
)

// Resource describes an ordered list of alternative locations for one property source.
type Resource struct {
	Kind      SourceKind
	Locations []string
	// Priority orders resources of one target; higher values win.
	Priority int
	// IncludeKey and IncludesDelimiter override the target's include settings when set.
	IncludeKey        string
	IncludesDelimiter string
}

// ErrResourceNotFound reports that no location of a resource could be loaded.
// It never leaves the loader: failed resources are treated as absent.
var ErrResourceNotFound = errors.New("resource not found")

// sortResources returns resources ordered by descending priority, stable on ties.
func sortResources(resources []Resource) []Resource {
	sorted := slices.Clone(resources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}

// Merge loads resources into one layered store.
// The returned store's bottom layer holds the process overrides; each loaded resource sits above
// every lower-priority one. Load failures are logged and skipped.
func (e *Engine) Merge(resources []Resource, includeKey, includesDelimiter string) *Store {
	return e.mergeOnto(nil, resources, includeKey, includesDelimiter)
}

// mergeOnto layers resources above base; a nil base means a fresh overrides layer.
func (e *Engine) mergeOnto(base *Store, resources []Resource, includeKey, includesDelimiter string) *Store {
	root := base
	if root == nil {
		root = NewStore(nil)
		root.Load(e.overrides.Snapshot())
	}

	var loaded []*Store
	for _, res := range sortResources(resources) {
		data, location, err := e.loadResource(res)
		if err != nil {
			e.logger.Debug("resource skipped", "kind", res.Kind, "locations", res.Locations, "err", err)
			continue
		}

		store := NewStore(nil)
		store.Load(data)

		key, delim := includeKey, includesDelimiter
		if res.IncludeKey != "" {
			key = res.IncludeKey
		}
		if res.IncludesDelimiter != "" {
			delim = res.IncludesDelimiter
		}
		e.expandIncludes(store, root, key, delim, map[string]bool{location: true}, 0)

		e.logger.Debug("resource loaded", "kind", res.Kind, "location", location, "priority", res.Priority, "keys", store.Len())
		loaded = append(loaded, store)
	}

	// Link lowest priority to the overrides, highest priority on top
	acc := root
	for i := len(loaded) - 1; i >= 0; i-- {
		loaded[i].parent = acc
		acc = loaded[i]
	}
	return acc
}

// loadResource tries each location in order; the first that loads wins.
func (e *Engine) loadResource(res Resource) (map[string]string, string, error) {
	var errs []error
	for _, raw := range res.Locations {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		location, err := e.expandLocation(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		var data map[string]string
		switch res.Kind {
		case SourceFile:
			data, err = e.loadFile(location)
		case SourceEnv:
			data, err = e.loadEnv(location)
		case SourceFS, "":
			data, err = e.loadFS(location)
		default:
			err = fmt.Errorf("unknown source kind %q", res.Kind)
		}
		if err == nil {
			return data, location, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", location, err))
	}
	return nil, "", errors.Join(append([]error{ErrResourceNotFound}, errs...)...)
}

// expandLocation resolves references in a location against overrides and the environment.
func (e *Engine) expandLocation(location string) (string, error) {
	root := NewStore(nil)
	root.Load(e.overrides.Snapshot())
	return e.expander.Expand(root, "", "", location)
}

// loadFile reads from the OS filesystem: the path as given, then under the base directory.
func (e *Engine) loadFile(location string) (map[string]string, error) {
	data, err := readFileLimited(location)
	if err != nil && e.dir != "" && !filepath.IsAbs(location) {
		data, err = readFileLimited(filepath.Join(e.dir, location))
	}
	if err != nil {
		return nil, err
	}
	return parseDocument(location, data)
}

// loadFS reads from the engine's fs.FS: under the search root, then at the FS root.
func (e *Engine) loadFS(location string) (map[string]string, error) {
	if e.fsys == nil {
		return nil, fmt.Errorf("no filesystem configured for %q", location)
	}

	var candidates []string
	rel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(location)), "/")
	if e.root != "" && !strings.HasPrefix(location, "/") {
		candidates = append(candidates, path.Join(e.root, rel))
	}
	candidates = append(candidates, rel)

	var lastErr error
	for _, name := range candidates {
		data, err := readFSLimited(e.fsys, name)
		if err != nil {
			lastErr = err
			continue
		}
		return parseDocument(name, data)
	}
	return nil, lastErr
}

// loadEnv collects variables starting with prefix; APP_SERVER_PORT under "APP_" becomes server.port.
func (e *Engine) loadEnv(prefix string) (map[string]string, error) {
	values := make(map[string]string)
	for name, value := range e.environ() {
		if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix), "_", "."))
		values[key] = value
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no environment variables with prefix %q", prefix)
	}
	return values, nil
}

// expandIncludes merges every document named by includeKey into store, depth-first.
// References in the include value resolve against store layered over the overrides.
func (e *Engine) expandIncludes(store, overrides *Store, includeKey, delimiter string, visited map[string]bool, depth int) {
	if includeKey == "" {
		return
	}
	raw, ok := store.Own(includeKey)
	if !ok {
		return
	}
	store.Delete(includeKey)

	if depth >= e.maxIncludeDepth {
		e.logger.Warn("include depth limit reached", "key", includeKey, "depth", depth)
		return
	}
	if delimiter == "" {
		delimiter = DefaultIncludesDelimiter
	}

	view := &Store{values: store.values, parent: overrides, contextPrefix: DefaultContextPrefix}
	value, err := e.expander.Expand(view, "", "", raw)
	if err != nil {
		e.logger.Warn("include references not expanded", "key", includeKey, "err", err)
		value = raw
	}

	for _, part := range Split(value, delimiter) {
		location := strings.TrimSpace(part)
		if location == "" {
			continue
		}
		if visited[location] {
			e.logger.Warn("include cycle skipped", "location", location)
			continue
		}
		visited[location] = true

		data, err := e.loadInclude(location)
		if err != nil {
			e.logger.Debug("include skipped", "location", location, "err", err)
			continue
		}
		store.Load(data)
		e.logger.Debug("include loaded", "location", location, "keys", len(data))
		e.expandIncludes(store, overrides, includeKey, delimiter, visited, depth+1)
	}
}

// loadInclude tries the fs.FS, then the OS filesystem.
func (e *Engine) loadInclude(location string) (map[string]string, error) {
	data, fsErr := e.loadFS(location)
	if fsErr == nil {
		return data, nil
	}
	data, fileErr := e.loadFile(location)
	if fileErr == nil {
		return data, nil
	}
	return nil, errors.Join(fsErr, fileErr)
}

// readFileLimited reads a regular file, refusing anything over MaxValueSize.
func readFileLimited(name string) ([]byte, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", name)
	}
	if info.Size() > MaxValueSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, MaxValueSize)
	}
	return os.ReadFile(name)
}

// readFSLimited reads a file from fsys, refusing anything over MaxValueSize.
func readFSLimited(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", name)
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxValueSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxValueSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, MaxValueSize)
	}
	return data, nil
}
