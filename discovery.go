// FILE: lixenwraith/props/discovery.go
package props

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures automatic property file discovery
type FileDiscoveryOptions struct {
	// Base name of the property file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for explicit path
	EnvVar string

	// CLI flag to check (e.g., "--config" or "-c")
	CLIFlag string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".properties", ".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// DiscoverResource builds a file resource whose locations are every candidate path, best first.
// An explicit path from the CLI flag or the environment variable comes before the searched directories.
// lookup reads the environment and defaults to os.LookupEnv.
func DiscoverResource(opts FileDiscoveryOptions, args []string, lookup Lookup) Resource {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	res := Resource{Kind: SourceFile}

	// Check CLI args first (highest priority)
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				res.Locations = append(res.Locations, args[i+1])
				break
			}
			if path, ok := strings.CutPrefix(arg, opts.CLIFlag+"="); ok {
				res.Locations = append(res.Locations, path)
				break
			}
		}
	}

	// Check environment variable
	if opts.EnvVar != "" {
		if path, ok := lookup(opts.EnvVar); ok && path != "" {
			res.Locations = append(res.Locations, path)
		}
	}

	// Build search paths
	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)

	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}

	if opts.UseXDG {
		searchPaths = append(searchPaths, xdgConfigPaths(opts.Name, lookup)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			res.Locations = append(res.Locations, filepath.Join(dir, opts.Name+ext))
		}
	}

	return res
}

// xdgConfigPaths returns XDG-compliant config search paths
func xdgConfigPaths(appName string, lookup Lookup) []string {
	var paths []string

	// XDG_CONFIG_HOME
	if xdgHome, ok := lookup("XDG_CONFIG_HOME"); ok && xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home, ok := lookup("HOME"); ok && home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	// XDG_CONFIG_DIRS
	if xdgDirs, ok := lookup("XDG_CONFIG_DIRS"); ok && xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		// Default system paths
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
