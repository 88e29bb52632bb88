// FILE: lixenwraith/props/builder_test.go
package props

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var builderFS = fstest.MapFS{
	"conf/app.properties": file(strings.Join([]string{
		"app.name = props",
		"server.host = localhost",
		"server.port = 8080",
		"%dev.server.port = 9090",
		"server.peers = alpha,beta",
		"server.ratio = 0.75",
		"server.debug = TRUE",
		"server.wait = 2s",
		"data.root = /var/lib/${app.name}",
		"data.home = ${ENV:HOME}",
		"loop = ${loop}",
		"include = features.toml",
	}, "\n")),
	"conf/features.toml":    file("[features]\ncaching = true\n"),
	"conf/local.properties": file("server.host = 127.0.0.1\n"),
}

func newTestBuilder() *Builder {
	return NewBuilder().
		WithOverrides(NewOverrides()).
		WithLogger(quietLogger()).
		WithFS(builderFS, "conf").
		WithEnvLookup(mapLookup(map[string]string{"HOME": "/home/props"}), func() map[string]string { return nil }).
		WithContext("dev").
		WithIncludes("include", "").
		WithResource(SourceFS, 1, "app.properties")
}

type builderConfig struct {
	Name   string `prop:"app.name" required:"true"`
	Server struct {
		Host  string        `prop:"host"`
		Port  int           `prop:"port"`
		Peers []string      `prop:"peers"`
		Wait  time.Duration `prop:"wait"`
	} `child:"server"`
	Caching bool   `prop:"features.caching"`
	Root    string `prop:"data.root"`
}

// TestBuilderOptions tests that invalid options are collected and reported together
func TestBuilderOptions(t *testing.T) {
	_, err := NewBuilder().
		WithContextPrefix("").
		WithResource("http", 0, "x").
		WithResource(SourceFS, 0).
		WithRegistry(nil).
		WithConverter(nil, "x", nil).
		WithNamedConverter("", nil).
		WithFileDiscovery(FileDiscoveryOptions{}).
		WithMaxDepth(-1, 0).
		Build()
	require.Error(t, err)
	for _, want := range []string{
		"context prefix cannot be empty",
		`unknown source kind "http"`,
		"has no locations",
		"registry cannot be nil",
		"needs a type and a function",
		"needs a name and a function",
		"needs a base name",
		"cannot be negative",
	} {
		assert.Contains(t, err.Error(), want)
	}

	assert.Panics(t, func() { NewBuilder().WithRegistry(nil).MustBuild() })

	_, err = NewBuilder().WithArgs([]string{"--bad..key=1"}).Build()
	assert.ErrorContains(t, err, "failed to parse arguments")
}

// TestBuildAndPopulate tests a loader built from resources, includes and arguments
func TestBuildAndPopulate(t *testing.T) {
	var cfg builderConfig
	loader, err := newTestBuilder().
		WithResource(SourceFS, 2, "local.properties").
		WithArgs([]string{"--server.peers=gamma"}).
		BuildAndPopulate(&cfg)
	require.NoError(t, err)
	require.NotNil(t, loader)

	assert.Equal(t, "props", cfg.Name)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"gamma"}, cfg.Server.Peers)
	assert.Equal(t, 2*time.Second, cfg.Server.Wait)
	assert.True(t, cfg.Caching)
	assert.Equal(t, "/var/lib/props", cfg.Root)

	t.Run("ArgsDoNotLeak", func(t *testing.T) {
		_, ok := DefaultOverrides.Get("server.peers")
		assert.False(t, ok)
	})

	t.Run("PopulateError", func(t *testing.T) {
		var bad struct {
			Missing string `prop:"missing" required:"true"`
		}
		l, err := newTestBuilder().BuildAndPopulate(&bad)
		require.ErrorIs(t, err, ErrRequiredPropertyMissing)
		assert.NotNil(t, l)
		assert.Contains(t, err.Error(), "failed to populate")
	})

	t.Run("BuildDoesNotShareState", func(t *testing.T) {
		b := newTestBuilder()
		first, err := b.Build()
		require.NoError(t, err)
		b.WithResource(SourceFS, 5, "local.properties")
		assert.Len(t, first.Info().Resources, 1)
	})
}

// TestLoaderGetters tests typed access through the loader
func TestLoaderGetters(t *testing.T) {
	l, err := newTestBuilder().Build()
	require.NoError(t, err)

	s, err := l.String("data.home")
	require.NoError(t, err)
	assert.Equal(t, "/home/props", s)

	n, err := l.Int64("server.port")
	require.NoError(t, err)
	assert.Equal(t, int64(9090), n)

	b, err := l.Bool("server.debug")
	require.NoError(t, err)
	assert.True(t, b)

	f, err := l.Float64("server.ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.75, f)

	d, err := l.Duration("server.wait")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	peers, err := l.Strings("server.peers")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, peers)

	_, err = l.Int64("app.name")
	assert.ErrorIs(t, err, ErrConversionFailure)

	_, err = Value[string](l, "missing")
	assert.ErrorIs(t, err, ErrRequiredPropertyMissing)

	assert.Equal(t, 3, ValueOr(l, "missing", 3))
	assert.Equal(t, 9090, ValueOr(l, "server.port", 3))

	_, err = l.String("loop")
	assert.ErrorIs(t, err, ErrReferenceCycle)

	raw, ok, err := l.Raw("data.root")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/var/lib/props", raw)

	_, ok, err = l.Raw("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestLoaderCustomConverters tests converters registered through the builder
func TestLoaderCustomConverters(t *testing.T) {
	l, err := newTestBuilder().
		WithConverter(reflect.TypeFor[point](), "point", parsePoint).
		WithNamedConverter("length", func(raw string) (any, error) { return len(raw), nil }).
		WithOverrides(func() *Overrides {
			o := NewOverrides()
			o.Set("origin", "3x4")
			return o
		}()).
		Build()
	require.NoError(t, err)

	p, err := Value[point](l, "origin")
	require.NoError(t, err)
	assert.Equal(t, point{3, 4}, p)

	var cfg struct {
		Origin []point `prop:"origin" type:"list<point>"`
		Length int     `prop:"app.name" converter:"length"`
	}
	require.NoError(t, l.Populate(&cfg))
	assert.Equal(t, []point{{3, 4}}, cfg.Origin)
	assert.Equal(t, 5, cfg.Length)
}

// TestLoaderTables tests descriptors and tables resolved against the loader resources
func TestLoaderTables(t *testing.T) {
	l, err := newTestBuilder().Build()
	require.NoError(t, err)

	v, ok, err := l.Resolve(l.Property("server.port", TypeOf[uint16]()))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(9090), v)

	table := l.NewTable()
	table.Prefix = "server"
	table.Property("host", "host", TypeOf[string]())
	table.Property("port", "port", TypeOf[int]())
	values, err := l.ResolveTable(table)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"host": "localhost", "port": 9090}, values)
	assert.Same(t, l.Info(), table.Info.Parent())
	assert.NotNil(t, l.Engine().Registry())
}

// TestLoaderIntrospection tests key listing, value expansion, dumps and debug output
func TestLoaderIntrospection(t *testing.T) {
	o := NewOverrides()
	o.Set("extra", "x")
	l, err := newTestBuilder().WithOverrides(o).Build()
	require.NoError(t, err)

	keys := l.Keys()
	assert.Contains(t, keys, "server.port")
	assert.Contains(t, keys, "features.caching")
	assert.Contains(t, keys, "extra")
	assert.NotContains(t, keys, "%dev.server.port")
	assert.NotContains(t, keys, "include")
	assert.IsIncreasing(t, keys)

	values := l.Values()
	assert.Equal(t, "9090", values["server.port"])
	assert.Equal(t, "/var/lib/props", values["data.root"])
	assert.Equal(t, "${loop}", values["loop"])

	t.Run("Properties", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, l.Dump(&buf, FormatProperties))
		assert.Contains(t, buf.String(), "server.port = 9090")
		assert.Contains(t, buf.String(), "data.root = /var/lib/props")
	})

	t.Run("TOML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, l.Dump(&buf, FormatTOML))
		var decoded map[string]any
		_, err := toml.Decode(buf.String(), &decoded)
		require.NoError(t, err)
		assert.Equal(t, "9090", decoded["server"].(map[string]any)["port"])
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, l.Dump(&buf, FormatYAML))
		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "localhost", decoded["server"].(map[string]any)["host"])
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, l.Dump(&buf, FormatJSON))
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "true", decoded["features"].(map[string]any)["caching"])
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		assert.Error(t, l.Dump(&bytes.Buffer{}, "xml"))
	})

	t.Run("Debug", func(t *testing.T) {
		debug := l.Debug()
		assert.Contains(t, debug, `Context: "dev"`)
		assert.Contains(t, debug, "[1] fs: app.properties")
		assert.Contains(t, debug, "extra = x (override)")
	})
}

func TestNestValuesConflict(t *testing.T) {
	_, err := nestValues(map[string]string{"a": "1", "a.b": "2"})
	assert.ErrorContains(t, err, "both a value and a parent")

	_, err = encodeValues(map[string]string{"a.b": "2", "a": "1"}, FormatJSON)
	assert.Error(t, err)

	data, err := encodeValues(map[string]string{"a": "1", "a.b": "2"}, FormatProperties)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a.b = 2")
}

func TestLoaderConcurrent(t *testing.T) {
	l, err := newTestBuilder().Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				port, err := Value[int](l, "server.port")
				assert.NoError(t, err)
				assert.Equal(t, 9090, port)
			}
		}()
	}
	wg.Wait()
}

// TestLoaderReloads tests that every call reads the resources again
func TestLoaderReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.properties")
	require.NoError(t, os.WriteFile(path, []byte("port = 1\nname = ${ref}\n"), 0644))

	overrides := NewOverrides()
	l, err := NewBuilder().
		WithOverrides(overrides).
		WithLogger(quietLogger()).
		WithResource(SourceFile, 1, path).
		Build()
	require.NoError(t, err)

	var cfg struct {
		Port int    `prop:"port"`
		Name string `prop:"name"`
	}
	require.NoError(t, l.Populate(&cfg))
	assert.Equal(t, 1, cfg.Port)
	assert.Equal(t, "${ref}", cfg.Name)

	require.NoError(t, os.WriteFile(path, []byte("port = 2\nname = ${ref}\n"), 0644))
	overrides.Set("ref", "late")

	require.NoError(t, l.Populate(&cfg))
	assert.Equal(t, 2, cfg.Port)
	assert.Equal(t, "late", cfg.Name)

	port, err := Value[int](l, "port")
	require.NoError(t, err)
	assert.Equal(t, 2, port)
	assert.Contains(t, l.Keys(), "ref")
}

// TestBuilderDiscovery tests that a discovered file becomes the lowest-priority resource
func TestBuilderDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "myapp.toml"), []byte("[server]\nhost = \"discovered\"\nname = \"found\"\n"), 0644))

	opts := FileDiscoveryOptions{Name: "myapp", Extensions: []string{".toml"}, Paths: []string{dir}}
	l, err := newTestBuilder().WithFileDiscovery(opts).Build()
	require.NoError(t, err)

	host, err := l.String("server.host")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)

	name, err := l.String("server.name")
	require.NoError(t, err)
	assert.Equal(t, "found", name)

	resources := l.Info().Resources
	require.Len(t, resources, 2)
	assert.Equal(t, -1, resources[1].Priority)

	t.Run("ExplicitFlag", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "custom.properties")
		require.NoError(t, os.WriteFile(other, []byte("server.name = flagged\n"), 0644))

		flagged := opts
		flagged.CLIFlag = "--config"
		l, err := newTestBuilder().WithFileDiscovery(flagged).WithArgs([]string{"--config=" + other}).Build()
		require.NoError(t, err)
		name, err := l.String("server.name")
		require.NoError(t, err)
		assert.Equal(t, "flagged", name)
	})
}

func TestQuick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quick.properties")
	require.NoError(t, os.WriteFile(path, []byte("server.port = 1000\nserver.host = file-host\n"), 0644))
	t.Setenv("PROPSQUICK_SERVER_PORT", "2000")

	var cfg struct {
		Port int    `prop:"server.port"`
		Host string `prop:"server.host"`
		Mode string `prop:"mode" default:"standard"`
	}
	l, err := Quick(&cfg, "PROPSQUICK_", path)
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.Equal(t, 2000, cfg.Port)
	assert.Equal(t, "file-host", cfg.Host)
	assert.Equal(t, "standard", cfg.Mode)

	assert.Panics(t, func() { MustQuick(cfg, "", "") })
}
