// FILE: lixenwraith/props/registry_test.go
package props

import (
	"errors"
	"log/slog"
	"math/big"
	"net"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/text/language"
)

type color string

const (
	red   color = "red"
	green color = "green"
)

func (color) EnumValues() []any { return []any{red, green} }

type priority int

const (
	low priority = iota
	high
)

func (p priority) String() string {
	if p == high {
		return "high"
	}
	return "low"
}

func (priority) EnumValues() []any { return []any{low, high} }

type point struct{ X, Y int }

func parsePoint(raw string) (any, error) {
	x, y, ok := strings.Cut(strings.TrimSpace(raw), "x")
	if !ok {
		return nil, errors.New("want WxH")
	}
	px, err := strconv.Atoi(x)
	if err != nil {
		return nil, err
	}
	py, err := strconv.Atoi(y)
	if err != nil {
		return nil, err
	}
	return point{px, py}, nil
}

// TestScalarConverters tests the built-in scalar converters
func TestScalarConverters(t *testing.T) {
	t.Run("Integers", func(t *testing.T) {
		v, err := Convert[int](nil, " 42 ")
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		i8, err := Convert[int8](nil, "-128")
		require.NoError(t, err)
		assert.Equal(t, int8(-128), i8)

		_, err = Convert[int8](nil, "200")
		assert.ErrorIs(t, err, ErrConversionFailure)

		u16, err := Convert[uint16](nil, "65535")
		require.NoError(t, err)
		assert.Equal(t, uint16(65535), u16)

		_, err = Convert[uint](nil, "-1")
		assert.ErrorIs(t, err, ErrConversionFailure)

		_, err = Convert[int64](nil, "12abc")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("Floats", func(t *testing.T) {
		f, err := Convert[float64](nil, " 3.25")
		require.NoError(t, err)
		assert.Equal(t, 3.25, f)

		f32, err := Convert[float32](nil, "1.5")
		require.NoError(t, err)
		assert.Equal(t, float32(1.5), f32)
	})

	t.Run("BoolIsPermissive", func(t *testing.T) {
		for raw, want := range map[string]bool{
			"true": true, " TRUE ": true, "True": true,
			"false": false, "yes": false, "1": false, "": false,
		} {
			v, err := Convert[bool](nil, raw)
			require.NoError(t, err)
			assert.Equal(t, want, v, "input %q", raw)
		}
	})

	t.Run("Char", func(t *testing.T) {
		c, err := Convert[Char](nil, "ж")
		require.NoError(t, err)
		assert.Equal(t, Char('ж'), c)

		_, err = Convert[Char](nil, "xy")
		assert.ErrorIs(t, err, ErrConversionFailure)
		_, err = Convert[Char](nil, "")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("String", func(t *testing.T) {
		s, err := Convert[string](nil, "  kept as is ")
		require.NoError(t, err)
		assert.Equal(t, "  kept as is ", s)
	})

	t.Run("BigNumbers", func(t *testing.T) {
		bi, err := Convert[*big.Int](nil, "123456789012345678901234567890")
		require.NoError(t, err)
		want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
		assert.Zero(t, want.Cmp(bi))

		_, err = Convert[*big.Int](nil, "0x10")
		assert.ErrorIs(t, err, ErrConversionFailure)

		d, err := Convert[decimal.Decimal](nil, " 12.50 ")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

		dp, err := Convert[*decimal.Decimal](nil, "0.1")
		require.NoError(t, err)
		assert.Equal(t, "0.1", dp.String())
	})

	t.Run("Atomics", func(t *testing.T) {
		b, err := Convert[*atomic.Bool](nil, "true")
		require.NoError(t, err)
		assert.True(t, b.Load())

		n, err := Convert[*atomic.Int64](nil, "77")
		require.NoError(t, err)
		assert.Equal(t, int64(77), n.Load())

		_, err = Convert[*atomic.Int32](nil, "3000000000")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("LocaleAndCharset", func(t *testing.T) {
		tag, err := Convert[language.Tag](nil, " en-US ")
		require.NoError(t, err)
		assert.Equal(t, "en-US", tag.String())

		spec, err := Default().ParseType("charset")
		require.NoError(t, err)
		conv := Default().Converter(spec)
		require.NotNil(t, conv)

		enc, err := safeConvert(conv, "utf-8")
		require.NoError(t, err)
		assert.NotNil(t, enc)

		_, err = safeConvert(conv, "no-such-charset")
		assert.Error(t, err)
	})

	t.Run("Paths", func(t *testing.T) {
		fp, err := Convert[FilePath](nil, " ./conf//app.properties ")
		require.NoError(t, err)
		assert.Equal(t, FilePath("./conf//app.properties"), fp)

		p, err := Convert[Path](nil, "conf//sub/../app.properties")
		require.NoError(t, err)
		assert.Equal(t, Path(filepath.Join("conf", "app.properties")), p)
	})

	t.Run("Regexp", func(t *testing.T) {
		re, err := Convert[*regexp.Regexp](nil, `^a+\d$`)
		require.NoError(t, err)
		assert.True(t, re.MatchString("aa1"))

		_, err = Convert[*regexp.Regexp](nil, "(")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("URIAndURL", func(t *testing.T) {
		uri, err := Convert[*url.URL](nil, "relative/path?q=1")
		require.NoError(t, err)
		assert.Equal(t, "relative/path", uri.Path)

		u, err := Convert[url.URL](nil, "https://example.com/x")
		require.NoError(t, err)
		assert.Equal(t, "example.com", u.Host)

		_, err = Convert[url.URL](nil, "example.com/x")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("Network", func(t *testing.T) {
		ip, err := Convert[net.IP](nil, "192.168.1.10")
		require.NoError(t, err)
		assert.Equal(t, "192.168.1.10", ip.String())

		_, err = Convert[net.IP](nil, "999.1.1.1")
		assert.ErrorIs(t, err, ErrConversionFailure)

		ipNet, err := Convert[*net.IPNet](nil, "10.0.0.0/8")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.0/8", ipNet.String())

		byValue, err := Convert[net.IPNet](nil, "10.0.0.0/8")
		require.NoError(t, err)
		assert.Equal(t, ipNet.String(), byValue.String())
	})

	t.Run("IdentifiersAndTime", func(t *testing.T) {
		id, err := Convert[uuid.UUID](nil, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		require.NoError(t, err)
		assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", id.String())

		d, err := Convert[time.Duration](nil, "1m30s")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, d)

		ts, err := Convert[time.Time](nil, "2024-01-02T03:04:05Z")
		require.NoError(t, err)
		assert.Equal(t, 2024, ts.Year())
	})

	t.Run("TextUnmarshalerFactory", func(t *testing.T) {
		level, err := Convert[slog.Level](nil, "warn")
		require.NoError(t, err)
		assert.Equal(t, slog.LevelWarn, level)

		levelPtr, err := Convert[*slog.Level](nil, "ERROR")
		require.NoError(t, err)
		assert.Equal(t, slog.LevelError, *levelPtr)

		_, err = Convert[slog.Level](nil, "loud")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := Convert[point](nil, "1x2")
		assert.ErrorIs(t, err, ErrUnsupportedConversion)
		assert.Nil(t, Default().Converter(TypeOf[chan int]()))
		assert.Nil(t, Default().Converter(TypeSpec{}))
	})
}

// TestArrayConverter tests splitting into slices and fixed arrays
func TestArrayConverter(t *testing.T) {
	t.Run("Slice", func(t *testing.T) {
		v, err := Convert[[]int](nil, "25,48, 54")
		require.NoError(t, err)
		assert.Equal(t, []int{25, 48, 54}, v)
	})

	t.Run("BlankIsEmpty", func(t *testing.T) {
		v, err := Convert[[]string](nil, "  ")
		require.NoError(t, err)
		assert.NotNil(t, v)
		assert.Empty(t, v)
	})

	t.Run("FixedArray", func(t *testing.T) {
		v, err := Convert[[3]int](nil, "1,2")
		require.NoError(t, err)
		assert.Equal(t, [3]int{1, 2, 0}, v)

		_, err = Convert[[2]int](nil, "1,2,3")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("ComponentError", func(t *testing.T) {
		_, err := Convert[[]int](nil, "1,x")
		assert.ErrorIs(t, err, ErrConversionFailure)
	})

	t.Run("NamedSliceIsScalar", func(t *testing.T) {
		ip, err := Convert[net.IP](nil, "::1")
		require.NoError(t, err)
		assert.True(t, ip.IsLoopback())
	})

	t.Run("UnsupportedElement", func(t *testing.T) {
		assert.Nil(t, Default().Converter(TypeOf[[]point]()))
	})

	t.Run("ScopedDelimiter", func(t *testing.T) {
		r := Default().WithDelimiters(";", "")
		v, err := Convert[[]string](r, "a,b;c")
		require.NoError(t, err)
		assert.Equal(t, []string{"a,b", "c"}, v)

		components, keyValue := r.Delimiters()
		assert.Equal(t, ";", components)
		assert.Equal(t, DefaultKeyValueDelimiter, keyValue)
	})
}

// TestEnumConverter tests case-insensitive enum matching
func TestEnumConverter(t *testing.T) {
	c, err := Convert[color](nil, " RED ")
	require.NoError(t, err)
	assert.Equal(t, red, c)

	p, err := Convert[priority](nil, "High")
	require.NoError(t, err)
	assert.Equal(t, high, p)

	_, err = Convert[color](nil, "blue")
	assert.ErrorIs(t, err, ErrConversionFailure)
}

// TestRegistryDerivation tests that derived registries leave the receiver untouched
func TestRegistryDerivation(t *testing.T) {
	assert.Same(t, Default(), Default())

	base := NewRegistry()
	custom := base.WithConverter(reflect.TypeFor[point](), "Point", parsePoint)

	v, err := Convert[point](custom, "3x4")
	require.NoError(t, err)
	assert.Equal(t, point{3, 4}, v)

	assert.Nil(t, base.Converter(TypeOf[point]()))
	_, err = base.ParseType("point")
	assert.Error(t, err)

	spec, err := custom.ParseType("list<point>")
	require.NoError(t, err)
	list, err := custom.Converter(spec)("1x1,2x2")
	require.NoError(t, err)
	assert.Equal(t, []point{{1, 1}, {2, 2}}, list)

	named := base.WithNamed("upper", func(raw string) (any, error) { return strings.ToUpper(raw), nil })
	conv, ok := named.Named("upper")
	require.True(t, ok)
	out, _ := conv("abc")
	assert.Equal(t, "ABC", out)
	_, ok = base.Named("upper")
	assert.False(t, ok)

	assert.Same(t, base, base.WithDelimiters("", ""))
	assert.Same(t, base, base.WithDelimiters(DefaultComponentsDelimiter, DefaultKeyValueDelimiter))
}

// TestConverterPanicIsRecovered tests that a panicking converter becomes a conversion failure
func TestConverterPanicIsRecovered(t *testing.T) {
	r := NewRegistry().WithConverter(reflect.TypeFor[point](), "", func(string) (any, error) {
		panic("boom")
	})
	_, err := Convert[point](r, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversionFailure)
	assert.Contains(t, err.Error(), "boom")
}

// TestParseType tests type expressions
func TestParseType(t *testing.T) {
	r := Default()

	tests := []struct {
		expr string
		want TypeSpec
	}{
		{"int", TypeOf[int]()},
		{" Duration ", TypeOf[time.Duration]()},
		{"[]string", TypeOf[[]string]()},
		{"tree-set<int>", ContainerOf[int](TreeSet)},
		{"hash-map<string,bool>", MapOf[string, bool](HashMap)},
		{"tree-map< int , uuid >", MapOf[int, uuid.UUID](TreeMap)},
		{"level", TypeOf[slog.Level]()},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.ParseType(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, r.Converter(got))
		})
	}

	for _, bad := range []string{"", "nope", "list<int", "bogus<int>", "list<nope>", "[]nope"} {
		_, err := r.ParseType(bad)
		assert.Error(t, err, "expression %q", bad)
	}

	names := r.TypeNames()
	assert.Contains(t, names, "int")
	assert.Contains(t, names, "uuid")
	assert.IsIncreasing(t, names)

	assert.Equal(t, "tree-map<string,int>", MapOf[string, int](TreeMap).String())
	assert.Equal(t, "int", TypeOf[int]().String())
	assert.True(t, TypeSpec{}.IsZero())
}
