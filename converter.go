// FILE: lixenwraith/props/converter.go
package props

import (
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/language"
)

// Char is a property holding exactly one character.
type Char rune

// FilePath is a filesystem path kept exactly as configured, minus surrounding spaces.
type FilePath string

// Path is a filesystem path in cleaned, OS-specific form.
type Path string

// Enum is implemented by named types with a closed set of values.
// Each value is matched case-insensitively by its fmt.Sprint form.
type Enum interface {
	EnumValues() []any
}

var enumType = reflect.TypeFor[Enum]()

// maxIPLength is the longest textual IPv6 address.
const maxIPLength = 45

func registerScalars(r *Registry) {
	add := func(t reflect.Type, name string, conv Converter) {
		r.scalars[t] = scalarEntry{name: name, conv: conv}
		if name != "" {
			r.names[name] = t
		}
	}

	// Integers
	add(reflect.TypeFor[int8](), "int8", intConverter[int8](8))
	add(reflect.TypeFor[int16](), "int16", intConverter[int16](16))
	add(reflect.TypeFor[int32](), "int32", intConverter[int32](32))
	add(reflect.TypeFor[int64](), "int64", intConverter[int64](64))
	add(reflect.TypeFor[int](), "int", intConverter[int](strconv.IntSize))
	add(reflect.TypeFor[uint8](), "uint8", uintConverter[uint8](8))
	add(reflect.TypeFor[uint16](), "uint16", uintConverter[uint16](16))
	add(reflect.TypeFor[uint32](), "uint32", uintConverter[uint32](32))
	add(reflect.TypeFor[uint64](), "uint64", uintConverter[uint64](64))
	add(reflect.TypeFor[uint](), "uint", uintConverter[uint](strconv.IntSize))

	// Floats
	add(reflect.TypeFor[float32](), "float32", func(raw string) (any, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	})
	add(reflect.TypeFor[float64](), "float64", func(raw string) (any, error) {
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	})

	add(reflect.TypeFor[Char](), "char", func(raw string) (any, error) {
		if utf8.RuneCountInString(raw) != 1 {
			return nil, fmt.Errorf("expected exactly one character, got %q", raw)
		}
		r, _ := utf8.DecodeRuneInString(raw)
		return Char(r), nil
	})

	add(reflect.TypeFor[bool](), "bool", func(raw string) (any, error) {
		return parseBool(raw), nil
	})

	add(reflect.TypeFor[string](), "string", func(raw string) (any, error) {
		return raw, nil
	})

	// Arbitrary precision
	add(reflect.TypeFor[*big.Int](), "bigint", func(raw string) (any, error) {
		return parseBigInt(raw)
	})
	add(reflect.TypeFor[big.Int](), "", func(raw string) (any, error) {
		bi, err := parseBigInt(raw)
		if err != nil {
			return nil, err
		}
		return *bi, nil
	})
	add(reflect.TypeFor[decimal.Decimal](), "decimal", func(raw string) (any, error) {
		return decimal.NewFromString(strings.TrimSpace(raw))
	})
	add(reflect.TypeFor[*decimal.Decimal](), "", func(raw string) (any, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		return &d, nil
	})

	// Atomics
	add(reflect.TypeFor[*atomic.Bool](), "atomic-bool", func(raw string) (any, error) {
		return atomic.NewBool(parseBool(raw)), nil
	})
	add(reflect.TypeFor[*atomic.Int32](), "atomic-int32", func(raw string) (any, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return nil, err
		}
		return atomic.NewInt32(int32(n)), nil
	})
	add(reflect.TypeFor[*atomic.Int64](), "atomic-int64", func(raw string) (any, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, err
		}
		return atomic.NewInt64(n), nil
	})

	// Text and locale
	add(reflect.TypeFor[encoding.Encoding](), "charset", func(raw string) (any, error) {
		enc, err := htmlindex.Get(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("unknown charset %q: %w", raw, err)
		}
		return enc, nil
	})
	add(reflect.TypeFor[language.Tag](), "locale", func(raw string) (any, error) {
		// Malformed tags yield language.Und rather than an error
		return language.Make(strings.TrimSpace(raw)), nil
	})

	// Filesystem
	add(reflect.TypeFor[FilePath](), "file", func(raw string) (any, error) {
		return FilePath(strings.TrimSpace(raw)), nil
	})
	add(reflect.TypeFor[Path](), "path", func(raw string) (any, error) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return Path(""), nil
		}
		return Path(filepath.Clean(filepath.FromSlash(trimmed))), nil
	})

	add(reflect.TypeFor[*regexp.Regexp](), "regexp", func(raw string) (any, error) {
		return regexp.Compile(raw)
	})

	// Network
	add(reflect.TypeFor[*url.URL](), "uri", func(raw string) (any, error) {
		return url.Parse(strings.TrimSpace(raw))
	})
	add(reflect.TypeFor[url.URL](), "url", func(raw string) (any, error) {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" {
			return nil, fmt.Errorf("invalid URL %q: missing scheme", raw)
		}
		return *u, nil
	})
	add(reflect.TypeFor[net.IP](), "ip", func(raw string) (any, error) {
		s := strings.TrimSpace(raw)
		if len(s) > maxIPLength {
			return nil, fmt.Errorf("invalid IP length: %d", len(s))
		}
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", s)
		}
		return ip, nil
	})
	add(reflect.TypeFor[*net.IPNet](), "ipnet", func(raw string) (any, error) {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		return ipNet, nil
	})
	add(reflect.TypeFor[net.IPNet](), "", func(raw string) (any, error) {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		return *ipNet, nil
	})
	add(reflect.TypeFor[uuid.UUID](), "uuid", func(raw string) (any, error) {
		return uuid.Parse(strings.TrimSpace(raw))
	})

	// Time
	add(reflect.TypeFor[time.Duration](), "duration", func(raw string) (any, error) {
		return time.ParseDuration(strings.TrimSpace(raw))
	})
	add(reflect.TypeFor[time.Time](), "time", func(raw string) (any, error) {
		return time.Parse(time.RFC3339, strings.TrimSpace(raw))
	})

	// Reachable through the TextUnmarshaler factory; named here for type expressions.
	r.names["level"] = reflect.TypeFor[slog.Level]()
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func intConverter[T signed](bits int) Converter {
	return func(raw string) (any, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, bits)
		if err != nil {
			return nil, err
		}
		return T(n), nil
	}
}

func uintConverter[T unsigned](bits int) Converter {
	return func(raw string) (any, error) {
		n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, bits)
		if err != nil {
			return nil, err
		}
		return T(n), nil
	}
}

// parseBool is permissive: only a case-insensitive "true" is true.
func parseBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

func parseBigInt(raw string) (*big.Int, error) {
	bi, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q: must be base-10", raw)
	}
	return bi, nil
}

// enumConverter matches the trimmed, uppercased input against the enum's values.
func enumConverter(t reflect.Type) Converter {
	return func(raw string) (any, error) {
		want := strings.ToUpper(strings.TrimSpace(raw))
		values := reflect.Zero(t).Interface().(Enum).EnumValues()
		for _, v := range values {
			if reflect.TypeOf(v) != t {
				continue
			}
			if strings.ToUpper(fmt.Sprint(v)) == want {
				return v, nil
			}
		}
		return nil, fmt.Errorf("no %s value named %q", t, raw)
	}
}

// arrayConverter splits raw on delimiter and converts each component into a slice or fixed array of t.
func arrayConverter(t reflect.Type, child Converter, delimiter string) Converter {
	return func(raw string) (any, error) {
		parts := Split(raw, delimiter)
		if isBlankSingle(parts) {
			parts = nil
		}

		var out reflect.Value
		if t.Kind() == reflect.Array {
			if len(parts) > t.Len() {
				return nil, fmt.Errorf("%d components exceed array length %d", len(parts), t.Len())
			}
			out = reflect.New(t).Elem()
		} else {
			out = reflect.MakeSlice(t, len(parts), len(parts))
		}

		for i, part := range parts {
			v, err := child(part)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}
}
