// FILE: lixenwraith/props/limits.go
package props

// Default delimiters and markers.
const (
	DefaultComponentsDelimiter = ","
	DefaultKeyValueDelimiter   = ":"
	DefaultIncludesDelimiter   = ","
	DefaultContextPrefix       = "%"
)

// Recursion and size bounds for a single resolution pass.
const (
	DefaultMaxReferenceDepth = 64      // nested ${...} expansions before ErrReferenceCycle
	DefaultMaxIncludeDepth   = 32      // nested include documents before expansion stops
	MaxValueSize             = 1 << 20 // largest document the loader will read, in bytes
)
