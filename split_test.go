// FILE: lixenwraith/props/split_test.go
package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSplit tests delimiter splitting with escapes
func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter string
		want      []string
	}{
		{"Simple", "a,b,c", ",", []string{"a", "b", "c"}},
		{"KeepsSpaces", "25,48, 54", ",", []string{"25", "48", " 54"}},
		{"EscapedDelimiter", `a\,b,c`, ",", []string{"a,b", "c"}},
		{"EmptyInput", "", ",", []string{""}},
		{"InnerEmpty", "a,,b", ",", []string{"a", "", "b"}},
		{"TrailingEmptyDropped", "a,b,,", ",", []string{"a", "b"}},
		{"LeadingEmptyKept", ",a", ",", []string{"", "a"}},
		{"MultiCharDelimiter", "a::b::c", "::", []string{"a", "b", "c"}},
		{"EscapedMultiChar", `a\::b::c`, "::", []string{"a::b", "c"}},
		{"NoDelimiterPresent", "abc", ";", []string{"abc"}},
		{"EmptyDelimiter", "a,b", "", []string{"a,b"}},
		{"BackslashElsewhere", `C:\dir,x`, ",", []string{`C:\dir`, "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.input, tt.delimiter))
		})
	}

	t.Run("OnlyDelimiters", func(t *testing.T) {
		assert.Empty(t, Split(",,", ","))
	})

	t.Run("BlankSingle", func(t *testing.T) {
		assert.True(t, isBlankSingle(Split(" ", ",")))
		assert.True(t, isBlankSingle(Split("", ",")))
		assert.False(t, isBlankSingle(Split("a", ",")))
		assert.False(t, isBlankSingle(Split(" , ", ",")))
	})
}
