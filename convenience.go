// File: lixenwraith/props/convenience.go
package props

import (
	"fmt"
	"os"
)

// Quick populates target with a single call.
// Precedence, highest first: command-line overrides, environment variables under envPrefix, file, field defaults.
// An empty envPrefix or file skips that source; a missing file is not an error.
func Quick(target any, envPrefix, file string) (*Loader, error) {
	b := NewBuilder().WithArgs(os.Args[1:])
	if envPrefix != "" {
		b.WithResource(SourceEnv, 2, envPrefix)
	}
	if file != "" {
		b.WithResource(SourceFile, 1, file)
	}
	return b.BuildAndPopulate(target)
}

// MustQuick is like Quick but panics on error
func MustQuick(target any, envPrefix, file string) *Loader {
	l, err := Quick(target, envPrefix, file)
	if err != nil {
		panic(fmt.Sprintf("props initialization failed: %v", err))
	}
	return l
}
