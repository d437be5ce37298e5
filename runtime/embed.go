// Package runtime identifies the native C runtime shim a compiled snek
// program links against. The package itself is pure Go and contributes
// no symbols to the compiled program; it exists solely to embed
// runtime.c into the snekc binary, so "--assemble"/"--run" can write it
// out next to the generated assembly without requiring a source
// checkout on the build machine.
package runtime

import _ "embed"

//go:embed runtime.c
var source string

// Source returns the embedded runtime.c text.
func Source() string {
	return source
}
