// Package splitter segments a source buffer into top-level forms before
// any of them are handed to the S-expression reader.
//
// Reading the whole buffer in one shot would work just as well for a
// well-formed program, but splitting first lets a parenthesis-balance
// error be reported against the raw text, rather than surfacing as a
// comparatively unhelpful reader-internal failure halfway through the
// file.
package splitter

import "github.com/skx/snek-compiler/internal/diagnostics"

// Split scans src and returns one string per top-level form: each
// balanced parenthesised form, and each bare atom (such as a lone
// identifier or number) found outside any parentheses, in source order.
// It does not check where bare atoms appear; ast.Build rejects any
// non-function form that is not the last one.
func Split(src string) ([]string, error) {
	var forms []string

	depth := 0
	parenStart := -1
	atomStart := -1

	closeAtom := func(end int) {
		if atomStart != -1 {
			forms = append(forms, src[atomStart:end])
			atomStart = -1
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '(':
			if depth == 0 {
				closeAtom(i)
				parenStart = i
			}
			depth++

		case c == ')':
			depth--
			if depth < 0 {
				return nil, diagnostics.Errorf(diagnostics.CodeParse,
					"unbalanced parentheses: unexpected ')' at offset %d", i)
			}
			if depth == 0 {
				forms = append(forms, src[parenStart:i+1])
				parenStart = -1
			}

		case isSpace(c):
			if depth == 0 {
				closeAtom(i)
			}

		default:
			if depth == 0 && atomStart == -1 {
				atomStart = i
			}
		}
	}

	if depth != 0 {
		return nil, diagnostics.Errorf(diagnostics.CodeParse,
			"unbalanced parentheses: %d form(s) left unclosed", depth)
	}

	closeAtom(len(src))

	return forms, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
