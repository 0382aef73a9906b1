// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"strings"
)

// SplitTokens splits a shell-style argument string into template
// tokens: whitespace separates tokens, single quotes preserve their
// content verbatim, double quotes allow backslash escapes of `"` and
// `\`, and a bare backslash escapes the next byte. No variable
// expansion or globbing is performed - the result is an argument
// template, not a shell command.
//
// This is the convenience form of the Arguments input; passing tokens
// directly avoids the quoting rules entirely.
func SplitTokens(input string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	i := 0
	for i < len(input) {
		switch c := input[i]; {
		case c == ' ' || c == '\t' || c == '\n':
			flush()
			i++

		case c == '\'':
			end := strings.IndexByte(input[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated single quote in %q", ErrMalformedArgument, input)
			}
			current.WriteString(input[i+1 : i+1+end])
			inToken = true
			i += end + 2

		case c == '"':
			inToken = true
			i++
			closed := false
			for i < len(input) {
				if input[i] == '"' {
					closed = true
					i++
					break
				}
				if input[i] == '\\' && i+1 < len(input) && (input[i+1] == '"' || input[i+1] == '\\') {
					current.WriteByte(input[i+1])
					i += 2
					continue
				}
				current.WriteByte(input[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated double quote in %q", ErrMalformedArgument, input)
			}

		case c == '\\' && i+1 < len(input):
			current.WriteByte(input[i+1])
			inToken = true
			i += 2

		default:
			current.WriteByte(c)
			inToken = true
			i++
		}
	}
	flush()

	return tokens, nil
}
