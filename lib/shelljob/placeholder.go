// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches {name} substitution sites in argument
// tokens. Only the braced form is recognized. Placeholder names must
// start with a letter or underscore and contain only letters, digits,
// and underscores - the same shape as a node key.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ParsePlaceholders returns the placeholder identifiers contained in a
// single argument token, in order of appearance. A token may contain
// zero or one placeholder; more than one is a configuration error
// ([ErrMalformedArgument]) - the argument template has no multi-site
// substitution.
//
// Pure string analysis, no I/O.
func ParsePlaceholders(token string) ([]string, error) {
	matches := placeholderPattern.FindAllStringSubmatch(token, -1)
	if matches == nil {
		return nil, nil
	}

	names := make([]string, len(matches))
	for i, match := range matches {
		names[i] = match[1]
	}

	if len(names) > 1 {
		return nil, fmt.Errorf("%w: argument %q contains more than one placeholder", ErrMalformedArgument, token)
	}

	return names, nil
}

// substitutePlaceholder replaces the single {name} site in token with
// value. The caller has already established via [ParsePlaceholders]
// that exactly one site is present.
func substitutePlaceholder(token, value string) string {
	return placeholderPattern.ReplaceAllLiteralString(token, value)
}
