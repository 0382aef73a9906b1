// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package shelljob

import "regexp"

// labelPrefix is prepended to link-safe labels that would otherwise
// start with a digit.
const labelPrefix = "aiida_shell_"

var (
	nonLabelPattern           = regexp.MustCompile(`[^0-9a-zA-Z_]+`)
	repeatedUnderscorePattern = regexp.MustCompile(`_[_]+`)
)

// LinkLabel derives a link-safe result key from a filename. Runs of
// characters that are not alphanumeric or underscore collapse to a
// single underscore, consecutive underscores are merged, and a label
// that would start with a digit gets the aiida_shell_ prefix.
//
//	LinkLabel("filename-with-dashes.txt") == "filename_with_dashes_txt"
//	LinkLabel("123starts.txt")            == "aiida_shell_123starts_txt"
func LinkLabel(filename string) string {
	label := nonLabelPattern.ReplaceAllString(filename, "_")
	label = repeatedUnderscorePattern.ReplaceAllString(label, "_")
	if label != "" && label[0] >= '0' && label[0] <= '9' {
		label = labelPrefix + label
	}
	return label
}
