// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package ignore names the filenames that pass through the mount
// transparently: never hidden, never classified, never enqueued.
package ignore

import "strings"

// dotUnderscorePrefix is the two-character AppleDouble sidecar prefix
// (resource forks written by macOS Finder, e.g. "._invoice.pdf").
const dotUnderscorePrefix = "._"

// dsStore is the macOS Finder metadata file written in every
// directory it has browsed.
const dsStore = ".DS_Store"

// Is reports whether name must be excluded from visibility tracking
// and classification: the literal name ".DS_Store", or any name
// starting with "._".
func Is(name string) bool {
	return name == dsStore || strings.HasPrefix(name, dotUnderscorePrefix)
}
