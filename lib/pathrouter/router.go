// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package pathrouter

import (
	"path/filepath"
	"strings"
)

// Router rewrites paths in the virtual namespace ("/", "/<name>",
// "/<category>/<name>") into paths under a flat backing directory.
// It holds no mutable state and consults no classification data — it
// is pure path arithmetic.
type Router struct {
	// BackingRoot is the absolute path of the flat directory that
	// physically stores every file, regardless of which virtual
	// directory the file currently appears under.
	BackingRoot string
}

// New returns a Router rooted at backingRoot.
func New(backingRoot string) *Router {
	return &Router{BackingRoot: backingRoot}
}

// components splits a virtual path into its non-empty segments.
// "/" yields nil, "/foo" yields ["foo"], "/foo/bar" yields ["foo", "bar"].
func components(virtualPath string) []string {
	trimmed := strings.Trim(virtualPath, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Leaf returns the final path component of virtualPath, which is the
// name used to look the file up in the flat backing store regardless
// of how many virtual directory levels precede it.
func Leaf(virtualPath string) string {
	parts := components(virtualPath)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Resolve maps a virtual path to its backing-store path. A root child
// ("/<name>") and a category child ("/<category>/<name>") both
// resolve to the same backing path: the category prefix is discarded
// because every file lives flat in the backing store.
func (r *Router) Resolve(virtualPath string) string {
	return filepath.Join(r.BackingRoot, Leaf(virtualPath))
}

// IsRootChild reports whether virtualPath names a direct child of the
// mount root: exactly one path separator and a non-empty leaf.
func IsRootChild(virtualPath string) bool {
	parts := components(virtualPath)
	return len(parts) == 1 && parts[0] != ""
}

// Split decomposes virtualPath into an optional category and a leaf
// name. For a root child ("/<name>") it returns ("", name, true). For
// a category child ("/<category>/<name>") it returns (category, name,
// true). Any other shape (root itself, or more than two components)
// returns ok=false.
func Split(virtualPath string) (category, leaf string, ok bool) {
	parts := components(virtualPath)
	switch len(parts) {
	case 1:
		return "", parts[0], true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

// Join builds a virtual path from an optional category and a leaf
// name, the inverse of Split. An empty category yields a root child
// path.
func Join(category, leaf string) string {
	if category == "" {
		return "/" + leaf
	}
	return "/" + category + "/" + leaf
}
