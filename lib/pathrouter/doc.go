// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathrouter maps the virtual namespace exposed by the mount
// ("/", "/<Category>", "/<Category>/<file>", "/<file>") onto the flat
// backing-store directory that physically holds every file.
//
// The router is purely functional: it never consults visibility state
// and never touches the filesystem. It only rewrites paths. Whether a
// given top-level name is a real category is decided by the caller
// (lib/visibility), not by this package.
package pathrouter
