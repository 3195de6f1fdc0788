// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package magicfs implements the FUSE Handler Layer (spec §4.6): the
// kernel-facing operations that compose the Backing Store Adapter
// (lib/backingstore), the Visibility State (lib/visibility), and the
// Classification Queue (lib/classifyqueue) into a single mount. Go-fuse
// resolves paths node by node, so unlike lib/pathrouter's string
// rewriting, category-prefix stripping here falls out of the node
// tree itself: a category node and the root both resolve a leaf name
// through the same backing-store lookup.
//
// The root directory ("/") lists synthetic category directories
// alongside real backing files that are neither Hidden nor
// Classified. Each category directory ("/<category>") lists the
// filenames currently assigned to it. Every file, regardless of
// which virtual directory it appears under, resolves to the same
// flat path in the backing store.
package magicfs
