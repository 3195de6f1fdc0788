// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package visibility is the single authoritative structure tracking
// which backing files are hidden from the mount root, which are
// assigned to which synthetic category, and the lookups the FUSE
// handler layer needs to render readdir and getattr correctly.
//
// State is guarded by one mutex. Every exported method takes the lock
// for the duration of its own work and returns copied-out results, so
// callers never hold the lock across a filesystem syscall.
//
// Re-classification policy: the first verdict for a filename wins.
// A later AssignCategory call for an already-classified filename is a
// no-op, so a filename is Classified(C) for exactly one C by
// construction rather than by convention.
package visibility
