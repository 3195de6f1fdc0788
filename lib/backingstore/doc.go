// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package backingstore is a thin delegation layer over the host
// filesystem directory that physically holds every file the mount
// exposes. It performs no path rewriting (see lib/pathrouter) and no
// visibility bookkeeping (see lib/visibility) — it is the bottom of
// the stack, the only package that touches real file descriptors.
//
// Every method returns host errors unwrapped from their syscall
// origin where the caller needs to classify them (os.IsNotExist and
// friends); lib/magicfs is responsible for translating those into
// syscall.Errno values handed back to the kernel.
package backingstore
