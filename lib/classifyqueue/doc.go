// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package classifyqueue implements the FIFO of filenames awaiting
// classification and the single background worker that drains it.
//
// The queue mutex and the state mutex are never held together. The
// queue enforces this lock order itself: Enqueue checks the already
// classified case against the visibility state and releases that
// lock before taking the queue lock, so a caller never has to reason
// about the ordering.
package classifyqueue
