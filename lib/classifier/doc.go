// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

// Package classifier is the request/reply client for the external
// classification service. It dials a local Unix domain socket, sends
// one JSON request per batch, and parses the reply by decoding it as
// structured JSON and matching each verdict object by a field whose
// value is exactly a requested path — not by substring search.
//
// A single Client is used by one caller at a time (the classification
// worker is single-threaded), but Classify is safe to call
// concurrently; each call dials its own connection.
package classifier
