// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package ignore

import "testing"

func TestIs(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{".DS_Store", true},
		{"._invoice.pdf", true},
		{"._", true},
		{"invoice.pdf", false},
		{"DS_Store", false},
		{".dsstore", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := Is(tc.name); got != tc.want {
			t.Errorf("Is(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
