// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package pathrouter

import "testing"

func TestResolve(t *testing.T) {
	router := New("/backing")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"root child", "/invoice.pdf", "/backing/invoice.pdf"},
		{"category child", "/Documents/invoice.pdf", "/backing/invoice.pdf"},
		{"nested category-like path", "/a/b/invoice.pdf", "/backing/invoice.pdf"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := router.Resolve(tc.in)
			if got != tc.want {
				t.Errorf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsRootChild(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"/", false},
		{"/foo", true},
		{"/foo/bar", false},
		{"/foo/bar/baz", false},
	}

	for _, tc := range cases {
		if got := IsRootChild(tc.in); got != tc.want {
			t.Errorf("IsRootChild(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		in       string
		category string
		leaf     string
		ok       bool
	}{
		{"/", "", "", false},
		{"/foo", "", "foo", true},
		{"/Documents/foo", "Documents", "foo", true},
		{"/a/b/c", "", "", false},
	}

	for _, tc := range cases {
		category, leaf, ok := Split(tc.in)
		if category != tc.category || leaf != tc.leaf || ok != tc.ok {
			t.Errorf("Split(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, category, leaf, ok, tc.category, tc.leaf, tc.ok)
		}
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	cases := []struct {
		category string
		leaf     string
	}{
		{"", "foo"},
		{"Documents", "invoice.pdf"},
	}

	for _, tc := range cases {
		path := Join(tc.category, tc.leaf)
		category, leaf, ok := Split(path)
		if !ok || category != tc.category || leaf != tc.leaf {
			t.Errorf("round trip for (%q, %q) via %q = (%q, %q, %v)",
				tc.category, tc.leaf, path, category, leaf, ok)
		}
	}
}
