// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"errors"
	"testing"

	"github.com/woozymasta/pathrules"
)

func TestEntryMatcher_OrderedRules(t *testing.T) {
	t.Parallel()

	matcher, err := newEntryMatcher([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "program/**"},
		{Action: pathrules.ActionExclude, Pattern: "program/tmp/**"},
		{Action: pathrules.ActionInclude, Pattern: "program/tmp/keep/**"},
	}, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("newEntryMatcher: %v", err)
	}

	testCases := []struct {
		path string
		want bool
	}{
		{path: `program\app.exe`, want: true},
		{path: `PROGRAM\tmp\x.log`, want: false},
		{path: `program\tmp\keep\x.log`, want: true},
		{path: "readme.txt", want: false},
	}

	for _, tc := range testCases {
		if got := matcher.Match(tc.path); got != tc.want {
			t.Fatalf("Match(%q)=%v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestEntryMatcher_EmptyRulesSelectAll(t *testing.T) {
	t.Parallel()

	matcher, err := newEntryMatcher(IncludeRules(" ", ""), pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("newEntryMatcher: %v", err)
	}
	if matcher != nil {
		t.Fatal("expected nil matcher for empty rule set")
	}
	if !matcher.Match("anything.bin") {
		t.Fatal("nil matcher must select every entry")
	}
}

func TestEntryMatcher_InvalidRule(t *testing.T) {
	t.Parallel()

	_, err := newEntryMatcher([]pathrules.Rule{
		{Action: pathrules.ActionUnknown, Pattern: "*.txt"},
	}, pathrules.MatcherOptions{DefaultAction: pathrules.ActionInclude})
	if !errors.Is(err, ErrInvalidFilterRules) {
		t.Fatalf("expected ErrInvalidFilterRules, got %v", err)
	}
}

func TestFilterEntries(t *testing.T) {
	t.Parallel()

	entries := []EntryHeader{
		{Name: "setup.ini"},
		{Name: `data\a.tmp`},
		{Name: `data\b.dat`},
	}

	filtered, err := FilterEntries(entries, ExcludeRules("*.tmp"), pathrules.MatcherOptions{})
	if err != nil {
		t.Fatalf("FilterEntries exclude: %v", err)
	}
	if len(filtered) != 2 || filtered[0].Name != "setup.ini" || filtered[1].Name != `data\b.dat` {
		t.Fatalf("exclude filtered=%+v", filtered)
	}

	filtered, err = FilterEntries(entries, IncludeRules("data/**"), pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("FilterEntries include: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("include len(filtered)=%d, want 2", len(filtered))
	}

	all, err := FilterEntries(entries, nil, pathrules.MatcherOptions{})
	if err != nil || len(all) != 3 {
		t.Fatalf("FilterEntries no rules: len=%d err=%v", len(all), err)
	}
}
