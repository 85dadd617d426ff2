// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// entryMatcher holds compiled entry selection rules.
type entryMatcher struct {
	matcher *pathrules.Matcher
}

// newEntryMatcher compiles entry selection rules. It returns nil matcher for empty rule set.
func newEntryMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*entryMatcher, error) {
	rules = normalizeFilterRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidFilterRules, err)
	}

	return &entryMatcher{matcher: matcher}, nil
}

// normalizeFilterRules normalizes rule patterns and drops empty patterns.
func normalizeFilterRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether entry path is selected. Nil matcher selects everything.
func (m *entryMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// FilterEntries keeps entries selected by rules. Empty rule set keeps all entries.
// Zero-valued matcher options default to case-insensitive matching with include fallback.
func FilterEntries(entries []EntryHeader, rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]EntryHeader, error) {
	extractOpts := ExtractOptions{Rules: rules, MatcherOptions: opts}
	extractOpts.applyDefaults()

	matcher, err := newEntryMatcher(extractOpts.Rules, extractOpts.MatcherOptions)
	if err != nil {
		return nil, err
	}
	if matcher == nil {
		return entries, nil
	}

	out := make([]EntryHeader, 0, len(entries))
	for _, entry := range entries {
		if matcher.Match(entry.Name) {
			out = append(out, entry)
		}
	}

	return out, nil
}

// IncludeRules builds include rules from raw patterns.
func IncludeRules(patterns ...string) []pathrules.Rule {
	return actionRules(pathrules.Rule{Action: pathrules.ActionInclude}, patterns)
}

// ExcludeRules builds exclude rules from raw patterns.
func ExcludeRules(patterns ...string) []pathrules.Rule {
	return actionRules(pathrules.Rule{Action: pathrules.ActionExclude}, patterns)
}

// actionRules builds rules with template action for all non-empty patterns.
func actionRules(template pathrules.Rule, patterns []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		if normalizePathForMatching(pattern) == "" {
			continue
		}

		rule := template
		rule.Pattern = pattern
		rules = append(rules, rule)
	}

	return rules
}
