// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import "strings"

// splitEntryPath splits stored entry name on both "\" and "/" separators.
func splitEntryPath(raw string) []string {
	raw = strings.TrimSpace(raw)
	return strings.Split(strings.ReplaceAll(raw, `\`, "/"), "/")
}

// NormalizePath converts a stored entry name like `Program\Data\setup.ini`
// to slash-separated form. Empty and "." segments are dropped, ".." pops
// one segment and never climbs above the root.
func NormalizePath(raw string) string {
	parts := splitEntryPath(raw)
	out := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}

	return strings.Join(out, "/")
}

// normalizePathForMatching prepares rule pattern for pathrules, keeping
// leading "/" anchors and trailing "/" directory markers.
func normalizePathForMatching(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	pattern = strings.ReplaceAll(pattern, `\`, "/")
	return strings.TrimPrefix(pattern, "./")
}

// normalizeExtractEntryPath returns stored entry name as relative slash path.
// Rooted names, drive letters (C:\ and C:x), NUL bytes and ".." segments
// are rejected with ErrInvalidExtractPath.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" || strings.ContainsRune(raw, 0) || hasDriveOrRoot(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := splitEntryPath(raw)
	clean := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			return "", ErrInvalidExtractPath
		default:
			clean = append(clean, part)
		}
	}
	if len(clean) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(clean, "/"), nil
}

// hasDriveOrRoot reports whether name starts with a separator or a drive letter.
func hasDriveOrRoot(name string) bool {
	if name[0] == '/' || name[0] == '\\' {
		return true
	}

	if len(name) < 2 || name[1] != ':' {
		return false
	}

	c := name[0] | 0x20
	return c >= 'a' && c <= 'z'
}
