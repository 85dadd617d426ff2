// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSanitizedSegmentLen limits one output path segment in bytes.
const maxSanitizedSegmentLen = 240

// forbiddenNameChars are rejected by Windows in file names.
const forbiddenNameChars = `<>:"/\|?*`

// dosDevices holds DOS device stems that cannot be used as file names on Windows.
var dosDevices = map[string]struct{}{
	"aux": {}, "clock$": {}, "con": {}, "config$": {}, "nul": {}, "prn": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// SanitizePath rewrites stored entry name to a filesystem-safe slash path.
// Unlike extraction it does not track collisions between names.
func SanitizePath(name string) (string, error) {
	normalized := NormalizePath(name)
	if normalized == "" {
		return "", nil
	}

	sanitized := sanitizeSegments(strings.Split(normalized, "/"))
	if _, err := normalizeExtractEntryPath(sanitized); err != nil {
		return "", fmt.Errorf("sanitize path %s: %w", name, err)
	}

	return sanitized, nil
}

// nameSanitizer maps stored names of one archive to unique output paths.
// Uniqueness is case-insensitive so output also survives NTFS and APFS.
type nameSanitizer struct {
	// taken maps lower-cased output path to next numeric suffix to try.
	taken map[string]int
}

func newNameSanitizer() *nameSanitizer {
	return &nameSanitizer{taken: make(map[string]int)}
}

// Sanitize rewrites name to unique relative output path.
// Rooted, drive and ".." segments are rewritten instead of rejected.
func (s *nameSanitizer) Sanitize(name string) (string, error) {
	sanitized := s.claim(sanitizeSegments(splitEntryPath(name)))
	if _, err := normalizeExtractEntryPath(sanitized); err != nil {
		return "", fmt.Errorf("sanitize path %s: %w", name, err)
	}

	return sanitized, nil
}

// claim reserves p, adding "~N" before extension when p is already used.
func (s *nameSanitizer) claim(p string) string {
	key := strings.ToLower(p)
	next, used := s.taken[key]
	if !used {
		s.taken[key] = 0
		return p
	}

	dir, file := path.Split(p)
	for n := max(next, 2); ; n++ {
		candidate := dir + withNumericSuffix(file, n)
		candidateKey := strings.ToLower(candidate)
		if _, exists := s.taken[candidateKey]; exists {
			continue
		}

		s.taken[candidateKey] = 0
		s.taken[key] = n + 1
		return candidate
	}
}

// sanitizeSegments joins sanitized non-empty segments; empty input becomes "_".
func sanitizeSegments(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}

		out = append(out, sanitizeSegment(part))
	}
	if len(out) == 0 {
		return "_"
	}

	return strings.Join(out, "/")
}

// sanitizeSegment makes one path segment valid on Windows and POSIX filesystems.
func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	reserved := isReservedDeviceName(segment)

	cleaned := strings.Map(func(r rune) rune {
		if isUnsafeControlCharRune(r) || strings.ContainsRune(forbiddenNameChars, r) {
			return '_'
		}

		return r
	}, segment)

	// Windows strips trailing dots and spaces, so "a." and "a" would clash.
	cleaned = strings.TrimRight(cleaned, ". ")
	if cleaned == "" {
		return "_"
	}

	if reserved || isReservedDeviceName(cleaned) {
		cleaned = "_" + cleaned
	}

	return shortenSegment(cleaned, maxSanitizedSegmentLen)
}

// isUnsafeControlCharRune reports control, format and replacement runes.
// U+FFFD shows up when a code page name is decoded with the wrong encoding.
func isUnsafeControlCharRune(r rune) bool {
	return unicode.IsControl(r) || unicode.In(r, unicode.Cf) || r == utf8.RuneError
}

// isReservedDeviceName reports whether name stem is a DOS device, as in "con.txt" or "AUX:".
func isReservedDeviceName(name string) bool {
	stem, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ".")
	stem = strings.TrimRight(stem, " :")
	_, ok := dosDevices[stem]
	return ok
}

// withNumericSuffix inserts "~N" before extension, as in "setup~2.ini".
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	suffix := "~" + strconv.Itoa(n) + ext
	base := strings.TrimSuffix(name, ext)

	return shortenSegment(base, max(maxSanitizedSegmentLen-len(suffix), 1)) + suffix
}

// shortenSegment cuts value to limit bytes on a rune boundary and appends
// a hash of the full value so distinct long names stay distinct.
func shortenSegment(value string, limit int) string {
	if len(value) <= limit {
		return value
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	tag := fmt.Sprintf("~%08x", h.Sum32())

	cut := limit - len(tag)
	if cut < 1 {
		cut = limit
		tag = ""
	}
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}

	return value[:cut] + tag
}
