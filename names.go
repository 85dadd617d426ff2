// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// nameEncodings maps accepted encoding names to decoders; nil means stored bytes as-is.
var nameEncodings = map[string]encoding.Encoding{
	"raw":          nil,
	"utf-8":        nil,
	"utf8":         nil,
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"cp866":        charmap.CodePage866,
	"cp1250":       charmap.Windows1250,
	"cp1251":       charmap.Windows1251,
	"cp1252":       charmap.Windows1252,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"cp932":        japanese.ShiftJIS,
}

// LookupNameEncoding resolves filename encoding by name (case-insensitive).
// Empty name, "raw" and "utf-8" return nil, which keeps stored bytes unchanged.
func LookupNameEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}

	enc, ok := nameEncodings[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownNameEncoding, name, strings.Join(NameEncodings(), ", "))
	}

	return enc, nil
}

// NameEncodings returns sorted list of accepted filename encoding names.
func NameEncodings() []string {
	names := make([]string, 0, len(nameEncodings))
	for name := range nameEncodings {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// decodeName converts stored filename bytes to string using enc.
func decodeName(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return string(raw), nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode entry name: %w", err)
	}

	return string(decoded), nil
}
