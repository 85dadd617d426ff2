// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"io"
)

// ListEntries opens an archive and returns entry metadata without decoding payloads.
func ListEntries(path string) ([]EntryHeader, error) {
	return ListEntriesWithOptions(path, ReaderOptions{})
}

// ListEntriesWithOptions opens an archive and returns entry metadata using reader options.
func ListEntriesWithOptions(path string, opts ReaderOptions) ([]EntryHeader, error) {
	r, err := OpenWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return ListEntriesFromReader(r)
}

// ListEntriesFromReader frames all remaining entries of r, discarding payload bytes.
// Structural errors abort listing; entries framed before the error are returned with it.
func ListEntriesFromReader(r *Reader) ([]EntryHeader, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	entries := make([]EntryHeader, 0, 16)
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}

		entries = append(entries, *hdr)
	}
}
