// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

/*
Package deshield extracts files from legacy InstallShield data archives.
The format is a forward-only stream: a 46-byte global header, then repeated
312-byte entry headers each followed by an obfuscated payload.
There is no entry count or end marker; the archive ends when an entry header
read finds the stream exhausted.

Entry payloads are de-obfuscated with a key derived from the stored filename.
For payload byte i the reader swaps nibbles, XORs with
key[(i%1024)%len(key)] and complements the result.

Format rules (summary):
  - global header starts with "InstallShield\x00\x07", the remaining
    31 reserved bytes are ignored;
  - entry header byte 260 must equal 6;
  - filename is NUL-terminated at the start of the entry header;
  - payload size is a little-endian uint64 at entry header offset 268;
  - a short read inside a header or payload is an error, never end of archive.

This package reads only; writing the format back is not supported.

# Reading

Iterate entries the same way as archive/tar:

	r, err := deshield.Open("data.z")
	if err != nil {
	    return err
	}
	defer r.Close()
	for {
	    hdr, err := r.Next()
	    if err == io.EOF {
	        break
	    }
	    if err != nil {
	        return err
	    }
	    data, err := r.ReadPayload()
	    if err != nil {
	        return err
	    }
	    _, _ = hdr, data
	}

Or walk decoded (name, content) pairs:

	err := deshield.WalkFile(ctx, "data.z", deshield.ReaderOptions{}, func(e deshield.EntryHeader, content []byte) error {
	    // persist content
	    return nil
	})

For metadata-only scans:

	entries, err := deshield.ListEntries("data.z")
	if err != nil {
	    return err
	}
	_ = entries

Legacy archives with code page filenames or a fixed trailer:

	enc, _ := deshield.LookupNameEncoding("cp1252")
	r, err := deshield.OpenWithOptions("data.z", deshield.ReaderOptions{
	    NameEncoding: enc,
	    TrailerSize:  deshield.LegacyTrailerSize,
	})

# Extracting

Extract all entries to a directory, optionally filtered with
github.com/woozymasta/pathrules rules:

	res, err := deshield.Extract(ctx, r, "out/", deshield.ExtractOptions{
	    Rules: deshield.ExcludeRules("*.tmp"),
	    OnEntryDone: func(e deshield.EntryHeader, written int64, outputPath string) {
	        // progress callback per written entry
	    },
	})
	_ = res.Extracted

Path sanitization is enabled by default during extraction.
Disable it explicitly when raw names are required:

	_, err := deshield.Extract(ctx, r, "out/", deshield.ExtractOptions{RawNames: true})

Custom destinations implement Sink and are driven by ExtractTo.
*/
package deshield
