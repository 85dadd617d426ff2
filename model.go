// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"log/slog"
	"math"

	"github.com/woozymasta/pathrules"
	"golang.org/x/text/encoding"
)

// Internal binary layout and format limits.
const (
	signatureLen      = 15   // "InstallShield\x00\x07"
	globalReservedLen = 31   // ignored bytes after signature
	globalHeaderSize  = 46   // signature + reserved
	entryHeaderSize   = 312  // fixed per-entry header
	sentinelOffset    = 260  // sentinel byte position inside entry header
	sentinelValue     = 6    // required sentinel value
	sizeOffset        = 268  // little-endian uint64 payload size
	sizeFieldLen      = 8    // payload size field length
	keyBlockSize      = 1024 // key index wraps per block before key length
	maxPayloadSize    = math.MaxInt
)

// signature is the fixed archive magic.
var signature = [signatureLen]byte{
	'I', 'n', 's', 't', 'a', 'l', 'l', 'S', 'h', 'i', 'e', 'l', 'd', 0x00, 0x07,
}

// keyMagic is cycled over filename bytes to derive entry keys.
var keyMagic = [4]byte{0x13, 0x35, 0x86, 0x07}

// LegacyTrailerSize is the trailing byte count some archives carry after the last entry.
const LegacyTrailerSize = 7

// DefaultCLIMaxPayloadSize mirrors the signed 32-bit buffer limit of legacy extractors.
const DefaultCLIMaxPayloadSize = math.MaxInt32

// EntryHeader describes a single framed archive entry.
type EntryHeader struct {
	// Name is the entry filename, decoded with ReaderOptions.NameEncoding when set.
	Name string `json:"name" yaml:"name"`
	// RawName is filename bytes as stored; the deobfuscation key is derived from it.
	RawName []byte `json:"-" yaml:"-"`
	// Size is declared payload size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Index is zero-based entry position in archive.
	Index int `json:"index" yaml:"index"`
	// HeaderOffset is absolute stream offset of entry header.
	HeaderOffset int64 `json:"header_offset" yaml:"header_offset"`
	// DataOffset is absolute stream offset of first payload byte.
	DataOffset int64 `json:"data_offset" yaml:"data_offset"`
}

// ReaderOptions configures archive framing behavior.
type ReaderOptions struct {
	// NameEncoding decodes stored filenames; nil keeps stored bytes as-is.
	NameEncoding encoding.Encoding `json:"-" yaml:"-"`
	// MaxPayloadSize rejects entries declaring larger payloads; zero means addressable limit only.
	MaxPayloadSize int64 `json:"max_payload_size,omitempty" yaml:"max_payload_size,omitempty"`
	// TrailerSize is count of trailing bytes accepted as archive end at an entry boundary.
	// Zero means only a clean zero-byte read ends the archive.
	TrailerSize int `json:"trailer_size,omitempty" yaml:"trailer_size,omitempty"`
	// BufferSize is input buffered reader size in bytes.
	BufferSize int `json:"buffer_size,omitempty" yaml:"buffer_size,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryHeader, written int64, outputPath string) `json:"-" yaml:"-"`
	// Logger receives per-entry progress records; nil discards them.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Rules select entries by path; empty set extracts every entry.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control entry rule matching.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
	// RawNames disables default path sanitization during extract.
	// When false (default), extract rewrites names to filesystem-safe output paths.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// ExtractResult contains extraction statistics.
type ExtractResult struct {
	// Entries is number of entries framed in archive.
	Entries int `json:"entries" yaml:"entries"`
	// Extracted is number of entries written to disk.
	Extracted int `json:"extracted" yaml:"extracted"`
	// Skipped is number of entries excluded by rules.
	Skipped int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// BytesWritten is total payload bytes written to disk.
	BytesWritten int64 `json:"bytes_written" yaml:"bytes_written"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeOverwriteSmart rewrites files in place and truncates only when existing file is larger.
	ExtractFileModeOverwriteSmart ExtractFileMode = "overwrite_smart"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// DefaultReadBuffer is default input buffer size.
const DefaultReadBuffer = 64 * 1024

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.BufferSize < entryHeaderSize {
		opts.BufferSize = DefaultReadBuffer
	}

	if opts.MaxPayloadSize < 0 {
		opts.MaxPayloadSize = 0
	}

	if opts.TrailerSize < 0 || opts.TrailerSize >= entryHeaderSize {
		opts.TrailerSize = 0
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.MatcherOptions == (pathrules.MatcherOptions{}) {
		opts.MatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		}
	}

	if opts.MatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.MatcherOptions.DefaultAction = pathrules.ActionInclude
	}
}
