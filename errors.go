// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import "errors"

// Sentinel errors for archive operations. Use errors.Is in callers.
// Clean end of archive is reported as io.EOF and is not part of this set.
var (
	// ErrBadSignature means the stream does not start with the InstallShield signature.
	ErrBadSignature = errors.New("invalid archive: bad signature")
	// ErrTruncatedGlobalHeader means the stream ended inside the global header.
	ErrTruncatedGlobalHeader = errors.New("invalid archive: truncated global header")
	// ErrTruncatedHeader means the stream ended inside an entry header.
	ErrTruncatedHeader = errors.New("truncated entry header")
	// ErrUnexpectedSentinel means the entry header sentinel byte is not 6.
	ErrUnexpectedSentinel = errors.New("unexpected entry header sentinel")
	// ErrMissingNullTerminator means the entry header has no zero byte after filename.
	ErrMissingNullTerminator = errors.New("entry filename is not null-terminated")
	// ErrPayloadTooLarge means the declared payload size does not fit an addressable buffer.
	ErrPayloadTooLarge = errors.New("entry payload size too large")
	// ErrTruncatedPayload means the stream ended inside an entry payload.
	ErrTruncatedPayload = errors.New("truncated entry payload")
	// ErrEmptyFilenameKey means the entry filename is empty and yields no key.
	ErrEmptyFilenameKey = errors.New("empty entry filename: no deobfuscation key")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilSink means the extraction sink is nil.
	ErrNilSink = errors.New("sink is nil")
	// ErrNoEntry means payload read was requested before Next.
	ErrNoEntry = errors.New("no current entry: call Next first")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrUnknownNameEncoding means the requested filename encoding is not supported.
	ErrUnknownNameEncoding = errors.New("unknown filename encoding")
	// ErrInvalidFilterRules means one or more entry selection rules are invalid.
	ErrInvalidFilterRules = errors.New("invalid entry filter rules")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrExtractPathOutsideRoot means resolved extraction path escapes destination root.
	ErrExtractPathOutsideRoot = errors.New("extract path escapes destination root")
)
