// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// readGlobalHeader validates signature and skips reserved bytes of global header.
func readGlobalHeader(r io.Reader) error {
	var sig [signatureLen]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short signature", ErrTruncatedGlobalHeader)
		}

		return fmt.Errorf("read signature: %w", err)
	}

	if sig != signature {
		return fmt.Errorf("%w: got %q", ErrBadSignature, sig[:])
	}

	// Reserved block content is not validated.
	var reserved [globalReservedLen]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short reserved block", ErrTruncatedGlobalHeader)
		}

		return fmt.Errorf("read reserved block: %w", err)
	}

	return nil
}

// readEntryHeader fills buf with next entry header.
// It returns io.EOF when stream ends exactly at entry boundary, or when exactly
// trailerSize bytes remain and trailerSize is non-zero.
func readEntryHeader(r io.Reader, buf []byte, trailerSize int) error {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return nil
	case err == io.EOF:
		return io.EOF
	case err == io.ErrUnexpectedEOF:
		if trailerSize > 0 && n == trailerSize {
			return io.EOF
		}

		return fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, n, len(buf))
	default:
		return fmt.Errorf("read entry header: %w", err)
	}
}

// parseEntryHeader validates one raw entry header and returns filename bytes and payload size.
// Returned name aliases buf.
func parseEntryHeader(buf []byte, sizeLimit int64) ([]byte, int64, error) {
	if len(buf) != entryHeaderSize {
		return nil, 0, fmt.Errorf("%w: header length %d", ErrTruncatedHeader, len(buf))
	}

	if buf[sentinelOffset] != sentinelValue {
		return nil, 0, fmt.Errorf("%w: byte %d is %d, want %d",
			ErrUnexpectedSentinel, sentinelOffset, buf[sentinelOffset], sentinelValue)
	}

	nul := bytes.IndexByte(buf, 0)
	if nul < 0 {
		return nil, 0, ErrMissingNullTerminator
	}

	size := binary.LittleEndian.Uint64(buf[sizeOffset : sizeOffset+sizeFieldLen])
	if size > uint64(maxPayloadSize) {
		return buf[:nul], 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, size)
	}
	if sizeLimit > 0 && size > uint64(sizeLimit) {
		return buf[:nul], 0, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrPayloadTooLarge, size, sizeLimit)
	}

	return buf[:nul], int64(size), nil //nolint:gosec // bounded by maxPayloadSize check above
}

// entryError attaches entry position context to err.
func entryError(index int, name string, offset int64, err error) error {
	if name == "" {
		return fmt.Errorf("entry #%d at offset %d: %w", index, offset, err)
	}

	return fmt.Errorf("entry #%d %q at offset %d: %w", index, name, offset, err)
}
