// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// readPayloadPrealloc caps up-front buffer allocation in ReadPayload.
const readPayloadPrealloc = 16 * 1024 * 1024

// Reader provides sequential access to entries of an InstallShield archive stream.
// It is not safe for concurrent use; entries are framed strictly in stream order.
type Reader struct {
	// br is the buffered forward-only input.
	br *bufio.Reader
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// cur is current entry header; nil before first Next.
	cur *EntryHeader
	// err is sticky terminal state (io.EOF or first fatal error).
	err error
	// key is deobfuscation key of current entry.
	key []byte
	// opts holds reader options with defaults applied.
	opts ReaderOptions
	// remaining is unread payload byte count of current entry.
	remaining int64
	// pos is payload position of next decoded byte; resets per entry.
	pos int64
	// offset is absolute stream offset of next unread byte.
	offset int64
	// next is index assigned to next framed entry.
	next int
	// mu guards closed state and close operation.
	mu sync.Mutex
	// header is a reusable entry header buffer.
	header [entryHeaderSize]byte
	// closed reports whether Close was already called.
	closed bool
}

// Open opens archive file by path and validates global header.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens archive file by path and validates global header using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	r, err := NewReader(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReader validates global header from src and returns reader positioned at first entry.
func NewReader(src io.Reader, opts ReaderOptions) (*Reader, error) {
	if src == nil {
		return nil, ErrNilReader
	}

	opts.applyDefaults()

	r := &Reader{
		br:   bufio.NewReaderSize(src, opts.BufferSize),
		opts: opts,
	}
	if err := readGlobalHeader(r.br); err != nil {
		return nil, err
	}

	r.offset = globalHeaderSize
	return r, nil
}

// Next advances to next entry, discarding any unread payload of current entry.
// It returns io.EOF when archive ends cleanly at an entry boundary.
// After any other error the reader is unusable and returns the same error.
func (r *Reader) Next() (*EntryHeader, error) {
	if r == nil || r.br == nil {
		return nil, ErrNilReader
	}
	if r.isClosed() {
		return nil, ErrClosed
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := r.skipRemaining(); err != nil {
		r.err = err
		return nil, err
	}

	index := r.next
	headerOffset := r.offset
	if err := readEntryHeader(r.br, r.header[:], r.opts.TrailerSize); err != nil {
		if err == io.EOF {
			r.cur = nil
			r.err = io.EOF
			return nil, io.EOF
		}

		r.err = entryError(index, "", headerOffset, err)
		return nil, r.err
	}

	r.offset += entryHeaderSize
	rawName, size, err := parseEntryHeader(r.header[:], r.opts.MaxPayloadSize)
	if err != nil {
		r.err = entryError(index, string(rawName), headerOffset, err)
		return nil, r.err
	}
	if len(rawName) == 0 {
		r.err = entryError(index, "", headerOffset, ErrEmptyFilenameKey)
		return nil, r.err
	}

	raw := bytes.Clone(rawName)
	name, err := decodeName(raw, r.opts.NameEncoding)
	if err != nil {
		r.err = entryError(index, string(raw), headerOffset, err)
		return nil, r.err
	}

	r.next++
	r.cur = &EntryHeader{
		Name:         name,
		RawName:      raw,
		Size:         size,
		Index:        index,
		HeaderOffset: headerOffset,
		DataOffset:   r.offset,
	}
	r.key = DeriveKey(raw)
	r.remaining = size
	r.pos = 0

	hdr := *r.cur
	return &hdr, nil
}

// Read reads de-obfuscated payload of current entry.
// It returns io.EOF after exactly Size bytes of the entry.
func (r *Reader) Read(p []byte) (int, error) {
	if r == nil || r.br == nil {
		return 0, ErrNilReader
	}
	if r.isClosed() {
		return 0, ErrClosed
	}
	if r.err != nil {
		return 0, r.err
	}
	if r.cur == nil {
		return 0, ErrNoEntry
	}
	if r.remaining == 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}

	n, err := r.br.Read(p)
	if n > 0 {
		if decodeErr := DecodePayload(p[:n], p[:n], r.key, r.pos); decodeErr != nil {
			r.err = r.currentEntryError(decodeErr)
			return 0, r.err
		}

		r.pos += int64(n)
		r.remaining -= int64(n)
		r.offset += int64(n)
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			if r.remaining == 0 {
				return n, nil
			}

			err = fmt.Errorf("%w: %d of %d bytes missing", ErrTruncatedPayload, r.remaining, r.cur.Size)
		} else {
			err = fmt.Errorf("read payload: %w", err)
		}

		r.err = r.currentEntryError(err)
		return n, r.err
	}

	return n, nil
}

// ReadPayload reads and de-obfuscates the full remaining payload of current entry.
func (r *Reader) ReadPayload() ([]byte, error) {
	if r == nil || r.br == nil {
		return nil, ErrNilReader
	}
	if r.cur == nil {
		if r.err != nil {
			return nil, r.err
		}

		return nil, ErrNoEntry
	}

	buf := bytes.NewBuffer(make([]byte, 0, min(r.remaining, readPayloadPrealloc)))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// Offset returns absolute stream offset of next unread byte.
func (r *Reader) Offset() int64 {
	if r == nil {
		return 0
	}

	return r.offset
}

// skipRemaining discards unread payload bytes of current entry.
func (r *Reader) skipRemaining() error {
	for r.remaining > 0 {
		chunk := int(min(r.remaining, int64(r.opts.BufferSize)))
		n, err := r.br.Discard(chunk)
		r.remaining -= int64(n)
		r.offset += int64(n)
		r.pos += int64(n)

		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %d of %d bytes missing", ErrTruncatedPayload, r.remaining, r.cur.Size)
			} else {
				err = fmt.Errorf("skip payload: %w", err)
			}

			return r.currentEntryError(err)
		}
	}

	return nil
}

// currentEntryError wraps err with current entry context.
func (r *Reader) currentEntryError(err error) error {
	if r.cur == nil {
		return err
	}

	return entryError(r.cur.Index, r.cur.Name, r.cur.HeaderOffset, err)
}

// isClosed reports whether Close was already called.
func (r *Reader) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}
