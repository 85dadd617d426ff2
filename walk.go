// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"context"
	"io"
)

// WalkFunc receives one de-obfuscated entry. Returning error stops the walk.
type WalkFunc func(entry EntryHeader, content []byte) error

// Sink persists extracted entry content. Implementations choose destination from entry name.
type Sink interface {
	// WriteEntry consumes content fully and returns number of bytes stored.
	WriteEntry(ctx context.Context, entry EntryHeader, content io.Reader) (int64, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, entry EntryHeader, content io.Reader) (int64, error)

// WriteEntry calls f.
func (f SinkFunc) WriteEntry(ctx context.Context, entry EntryHeader, content io.Reader) (int64, error) {
	return f(ctx, entry, content)
}

// Walk reads entries in stream order and passes each decoded payload to fn.
// It returns nil on clean end of archive and the first error otherwise.
// Context is checked between entries only.
func Walk(ctx context.Context, r *Reader, fn WalkFunc) error {
	if r == nil {
		return ErrNilReader
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		content, err := r.ReadPayload()
		if err != nil {
			return err
		}

		if err := fn(*hdr, content); err != nil {
			return err
		}
	}
}

// WalkFile opens archive by path and walks it with fn.
func WalkFile(ctx context.Context, path string, opts ReaderOptions, fn WalkFunc) error {
	r, err := OpenWithOptions(path, opts)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	return Walk(ctx, r, fn)
}
