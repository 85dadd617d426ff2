// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// extractCopyBufferSize defines buffer size for file copy during extraction.
const extractCopyBufferSize = 64 * 1024

// DirSink writes entries as files under a destination root directory.
// It is used sequentially by one extraction loop.
type DirSink struct {
	sanitizer *nameSanitizer
	madeDirs  map[string]struct{}
	root      string
	lastPath  string
	fileMode  ExtractFileMode
	copyBuf   []byte
	rawNames  bool
}

// NewDirSink creates dstDir when missing and returns sink writing into it.
// With rawNames false, entry names are rewritten to filesystem-safe unique paths.
func NewDirSink(dstDir string, fileMode ExtractFileMode, rawNames bool) (*DirSink, error) {
	if fileMode == "" {
		fileMode = ExtractFileModeAuto
	}

	rootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(rootAbs, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &DirSink{
		sanitizer: newNameSanitizer(),
		madeDirs:  make(map[string]struct{}),
		root:      rootAbs,
		fileMode:  fileMode,
		copyBuf:   make([]byte, extractCopyBufferSize),
		rawNames:  rawNames,
	}, nil
}

// WriteEntry writes content to file resolved from entry name.
// Partial output is left on disk when content fails mid-stream.
func (s *DirSink) WriteEntry(ctx context.Context, entry EntryHeader, content io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	outPath, err := s.resolve(entry.Name)
	if err != nil {
		return 0, err
	}
	s.lastPath = outPath

	if err := s.ensureDir(filepath.Dir(outPath)); err != nil {
		return 0, err
	}

	file, needsTruncate, err := openExtractFile(outPath, s.fileMode, entry.Size)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", entry.Name, err)
	}

	written, copyErr := copyExtractData(file, content, s.copyBuf)
	if copyErr == nil && needsTruncate {
		if truncErr := file.Truncate(written); truncErr != nil {
			_ = file.Close()
			return written, fmt.Errorf("truncate %s: %w", entry.Name, truncErr)
		}
	}

	closeErr := file.Close()
	if copyErr != nil {
		return written, fmt.Errorf("write %s: %w", entry.Name, copyErr)
	}

	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", entry.Name, closeErr)
	}

	return written, nil
}

// Root returns absolute destination root.
func (s *DirSink) Root() string {
	return s.root
}

// lastOutputPath returns path of most recently written entry.
func (s *DirSink) lastOutputPath() string {
	return s.lastPath
}

// resolve maps entry name to absolute output path inside root.
func (s *DirSink) resolve(name string) (string, error) {
	var relPath string
	if s.rawNames {
		normalizedPath, err := normalizeExtractEntryPath(name)
		if err != nil {
			return "", fmt.Errorf("normalize entry path %s: %w", name, err)
		}

		relPath = normalizedPath
	} else {
		sanitized, err := s.sanitizer.Sanitize(name)
		if err != nil {
			return "", err
		}

		relPath = sanitized
	}

	outPath := filepath.Join(s.root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(s.root, outPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrExtractPathOutsideRoot, name)
	}

	return outPath, nil
}

// ensureDir creates parent directory once per extraction.
func (s *DirSink) ensureDir(dirPath string) error {
	if dirPath == s.root {
		return nil
	}

	// Exact path: "Data" and "data" are distinct on case-sensitive filesystems.
	if _, exists := s.madeDirs[dirPath]; exists {
		return nil
	}

	if err := os.MkdirAll(dirPath, 0o750); err != nil {
		return fmt.Errorf("create output directory %s: %w", dirPath, err)
	}

	s.madeDirs[dirPath] = struct{}{}
	return nil
}

// outputPather is implemented by sinks that report written file paths.
type outputPather interface {
	lastOutputPath() string
}

// Extract writes every selected entry of r to files under dstDir.
// Entries are processed in stream order; the first error stops extraction.
func Extract(ctx context.Context, r *Reader, dstDir string, opts ExtractOptions) (ExtractResult, error) {
	if r == nil {
		return ExtractResult{}, ErrNilReader
	}

	sink, err := NewDirSink(dstDir, opts.FileMode, opts.RawNames)
	if err != nil {
		return ExtractResult{}, err
	}

	return ExtractTo(ctx, r, sink, opts)
}

// ExtractFile opens archive by path and extracts it to dstDir.
func ExtractFile(ctx context.Context, path string, dstDir string, readerOpts ReaderOptions, opts ExtractOptions) (ExtractResult, error) {
	r, err := OpenWithOptions(path, readerOpts)
	if err != nil {
		return ExtractResult{}, err
	}
	defer func() { _ = r.Close() }()

	return Extract(ctx, r, dstDir, opts)
}

// ExtractTo streams every selected entry of r into sink.
// Entries excluded by rules are consumed without decoding.
func ExtractTo(ctx context.Context, r *Reader, sink Sink, opts ExtractOptions) (ExtractResult, error) {
	var res ExtractResult
	if r == nil {
		return res, ErrNilReader
	}
	if sink == nil {
		return res, ErrNilSink
	}

	opts.applyDefaults()

	matcher, err := newEntryMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return res, err
	}

	pather, _ := sink.(outputPather)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		hdr, err := r.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}

		res.Entries++
		if !matcher.Match(hdr.Name) {
			res.Skipped++
			opts.Logger.Debug("skip entry",
				slog.Int("index", hdr.Index),
				slog.String("name", hdr.Name))
			continue
		}

		opts.Logger.Info("extracting",
			slog.Int("index", hdr.Index),
			slog.String("name", hdr.Name),
			slog.Int64("size", hdr.Size))

		written, err := sink.WriteEntry(ctx, *hdr, r)
		res.BytesWritten += written
		if err != nil {
			return res, err
		}
		if written != hdr.Size {
			return res, entryError(hdr.Index, hdr.Name, hdr.HeaderOffset,
				fmt.Errorf("%w: sink stored %d of %d bytes", io.ErrShortWrite, written, hdr.Size))
		}

		res.Extracted++
		outputPath := ""
		if pather != nil {
			outputPath = pather.lastOutputPath()
		}

		opts.Logger.Debug("entry done",
			slog.String("name", hdr.Name),
			slog.String("path", outputPath),
			slog.Int64("written", written))

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(*hdr, written, outputPath)
		}
	}
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode, expectedSize int64) (*os.File, bool, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return file, false, nil
		}

		if !os.IsExist(err) {
			return nil, false, err
		}

		file, truncErr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		return file, false, truncErr
	case ExtractFileModeOverwriteSmart:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o600)
		if err != nil {
			return nil, false, err
		}

		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return nil, false, err
		}

		needsTruncate := info.Size() > expectedSize
		return file, needsTruncate, nil
	case ExtractFileModeTruncate:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		return file, false, err
	case ExtractFileModeCreateOnly:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		return file, false, err
	default:
		return nil, false, fmt.Errorf("unknown extract file mode %q", mode)
	}
}

// copyExtractData copies one entry stream to output file using fixed buffer.
func copyExtractData(dst *os.File, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, io.ErrShortBuffer
	}

	var total int64
	for {
		readN, readErr := src.Read(buf)
		if readN > 0 {
			writeN, writeErr := dst.Write(buf[:readN])
			total += int64(writeN)

			if writeErr != nil {
				return total, writeErr
			}

			if writeN != readN {
				return total, io.ErrShortWrite
			}
		}

		if readErr == nil {
			continue
		}

		if readErr == io.EOF {
			return total, nil
		}

		return total, readErr
	}
}
