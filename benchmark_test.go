package deshield

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 20000
	benchPayloadSize       = 256 * 1024
)

var (
	// benchListSink prevents compiler elimination in list benchmark loops.
	benchListSink int
)

func BenchmarkDecodePayload(b *testing.B) {
	name := []byte(`program files\setup\data1.cab`)
	key := DeriveKey(name)
	src := obfuscatePayload(name, bytes.Repeat([]byte("payload!"), benchPayloadSize/8))
	dst := make([]byte, len(src))

	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := DecodePayload(dst, src, key, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadArchive(b *testing.B) {
	data := buildArchive(b, createBenchEntries(benchDefaultEntries, 4096))

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := NewReader(bytes.NewReader(data), ReaderOptions{})
		if err != nil {
			b.Fatal(err)
		}

		if err := Walk(context.Background(), r, func(EntryHeader, []byte) error { return nil }); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkListLargeIndex(b *testing.B) {
	data := buildArchive(b, createBenchEntries(benchLargeIndexEntries, 96))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries, err := ListEntriesFromReader(newTestReader(b, data))
		if err != nil {
			b.Fatal(err)
		}

		total := 0
		for _, e := range entries {
			total += len(e.Name)
			total += int(e.Size)
		}

		benchListSink = total
	}
}

func BenchmarkExtract(b *testing.B) {
	benchmarkExtractWithSanitize(b, false)
}

func BenchmarkExtractSanitize(b *testing.B) {
	benchmarkExtractWithSanitize(b, true)
}

// benchmarkExtractWithSanitize benchmarks full extract flow with optional path sanitization.
func benchmarkExtractWithSanitize(b *testing.B, sanitizeNames bool) {
	path := writeArchive(b, createBenchEntries(benchDefaultEntries, 512))
	dir := b.TempDir()
	opts := ExtractOptions{RawNames: !sanitizeNames}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := filepath.Join(dir, "ext", fmt.Sprintf("run%d", i))
		_ = os.MkdirAll(out, 0o755)
		if _, err := ExtractFile(context.Background(), path, out, ReaderOptions{}, opts); err != nil {
			b.Fatal(err)
		}
	}
}

// createBenchEntries returns deterministic entries with fixed-size payloads.
func createBenchEntries(numEntries int, size int) []manualEntry {
	payload := bytes.Repeat([]byte("x"), size)
	entries := make([]manualEntry, numEntries)
	for i := range entries {
		entries[i] = manualEntry{name: benchmarkLargePath(i), data: payload}
	}

	return entries
}

// benchmarkLargePath returns deterministic long-ish backslash paths for index-heavy benchmarks.
func benchmarkLargePath(i int) string {
	exts := [...]string{"exe", "dll", "ini", "hlp", "txt", "cab", "inf", "dat", "bmp", "ico", "wav"}
	ext := exts[i%len(exts)]

	return fmt.Sprintf(`grp_%03d\pack_%03d\entry_%05d_%08x.%s`, i%173, (i/173)%211, i, uint32(i*2654435761), ext)
}
