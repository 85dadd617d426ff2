package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/deshield"
)

type fixtureEntry struct {
	name string
	data string
}

// writeFixture writes obfuscated archive with entries and returns its path.
func writeFixture(t *testing.T, entries ...fixtureEntry) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("InstallShield\x00\x07")
	buf.Write(make([]byte, 31))
	for _, e := range entries {
		hdr := make([]byte, 312)
		copy(hdr, e.name)
		hdr[260] = 6
		binary.LittleEndian.PutUint64(hdr[268:], uint64(len(e.data)))
		buf.Write(hdr)

		key := deshield.DeriveKey([]byte(e.name))
		for i := 0; i < len(e.data); i++ {
			b := ^e.data[i] ^ key[(i%1024)%len(key)]
			buf.WriteByte(b<<4 | b>>4)
		}
	}

	path := filepath.Join(t.TempDir(), "data1.z")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Extract(t *testing.T) {
	t.Parallel()

	archive := writeFixture(t,
		fixtureEntry{name: "readme.txt", data: "read me"},
		fixtureEntry{name: `program\setup.ini`, data: "[setup]"},
	)
	out := t.TempDir()

	code, _, stderr := runCLI(t, "-o", out, archive)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "msg=extracting")
	assert.Contains(t, stderr, "extracted=2")

	got, err := os.ReadFile(filepath.Join(out, "program", "setup.ini"))
	require.NoError(t, err)
	assert.Equal(t, "[setup]", string(got))
}

func TestRun_ExtractIncludeOnly(t *testing.T) {
	t.Parallel()

	archive := writeFixture(t,
		fixtureEntry{name: "readme.txt", data: "read me"},
		fixtureEntry{name: "setup.exe", data: "MZ"},
	)
	out := t.TempDir()

	code, _, stderr := runCLI(t, "-o", out, "-include", "*.exe", "-v", archive)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "msg=\"skip entry\"")

	_, err := os.Stat(filepath.Join(out, "readme.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(out, "setup.exe"))
}

func TestRun_List(t *testing.T) {
	t.Parallel()

	archive := writeFixture(t,
		fixtureEntry{name: "a.txt", data: "hello"},
		fixtureEntry{name: "b.tmp", data: "hi"},
	)

	code, stdout, stderr := runCLI(t, "-list", "-exclude", "*.tmp", archive)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "0\t5\ta.txt\n", stdout)

	code, stdout, stderr = runCLI(t, "-list", "-json", archive)
	require.Equal(t, exitOK, code, stderr)

	var entries []deshield.EntryHeader
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "b.tmp", entries[1].Name)
	assert.Equal(t, int64(2), entries[1].Size)
}

func TestRun_CorruptArchiveFails(t *testing.T) {
	t.Parallel()

	archive := writeFixture(t, fixtureEntry{name: "a.txt", data: "hello"})
	data, err := os.ReadFile(archive)
	require.NoError(t, err)
	data[46+260] = 5
	require.NoError(t, os.WriteFile(archive, data, 0o600))

	code, _, stderr := runCLI(t, "-o", t.TempDir(), archive)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "unexpected entry header sentinel")
	assert.Contains(t, stderr, "entry #0")
}

func TestRun_TrailerFlag(t *testing.T) {
	t.Parallel()

	archive := writeFixture(t, fixtureEntry{name: "a.txt", data: "hello"})
	f, err := os.OpenFile(archive, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, deshield.LegacyTrailerSize))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	code, _, _ := runCLI(t, "-list", archive)
	assert.Equal(t, exitError, code)

	code, stdout, stderr := runCLI(t, "-list", "-trailer", "7", archive)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "0\t5\ta.txt\n", stdout)
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no archive", args: nil, want: "exactly one archive path"},
		{name: "two archives", args: []string{"a.z", "b.z"}, want: "exactly one archive path"},
		{name: "bad mode", args: []string{"-mode", "append", "a.z"}, want: "unknown file mode"},
		{name: "bad encoding", args: []string{"-name-encoding", "ebcdic", "a.z"}, want: "unknown filename encoding"},
		{name: "negative trailer", args: []string{"-trailer", "-1", "a.z"}, want: "invalid trailer size"},
		{name: "unknown flag", args: []string{"-nope", "a.z"}, want: "flag provided but not defined"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := runCLI(t, tc.args...)
			assert.Equal(t, exitUsage, code)
			assert.True(t, strings.Contains(stderr, tc.want), "stderr=%q", stderr)
		})
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI(t, "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "usage: deshield")
}
