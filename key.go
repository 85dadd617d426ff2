// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

package deshield

import "io"

// DeriveKey returns the deobfuscation key for stored filename bytes.
// Key byte i is name[i] XOR magic[i%4]; output length equals input length.
func DeriveKey(name []byte) []byte {
	key := make([]byte, len(name))
	for i := range name {
		key[i] = name[i] ^ keyMagic[i%len(keyMagic)]
	}

	return key
}

// DecodePayload de-obfuscates src into dst. pos is the payload position of src[0],
// so chunked callers keep key cycling aligned. dst and src may overlap exactly.
func DecodePayload(dst, src, key []byte, pos int64) error {
	if len(key) == 0 {
		return ErrEmptyFilenameKey
	}
	if len(dst) < len(src) {
		return io.ErrShortBuffer
	}

	keyLen := int64(len(key))
	for i, b := range src {
		dst[i] = decodeByte(b, key[keyIndex(pos+int64(i), keyLen)])
	}

	return nil
}

// keyIndex maps payload position to key index.
func keyIndex(pos int64, keyLen int64) int64 {
	return (pos % keyBlockSize) % keyLen
}

// decodeByte swaps nibbles, XORs with key byte, then complements.
func decodeByte(b byte, k byte) byte {
	return ^(swapNibble(b) ^ k)
}

// swapNibble returns 0xRQ for 0xQR.
func swapNibble(b byte) byte {
	return b<<4 | b>>4
}
