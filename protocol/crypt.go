/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// aesBlockSize is the cipher's block size (spec.md section 4.2, "Bytes"
// coercion: "padded or truncated to the cipher's block size"). The
// cryptographic primitive itself (a block cipher in CBC mode with PKCS7
// padding) is out of scope per spec.md section 1; this file only
// specifies how it is composed with the file stream. crypto/aes+cipher
// is used directly rather than an ecosystem wrapper: no library in the
// retrieved pack composes a generic block cipher with a streaming file
// sink, and the standard library is the canonical way to drive AES-CBC
// in Go (see DESIGN.md).
const aesBlockSize = aes.BlockSize // 16

var errShortCiphertext = errors.New("tracekit/protocol: ciphertext shorter than one block")

// normalizeKey pads raw with zero bytes or truncates it to exactly
// aesBlockSize bytes (spec.md section 4.6, "key normalization").
func normalizeKey(raw []byte) []byte {
	key := make([]byte, aesBlockSize)
	copy(key, raw)
	return key
}

// newRandomIV generates a fresh 16-byte IV (spec.md section 4.6: "a fixed
// 16-byte random IV is written as the first bytes after the file header").
func newRandomIV() ([]byte, error) {
	iv := make([]byte, aesBlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// encryptStream wraps an io.Writer, encrypting everything written to it
// in CBC mode with PKCS7 padding applied only at Close (spec.md section
// 4.6, "Encryption stream"). Given a fixed key and IV, its output is
// byte-identical across runs (spec.md invariant 7).
type encryptStream struct {
	w    io.Writer
	mode cipher.BlockMode
	buf  []byte // bytes not yet forming a full block
}

func newEncryptStream(w io.Writer, key, iv []byte) (*encryptStream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &encryptStream{w: w, mode: cipher.NewCBCEncrypter(block, iv)}, nil
}

func (e *encryptStream) Write(p []byte) (int, error) {
	e.buf = append(e.buf, p...)
	n := len(e.buf) - (len(e.buf) % aesBlockSize)
	if n > 0 {
		ct := make([]byte, n)
		e.mode.CryptBlocks(ct, e.buf[:n])
		if _, err := e.w.Write(ct); err != nil {
			return 0, err
		}
		e.buf = append(e.buf[:0], e.buf[n:]...)
	}
	return len(p), nil
}

// Close pads any remaining bytes with PKCS7 and writes the final block
// (spec.md section 4.6, "padded per PKCS7 on final flush").
func (e *encryptStream) Close() error {
	padded := pkcs7Pad(e.buf, aesBlockSize)
	ct := make([]byte, len(padded))
	e.mode.CryptBlocks(ct, padded)
	_, err := e.w.Write(ct)
	e.buf = nil
	return err
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte(nil), data...), padding...)
}

// decryptStream reverses encryptStream given the same key/IV; used by
// tests exercising the round-trip invariant (spec.md invariant 7).
func decryptStream(ciphertext, key, iv []byte) ([]byte, error) {
	if len(ciphertext)%aesBlockSize != 0 || len(ciphertext) == 0 {
		return nil, errShortCiphertext
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	mode := cipher.NewCBCDecrypter(block, iv)
	pt := make([]byte, len(ciphertext))
	mode.CryptBlocks(pt, ciphertext)
	return pkcs7Unpad(pt)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("tracekit/protocol: empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, errors.New("tracekit/protocol: invalid PKCS7 padding")
	}
	return data[:len(data)-padLen], nil
}
