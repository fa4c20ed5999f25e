/*
NAME
  seal.go

DESCRIPTION
  seal.go implements the cryptographic unsealer: optional FEC-trailer
  stripping followed by authenticated symmetric decryption, trying
  ChaCha20-Poly1305 (the canonical sender format) and falling back to
  XSalsa20-Poly1305 (NaCl secretbox) for legacy compatibility.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package seal authenticates and decrypts the byte payload recovered by
// the link-layer extractor. It never returns partial plaintext on a
// verification failure.
package seal

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/secretbox"
)

// DefaultKeyASCII is the insecure, fixed preshared key used unless the
// caller overrides it with set_key. It is retained only to reproduce
// reference-compatible decryption during testing (spec.md §4.4, §9).
const DefaultKeyASCII = "01234567890123456789012345678901"

const (
	chachaNonceLen    = chacha20poly1305.NonceSize // 12
	chachaTagLen      = 16
	secretboxNonceLen = 24
	fecParityLen      = 32
)

// ErrCorruptData indicates the blob, after any FEC stripping, is too
// short to hold a nonce and authentication tag for either recognized
// cipher.
var ErrCorruptData = errors.New("seal: blob too short for nonce and tag")

// ErrAuthFailure indicates AEAD tag verification failed for every
// recognized cipher. No partial plaintext is ever returned alongside
// this error.
var ErrAuthFailure = errors.New("seal: authentication failed")

// Report records which cipher matched and whether a trailing FEC
// parity block was stripped, for diagnostic logging only. It is never
// exposed to the message consumer.
type Report struct {
	Cipher      string
	FECStripped bool
}

// DefaultKey returns the 32-byte key derived from DefaultKeyASCII.
func DefaultKey() [32]byte {
	var k [32]byte
	copy(k[:], DefaultKeyASCII)
	return k
}

// Unseal authenticates and decrypts blob with key, trying the blob
// as-is and, if that fails and the blob is long enough, with the
// trailing 32 bytes stripped as possible Reed-Solomon parity (spec.md
// §4.4). Within each candidate it tries ChaCha20-Poly1305 then
// secretbox, in that order.
func Unseal(blob []byte, key [32]byte) ([]byte, Report, error) {
	candidates := []struct {
		data     []byte
		stripped bool
	}{{data: blob, stripped: false}}

	if len(blob) > fecParityLen {
		candidates = append(candidates, struct {
			data     []byte
			stripped bool
		}{data: blob[:len(blob)-fecParityLen], stripped: true})
	}

	tooShortForAny := true
	for _, c := range candidates {
		if len(c.data) >= chachaNonceLen+chachaTagLen || len(c.data) >= secretboxNonceLen+secretbox.Overhead {
			tooShortForAny = false
		}

		if pt, ok := tryChaCha(c.data, key); ok {
			return pt, Report{Cipher: "chacha20poly1305", FECStripped: c.stripped}, nil
		}
		if pt, ok := trySecretbox(c.data, key); ok {
			return pt, Report{Cipher: "secretbox", FECStripped: c.stripped}, nil
		}
	}

	if tooShortForAny {
		return nil, Report{}, ErrCorruptData
	}
	return nil, Report{}, ErrAuthFailure
}

func tryChaCha(data []byte, key [32]byte) ([]byte, bool) {
	if len(data) < chachaNonceLen+chachaTagLen {
		return nil, false
	}
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, false
	}
	nonce := data[:chachaNonceLen]
	ciphertext := data[chachaNonceLen:]
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, false
	}
	return pt, true
}

// trySecretbox tries the 24-byte-nonce secretbox fallback. If the blob
// only has 12 nonce bytes' worth of header (the ChaCha20 layout), those
// are left-zero-padded out to 24, per spec.md §4.4.
func trySecretbox(data []byte, key [32]byte) ([]byte, bool) {
	if len(data) >= secretboxNonceLen+secretbox.Overhead {
		var nonce [24]byte
		copy(nonce[:], data[:secretboxNonceLen])
		ciphertext := data[secretboxNonceLen:]
		pt, ok := secretbox.Open(nil, ciphertext, &nonce, &key)
		if ok {
			return pt, true
		}
	}

	if len(data) >= chachaNonceLen+secretbox.Overhead {
		var nonce [24]byte
		copy(nonce[secretboxNonceLen-chachaNonceLen:], data[:chachaNonceLen])
		ciphertext := data[chachaNonceLen:]
		pt, ok := secretbox.Open(nil, ciphertext, &nonce, &key)
		if ok {
			return pt, true
		}
	}

	return nil, false
}
