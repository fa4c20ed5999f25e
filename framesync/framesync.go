/*
NAME
  framesync.go

DESCRIPTION
  framesync.go implements the frame synchronizer: a bounded,
  Hamming-distance sliding search for a known sync word over a raw bit
  stream, tolerant of a small number of bit errors and of carrier
  inversion. The Chirp waveform does not use this package directly — its
  synchronization runs in the correlator domain (see waveform.chirp's
  FindPreamble) because it never produces a flat, symbol-aligned bit
  stream in the same sense the other variants do.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package framesync scans a demodulated bit stream for the sync word
// that marks the start of a frame. Failing to find one is not an
// error: the caller simply has no message for that window.
package framesync

import (
	"github.com/akgularda/milcodec-receiver/audio"
)

// Match is the result of a successful sync search: Offset is the
// position in the bit stream immediately following the matched sync
// word, ready for the payload extractor to read the length field from.
// Inverted indicates the match was against the bitwise complement of
// the sync word, so every subsequent bit must be negated before
// further decoding.
type Match struct {
	Offset   int
	Inverted bool
}

// Find performs the bounded search described in spec.md §4.2: for each
// candidate offset i with 0 <= i < min(len(stream)-len(pattern), cap),
// compute the Hamming distance to both the sync word and its
// complement, and accept the first offset (scanning low to high) where
// either distance is within epsilon. The last position at which the
// pattern would fit exactly, i == len(stream)-len(pattern), is not
// tried.
//
// Find never allocates more than O(len(pattern)) and never panics; a
// stream no longer than the pattern, or one with no match within cap,
// simply yields ok == false.
func Find(stream audio.BitStream, pattern []audio.Bit, epsilon, cap int) (m Match, ok bool) {
	bits := stream.Bits
	patLen := len(pattern)

	limit := len(bits) - patLen
	if limit > cap {
		limit = cap
	}
	if limit < 0 {
		return Match{}, false
	}

	for i := 0; i < limit; i++ {
		window := bits[i : i+patLen]

		if hammingTo(window, pattern) <= epsilon {
			return Match{Offset: i + patLen, Inverted: false}, true
		}
		if hammingToInverted(window, pattern) <= epsilon {
			return Match{Offset: i + patLen, Inverted: true}, true
		}
	}

	return Match{}, false
}

// hammingTo counts mismatches between window and pattern. An
// Indeterminate bit in window always counts as a mismatch, since it
// matches neither forced value.
func hammingTo(window, pattern []audio.Bit) int {
	d := 0
	for i, want := range pattern {
		if window[i] != want {
			d++
		}
	}
	return d
}

// hammingToInverted counts mismatches between window and the bitwise
// complement of pattern.
func hammingToInverted(window, pattern []audio.Bit) int {
	d := 0
	for i, want := range pattern {
		inv := audio.One
		if want == audio.One {
			inv = audio.Zero
		}
		if window[i] != inv {
			d++
		}
	}
	return d
}
