/*
NAME
  framesync_test.go

DESCRIPTION
  framesync_test.go tests the bounded sync-word search, including bit
  tolerance and carrier-inversion handling.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package framesync

import (
	"testing"

	"github.com/akgularda/milcodec-receiver/audio"
)

func bits(s string) []audio.Bit {
	out := make([]audio.Bit, len(s))
	for i, c := range s {
		if c == '1' {
			out[i] = audio.One
		} else {
			out[i] = audio.Zero
		}
	}
	return out
}

func TestFindExactMatch(t *testing.T) {
	pattern := bits("1010")
	stream := audio.BitStream{Bits: bits("0011010111")}
	m, ok := Find(stream, pattern, 0, 100)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Offset != 7 || m.Inverted {
		t.Errorf("got %+v, want Offset=7 Inverted=false", m)
	}
}

func TestFindTolerantOfBitErrors(t *testing.T) {
	pattern := bits("11110000")
	// One bit flipped relative to pattern, at index 2 within the window.
	stream := audio.BitStream{Bits: bits("0011010000111")}
	m, ok := Find(stream, pattern, 1, 100)
	if !ok {
		t.Fatal("expected a match within epsilon=1")
	}
	if m.Inverted {
		t.Errorf("expected a non-inverted match, got %+v", m)
	}

	if _, ok := Find(stream, pattern, 0, 100); ok {
		t.Error("expected no exact match given a single bit error")
	}
}

func TestFindInverted(t *testing.T) {
	pattern := bits("110010")
	complement := bits("001101")
	// Two trailing bits keep the match off the last position at which the
	// pattern would fit exactly, which Find does not try.
	stream := audio.BitStream{Bits: append(append(bits("0000"), complement...), bits("00")...)}
	m, ok := Find(stream, pattern, 0, 100)
	if !ok {
		t.Fatal("expected an inverted match")
	}
	if !m.Inverted {
		t.Error("expected Inverted=true")
	}
	if m.Offset != 4+len(pattern) {
		t.Errorf("Offset = %d, want %d", m.Offset, 4+len(pattern))
	}
}

func TestFindIndeterminateNeverMatches(t *testing.T) {
	pattern := bits("1111")
	// One bit longer than the pattern, so offset 0 lies inside Find's
	// search range.
	stream := audio.BitStream{Bits: []audio.Bit{audio.Indeterminate, audio.Indeterminate, audio.Indeterminate, audio.Indeterminate, audio.Indeterminate}}
	if _, ok := Find(stream, pattern, 0, 100); ok {
		t.Error("an all-Indeterminate window must never match, even with epsilon 0 (it should require epsilon>=len(pattern))")
	}
	if _, ok := Find(stream, pattern, len(pattern), 100); !ok {
		t.Error("epsilon == len(pattern) should tolerate an all-mismatch window")
	}
}

func TestFindRespectsSearchCap(t *testing.T) {
	pattern := bits("1111")
	// Match sits at offset 10, but cap only allows scanning up to offset 5.
	// The alternating prefix matches neither the pattern nor its
	// all-zeros complement.
	stream := audio.BitStream{Bits: bits("1010101010111100")}
	if _, ok := Find(stream, pattern, 0, 5); ok {
		t.Error("expected no match: the real match lies beyond the search cap")
	}
	if _, ok := Find(stream, pattern, 0, 20); !ok {
		t.Error("expected a match once the cap covers the real offset")
	}
}

func TestFindShortStreamNeverPanics(t *testing.T) {
	pattern := bits("11111111")
	stream := audio.BitStream{Bits: bits("101")}
	if _, ok := Find(stream, pattern, 0, 1000); ok {
		t.Error("a stream shorter than the pattern cannot match")
	}
}
