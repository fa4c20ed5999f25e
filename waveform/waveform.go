/*
NAME
  waveform.go

DESCRIPTION
  waveform.go defines the Demodulator capability set shared by the DSSS,
  FSK and Chirp physical layers, and the Kind enum used to select among
  them at construction time. See dsss.go, heavyduty.go, fsk.go and
  chirp.go for the variant implementations.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package waveform implements the interchangeable acoustic physical
// layers: DSSS/BPSK (covert and burst sub-modes), 2-FSK and linear
// chirp. Every variant shares one contract: Demodulate converts a
// windowed audio buffer into a raw oversampled bit stream and nothing
// else. None of the variants ever return an error; a noisy or
// signal-free window simply yields a low-quality bit stream, and it is
// the frame synchronizer's job to decide whether a signal is present.
package waveform

import (
	"github.com/akgularda/milcodec-receiver/audio"
)

// Kind selects a demodulator variant. Covert and Burst are the two
// modes exposed on the external control surface (spec.md §6,
// set_mode); Screecher, Dolphin and HeavyDuty are available as
// explicit selections for testing and for callers that bypass the
// high-level mode switch.
type Kind int

const (
	Covert Kind = iota
	Burst
	Screecher
	Dolphin
	HeavyDuty
)

func (k Kind) String() string {
	switch k {
	case Covert:
		return "covert"
	case Burst:
		return "burst"
	case Screecher:
		return "screecher"
	case Dolphin:
		return "dolphin"
	case HeavyDuty:
		return "heavyduty"
	default:
		return "unknown"
	}
}

// Demodulator is implemented by every waveform variant. Implementations
// are constructed once and reused across decode cycles; their chip
// templates, FSK taper window and chirp correlator templates are built
// at construction time. The FSK variant's Goertzel coefficients are not
// precomputed: goertzelPower derives them for every block from the
// window's sample rate.
type Demodulator interface {
	// SamplesPerSymbol returns the number of audio samples that make up
	// one symbol slot for this variant.
	SamplesPerSymbol() int

	// Demodulate converts a windowed audio buffer into a raw bit
	// stream. It never panics and never reads beyond w.Samples.
	Demodulate(w audio.Window) audio.BitStream

	// SyncPattern returns the known sync word bits this variant's
	// frame synchronizer should search for.
	SyncPattern() []audio.Bit

	// SyncTolerance returns the maximum Hamming distance (epsilon) the
	// frame synchronizer should accept as a match.
	SyncTolerance() int
}

// ChirpDemodulator is implemented by the Dolphin (linear chirp) variant.
// Its synchronization and per-symbol extraction run in the correlator
// domain rather than over a flat Demodulate output (spec.md §4.2 step
// 4, §4.3); callers that need the real Dolphin decode path should type-
// assert a Demodulator to this interface rather than calling Demodulate.
type ChirpDemodulator interface {
	Demodulator
	FindPreamble(w audio.Window) (int, bool)
	ExtractSymbols(w audio.Window, start, n int) []audio.Bit
}

// bitsFromBytes expands a byte sequence into MSB-first bits, used to
// build the fixed sync-word patterns.
func bitsFromBytes(b []byte) []audio.Bit {
	out := make([]audio.Bit, 0, len(b)*8)
	for _, byt := range b {
		for i := 7; i >= 0; i-- {
			if byt&(1<<uint(i)) != 0 {
				out = append(out, audio.One)
			} else {
				out = append(out, audio.Zero)
			}
		}
	}
	return out
}

// Sync32 is the 32-bit sync word shared by the DSSS variants:
// 0x1ACFFF1D, i.e. 00011010 11001111 11111111 00011101.
func Sync32() []audio.Bit { return bitsFromBytes([]byte{0x1A, 0xCF, 0xFF, 0x1D}) }

// Sync16 is the 16-bit sync word used by the FSK and Chirp variants:
// 0xAACC, i.e. 1010101011001100.
func Sync16() []audio.Bit { return bitsFromBytes([]byte{0xAA, 0xCC}) }

// New constructs the Demodulator for the given Kind using sensible
// defaults. autoScan enables the DSSS carrier-pool scan (§4.1.1) for
// variants that support it.
func New(k Kind, autoScan bool) Demodulator {
	switch k {
	case Burst:
		return newDSSS(dsssOptions{burst: true, autoScan: autoScan})
	case Screecher:
		return newFSK()
	case Dolphin:
		return newChirp()
	case HeavyDuty:
		return newHeavyDuty()
	case Covert:
		fallthrough
	default:
		return newDSSS(dsssOptions{burst: false, autoScan: autoScan})
	}
}
