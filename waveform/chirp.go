/*
NAME
  chirp.go

DESCRIPTION
  chirp.go implements the linear-chirp ("Dolphin") waveform: each bit is
  a monotonic frequency sweep across a fixed band, up for 1 and down for
  0. Synchronization and per-symbol extraction for this variant run in
  the correlator domain rather than over a flat bit stream (spec.md
  §4.2 step 4, §4.3); the exported Peaks/FindPreamble/ExtractSymbols
  methods give the receiver's decode path that access, while Demodulate still
  satisfies the generic Demodulator contract with a fixed-slot
  approximation for variant-agnostic callers.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package waveform

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/akgularda/milcodec-receiver/audio"
)

const (
	chirpLowHz         = 14000.0
	chirpHighHz        = 17000.0
	chirpSymbolSeconds = 0.050
	chirpStep          = 20  // correlator slide step, in samples.
	chirpPeakThreshold = 50  // local-maximum floor; expected peak on clean signal is ~1100.
	chirpTolerance     = 400 // preamble spacing / per-symbol search tolerance, in samples.
)

// ChirpPeak is a local maximum found while sliding the up/down
// correlators across a window.
type ChirpPeak struct {
	Index int     // sample index of the peak.
	Up    bool    // true if the up-chirp correlation won, false for down.
	Score float64
}

type chirp struct {
	sps  int
	up   []float64
	down []float64
}

func newChirp() *chirp {
	sps := int(math.Round(chirpSymbolSeconds * audio.SampleRate))
	return &chirp{
		sps:  sps,
		up:   generateChirp(chirpLowHz, chirpHighHz, sps, audio.SampleRate),
		down: generateChirp(chirpHighHz, chirpLowHz, sps, audio.SampleRate),
	}
}

// generateChirp synthesises a linear frequency sweep from f0 to f1 Hz
// over n samples at the given rate, as a unit-amplitude sine.
func generateChirp(f0, f1 float64, n, rate int) []float64 {
	t := float64(n) / float64(rate)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		tt := float64(i) / float64(rate)
		phase := 2 * math.Pi * (f0*tt + (f1-f0)*tt*tt/(2*t))
		out[i] = math.Sin(phase)
	}
	return out
}

func correlate(x []float32, tmpl []float64) float64 {
	xf := make([]float64, len(x))
	for i, v := range x {
		xf[i] = float64(v)
	}
	return floats.Dot(xf, tmpl)
}

func (c *chirp) SamplesPerSymbol() int { return c.sps }

func (c *chirp) SyncPattern() []audio.Bit { return Sync16() }

// SyncTolerance is unused for this variant: synchronization runs
// entirely in the correlator domain via FindPreamble, not via Hamming
// distance over a flat bit stream.
func (c *chirp) SyncTolerance() int { return 0 }

// scoreSlot correlates slot against both templates and returns the
// winner's absolute magnitude and shape. Comparing magnitudes rather
// than signed correlation makes the shape decision invariant to a
// uniform amplitude-sign flip of the input (spec.md §8 law 4): negating
// every sample negates both upCorr and downCorr equally, so whichever
// template dominates in magnitude is unaffected.
func (c *chirp) scoreSlot(slot []float32) (score float64, up bool) {
	upCorr := math.Abs(correlate(slot, c.up))
	downCorr := math.Abs(correlate(slot, c.down))
	if upCorr >= downCorr {
		return upCorr, true
	}
	return downCorr, false
}

// Demodulate gives the generic, fixed-slot approximation: each sps-wide
// slot is scored against both templates and the winner's bit emitted.
// It exists so chirp satisfies Demodulator for variant-agnostic tests;
// the real decode path for Dolphin uses Peaks/FindPreamble/ExtractSymbols.
func (c *chirp) Demodulate(w audio.Window) audio.BitStream {
	nSymbols := len(w.Samples) / c.sps
	if nSymbols <= 0 {
		return audio.BitStream{}
	}
	bits := make([]audio.Bit, nSymbols)
	for s := 0; s < nSymbols; s++ {
		slot := w.Samples[s*c.sps : (s+1)*c.sps]
		_, up := c.scoreSlot(slot)
		if up {
			bits[s] = audio.One
		} else {
			bits[s] = audio.Zero
		}
	}
	return audio.BitStream{Bits: bits}
}

// Peaks slides the up/down correlators across w in chirpStep steps and
// returns the local maxima whose score exceeds chirpPeakThreshold,
// merging candidates that fall within half a symbol of each other.
func (c *chirp) Peaks(w audio.Window) []ChirpPeak {
	var peaks []ChirpPeak
	n := len(w.Samples)
	for pos := 0; pos+c.sps <= n; pos += chirpStep {
		slot := w.Samples[pos : pos+c.sps]
		score, up := c.scoreSlot(slot)
		if score <= chirpPeakThreshold {
			continue
		}

		if len(peaks) > 0 && pos-peaks[len(peaks)-1].Index < c.sps/2 {
			if score > peaks[len(peaks)-1].Score {
				peaks[len(peaks)-1] = ChirpPeak{Index: pos, Up: up, Score: score}
			}
			continue
		}
		peaks = append(peaks, ChirpPeak{Index: pos, Up: up, Score: score})
	}
	return peaks
}

// FindPreamble searches the peak sequence for the fixed Up, Up, Down,
// Down preamble with inter-peak spacing of one symbol period (within
// chirpTolerance), per spec.md §4.2 step 4. It returns the sample
// index of the symbol immediately following the fourth preamble peak.
func (c *chirp) FindPreamble(w audio.Window) (int, bool) {
	peaks := c.Peaks(w)
	for i := 0; i+3 < len(peaks); i++ {
		p0, p1, p2, p3 := peaks[i], peaks[i+1], peaks[i+2], peaks[i+3]
		if !(p0.Up && p1.Up && !p2.Up && !p3.Up) {
			continue
		}
		if !c.spacedOneSymbol(p0, p1) || !c.spacedOneSymbol(p1, p2) || !c.spacedOneSymbol(p2, p3) {
			continue
		}
		return p3.Index + c.sps, true
	}
	return 0, false
}

func (c *chirp) spacedOneSymbol(a, b ChirpPeak) bool {
	d := b.Index - a.Index
	return d > c.sps-chirpTolerance && d < c.sps+chirpTolerance
}

// ExtractSymbols reads n symbols starting at sample offset start,
// re-acquiring each symbol boundary by searching +/-chirpTolerance
// samples (in chirpStep steps) for the stronger of the up/down
// correlations, then advancing the cursor by exactly one symbol period
// from the chosen peak (spec.md §4.3). This re-centering tolerates
// clock drift between sender and receiver.
func (c *chirp) ExtractSymbols(w audio.Window, start, n int) []audio.Bit {
	bits := make([]audio.Bit, n)
	cursor := start

	for s := 0; s < n; s++ {
		bestIdx := -1
		bestUp := false
		bestScore := math.Inf(-1)

		for off := -chirpTolerance; off <= chirpTolerance; off += chirpStep {
			idx := cursor + off
			if idx < 0 || idx+c.sps > len(w.Samples) {
				continue
			}
			slot := w.Samples[idx : idx+c.sps]
			score, up := c.scoreSlot(slot)
			if score > bestScore {
				bestScore, bestIdx, bestUp = score, idx, up
			}
		}

		if bestIdx < 0 {
			bits[s] = audio.Indeterminate
			cursor += c.sps
			continue
		}
		if bestUp {
			bits[s] = audio.One
		} else {
			bits[s] = audio.Zero
		}
		cursor = bestIdx + c.sps
	}

	return bits
}
