/*
NAME
  heavyduty.go

DESCRIPTION
  heavyduty.go implements the heavy-duty DSSS variant: the same
  Barker-31 spreading as dsss.go, but a fixed 14.5 kHz carrier, a wider
  20-sample chip, and a biquad band-pass pre-filter for robustness in
  noisy conditions.

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
	heavyDutyCarrier       = 14500.0
	heavyDutyBandwidth     = 2000.0
	samplesPerChipHeavy    = 20
	heavyDutySyncTolerance = 2
)

type heavyDuty struct {
	sps      int
	template []float64
}

func newHeavyDuty() *heavyDuty {
	hd := &heavyDuty{sps: len(barker31) * samplesPerChipHeavy}
	hd.template = make([]float64, 0, hd.sps)
	for _, chip := range barker31 {
		for j := 0; j < samplesPerChipHeavy; j++ {
			hd.template = append(hd.template, float64(chip))
		}
	}
	return hd
}

func (h *heavyDuty) SamplesPerSymbol() int { return h.sps }

func (h *heavyDuty) SyncPattern() []audio.Bit { return Sync32() }

func (h *heavyDuty) SyncTolerance() int { return heavyDutySyncTolerance }

func (h *heavyDuty) Demodulate(w audio.Window) audio.BitStream {
	nSymbols := len(w.Samples) / h.sps
	if nSymbols <= 0 {
		return audio.BitStream{}
	}

	filter := newBandpassBiquad(heavyDutyCarrier, heavyDutyBandwidth, w.Rate)
	filtered := filter.Apply(w.Samples)

	omega := 2 * math.Pi * heavyDutyCarrier / float64(w.Rate)
	baseband := make([]float64, len(filtered))
	for i, s := range filtered {
		baseband[i] = float64(s) * math.Cos(omega*float64(i))
	}

	bits := make([]audio.Bit, nSymbols)
	for sym := 0; sym < nSymbols; sym++ {
		slot := baseband[sym*h.sps : (sym+1)*h.sps]
		dot := floats.Dot(slot, h.template)
		if dot > 0 {
			bits[sym] = audio.One
		} else {
			bits[sym] = audio.Zero
		}
	}

	return audio.BitStream{Bits: bits}
}
