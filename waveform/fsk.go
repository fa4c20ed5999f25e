/*
NAME
  fsk.go

DESCRIPTION
  fsk.go implements the 2-FSK ("Screecher") demodulator: mark/space
  tone detection via the Goertzel algorithm over half-symbol windows,
  producing a 2x oversampled bit stream.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package waveform

import (
	"math"

	"github.com/mjibson/go-dsp/window"

	"github.com/akgularda/milcodec-receiver/audio"
)

const (
	fskMarkHz        = 14000.0
	fskSpaceHz       = 14200.0
	fskSymbolSeconds = 0.050
	fskTonePower     = 0.6 // fraction of local tonal power required to call a bit.
	fskSyncTolerance = 4
)

type fsk struct {
	windowLen int // half-symbol window; the stream is 2x oversampled relative to symbol rate.
	symbolLen int
	win       []float64 // flat-top window applied before each block's Goertzel pass.
}

func newFSK() *fsk {
	symbolLen := int(math.Round(fskSymbolSeconds * audio.SampleRate))
	windowLen := symbolLen / 2
	return &fsk{
		symbolLen: symbolLen,
		windowLen: windowLen,
		win:       window.FlatTop(windowLen),
	}
}

// SamplesPerSymbol returns the half-symbol stride, since that is the
// unit the rest of the pipeline (sync, extractor) indexes the raw bit
// stream in for this variant.
func (f *fsk) SamplesPerSymbol() int { return f.windowLen }

func (f *fsk) SyncPattern() []audio.Bit { return Sync16() }

func (f *fsk) SyncTolerance() int { return fskSyncTolerance }

func (f *fsk) Demodulate(w audio.Window) audio.BitStream {
	if f.windowLen <= 0 {
		return audio.BitStream{}
	}
	nWindows := len(w.Samples) / f.windowLen
	bits := make([]audio.Bit, nWindows)

	windowed := make([]float32, f.windowLen)
	for i := 0; i < nWindows; i++ {
		block := w.Samples[i*f.windowLen : (i+1)*f.windowLen]
		for j, s := range block {
			windowed[j] = float32(float64(s) * f.win[j])
		}
		markPower := goertzelPower(windowed, fskMarkHz, w.Rate)
		spacePower := goertzelPower(windowed, fskSpaceHz, w.Rate)
		total := markPower + spacePower

		switch {
		case total <= 0:
			bits[i] = audio.Indeterminate
		case markPower/total > fskTonePower:
			bits[i] = audio.One
		case spacePower/total > fskTonePower:
			bits[i] = audio.Zero
		default:
			bits[i] = audio.Indeterminate
		}
	}

	return audio.BitStream{Bits: bits}
}
