/*
NAME
  dsss.go

DESCRIPTION
  dsss.go implements the direct-sequence spread spectrum / BPSK
  demodulator ("covert" mode) and its unspread "burst" sub-mode. See
  heavyduty.go for the single-carrier, filtered sibling.

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

// barker31 is the 31-element spreading sequence used by the covert DSSS
// variant. Values are +1/-1 chips.
var barker31 = []int8{
	1, 1, 1, 1, 1, -1, -1, 1, 1, -1, 1, -1, -1, 1, 1,
	1, 1, 1, -1, -1, 1, 1, -1, 1, -1, 1, -1, -1, -1, -1, -1,
}

// carrierPool is the set of candidate carrier frequencies tried in
// order when auto-scan is enabled.
var carrierPool = []float64{8000, 9000, 10000, 11000, 12000, 13000, 14000, 15000, 16000, 17000, 18000}

const (
	defaultCarrier        = 12000.0
	samplesPerChipStd     = 4
	burstSamplesPerSymbol = 8
)

// CarrierScanner is implemented by demodulators that support trying
// multiple carrier frequencies in order (spec.md §4.1.1 auto-scan).
// The frame synchronizer is the arbiter of which candidate, if any,
// actually carries a signal; the demodulator only offers candidates.
type CarrierScanner interface {
	Carriers() []float64
	DemodulateAt(w audio.Window, carrierHz float64) audio.BitStream
}

type dsssOptions struct {
	burst    bool
	autoScan bool
}

// dsss implements the covert (spread) and burst (unspread) BPSK
// waveform.
type dsss struct {
	burst    bool
	carriers []float64
	sps      int
	template []float64 // chip template replicated to sps samples, +1/-1 (all +1 for burst)
}

func newDSSS(opt dsssOptions) *dsss {
	d := &dsss{burst: opt.burst}

	if opt.burst {
		d.sps = burstSamplesPerSymbol
		d.template = make([]float64, d.sps)
		for i := range d.template {
			d.template[i] = 1
		}
	} else {
		d.sps = len(barker31) * samplesPerChipStd
		d.template = make([]float64, 0, d.sps)
		for _, chip := range barker31 {
			for j := 0; j < samplesPerChipStd; j++ {
				d.template = append(d.template, float64(chip))
			}
		}
	}

	if opt.autoScan && !opt.burst {
		d.carriers = append([]float64(nil), carrierPool...)
	} else {
		d.carriers = []float64{defaultCarrier}
	}

	return d
}

func (d *dsss) SamplesPerSymbol() int { return d.sps }

func (d *dsss) SyncPattern() []audio.Bit { return Sync32() }

func (d *dsss) SyncTolerance() int { return 0 }

// Carriers returns the candidate carrier pool, or a single default
// carrier when auto-scan is disabled.
func (d *dsss) Carriers() []float64 { return d.carriers }

// Demodulate demodulates against the first entry of Carriers(): the
// 12 kHz default when auto-scan is off, 8 kHz when it is on. Callers
// that want auto-scan behaviour should use DemodulateAt over Carriers()
// via the CarrierScanner interface instead.
func (d *dsss) Demodulate(w audio.Window) audio.BitStream {
	return d.DemodulateAt(w, d.carriers[0])
}

// DemodulateAt demodulates the window against a specific carrier
// frequency, per spec.md §4.1.1: multiply by a real carrier, then
// integrate each symbol slot against the spreading template.
func (d *dsss) DemodulateAt(w audio.Window, carrierHz float64) audio.BitStream {
	n := len(w.Samples)
	nSymbols := n / d.sps
	if nSymbols <= 0 {
		return audio.BitStream{}
	}

	baseband := make([]float64, n)
	omega := 2 * math.Pi * carrierHz / float64(w.Rate)
	for i, s := range w.Samples {
		baseband[i] = float64(s) * math.Cos(omega*float64(i))
	}

	bits := make([]audio.Bit, nSymbols)
	for sym := 0; sym < nSymbols; sym++ {
		slot := baseband[sym*d.sps : (sym+1)*d.sps]
		dot := floats.Dot(slot, d.template)
		if dot > 0 {
			bits[sym] = audio.One
		} else {
			bits[sym] = audio.Zero
		}
	}

	return audio.BitStream{Bits: bits}
}
