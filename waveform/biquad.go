/*
NAME
  biquad.go

DESCRIPTION
  biquad.go implements a direct-form-I-transposed biquad band-pass
  filter, used by the heavy-duty DSSS variant to pre-filter the input
  window before despreading.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package waveform

import "math"

// biquad holds the coefficients for a single biquad section. Filter
// state (z1, z2) is never stored on the struct: each decode attempt is
// independent and the state must be freshly zeroed per window (see
// spec.md §9, numeric stability), so Apply takes fresh state locally.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64 // a0-normalised
}

// newBandpassBiquad builds a band-pass biquad centred at fc with
// bandwidth bw, at sample rate rate, per spec.md §4.1.4:
//
//	omega0 = 2*pi*fc/rate
//	Q      = fc/bw
//	alpha  = sin(omega0) / (2*Q)
//	b0 =  alpha
//	b1 =  0
//	b2 = -alpha
//	a0 =  1 + alpha
//	a1 = -2*cos(omega0)
//	a2 =  1 - alpha
func newBandpassBiquad(fc, bw float64, rate int) biquad {
	omega0 := 2 * math.Pi * fc / float64(rate)
	q := fc / bw
	alpha := math.Sin(omega0) / (2 * q)

	a0 := 1 + alpha
	return biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(omega0) / a0,
		a2: (1 - alpha) / a0,
	}
}

// Apply filters x and returns a new slice, using a fresh zero state.
// Direct-form-I-transposed recurrence:
//
//	y[n] = b0*x[n] + z1
//	z1'  = b1*x[n] - a1*y[n] + z2
//	z2'  = b2*x[n] - a2*y[n]
func (f biquad) Apply(x []float32) []float32 {
	var z1, z2 float64
	out := make([]float32, len(x))
	for i, xn := range x {
		xf := float64(xn)
		y := f.b0*xf + z1
		z1 = f.b1*xf - f.a1*y + z2
		z2 = f.b2*xf - f.a2*y
		out[i] = float32(y)
	}
	return out
}
