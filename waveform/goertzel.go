/*
NAME
  goertzel.go

DESCRIPTION
  goertzel.go implements the single-bin Goertzel magnitude-squared
  algorithm used by the 2-FSK demodulator to score tone energy without
  a full FFT.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package waveform

import "math"

// goertzelPower returns the magnitude-squared of the DFT bin nearest to
// freq over the given block, sampled at rate Hz. The bin index and
// recurrence coefficient depend only on len(block), rate and freq; they
// are recomputed (via goertzelCoeff) on every call.
func goertzelPower(block []float32, freq float64, rate int) float64 {
	n := len(block)
	if n == 0 {
		return 0
	}
	k := math.Round(float64(n) * freq / float64(rate))
	coeff := goertzelCoeff(k, n)

	var s1, s2 float64
	for _, x := range block {
		s0 := float64(x) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}

// goertzelCoeff returns 2*cos(2*pi*k/n), the recurrence coefficient for
// bin k of an n-sample Goertzel evaluation.
func goertzelCoeff(k float64, n int) float64 {
	return 2 * math.Cos(2*math.Pi*k/float64(n))
}
