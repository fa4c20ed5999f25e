/*
NAME
  resample.go

DESCRIPTION
  resample.go adapts a captured stream to the 44.1 kHz mono float
  format the demodulators expect: downmixing stereo captures to a
  single channel and decimating an evenly-divisible higher sample rate
  down to SampleRate.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package audio

import "fmt"

// DownmixStereo returns the left channel of an interleaved stereo
// stream as mono. Non-stereo input is returned unchanged.
func DownmixStereo(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	mono := make([]float32, len(samples)/channels)
	for i := range mono {
		mono[i] = samples[i*channels]
	}
	return mono
}

// Decimate downsamples mono samples captured at rate Hz down to
// SampleRate by averaging each group of rate/SampleRate samples into
// one. rate must be an exact multiple of SampleRate; any remainder
// samples that don't fill a complete group are dropped.
func Decimate(samples []float32, rate int) ([]float32, error) {
	if rate == SampleRate {
		return samples, nil
	}
	if rate < SampleRate || rate%SampleRate != 0 {
		return nil, fmt.Errorf("audio: capture rate %d Hz is not a whole multiple of %d Hz", rate, SampleRate)
	}
	factor := rate / SampleRate
	n := len(samples) / factor
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for j := 0; j < factor; j++ {
			sum += samples[i*factor+j]
		}
		out[i] = sum / float32(factor)
	}
	return out, nil
}
