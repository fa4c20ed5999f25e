/*
NAME
  fsk_test.go

DESCRIPTION
  fsk_test.go tests the 2-FSK demodulator's mark/space tone
  discrimination and its silence-yields-Indeterminate behaviour.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package waveform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/akgularda/milcodec-receiver/audio"
)

func generateFSK(bits []audio.Bit, f *fsk, rate int) audio.Window {
	samples := make([]float32, 0, len(bits)*f.windowLen)
	for _, b := range bits {
		freq := fskSpaceHz
		if b == audio.One {
			freq = fskMarkHz
		}
		samples = append(samples, tone(freq, rate, f.windowLen)...)
	}
	return audio.Window{Samples: samples, Rate: rate}
}

func TestFSKRoundTrip(t *testing.T) {
	f := newFSK()
	want := []audio.Bit{1, 0, 1, 1, 0, 0}
	w := generateFSK(want, f, audio.SampleRate)

	got := f.Demodulate(w)
	if !cmp.Equal(got.Bits, want) {
		t.Errorf("Demodulate() = %v, want %v", got.Bits, want)
	}
}

func TestFSKSilenceIsIndeterminate(t *testing.T) {
	f := newFSK()
	w := audio.Window{Samples: make([]float32, f.windowLen*3), Rate: audio.SampleRate}

	got := f.Demodulate(w)
	for i, b := range got.Bits {
		if b != audio.Indeterminate {
			t.Errorf("bit %d = %v, want Indeterminate for silence", i, b)
		}
	}
}

func TestFSKEmptyWindowYieldsNoBits(t *testing.T) {
	f := newFSK()
	got := f.Demodulate(audio.Window{Samples: nil, Rate: audio.SampleRate})
	if got.Len() != 0 {
		t.Errorf("Demodulate(empty) produced %d bits, want 0", got.Len())
	}
}

func TestFSKParameters(t *testing.T) {
	f := newFSK()
	if f.SamplesPerSymbol() != f.windowLen {
		t.Errorf("SamplesPerSymbol() = %d, want %d", f.SamplesPerSymbol(), f.windowLen)
	}
	if f.SyncTolerance() != fskSyncTolerance {
		t.Errorf("SyncTolerance() = %d, want %d", f.SyncTolerance(), fskSyncTolerance)
	}
	if !cmp.Equal(f.SyncPattern(), Sync16()) {
		t.Error("SyncPattern() should be the 16-bit sync word")
	}
}
