/*
NAME
  wav.go

DESCRIPTION
  wav.go provides a sample source backed by a WAV file, for offline
  decode and testing against recorded captures.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package wav provides a sample source that reads WAV files.
package wav

import (
	"errors"
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ausocean/utils/logging"

	"github.com/akgularda/milcodec-receiver/audio"
)

// File is a sample source that reads mono float samples from a WAV
// file. ReadSamples downmixes multi-channel files to the left channel
// and decimates rates that are exact multiples of audio.SampleRate;
// any other rate makes ReadSamples fail. The file's native sample rate
// is reported via Rate.
type File struct {
	path      string
	loop      bool
	log       logging.Logger
	mu        sync.Mutex
	f         *os.File
	dec       *wav.Decoder
	rate      int
	isRunning bool
}

// New returns a File source for the WAV file at path. loop causes
// ReadSamples to seek back to the start of the file once exhausted,
// matching the AVFile device's looping behaviour.
func New(l logging.Logger, path string, loop bool) *File {
	return &File{log: l, path: path, loop: loop}
}

// Name returns the name of the source.
func (f *File) Name() string { return "WAVFile" }

// Start opens the file and reads its WAV header.
func (f *File) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	f.f, err = os.Open(f.path)
	if err != nil {
		return fmt.Errorf("wav: could not open %s: %w", f.path, err)
	}

	f.dec = wav.NewDecoder(f.f)
	if !f.dec.IsValidFile() {
		f.f.Close()
		return errors.New("wav: not a valid WAV file")
	}
	f.dec.ReadInfo()
	f.rate = int(f.dec.SampleRate)
	if f.dec.NumChans != 1 {
		f.log.Info("wav: downmixing multi-channel input to mono", "channels", f.dec.NumChans)
	}
	if f.rate != audio.SampleRate && (f.rate < audio.SampleRate || f.rate%audio.SampleRate != 0) {
		f.log.Warning("wav: capture rate is not a whole multiple of the target rate, ReadSamples will fail", "rate", f.rate)
	}

	f.isRunning = true
	return nil
}

// Stop closes the underlying file.
func (f *File) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isRunning = false
	if f.f == nil {
		return nil
	}
	return f.f.Close()
}

// IsRunning reports whether the source has been started and not yet
// stopped.
func (f *File) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isRunning
}

// Rate returns the WAV file's native sample rate, valid after Start.
func (f *File) Rate() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate
}

// ReadSamples fills buf with mono float32 samples in [-1, 1] at
// audio.SampleRate, returning the number of samples read. A stereo
// (or multi-channel) file is downmixed to the left channel; a file
// captured above audio.SampleRate is decimated down, provided its
// rate is an exact multiple of audio.SampleRate (audio.Decimate). On
// reaching end of file, it loops back to the start when f.loop is
// set, otherwise it returns fewer samples than requested with a nil
// error, mirroring AVFile's partial-read convention.
func (f *File) ReadSamples(buf []float32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dec == nil {
		return 0, errors.New("wav: source is closed, not started")
	}

	channels := int(f.dec.NumChans)
	factor := 1
	if f.rate > audio.SampleRate {
		factor = f.rate / audio.SampleRate
	}
	rawNeeded := len(buf) * factor

	pcm := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: f.rate},
		Data:   make([]int, rawNeeded*channels),
	}

	n, err := f.dec.PCMBuffer(pcm)
	if err != nil {
		return 0, fmt.Errorf("wav: PCM read failed: %w", err)
	}
	rawFrames := n / channels

	fullScale := float32(int32(1) << (f.dec.BitDepth - 1))
	raw := make([]float32, rawFrames*channels)
	for i := range raw {
		raw[i] = float32(pcm.Data[i]) / fullScale
	}

	mono := audio.DownmixStereo(raw, channels)
	mono, err = audio.Decimate(mono, f.rate)
	if err != nil {
		return 0, err
	}

	frames := copy(buf, mono)

	if frames < len(buf) && f.loop {
		f.log.Info("looping WAV input")
		if _, err := f.f.Seek(0, 0); err != nil {
			return frames, fmt.Errorf("wav: could not seek to start for loop: %w", err)
		}
		f.dec = wav.NewDecoder(f.f)
		f.dec.ReadInfo()
	}

	return frames, nil
}
