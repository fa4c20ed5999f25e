/*
NAME
  receiver.go

DESCRIPTION
  receiver.go implements the decode orchestration state machine:
  Idle -> Capturing -> Decoding -> Emitting -> Idle. It owns the
  sample-buffer handoff between the external audio callback and the
  decode pipeline, and recovers every decode-path error into a
  structured Message Record rather than propagating it.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package receiver wires the waveform demodulator, frame synchronizer,
// payload extractor, cryptographic unsealer and packet unwrapper into
// one decode cycle, driven by a bounded, single-producer
// single-consumer sample buffer.
package receiver

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/ausocean/utils/pool"

	"github.com/akgularda/milcodec-receiver/audio"
	"github.com/akgularda/milcodec-receiver/framesync"
	"github.com/akgularda/milcodec-receiver/link"
	"github.com/akgularda/milcodec-receiver/packet"
	"github.com/akgularda/milcodec-receiver/receiver/config"
	"github.com/akgularda/milcodec-receiver/seal"
	"github.com/akgularda/milcodec-receiver/waveform"
)

const (
	bytesPerSample = 4 // float32, little-endian.

	// feedChunkSamples is the recommended audio callback chunk size
	// (spec.md §6).
	feedChunkSamples = 4096

	// ringChunks bounds the number of buffered chunks; comfortably more
	// than one window's worth so a slow consumer doesn't drop audio
	// mid-capture.
	ringChunks = 32

	ringWriteTimeout = 100 * time.Millisecond
	ringNextTimeout  = 20 * time.Millisecond
)

// Receiver runs the acoustic decode pipeline against a stream of
// samples fed in fixed-size chunks by an external audio callback.
type Receiver struct {
	cfg   config.Config
	demod waveform.Demodulator

	buf       *pool.Buffer
	listening int32 // atomic bool; 1 once StartListening has been called.

	accum []float32 // owned exclusively by Poll's caller; never touched by Feed.
}

// New constructs a Receiver from cfg, validating and defaulting fields
// as necessary.
func New(cfg config.Config) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Receiver{cfg: cfg}
	r.rebuildDemod()
	r.buf = pool.NewBuffer(ringChunks, feedChunkSamples*bytesPerSample, ringWriteTimeout)
	return r, nil
}

func (r *Receiver) rebuildDemod() {
	r.demod = waveform.New(r.cfg.Mode, r.cfg.AutoScan)
}

// StartListening begins accepting fed samples. Idempotent.
func (r *Receiver) StartListening() {
	if atomic.SwapInt32(&r.listening, 1) == 1 {
		return
	}
	r.accum = r.accum[:0]
}

// StopListening stops accepting samples and clears any buffered audio
// immediately. Idempotent. An in-flight decode cycle (inside Poll) may
// still complete, but its output will be discarded (spec.md §5).
func (r *Receiver) StopListening() {
	if atomic.SwapInt32(&r.listening, 0) == 0 {
		return
	}
	r.accum = nil
}

// IsListening reports whether the pipeline is currently accepting
// samples.
func (r *Receiver) IsListening() bool {
	return atomic.LoadInt32(&r.listening) == 1
}

// SetMode selects covert (spread DSSS/BPSK) or burst (unspread BPSK)
// per the control surface in spec.md §6. Takes effect on the next
// decode cycle.
func (r *Receiver) SetMode(mode waveform.Kind) {
	r.cfg.Mode = mode
	r.rebuildDemod()
}

// SetAutoScan toggles the DSSS carrier-pool scan.
func (r *Receiver) SetAutoScan(on bool) {
	r.cfg.AutoScan = on
	r.rebuildDemod()
}

// SetKey overrides the default symmetric key.
func (r *Receiver) SetKey(key [32]byte) {
	r.cfg.Key = key
}

// Feed is called by the external audio callback with a chunk of mono
// float samples at audio.SampleRate. It is the sole writer of the
// sample buffer; Poll is the sole reader. A chunk that doesn't divide
// evenly may be dropped by the ring buffer's own fixed chunk size —
// callers should use feedChunkSamples-sized chunks, per spec.md §6.
func (r *Receiver) Feed(samples []float32) error {
	if !r.IsListening() {
		return nil
	}
	_, err := r.buf.Write(encodeSamples(samples))
	return err
}

// Poll drives one slice of the state machine: it drains whatever
// samples are currently available, and if at least one window's worth
// has accumulated, runs a full decode cycle and delivers at most one
// Message Record to onMessage. Poll is meant to be called repeatedly
// by the host (e.g. on a timer or after every Feed); each call performs
// a bounded amount of work and never blocks beyond ringNextTimeout per
// buffered chunk.
func (r *Receiver) Poll(onMessage func(packet.Record)) {
	if !r.IsListening() {
		return
	}

	// Capturing: drain whatever chunks are ready, waiting at most
	// ringNextTimeout for each.
	for len(r.accum) < audio.WindowSamples {
		chunk, err := r.buf.Next(ringNextTimeout)
		if err != nil {
			break
		}
		r.accum = append(r.accum, decodeSamples(chunk.Bytes())...)
		chunk.Close()
	}

	if len(r.accum) < audio.WindowSamples {
		return
	}

	// Decoding: the buffer is reset synchronously on entry; any excess
	// beyond one window is dropped along with it.
	window := audio.Window{
		Samples: append([]float32(nil), r.accum[:audio.WindowSamples]...),
		Rate:    audio.SampleRate,
	}
	r.accum = nil

	rec, ok := r.decode(window)

	// Emitting: a run whose output would-be-delivered after listening
	// was turned off mid-cycle is discarded instead.
	if !r.IsListening() {
		return
	}
	if ok {
		onMessage(rec)
	}
}

// decode runs §4.1 through §4.5 against one window and returns a
// Record, or ok=false for the silent NoSignal/MalformedFrame cases.
func (r *Receiver) decode(w audio.Window) (packet.Record, bool) {
	bits, match, ok := r.synchronize(w)
	if !ok {
		return packet.Record{}, false
	}

	frame, err := link.Extract(bits, match.Inverted)
	if err != nil {
		// MalformedFrame: silent, no message.
		return packet.Record{}, false
	}

	plaintext, _, err := seal.Unseal(frame.Data, r.cfg.Key)
	if err != nil {
		return r.errorRecord(err), true
	}

	rec, err := packet.Unwrap(plaintext, r.cfg.PublicKey)
	if err != nil {
		return r.errorRecord(err), true
	}

	return rec, true
}

// synchronize demodulates w and locates the sync word, dispatching to
// the Chirp variant's correlator-domain path when applicable.
func (r *Receiver) synchronize(w audio.Window) (bits []audio.Bit, match framesync.Match, ok bool) {
	if ch, isChirp := r.demod.(waveform.ChirpDemodulator); isChirp {
		start, found := ch.FindPreamble(w)
		if !found {
			return nil, framesync.Match{}, false
		}
		sps := ch.SamplesPerSymbol()
		maxSymbols := (len(w.Samples) - start) / sps
		needed := 16 + link.MaxPayloadLen*8*3
		if maxSymbols > needed {
			maxSymbols = needed
		}
		if maxSymbols <= 0 {
			return nil, framesync.Match{}, false
		}
		return ch.ExtractSymbols(w, start, maxSymbols), framesync.Match{Offset: 0, Inverted: false}, true
	}

	if cs, isScanner := r.demod.(waveform.CarrierScanner); isScanner && r.cfg.AutoScan {
		for _, carrier := range cs.Carriers() {
			candidate := cs.DemodulateAt(w, carrier)
			if m, found := framesync.Find(candidate, r.demod.SyncPattern(), r.demod.SyncTolerance(), r.cfg.SearchCap); found {
				return candidate.Bits[m.Offset:], m, true
			}
		}
		return nil, framesync.Match{}, false
	}

	stream := r.demod.Demodulate(w)
	m, found := framesync.Find(stream, r.demod.SyncPattern(), r.demod.SyncTolerance(), r.cfg.SearchCap)
	if !found {
		return nil, framesync.Match{}, false
	}
	return stream.Bits[m.Offset:], m, true
}

// errorRecord recovers a decode-path error into an ERROR-status Message
// Record, per the taxonomy in spec.md §7. It never surfaces partial
// plaintext.
func (r *Receiver) errorRecord(err error) packet.Record {
	content := "Invalid packet"
	switch {
	case err == seal.ErrCorruptData:
		content = "Corrupt Data"
	case err == seal.ErrAuthFailure:
		content = "Decryption failed"
	case err == packet.ErrTooShort:
		content = "Invalid packet"
	default:
		content = "JSON parse failed"
	}
	r.cfg.Logger.Error("decode failed", "reason", content)
	return packet.Record{Content: content, Status: packet.StatusError}
}

func encodeSamples(samples []float32) []byte {
	buf := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(s))
	}
	return buf
}

func decodeSamples(data []byte) []float32 {
	n := len(data) / bytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*bytesPerSample:]))
	}
	return out
}
