/*
NAME
  receiver_test.go

DESCRIPTION
  receiver_test.go tests the decode orchestration state machine against
  an injected fake demodulator carrying a fully-formed, encrypted wire
  frame, exercising the whole Feed/Poll/synchronize/Extract/Unseal/
  Unwrap pipeline without needing a real acoustic waveform.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

package receiver

import (
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/akgularda/milcodec-receiver/audio"
	"github.com/akgularda/milcodec-receiver/packet"
	"github.com/akgularda/milcodec-receiver/receiver/config"
	"github.com/akgularda/milcodec-receiver/seal"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

// fakeDemod always yields a fixed bit stream, letting the test drive
// synchronize/Extract/Unseal/Unwrap without any real acoustic signal.
// onDemodulate, if set, runs before the canned bits are returned, so a
// test can simulate state changing mid-decode-cycle.
type fakeDemod struct {
	bits         []audio.Bit
	sync         []audio.Bit
	onDemodulate func()
}

func (f fakeDemod) SamplesPerSymbol() int { return 1 }
func (f fakeDemod) Demodulate(w audio.Window) audio.BitStream {
	if f.onDemodulate != nil {
		f.onDemodulate()
	}
	return audio.BitStream{Bits: f.bits}
}
func (f fakeDemod) SyncPattern() []audio.Bit { return f.sync }
func (f fakeDemod) SyncTolerance() int       { return 0 }

func uintBits(v uint32, n int) []audio.Bit {
	out := make([]audio.Bit, n)
	for i := n - 1; i >= 0; i-- {
		if v&1 == 1 {
			out[i] = audio.One
		} else {
			out[i] = audio.Zero
		}
		v >>= 1
	}
	return out
}

func bytesToBits(data []byte) []audio.Bit {
	out := make([]audio.Bit, 0, len(data)*8)
	for _, b := range data {
		out = append(out, uintBits(uint32(b), 8)...)
	}
	return out
}

// encodeFrame builds the link-layer wire form: a 16-bit length field
// followed by three identical copies of data's bits.
func encodeFrame(data []byte) []audio.Bit {
	payload := bytesToBits(data)
	out := uintBits(uint32(len(data)), 16)
	out = append(out, payload...)
	out = append(out, payload...)
	out = append(out, payload...)
	return out
}

// sealChaCha encrypts plaintext with key using ChaCha20-Poly1305,
// producing the nonce-prefixed blob seal.Unseal expects.
func sealChaCha(t *testing.T, plaintext []byte, key [32]byte) []byte {
	t.Helper()
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		t.Fatalf("chacha20poly1305.New: %v", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil)
}

func buildPlaintext(typeByte byte, jsonBody string) []byte {
	out := make([]byte, 0, 1+64+len(jsonBody))
	out = append(out, typeByte)
	out = append(out, make([]byte, 64)...)
	out = append(out, []byte(jsonBody)...)
	return out
}

func newTestReceiver(t *testing.T) *Receiver {
	t.Helper()
	rx, err := New(config.Default(&dumbLogger{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rx
}

// feedWindow pushes enough feedChunkSamples-sized chunks of silent
// audio through rx to cross the WindowSamples threshold, draining one
// decode cycle via onMessage.
func feedWindow(t *testing.T, rx *Receiver, onMessage func(packet.Record)) {
	t.Helper()
	chunk := make([]float32, feedChunkSamples)
	for fed := 0; fed < audio.WindowSamples+feedChunkSamples; fed += feedChunkSamples {
		if err := rx.Feed(chunk); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		rx.Poll(onMessage)
	}
}

func TestReceiverDecodesValidFrame(t *testing.T) {
	key := seal.DefaultKey()
	plaintext := buildPlaintext(0x01, `{"p":"IMMEDIATE","m":"acoustic hello"}`)
	blob := sealChaCha(t, plaintext, key)

	sync := []audio.Bit{1, 0, 1, 1, 0, 0, 1, 0}
	bits := append(append([]audio.Bit{}, sync...), encodeFrame(blob)...)

	rx := newTestReceiver(t)
	rx.demod = fakeDemod{bits: bits, sync: sync}
	rx.SetKey(key)
	rx.StartListening()

	var got []packet.Record
	feedWindow(t, rx, func(rec packet.Record) { got = append(got, rec) })

	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Content != "acoustic hello" {
		t.Errorf("Content = %q, want %q", got[0].Content, "acoustic hello")
	}
	if got[0].Status != packet.StatusOK {
		t.Errorf("Status = %v, want StatusOK", got[0].Status)
	}
}

func TestReceiverWrongKeyYieldsErrorRecord(t *testing.T) {
	key := seal.DefaultKey()
	wrongKey := key
	wrongKey[0] ^= 0xFF

	plaintext := buildPlaintext(0x01, `{"p":"ROUTINE","m":"hi"}`)
	blob := sealChaCha(t, plaintext, wrongKey)

	sync := []audio.Bit{1, 0, 1, 1, 0, 0, 1, 0}
	bits := append(append([]audio.Bit{}, sync...), encodeFrame(blob)...)

	rx := newTestReceiver(t)
	rx.demod = fakeDemod{bits: bits, sync: sync}
	rx.SetKey(key)
	rx.StartListening()

	var got []packet.Record
	feedWindow(t, rx, func(rec packet.Record) { got = append(got, rec) })

	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Status != packet.StatusError {
		t.Errorf("Status = %v, want StatusError", got[0].Status)
	}
	if got[0].Content != "Decryption failed" {
		t.Errorf("Content = %q, want %q", got[0].Content, "Decryption failed")
	}
}

func TestReceiverNoSyncMatchIsSilent(t *testing.T) {
	alternating := make([]audio.Bit, 200)
	for i := range alternating {
		alternating[i] = audio.Bit(i % 2)
	}

	rx := newTestReceiver(t)
	// Alternating bits sit at Hamming distance 4 from both an all-ones
	// pattern and its all-zeros complement, so a zero-tolerance search
	// never matches either orientation.
	rx.demod = fakeDemod{bits: alternating, sync: []audio.Bit{1, 1, 1, 1, 1, 1, 1, 1}}
	rx.StartListening()

	var got []packet.Record
	feedWindow(t, rx, func(rec packet.Record) { got = append(got, rec) })

	if len(got) != 0 {
		t.Errorf("got %d records, want 0 for a window with no sync match", len(got))
	}
}

func TestReceiverStopListeningDiscardsInFlightDecode(t *testing.T) {
	key := seal.DefaultKey()
	plaintext := buildPlaintext(0x01, `{"p":"ROUTINE","m":"should be discarded"}`)
	blob := sealChaCha(t, plaintext, key)

	sync := []audio.Bit{1, 0, 1, 1, 0, 0, 1, 0}
	bits := append(append([]audio.Bit{}, sync...), encodeFrame(blob)...)

	rx := newTestReceiver(t)
	rx.SetKey(key)
	rx.StartListening()
	// StopListening fires from inside the demodulate step, simulating a
	// caller turning listening off partway through a decode cycle; the
	// cycle should still run to completion but its output discarded.
	rx.demod = fakeDemod{bits: bits, sync: sync, onDemodulate: rx.StopListening}

	got := 0
	feedWindow(t, rx, func(rec packet.Record) { got++ })

	if got != 0 {
		t.Errorf("got %d records, want 0: StopListening mid-cycle should discard the pending decode", got)
	}
}

func TestReceiverNotListeningIgnoresFeed(t *testing.T) {
	rx := newTestReceiver(t)
	if err := rx.Feed(make([]float32, feedChunkSamples)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	var got []packet.Record
	rx.Poll(func(rec packet.Record) { got = append(got, rec) })
	if len(got) != 0 {
		t.Errorf("got %d records, want 0 when not listening", len(got))
	}
}
