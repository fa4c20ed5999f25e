/*
NAME
  packet.go

DESCRIPTION
  packet.go implements the packet unwrapper and message assembler: it
  takes authenticated plaintext and produces the typed Message Record
  surfaced to the consumer callback.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package packet unwraps the plaintext packet produced by seal.Unseal
// into a typed, presentation-ready Message Record.
package packet

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// minPlaintextLen is the 1-byte type field plus the 64-byte signature
// slot; anything shorter cannot hold a valid packet (spec.md §4.5).
const minPlaintextLen = 1 + 64

// ErrTooShort indicates the authenticated plaintext was too short to
// contain the fixed type+signature header.
var ErrTooShort = errors.New("packet: plaintext shorter than 65 bytes")

// MessageType enumerates the recognized packet payload kinds.
type MessageType int

const (
	TypeText MessageType = iota
	TypeLocation
	TypeFile
	TypeImage
	TypeAck
)

func (t MessageType) String() string {
	switch t {
	case TypeText:
		return "TEXT"
	case TypeLocation:
		return "LOCATION"
	case TypeFile:
		return "FILE"
	case TypeImage:
		return "IMAGE"
	case TypeAck:
		return "ACK"
	default:
		return "TEXT"
	}
}

func typeFromByte(b byte) MessageType {
	switch b {
	case 0x01:
		return TypeText
	case 0x02:
		return TypeLocation
	case 0x03:
		return TypeFile
	case 0x04:
		return TypeImage
	case 0x05:
		return TypeAck
	default:
		return TypeText
	}
}

// Priority is the urgency tier carried in the JSON body's "p" key.
// ROUTINE < PRIORITY < IMMEDIATE < FLASH.
type Priority int

const (
	Routine Priority = iota
	PriorityLevel
	Immediate
	Flash
)

func (p Priority) String() string {
	switch p {
	case Routine:
		return "ROUTINE"
	case PriorityLevel:
		return "PRIORITY"
	case Immediate:
		return "IMMEDIATE"
	case Flash:
		return "FLASH"
	default:
		return "ROUTINE"
	}
}

func priorityFromString(s string) Priority {
	switch s {
	case "ROUTINE":
		return Routine
	case "PRIORITY":
		return PriorityLevel
	case "IMMEDIATE":
		return Immediate
	case "FLASH":
		return Flash
	default:
		return Routine
	}
}

// PriorityColor is the presentation-hint color mapping from spec.md
// §6. It is not normative and carried here only for completeness; the
// core makes no use of it.
var PriorityColor = map[Priority]string{
	Routine:       "#a0a0b8",
	PriorityLevel: "#00d4ff",
	Immediate:     "#ffb000",
	Flash:         "#ff3355",
}

// Status is the top-level outcome of a decode attempt that reached the
// packet layer.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}
	return "ERROR"
}

// Record is the typed message record delivered to the consumer
// callback (spec.md §3).
type Record struct {
	Content       string
	Priority      Priority
	Type          MessageType
	Filename      string
	RawAttachment []byte // base64-decoded json.d, when present; decompression/rendering is external.
	Verified      bool
	Status        Status
}

// body is the recognized JSON shape of the plaintext packet's payload.
type body struct {
	P string `json:"p"`
	M string `json:"m"`
	F string `json:"f"`
	D string `json:"d"`
}

// Unwrap parses authenticated plaintext into a Record. pubKey is
// optional (nil to skip verification, per spec.md §4.5 and §9); when
// provided and the signature slot is non-zero, Ed25519 verification is
// attempted and Record.Verified reflects the outcome.
func Unwrap(plaintext []byte, pubKey ed25519.PublicKey) (Record, error) {
	if len(plaintext) < minPlaintextLen {
		return Record{}, ErrTooShort
	}

	typeByte := plaintext[0]
	sig := plaintext[1:65]
	jsonBody := plaintext[65:]

	var b body
	if err := json.Unmarshal(jsonBody, &b); err != nil {
		return Record{}, fmt.Errorf("packet: JSON parse failed: %w", err)
	}

	rec := Record{
		Type:     typeFromByte(typeByte),
		Priority: priorityFromString(b.P),
		Status:   StatusOK,
	}

	if len(pubKey) == ed25519.PublicKeySize && !allZero(sig) {
		rec.Verified = ed25519.Verify(pubKey, jsonBody, sig)
	}

	switch rec.Type {
	case TypeFile, TypeImage:
		name := b.F
		if name == "" {
			name = "unknown"
		}
		rec.Filename = b.F
		rec.Content = "File: " + name
		if b.D != "" {
			if raw, err := base64.StdEncoding.DecodeString(b.D); err == nil {
				rec.RawAttachment = raw
			}
		}
	default:
		rec.Content = b.M
	}

	return rec, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
