/*
NAME
  config.go

DESCRIPTION
  config.go contains the configuration settings for the acoustic
  decode pipeline: waveform mode, carrier auto-scan, search depth caps
  and the preshared symmetric key.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package config contains the configuration settings for the receiver.
package config

import (
	"crypto/ed25519"
	"errors"

	"github.com/ausocean/utils/logging"

	"github.com/akgularda/milcodec-receiver/seal"
	"github.com/akgularda/milcodec-receiver/waveform"
)

// errNilLogger is returned by Validate when no Logger was set.
var errNilLogger = errors.New("config: Logger must not be nil")

// Default search-depth caps, per spec.md §4.2.
const (
	DefaultSearchCapDSSS = 2000
	DefaultSearchCapFSK  = 5000
)

// Config holds the tunables for one Receiver. The zero value is not
// valid; use Default() and override fields as needed.
type Config struct {
	// Mode is the externally-selectable waveform: Covert or Burst. Set
	// via set_mode on the control surface (spec.md §6).
	Mode waveform.Kind

	// AutoScan enables the DSSS carrier-pool scan instead of the
	// single default 12 kHz carrier.
	AutoScan bool

	// SearchCap bounds the frame synchronizer's search depth. Zero
	// means "use the variant's default".
	SearchCap int

	// Key is the 32-byte preshared symmetric key used by the
	// cryptographic unsealer. Defaults to seal.DefaultKey().
	Key [32]byte

	// PublicKey optionally gates signature verification of decoded
	// packets (spec.md §4.5, §9). Nil disables verification.
	PublicKey ed25519.PublicKey

	// Logger receives structured diagnostic logs. Required.
	Logger logging.Logger
}

// Default returns a Config with the covert waveform, auto-scan
// disabled, and the insecure default key — matching the reference
// receiver's out-of-the-box behaviour.
func Default(l logging.Logger) Config {
	return Config{
		Mode:   waveform.Covert,
		Key:    seal.DefaultKey(),
		Logger: l,
	}
}

// Validate checks the config for obviously invalid settings and fills
// in defaults for anything left zero.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errNilLogger
	}
	if c.Key == ([32]byte{}) {
		c.Key = seal.DefaultKey()
	}
	if c.SearchCap <= 0 {
		c.SearchCap = c.defaultSearchCap()
	}
	return nil
}

func (c *Config) defaultSearchCap() int {
	switch c.Mode {
	case waveform.Screecher, waveform.Dolphin:
		return DefaultSearchCapFSK
	default:
		return DefaultSearchCapDSSS
	}
}

// LogInvalidField logs that a field was bad or unset and what default
// was substituted.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
