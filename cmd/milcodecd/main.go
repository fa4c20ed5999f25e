/*
DESCRIPTION
  milcodecd is a standalone acoustic modem receiver: it reads mono
  audio from a WAV file or, in live mode, from stdin as raw float32
  little-endian samples, demodulates one of the supported waveforms,
  and prints every decoded Message Record to stdout.

AUTHOR
  Milcodec Receiver Authors

LICENSE
  MIT
*/

// Package milcodecd is a CLI front end for the receiver package.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/akgularda/milcodec-receiver/packet"
	"github.com/akgularda/milcodec-receiver/receiver"
	"github.com/akgularda/milcodec-receiver/receiver/config"
	wavsource "github.com/akgularda/milcodec-receiver/source/wav"
	"github.com/akgularda/milcodec-receiver/waveform"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "/var/log/milcodecd/milcodecd.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

const pollInterval = 50 * time.Millisecond

func main() {
	showVersion := flag.Bool("version", false, "show version")
	wavPath := flag.String("wav", "", "decode from this WAV file instead of stdin")
	loop := flag.Bool("loop", false, "loop the WAV file once exhausted")
	mode := flag.String("mode", "covert", "waveform: covert, burst, screecher, dolphin, heavyduty")
	autoScan := flag.Bool("autoscan", false, "scan the DSSS carrier pool instead of the default carrier")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	cfg := config.Default(log)
	cfg.Mode = parseMode(*mode)
	cfg.AutoScan = *autoScan
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", "error", err.Error())
	}

	rx, err := receiver.New(cfg)
	if err != nil {
		log.Fatal("could not construct receiver", "error", err.Error())
	}
	rx.StartListening()

	if *wavPath != "" {
		runWAV(rx, log, *wavPath, *loop)
		return
	}
	runStdin(rx, log)
}

func parseMode(s string) waveform.Kind {
	switch s {
	case "burst":
		return waveform.Burst
	case "screecher":
		return waveform.Screecher
	case "dolphin":
		return waveform.Dolphin
	case "heavyduty":
		return waveform.HeavyDuty
	default:
		return waveform.Covert
	}
}

func runWAV(rx *receiver.Receiver, log logging.Logger, path string, loop bool) {
	src := wavsource.New(log, path, loop)
	if err := src.Start(); err != nil {
		log.Fatal("could not open WAV source", "error", err.Error())
	}
	defer src.Stop()

	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		if err != nil {
			log.Error("WAV read failed", "error", err.Error())
			break
		}
		if n == 0 {
			break
		}
		if err := rx.Feed(buf[:n]); err != nil {
			log.Error("feed failed", "error", err.Error())
		}
		rx.Poll(emit)
	}

	// Drain any chunks still queued in the ring buffer. A final window
	// shorter than audio.WindowSamples is not decoded.
	for i := 0; i < 4; i++ {
		rx.Poll(emit)
	}
}

func runStdin(rx *receiver.Receiver, log logging.Logger) {
	raw := make([]byte, 4096*4)
	samples := make([]float32, 4096)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			rx.Poll(emit)
		}
	}()

	for {
		n, err := io.ReadFull(os.Stdin, raw)
		if n > 0 {
			frames := n / 4
			for i := 0; i < frames; i++ {
				samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			}
			if ferr := rx.Feed(samples[:frames]); ferr != nil {
				log.Error("feed failed", "error", ferr.Error())
			}
		}
		if err != nil {
			break
		}
	}
}

func emit(rec packet.Record) {
	out, err := json.Marshal(struct {
		Content  string `json:"content"`
		Priority string `json:"priority"`
		Type     string `json:"type"`
		Filename string `json:"filename,omitempty"`
		Verified bool   `json:"verified"`
		Status   string `json:"status"`
	}{
		Content:  rec.Content,
		Priority: rec.Priority.String(),
		Type:     rec.Type.String(),
		Filename: rec.Filename,
		Verified: rec.Verified,
		Status:   rec.Status.String(),
	})
	if err != nil {
		return
	}
	fmt.Println(string(out))
}
