// lr-rts exercises the OOK RTS mode at 433.42 MHz: fixed 7-byte
// Manchester-coded frames, the format used by RTS shutter remotes.
//
// Examples:
//
//	# Listen, calibrating the detection threshold from the ambient level
//	./lr-rts -m recv
//
//	# Send 5 frames of incrementing bytes
//	./lr-rts -m send -count 5
//
//	# Send a specific frame
//	./lr-rts -m send -hex "A1F0035900124A"
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TheClams/lr2021-go/pkg/config"
	"github.com/TheClams/lr2021-go/pkg/lr2021"
	"github.com/TheClams/lr2021-go/pkg/profiles"
	"github.com/TheClams/lr2021-go/pkg/protocol"
)

// frameLen is the fixed RTS frame size.
const frameLen = 7

var (
	configPath = flag.String("c", "", "Tool configuration file path")
	mode       = flag.String("m", "recv", "Mode: 'send' or 'recv'")
	hexStr     = flag.String("hex", "", "Frame to send (hex, 7 bytes)")
	count      = flag.Int("count", 1, "Number of frames to send")
	interval   = flag.Duration("interval", 200*time.Millisecond, "Delay between frames")
	noCalib    = flag.Bool("nocal", false, "Skip the detection threshold calibration")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	*mode = strings.ToLower(*mode)
	if *mode != "send" && *mode != "recv" {
		return fmt.Errorf("invalid mode %q, use 'send' or 'recv'", *mode)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	device, err := cfg.OpenDevice()
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer device.Close()

	if err := device.Reset(); err != nil {
		return fmt.Errorf("failed to reset device: %w", err)
	}

	profile := profiles.NewOokRts()
	if err := device.Configure(profile); err != nil {
		return fmt.Errorf("failed to configure radio: %w", err)
	}
	fmt.Printf("OOK RTS at %.2f MHz\n", float64(profile.FrequencyHz())/1e6)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		device.Abort()
	}()

	if *mode == "send" {
		return runSend(ctx, device)
	}
	return runRecv(ctx, device)
}

func runSend(ctx context.Context, device *lr2021.Device) error {
	frame := make([]byte, frameLen)
	if *hexStr != "" {
		decoded, err := hex.DecodeString(strings.ReplaceAll(*hexStr, " ", ""))
		if err != nil {
			return fmt.Errorf("invalid hex frame: %w", err)
		}
		if len(decoded) != frameLen {
			return fmt.Errorf("frame is %d bytes, RTS frames are %d", len(decoded), frameLen)
		}
		copy(frame, decoded)
	}

	for i := 0; i < *count; i++ {
		if *hexStr == "" {
			for j := range frame {
				frame[j] = byte(i + j)
			}
		}
		if err := device.Transmit(ctx, frame); err != nil {
			return fmt.Errorf("frame %d/%d: %w", i+1, *count, err)
		}
		fmt.Printf("Sent frame %d/%d: %x\n", i+1, *count, frame)
		if i+1 < *count {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(*interval):
			}
		}
	}
	return nil
}

func runRecv(ctx context.Context, device *lr2021.Device) error {
	if !*noCalib {
		thr, err := device.CalibrateThreshold()
		if err != nil {
			return fmt.Errorf("threshold calibration: %w", err)
		}
		fmt.Printf("Detection threshold calibrated: %d\n", thr)
	}

	fmt.Println("Listening... (Ctrl-C to stop)")
	for {
		frame, err := device.Receive(ctx, 0)
		switch {
		case err == nil:
			line := fmt.Sprintf("[%s] %x", time.Now().Format("15:04:05.000"), frame)
			if st, serr := device.OokPacketStatus(); serr == nil {
				line += fmt.Sprintf("  RSSI=%.1f dBm LQI=%d.%02d",
					protocol.RssiDbm(st.RssiAvg), st.Lqi>>2, (st.Lqi&3)*25)
			}
			fmt.Println(line)
		case errors.Is(err, lr2021.ErrCrcMismatch):
			fmt.Fprintln(os.Stderr, "CRC error, frame dropped")
		case errors.Is(err, lr2021.ErrAborted):
			printStats(device)
			return nil
		default:
			return err
		}
		if *verbose {
			printStats(device)
		}
	}
}

func printStats(device *lr2021.Device) {
	stats := device.Stats()
	fmt.Printf("Stats: rx=%d crc=%d timeout=%d\n",
		stats.RxPackets, stats.CrcErrors, stats.Timeouts)
}
