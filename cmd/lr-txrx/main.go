// lr-txrx: Example program for sending and receiving packets with the LR2021
//
// This tool configures an LR2021 with a radio profile and either
// transmits data or listens for incoming packets.
//
// Examples:
//
//	# Receive mode - listen for packets and display them
//	./lr-txrx -m recv -preset lora-901-fast
//
//	# Send mode - transmit data from command line
//	./lr-txrx -m send -preset lora-901-fast -data "Hello World"
//
//	# Send mode - transmit hex data with a saved profile
//	./lr-txrx -m send -profile etc/fsk.json -hex "DEADBEEF"
//
//	# Send mode - repeat transmission 10 times
//	./lr-txrx -m send -preset lora-901-fast -data "test" -repeat 10
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
)

func main() {
	// Parse command line flags
	mode := flag.String("m", "", "Mode: 'send' or 'recv' (required)")
	configPath := flag.String("c", "", "Tool configuration file path")
	presetName := flag.String("preset", "", "Profile preset name ("+strings.Join(profiles.Names(), ", ")+")")
	profilePath := flag.String("profile", "", "Profile JSON file (overrides -preset)")
	verbose := flag.Bool("v", false, "Verbose output")

	// Send mode options
	dataStr := flag.String("data", "", "Data to send (ASCII string)")
	hexStr := flag.String("hex", "", "Data to send (hex encoded)")
	repeat := flag.Uint("repeat", 0, "Number of times to repeat transmission (0 = once)")
	interval := flag.Duration("interval", 100*time.Millisecond, "Delay between repeated transmissions")

	// Receive mode options
	timeout := flag.Duration("timeout", 1*time.Second, "Receive timeout per packet (0 = wait forever)")
	count := flag.Int("count", 0, "Number of packets to receive (0 = infinite)")
	rawOutput := flag.Bool("raw", false, "Output raw hex only (for piping)")

	flag.Parse()

	if *mode == "" {
		fmt.Fprintln(os.Stderr, "Error: Mode (-m) is required. Use 'send' or 'recv'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	*mode = strings.ToLower(*mode)
	if *mode != "send" && *mode != "recv" {
		fmt.Fprintf(os.Stderr, "Error: Invalid mode '%s'. Use 'send' or 'recv'\n", *mode)
		os.Exit(1)
	}

	// Resolve the tool configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}
	if *presetName != "" {
		cfg.Preset = *presetName
	}
	if *profilePath != "" {
		cfg.ProfileFile = *profilePath
	}

	profile, err := cfg.Profile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if profile == nil {
		profile = profiles.NewLora901Fast()
	}

	if *verbose {
		fmt.Printf("Profile:\n")
		fmt.Printf("  Modem:      %s\n", profile.PacketType())
		fmt.Printf("  Frequency:  %.6f MHz\n", float64(profile.FrequencyHz())/1e6)
		fmt.Printf("  TX power:   %d\n", profile.TxPower())
	}

	// Open and reset the radio
	device, err := cfg.OpenDevice()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open device: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()

	if err := device.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to reset device: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		if v, err := device.GetVersion(); err == nil {
			fmt.Printf("  Firmware:   %s\n", v)
		}
	}

	if err := device.Configure(profile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to configure radio: %v\n", err)
		os.Exit(1)
	}

	// Abort the radio on Ctrl-C so blocking calls return
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		device.Abort()
	}()

	switch *mode {
	case "send":
		err = runSend(ctx, device, *dataStr, *hexStr, *repeat, *interval, *verbose)
	case "recv":
		err = runRecv(ctx, device, *timeout, *count, *rawOutput, *verbose)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		stats := device.Stats()
		fmt.Printf("\nStats: tx=%d rx=%d crc=%d timeout=%d\n",
			stats.TxPackets, stats.RxPackets, stats.CrcErrors, stats.Timeouts)
	}
}

func runSend(ctx context.Context, device *lr2021.Device, dataStr, hexStr string, repeat uint, interval time.Duration, verbose bool) error {
	var payload []byte
	switch {
	case dataStr != "":
		payload = []byte(dataStr)
	case hexStr != "":
		var err error
		payload, err = hex.DecodeString(strings.ReplaceAll(hexStr, " ", ""))
		if err != nil {
			return fmt.Errorf("invalid hex data: %w", err)
		}
	default:
		return fmt.Errorf("send mode needs -data or -hex")
	}

	total := int(repeat)
	if total == 0 {
		total = 1
	}
	for i := 0; i < total; i++ {
		if err := device.Transmit(ctx, payload); err != nil {
			return fmt.Errorf("transmit %d/%d: %w", i+1, total, err)
		}
		if verbose {
			fmt.Printf("Sent %d/%d: %d bytes\n", i+1, total, len(payload))
		}
		if i+1 < total {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	fmt.Printf("Transmitted %d packet(s) of %d bytes\n", total, len(payload))
	return nil
}

func runRecv(ctx context.Context, device *lr2021.Device, timeout time.Duration, count int, rawOutput, verbose bool) error {
	if !rawOutput {
		fmt.Println("Listening... (Ctrl-C to stop)")
	}

	received := 0
	for count == 0 || received < count {
		payload, err := device.Receive(ctx, timeout)
		switch {
		case err == nil:
			received++
			if rawOutput {
				fmt.Printf("%x\n", payload)
			} else {
				fmt.Printf("[%s] %d bytes: %x", time.Now().Format("15:04:05.000"), len(payload), payload)
				if isPrintable(payload) {
					fmt.Printf("  %q", payload)
				}
				fmt.Println()
			}
		case errors.Is(err, lr2021.ErrRxTimeout):
			if verbose {
				fmt.Println("... timeout")
			}
		case errors.Is(err, lr2021.ErrCrcMismatch):
			fmt.Fprintln(os.Stderr, "CRC error, packet dropped")
		case errors.Is(err, lr2021.ErrAborted):
			return nil
		default:
			return err
		}
	}
	return nil
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return len(b) > 0
}
