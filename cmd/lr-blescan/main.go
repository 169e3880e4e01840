// lr-blescan listens on the BLE advertising channels and prints each
// advertiser the first time it is seen.
//
// Examples:
//
//	# Hop over channels 37/38/39, print new devices
//	./lr-blescan
//
//	# Stay on channel 37 and dump every PDU
//	./lr-blescan -ch 37 -all
//
//	# Ignore our own advertisements
//	./lr-blescan -ignore a4:63:ef:8c:89:e6
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/TheClams/lr2021-go/pkg/bleadv"
	"github.com/TheClams/lr2021-go/pkg/config"
	"github.com/TheClams/lr2021-go/pkg/lr2021"
	"github.com/TheClams/lr2021-go/pkg/profiles"
)

var (
	configPath = flag.String("c", "", "Tool configuration file path")
	channel    = flag.Int("ch", 0, "Advertising channel 37, 38 or 39 (0 = hop over all three)")
	dwell      = flag.Duration("dwell", 500*time.Millisecond, "Listen time per channel before hopping")
	ignoreAddr = flag.String("ignore", "", "Advertiser address to ignore (aa:bb:cc:dd:ee:ff)")
	showAll    = flag.Bool("all", false, "Print every PDU, not just new advertisers")
	duration   = flag.Duration("duration", 0, "Scan duration (0 = indefinite)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var channels []bleadv.Channel
	switch *channel {
	case 0:
		channels = bleadv.Channels()
	case 37, 38, 39:
		channels = []bleadv.Channel{bleadv.Channel(*channel)}
	default:
		return fmt.Errorf("invalid channel %d, use 37, 38 or 39", *channel)
	}

	var ignore bleadv.Addr
	if *ignoreAddr != "" {
		var err error
		ignore, err = parseAddr(*ignoreAddr)
		if err != nil {
			return err
		}
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}
	go func() {
		<-ctx.Done()
		device.Abort()
	}()

	seen := bleadv.NewAddrCache(ignore)
	fmt.Printf("Scanning BLE advertising channels %v... (Ctrl-C to stop)\n", channels)

	chIdx := 0
	for ctx.Err() == nil {
		ch := channels[chIdx]
		chIdx = (chIdx + 1) % len(channels)

		if err := device.Configure(profiles.NewBleAdv(uint8(ch))); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}

		deadline := time.Now().Add(*dwell)
		for ctx.Err() == nil && time.Now().Before(deadline) {
			payload, err := device.Receive(ctx, time.Until(deadline))
			switch {
			case err == nil:
				handlePdu(ch, payload, seen)
			case errors.Is(err, lr2021.ErrRxTimeout):
				// Channel quiet, hop
			case errors.Is(err, lr2021.ErrCrcMismatch):
				if *verbose {
					fmt.Fprintf(os.Stderr, "ch%d: CRC error\n", ch)
				}
				continue
			case errors.Is(err, lr2021.ErrAborted):
				return nil
			default:
				return err
			}
			if errors.Is(err, lr2021.ErrRxTimeout) {
				break
			}
		}
	}

	fmt.Printf("\n%d advertiser(s) seen\n", seen.Len())
	return ctx.Err()
}

func handlePdu(ch bleadv.Channel, payload []byte, seen *bleadv.AddrCache) {
	pdu, err := bleadv.Parse(payload)
	if err != nil {
		if *verbose {
			fmt.Fprintf(os.Stderr, "ch%d: %v\n", ch, err)
		}
		return
	}

	isNew := seen.Add(pdu.Addr)
	if !isNew && !*showAll {
		return
	}

	fmt.Printf("[%s] ch%d %-15s %s", time.Now().Format("15:04:05.000"), ch, pdu.Type(), pdu.Addr)
	if pdu.Header.TxAddrRandom() {
		fmt.Print(" (random)")
	}
	if target, ok := pdu.Target(); ok {
		fmt.Printf(" -> %s", target)
	}

	structs, _ := pdu.Structures()
	if name, ok := bleadv.Name(structs); ok {
		fmt.Printf("  %q", name)
	}
	fmt.Println()

	if *verbose {
		for _, s := range structs {
			line := fmt.Sprintf("    %s: %x", s.Type, s.Data)
			if id, data, ok := s.Manufacturer(); ok {
				line = fmt.Sprintf("    %s: %s %x", s.Type, bleadv.CompanyName(id), data)
			} else if uuid, ok := s.Uuid16(); ok {
				line = fmt.Sprintf("    %s: %#04x", s.Type, uuid)
			} else if s.Type == bleadv.TypeFlags && len(s.Data) > 0 {
				line = fmt.Sprintf("    %s: %s", s.Type, bleadv.Flags(s.Data[0]))
			}
			fmt.Println(line)
		}
	}
}

func parseAddr(s string) (bleadv.Addr, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return 0, fmt.Errorf("invalid address %q, want aa:bb:cc:dd:ee:ff", s)
	}
	var addr bleadv.Addr
	for _, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid address %q: %w", s, err)
		}
		addr = addr<<8 | bleadv.Addr(b)
	}
	return addr, nil
}
