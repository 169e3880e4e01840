// lr-info prints the chip identity and health readouts: firmware
// version, status word, latched errors, die temperature and supply
// voltage.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/TheClams/lr2021-go/pkg/config"
)

var (
	configPath  = flag.String("c", "", "Tool configuration file path")
	clearErrors = flag.Bool("clear", false, "Clear latched chip errors after reading")
	random      = flag.Bool("random", false, "Read a hardware random number")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
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

	version, err := device.GetVersion()
	if err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	fmt.Printf("Firmware:    %s\n", version)

	status, irq, err := device.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	fmt.Printf("Status:      %s\n", status)
	fmt.Printf("Pending IRQ: %s\n", irq)

	chipErrors, err := device.GetChipErrors()
	if err != nil {
		return fmt.Errorf("failed to read chip errors: %w", err)
	}
	if chipErrors.Any() {
		fmt.Printf("Errors:      %+v\n", chipErrors)
		if *clearErrors {
			if err := device.ClearChipErrors(); err != nil {
				return fmt.Errorf("failed to clear chip errors: %w", err)
			}
			fmt.Println("             cleared")
		}
	} else {
		fmt.Println("Errors:      none")
	}

	temp, err := device.GetTemp()
	if err != nil {
		return fmt.Errorf("failed to read temperature: %w", err)
	}
	fmt.Printf("Temperature: %.1f C\n", temp)

	vbat, err := device.GetVBat()
	if err != nil {
		return fmt.Errorf("failed to read supply voltage: %w", err)
	}
	fmt.Printf("Supply:      %.2f V\n", float64(vbat)/1000)

	if *random {
		r, err := device.GetRandom()
		if err != nil {
			return fmt.Errorf("failed to read random number: %w", err)
		}
		fmt.Printf("Random:      0x%08X\n", r)
	}

	return nil
}
