// lr-scan sweeps frequency bands with the LR2021 and reports the
// signals it finds.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheClams/lr2021-go/pkg/config"
	"github.com/TheClams/lr2021-go/pkg/profiles"
	"github.com/TheClams/lr2021-go/pkg/scanner"
)

var (
	configPath = flag.String("c", "", "Tool configuration file path")
	scanConfig = flag.String("scan", "", "Scanner configuration JSON file")
	startMhz   = flag.Float64("start", 433.05, "Sweep start frequency in MHz")
	stopMhz    = flag.Float64("stop", 434.79, "Sweep stop frequency in MHz")
	stepKhz    = flag.Float64("step", 25, "Sweep step in kHz")
	threshold  = flag.Float64("threshold", scanner.DefaultThresholdDbm, "Detection threshold in dBm")
	duration   = flag.Duration("duration", 0, "Scan duration (0 = indefinite)")
	once       = flag.Bool("once", false, "Run a single sweep cycle and exit")
	csvOut     = flag.String("csv", "", "Output CSV file for sweep data")
	verbose    = flag.Bool("v", false, "Verbose output - show every cycle")
	quiet      = flag.Bool("q", false, "Quiet mode - only show detected signals")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Band scanner for the LR2021\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -start 433.05 -stop 434.79 -step 25   # Sweep LPD433\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -scan etc/scan.json -csv sweep.csv    # Bands from file, log samples\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -threshold -80 -q                     # Only report signals above -80 dBm\n", os.Args[0])
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	toolCfg := config.Default()
	if *configPath != "" {
		var err error
		toolCfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	// Scanner configuration: file if given, flags otherwise
	var scanCfg *scanner.Config
	if *scanConfig != "" {
		file, err := scanner.LoadConfigFile(*scanConfig)
		if err != nil {
			return err
		}
		scanCfg = file.ToConfig()
	} else {
		scanCfg = scanner.DefaultConfig()
		scanCfg.Bands = []scanner.Band{{
			Name:    "sweep",
			StartHz: uint32(*startMhz * 1e6),
			StopHz:  uint32(*stopMhz * 1e6),
			StepHz:  uint32(*stepKhz * 1e3),
		}}
		scanCfg.ThresholdDbm = *threshold
	}
	scanCfg.OnSignalDetected = func(info *scanner.SignalInfo) {
		fmt.Printf("[%s] SIGNAL %.4f MHz  %.1f dBm\n",
			info.FirstSeen.Format("15:04:05.000"), float64(info.Frequency)/1e6, info.Dbm)
	}
	scanCfg.OnSignalLost = func(info *scanner.SignalInfo) {
		fmt.Printf("[%s] LOST   %.4f MHz  (seen %d times, max %.1f dBm)\n",
			time.Now().Format("15:04:05.000"), float64(info.Frequency)/1e6,
			info.DetectionCount, info.MaxDbm)
	}
	if *verbose {
		scanCfg.DebugLog = func(format string, args ...interface{}) {
			fmt.Printf("debug: "+format+"\n", args...)
		}
	}
	if err := scanCfg.Validate(); err != nil {
		return err
	}

	device, err := toolCfg.OpenDevice()
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer device.Close()

	if err := device.Reset(); err != nil {
		return fmt.Errorf("failed to reset device: %w", err)
	}

	// The sweep measures through the configured receive path; a plain
	// FSK profile serves unless the tool config names something else.
	profile, err := toolCfg.Profile()
	if err != nil {
		return err
	}
	if profile == nil {
		profile = profiles.NewFsk433Narrow()
	}
	if err := device.Configure(profile); err != nil {
		return fmt.Errorf("failed to configure radio: %w", err)
	}

	var csvWriter *bufio.Writer
	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer f.Close()
		csvWriter = bufio.NewWriter(f)
		defer csvWriter.Flush()
		fmt.Fprintln(csvWriter, "timestamp_ms,band,freq_hz,dbm")
	}

	sc := scanner.New(device, scanCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if *once {
		result, err := sc.ScanOnce()
		if err != nil {
			return err
		}
		report(result, csvWriter)
		return nil
	}

	results := make(chan *scanner.ScanResult, 4)
	go func() {
		for result := range results {
			if !*quiet || result.SignalDetected {
				report(result, csvWriter)
			}
		}
	}()

	err = sc.ScanContinuous(ctx, results)
	if err == context.Canceled || err == context.DeadlineExceeded {
		err = nil
	}

	fmt.Printf("\n%d signal(s) tracked:\n", len(sc.ActiveSignals()))
	for _, info := range sc.ActiveSignals() {
		fmt.Printf("  %.4f MHz  max %.1f dBm  %d detections\n",
			float64(info.Frequency)/1e6, info.MaxDbm, info.DetectionCount)
	}
	return err
}

func report(result *scanner.ScanResult, csvWriter *bufio.Writer) {
	if csvWriter != nil {
		ms := result.Timestamp.UnixMilli()
		for _, sweep := range result.Sweeps {
			for _, pt := range sweep.Points {
				fmt.Fprintf(csvWriter, "%d,%s,%d,%.1f\n", ms, sweep.Band, pt.FreqHz, pt.Dbm)
			}
		}
	}
	if result.SignalDetected {
		fmt.Printf("[%s] peak %.4f MHz  %.1f dBm\n",
			result.Timestamp.Format("15:04:05.000"), float64(result.Frequency)/1e6, result.Dbm)
	} else {
		for _, sweep := range result.Sweeps {
			fmt.Printf("[%s] %s: floor %.1f dBm, nothing above threshold\n",
				result.Timestamp.Format("15:04:05.000"), sweep.Band, sweep.NoiseFloor())
		}
	}
}
