// lr-spectrum consumes the RSSI sweep stream a dev board emits over
// its virtual COM port and turns it into CSV or a live summary.
//
// Each line of the stream is "<freq_hz> : <raw_rssi>", where the raw
// value counts half-dB steps below 0 dBm. The stream restarts from the
// low end of the range after each pass, which this tool uses to frame
// sweeps.
//
// Examples:
//
//	# Live per-sweep summary from the default port
//	./lr-spectrum -port /dev/ttyACM0
//
//	# Record 30 seconds of sweeps to CSV
//	./lr-spectrum -port /dev/ttyACM0 -csv spectrum.csv -duration 30s
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.bug.st/serial"
)

var (
	portName  = flag.String("port", "/dev/ttyACM0", "Serial port carrying the sweep stream")
	baudRate  = flag.Int("baud", 444444, "Serial baud rate")
	csvOut    = flag.String("csv", "", "Output CSV file for sweep data")
	duration  = flag.Duration("duration", 0, "Capture duration (0 = indefinite)")
	threshold = flag.Float64("threshold", -90, "Report samples above this level (dBm)")
	listPorts = flag.Bool("l", false, "List serial ports and exit")
	verbose   = flag.Bool("v", false, "Verbose output - print every sample")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *listPorts {
		ports, err := serial.GetPortsList()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	port, err := serial.Open(*portName, &serial.Mode{BaudRate: *baudRate})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *portName, err)
	}
	defer port.Close()
	port.SetReadTimeout(time.Second)

	var csvWriter *bufio.Writer
	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer f.Close()
		csvWriter = bufio.NewWriter(f)
		defer csvWriter.Flush()
		fmt.Fprintln(csvWriter, "timestamp_ms,freq_hz,dbm")
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	var deadline time.Time
	if *duration > 0 {
		deadline = time.Now().Add(*duration)
	}

	fmt.Printf("Reading sweep stream from %s at %d baud... (Ctrl-C to stop)\n", *portName, *baudRate)

	var (
		sweepStart time.Time
		lastFreq   uint64
		points     int
		peakFreq   uint64
		peakDbm    = -200.0
		floorDbm   = 0.0
		sweeps     int
	)
	flush := func() {
		if points == 0 {
			return
		}
		sweeps++
		fmt.Printf("[%s] sweep %d: %d points, floor %.1f dBm, peak %.1f dBm at %.4f MHz\n",
			sweepStart.Format("15:04:05.000"), sweeps, points, floorDbm, peakDbm, float64(peakFreq)/1e6)
		points = 0
		peakDbm = -200.0
		floorDbm = 0.0
	}

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		select {
		case <-stopChan:
			flush()
			return nil
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			flush()
			return nil
		}

		freq, dbm, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		// The stream wraps to the range start after each pass
		if freq < lastFreq {
			flush()
		}
		lastFreq = freq

		if points == 0 {
			sweepStart = time.Now()
		}
		points++
		if dbm > peakDbm {
			peakDbm = dbm
			peakFreq = freq
		}
		if dbm < floorDbm {
			floorDbm = dbm
		}

		if csvWriter != nil {
			fmt.Fprintf(csvWriter, "%d,%d,%.1f\n", time.Now().UnixMilli(), freq, dbm)
		}
		if *verbose || dbm >= *threshold {
			fmt.Printf("  %.4f MHz  %.1f dBm\n", float64(freq)/1e6, dbm)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	flush()
	return nil
}

// parseLine decodes one "<freq_hz> : <raw_rssi>" stream line.
func parseLine(line string) (freq uint64, dbm float64, ok bool) {
	line = strings.TrimSpace(line)
	left, right, found := strings.Cut(line, ":")
	if !found {
		return 0, 0, false
	}
	freq, err := strconv.ParseUint(strings.TrimSpace(left), 10, 32)
	if err != nil {
		return 0, 0, false
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(right), 10, 16)
	if err != nil {
		return 0, 0, false
	}
	return freq, -float64(raw) / 2, true
}
