package lr2021

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

// Hardware bundles the bus and pins a Device drives. Use it with
// NewWithHardware when the hardware is opened elsewhere, for example
// on non-Linux hosts or in tests.
type Hardware struct {
	Spi   SPI
	Busy  Pin
	Irq   Pin
	Reset Pin
	// IrqDio is the chip-side DIO number routed to Irq. Defaults to 7.
	IrqDio uint8
}

// opState tracks the radio operation in flight.
type opState uint8

const (
	stateIdle opState = iota
	stateConfiguring
	stateTransmitting
	stateReceiving
	stateScanning
	stateCalibrating
)

func (s opState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConfiguring:
		return "configuring"
	case stateTransmitting:
		return "transmitting"
	case stateReceiving:
		return "receiving"
	case stateScanning:
		return "scanning"
	case stateCalibrating:
		return "calibrating"
	default:
		return "unknown"
	}
}

// Device drives one LR2021 chip over SPI. It owns the bus, the busy,
// interrupt and reset pins, the packet buffers and the stats counters.
// Operations are meant to be called from a single goroutine; Abort,
// Stats and ResetStats may be called concurrently with them.
type Device struct {
	spi    SPI
	busy   Pin
	irq    Pin
	nreset Pin
	irqDio uint8

	gate *irqGate
	buf  packetBuffers

	// busMu serializes SPI exchanges. Held for one command at a time.
	busMu sync.Mutex
	echo  [protocol.MaxCmdLen]byte
	zeros [maxRspLen]byte
	rsp   [maxRspLen]byte

	// mu guards state, profile and stats.
	mu      sync.Mutex
	state   opState
	opSeq   uint64
	profile Profile
	stats   Stats

	port io.Closer
}

// maxRspLen bounds command responses. The largest fixed response is
// the 18 byte BLE rx stats; register reads top out at 2+4*4 bytes.
const maxRspLen = 18

const (
	resetHold   = 10 * time.Millisecond
	resetSettle = 10 * time.Millisecond
)

// NewWithHardware wraps an already opened bus and pin set. The busy
// pin is switched to input, the reset line driven high and the
// interrupt pin watched for rising edges.
func NewWithHardware(hw Hardware) (*Device, error) {
	if hw.Spi == nil {
		return nil, fmt.Errorf("spi connection is required")
	}
	if hw.Busy == nil || hw.Irq == nil || hw.Reset == nil {
		return nil, fmt.Errorf("busy, irq and reset pins are required")
	}
	if hw.IrqDio == 0 {
		hw.IrqDio = 7
	}

	d := &Device{
		spi:    hw.Spi,
		busy:   hw.Busy,
		irq:    hw.Irq,
		nreset: hw.Reset,
		irqDio: hw.IrqDio,
		gate:   newIrqGate(),
	}
	d.buf.init()

	if err := hw.Busy.In(PullUp); err != nil {
		return nil, fmt.Errorf("failed to set up busy pin: %w", err)
	}
	if err := hw.Reset.Out(High); err != nil {
		return nil, fmt.Errorf("failed to set up reset pin: %w", err)
	}
	if err := hw.Irq.Watch(RisingEdge, d.gate.tick); err != nil {
		return nil, fmt.Errorf("failed to watch irq pin: %w", err)
	}
	return d, nil
}

// Reset pulses the reset line and waits for the chip to reboot.
func (d *Device) Reset() error {
	if err := d.nreset.Out(Low); err != nil {
		return fmt.Errorf("failed to drive reset low: %w", err)
	}
	time.Sleep(resetHold)
	if err := d.nreset.Out(High); err != nil {
		return fmt.Errorf("failed to release reset: %w", err)
	}
	time.Sleep(resetSettle)

	d.mu.Lock()
	d.opSeq++
	d.state = stateIdle
	d.profile = nil
	d.mu.Unlock()
	return nil
}

// WakeUp brings the chip out of sleep. The chip wakes on the falling
// chip-select edge, so a throwaway status exchange is clocked out and
// the busy line polled until the chip is ready again.
func (d *Device) WakeUp() error {
	d.busMu.Lock()
	defer d.busMu.Unlock()

	req := protocol.GetStatusReq()
	if err := d.spi.Tx(req, d.echo[:len(req)]); err != nil {
		return fmt.Errorf("spi exchange: %w", err)
	}
	return d.waitReady(busyTimeout)
}

// Close puts the chip in standby and releases the bus. Standby is
// best effort: a dead chip must not block shutdown.
func (d *Device) Close() error {
	_ = d.Abort()
	_ = d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc))
	if err := d.irq.Unwatch(); err != nil {
		return fmt.Errorf("failed to release irq pin: %w", err)
	}
	if d.port != nil {
		return d.port.Close()
	}
	return nil
}

// beginOp claims the single operation slot. The returned token must be
// passed to endOp, which releases the slot only if the operation was
// not displaced by Abort or Reset in the meantime.
func (d *Device) beginOp(s opState) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateIdle {
		return 0, fmt.Errorf("radio is %s", d.state)
	}
	d.opSeq++
	d.state = s
	return d.opSeq, nil
}

func (d *Device) endOp(token uint64) {
	d.mu.Lock()
	if d.opSeq == token {
		d.state = stateIdle
	}
	d.mu.Unlock()
}

// opDisplaced reports whether Abort or Reset took the slot away.
func (d *Device) opDisplaced(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opSeq != token
}

func (d *Device) currentProfile() Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile
}
