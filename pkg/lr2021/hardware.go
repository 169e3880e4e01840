package lr2021

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// realPin wraps a gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
	stopWatch chan struct{}
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	var pPull gpio.Pull
	switch pull {
	case PullFloat:
		pPull = gpio.Float
	case PullDown:
		pPull = gpio.PullDown
	case PullUp:
		pPull = gpio.PullUp
	default:
		pPull = gpio.PullNoChange
	}
	return p.PinIO.In(pPull, gpio.NoEdge)
}

func (p *realPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

func (p *realPin) Watch(edge Edge, handler func()) error {
	var pEdge gpio.Edge
	switch edge {
	case RisingEdge:
		pEdge = gpio.RisingEdge
	case FallingEdge:
		pEdge = gpio.FallingEdge
	case BothEdges:
		pEdge = gpio.BothEdges
	default:
		pEdge = gpio.NoEdge
	}

	if err := p.PinIO.In(gpio.PullUp, pEdge); err != nil {
		return err
	}

	p.stopWatch = make(chan struct{})

	go func() {
		for {
			if p.PinIO.WaitForEdge(-1) {
				select {
				case <-p.stopWatch:
					return
				default:
					handler()
				}
			} else {
				select {
				case <-p.stopWatch:
					return
				default:
				}
			}
		}
	}()
	return nil
}

func (p *realPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
	return p.PinIO.In(gpio.PullUp, gpio.NoEdge)
}

// Config holds the hardware wiring for the Linux/periph.io driver.
type Config struct {
	// SpiBusPath is the path to the SPI bus (e.g. "/dev/spidev0.0").
	// Defaults to "/dev/spidev0.0".
	SpiBusPath string
	// SpiClockHz is the SPI clock frequency in Hz. Defaults to 4000000.
	SpiClockHz int
	// BusyPin is the GPIO pin number (BCM numbering) wired to BUSY.
	// Defaults to 20.
	BusyPin int
	// IrqPin is the GPIO pin number (BCM numbering) wired to the DIO
	// used as interrupt output. Defaults to 16.
	IrqPin int
	// ResetPin is the GPIO pin number (BCM numbering) wired to NRESET.
	// Defaults to 18.
	ResetPin int
	// IrqDio is the chip-side DIO number routed to IrqPin.
	// Defaults to 7.
	IrqDio uint8
}

// New opens the SPI bus and GPIO pins described by c and returns a
// ready Device. The chip is not reset or configured.
func New(c Config) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}

	if c.SpiBusPath == "" {
		c.SpiBusPath = "/dev/spidev0.0"
	}
	if c.SpiClockHz == 0 {
		c.SpiClockHz = 4000000
	}
	if c.BusyPin == 0 {
		c.BusyPin = 20
	}
	if c.IrqPin == 0 {
		c.IrqPin = 16
	}
	if c.ResetPin == 0 {
		c.ResetPin = 18
	}

	p, err := spireg.Open(c.SpiBusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	conn, err := p.Connect(physic.Frequency(c.SpiClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create SPI connection: %w", err)
	}

	pin := func(n int) (*realPin, error) {
		name := fmt.Sprintf("GPIO%d", n)
		io := gpioreg.ByName(name)
		if io == nil {
			return nil, fmt.Errorf("failed to open pin %s", name)
		}
		return &realPin{PinIO: io}, nil
	}

	busy, err := pin(c.BusyPin)
	if err != nil {
		p.Close()
		return nil, err
	}
	irq, err := pin(c.IrqPin)
	if err != nil {
		p.Close()
		return nil, err
	}
	reset, err := pin(c.ResetPin)
	if err != nil {
		p.Close()
		return nil, err
	}

	dev, err := NewWithHardware(Hardware{
		Spi:    conn,
		Busy:   busy,
		Irq:    irq,
		Reset:  reset,
		IrqDio: c.IrqDio,
	})
	if err != nil {
		p.Close()
		return nil, err
	}
	dev.port = p
	return dev, nil
}
