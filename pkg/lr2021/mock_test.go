package lr2021

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

var errInvalidTestProfile = errors.New("invalid test profile")

// ctxNoWait is a context cancelled when the test ends so a stuck wait
// fails the test instead of hanging the run.
func ctxNoWait(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// mockPin is a GPIO pin driven by the test.
type mockPin struct {
	mu      sync.Mutex
	level   Level
	outs    []Level
	handler func()
}

func (p *mockPin) Out(l Level) error {
	p.mu.Lock()
	p.level = l
	p.outs = append(p.outs, l)
	p.mu.Unlock()
	return nil
}

func (p *mockPin) In(pull Pull) error { return nil }

func (p *mockPin) Read() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *mockPin) Watch(edge Edge, handler func()) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *mockPin) Unwatch() error {
	p.mu.Lock()
	p.handler = nil
	p.mu.Unlock()
	return nil
}

// raise drives the pin high and fires the watch handler.
func (p *mockPin) raise() {
	p.mu.Lock()
	p.level = High
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

func (p *mockPin) drop() {
	p.mu.Lock()
	p.level = Low
	p.mu.Unlock()
}

// chipSim fakes the chip behind the SPI interface. Every frame written
// is recorded; reads are served from scripted state. The interrupt pin
// follows the pending flag queue: it stays high while flags are queued
// and drops when the last set is read and cleared.
type chipSim struct {
	irqPin *mockPin

	mu       sync.Mutex
	frames   [][]byte
	status   [2]byte
	irqQueue []protocol.IrqMask
	rxFifo   []byte
	txFifo   []byte
	rssi     uint16
	regs     map[uint32]uint32
	nextRsp  []byte

	// fail, when set, is consulted for every frame and lets a test
	// inject a transport fault.
	fail func(frame []byte) error
	// onSetTx and onSetRx run after the corresponding command frame,
	// outside the sim lock.
	onSetTx func()
	onSetRx func()
}

const statusOkByte = byte(protocol.CmdOk) << 1

func newChipSim(irqPin *mockPin) *chipSim {
	return &chipSim{
		irqPin: irqPin,
		status: [2]byte{statusOkByte, byte(protocol.ModeRc)},
		regs:   make(map[uint32]uint32),
	}
}

func opOf(cmd []byte) [2]byte { return [2]byte{cmd[0], cmd[1]} }

var (
	opGetStatus      = opOf(protocol.GetStatusReq())
	opGetAndClearIrq = opOf(protocol.GetAndClearIrqReq())
	opGetVersion     = opOf(protocol.GetVersionReq())
	opGetTemp        = opOf(protocol.GetTempReq(protocol.TempSrcVbe, protocol.AdcRes13Bit))
	opGetVBat        = opOf(protocol.GetVBatReq(protocol.VbatMillivolts, protocol.AdcRes11Bit))
	opGetRandom      = opOf(protocol.GetRandomNumberReq())
	opGetRssiInst    = opOf(protocol.GetRssiInstReq())
	opGetRxPktLength = opOf(protocol.GetRxPktLengthReq())
	opReadRegMem     = opOf(protocol.ReadRegMemReq(0, 1))
	opSetRx          = opOf(protocol.SetRxDefaultCmd())
	opSetTx          = opOf(protocol.SetTxDefaultCmd())
)

func (c *chipSim) Tx(w, r []byte) error {
	var hook func()
	if err := c.handle(w, r, &hook); err != nil {
		return err
	}
	if hook != nil {
		hook()
	}
	return nil
}

func (c *chipSim) handle(w, r []byte, hook *func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := append([]byte(nil), w...)
	c.frames = append(c.frames, frame)
	if c.fail != nil {
		if err := c.fail(frame); err != nil {
			return err
		}
	}
	if len(r) >= 2 {
		r[0], r[1] = c.status[0], c.status[1]
	}
	if len(w) < 2 {
		return nil
	}
	if w[0] == 0 && w[1] == 0 {
		// zero filled window: clock out the prepared response
		copy(r[2:], c.nextRsp)
		c.nextRsp = nil
		return nil
	}

	switch opOf(w) {
	case opGetStatus:
		c.nextRsp = be32(uint32(c.peekIrq()))
	case opGetAndClearIrq:
		c.nextRsp = be32(uint32(c.popIrq()))
	case opGetVersion:
		c.nextRsp = []byte{0x01, 0x1B}
	case opGetTemp:
		c.nextRsp = []byte{0x19, 0x80} // 25.5 C
	case opGetVBat:
		c.nextRsp = []byte{0x0C, 0xE4} // 3300 mV
	case opGetRandom:
		c.nextRsp = be32(0xDEADBEEF)
	case opGetRssiInst:
		c.nextRsp = []byte{byte(c.rssi >> 1), byte(c.rssi & 1)}
	case opGetRxPktLength:
		c.nextRsp = []byte{byte(len(c.rxFifo) >> 8), byte(len(c.rxFifo))}
	case opReadRegMem:
		addr := uint32(w[2]) | uint32(w[3])<<8 | uint32(w[4])<<16
		c.nextRsp = le32(c.regs[addr])
	case protocol.OpWrTxFifo:
		c.txFifo = append([]byte(nil), w[2:]...)
	case protocol.OpRdRxFifo:
		copy(r[2:], c.rxFifo)
	case opSetTx:
		*hook = c.onSetTx
	case opSetRx:
		*hook = c.onSetRx
	}
	return nil
}

// queueIrq appends a pending flag set and asserts the interrupt pin.
func (c *chipSim) queueIrq(mask protocol.IrqMask) {
	c.mu.Lock()
	c.irqQueue = append(c.irqQueue, mask)
	c.mu.Unlock()
	c.irqPin.raise()
}

func (c *chipSim) peekIrq() protocol.IrqMask {
	if len(c.irqQueue) == 0 {
		return 0
	}
	return c.irqQueue[0]
}

func (c *chipSim) popIrq() protocol.IrqMask {
	if len(c.irqQueue) == 0 {
		return 0
	}
	mask := c.irqQueue[0]
	c.irqQueue = c.irqQueue[1:]
	if len(c.irqQueue) == 0 {
		c.irqPin.drop()
	}
	return mask
}

// opFrames returns the recorded frames starting with the given opcode.
func (c *chipSim) opFrames(op [2]byte) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [][]byte
	for _, f := range c.frames {
		if len(f) >= 2 && f[0] == op[0] && f[1] == op[1] {
			out = append(out, f)
		}
	}
	return out
}

func (c *chipSim) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *chipSim) allFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *chipSim) lastTxFifo() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.txFifo...)
}

func (c *chipSim) setRxPacket(payload []byte) {
	c.mu.Lock()
	c.rxFifo = append([]byte(nil), payload...)
	c.mu.Unlock()
}

func (c *chipSim) setRssi(raw uint16) {
	c.mu.Lock()
	c.rssi = raw
	c.mu.Unlock()
}

func (c *chipSim) setRegister(addr, value uint32) {
	c.mu.Lock()
	c.regs[addr] = value
	c.mu.Unlock()
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// testRig bundles a device wired to a chip sim.
type testRig struct {
	dev   *Device
	sim   *chipSim
	busy  *mockPin
	irq   *mockPin
	reset *mockPin
}

func newTestRig() *testRig {
	busy := &mockPin{}
	irq := &mockPin{}
	reset := &mockPin{}
	sim := newChipSim(irq)
	dev, err := NewWithHardware(Hardware{
		Spi:   sim,
		Busy:  busy,
		Irq:   irq,
		Reset: reset,
	})
	if err != nil {
		panic(err)
	}
	return &testRig{dev: dev, sim: sim, busy: busy, irq: irq, reset: reset}
}

// testProfile is a minimal FSK profile for driver tests.
type testProfile struct {
	freq    uint32
	pktType protocol.PacketType
	invalid bool
}

func (p testProfile) Validate() error {
	if p.invalid {
		return errInvalidTestProfile
	}
	return nil
}

func (p testProfile) PacketType() protocol.PacketType {
	if p.pktType != 0 {
		return p.pktType
	}
	return protocol.PacketFskGeneric
}

func (p testProfile) FrequencyHz() uint32 { return p.freq }

func (p testProfile) TxPower() uint8 { return 10 }

func (p testProfile) Ramp() protocol.RampTime { return protocol.Ramp8u }

func (p testProfile) Setup() [][]byte {
	return [][]byte{
		protocol.SetFskModulationParamsCmd(150000, protocol.ShapeBt0p5, protocol.Bw444, 25000),
	}
}
