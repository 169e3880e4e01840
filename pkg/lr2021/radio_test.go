package lr2021

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

func TestConfigureCommandSequence(t *testing.T) {
	rig := newTestRig()
	p := testProfile{freq: 868000000}
	if err := rig.dev.Configure(p); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	want := [][]byte{
		protocol.SetRfFrequencyCmd(868000000),
		protocol.SetRxPathCmd(protocol.RxPathLf, 0),
		protocol.CalibFeCmd(),
		protocol.SetPacketTypeCmd(protocol.PacketFskGeneric),
		protocol.SetFskModulationParamsCmd(150000, protocol.ShapeBt0p5, protocol.Bw444, 25000),
		protocol.SetTxParamsCmd(10, protocol.Ramp8u),
		protocol.SetDioFunctionCmd(7, protocol.DioFuncIrq, protocol.PullAuto),
	}
	got := rig.sim.allFrames()
	if len(got) != len(want) {
		t.Fatalf("Configure() sent %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("frame %d = % x, want % x", i, got[i], want[i])
		}
	}
	if got := rig.dev.Stats(); got != (Stats{}) {
		t.Errorf("Configure() touched counters: %+v", got)
	}
}

func TestConfigureSelectsHighFrequencyPath(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 2402000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	frames := rig.sim.opFrames(opOf(protocol.SetRxPathCmd(protocol.RxPathHf, 0)))
	if len(frames) != 1 {
		t.Fatalf("sent %d rx path frames, want 1", len(frames))
	}
	want := protocol.SetRxPathCmd(protocol.RxPathHf, 7)
	if !bytes.Equal(frames[0], want) {
		t.Errorf("rx path frame = % x, want % x", frames[0], want)
	}
}

func TestConfigureIdenticalProfileIsNoOp(t *testing.T) {
	rig := newTestRig()
	p := testProfile{freq: 868000000}
	if err := rig.dev.Configure(p); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	n := rig.sim.frameCount()

	if err := rig.dev.Configure(p); err != nil {
		t.Fatalf("second Configure() error: %v", err)
	}
	if rig.sim.frameCount() != n {
		t.Errorf("identical Configure() sent %d frames, want 0", rig.sim.frameCount()-n)
	}

	// a different profile must be applied in full
	if err := rig.dev.Configure(testProfile{freq: 915000000}); err != nil {
		t.Fatalf("Configure(new) error: %v", err)
	}
	if rig.sim.frameCount() == n {
		t.Error("changed Configure() sent no frames")
	}
}

func TestConfigureRejectsBadProfiles(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(nil); err == nil {
		t.Error("Configure(nil) succeeded, want error")
	}
	if err := rig.dev.Configure(testProfile{freq: 868000000, invalid: true}); !errors.Is(err, errInvalidTestProfile) {
		t.Errorf("Configure(invalid) = %v, want validation error", err)
	}
	if rig.sim.frameCount() != 0 {
		t.Errorf("rejected Configure() reached the bus: %d frames", rig.sim.frameCount())
	}
}

func TestConfigureAllOrNothing(t *testing.T) {
	rig := newTestRig()
	boom := errors.New("spi glitch")
	pktType := opOf(protocol.SetPacketTypeCmd(0))
	rig.sim.fail = func(frame []byte) error {
		if opOf(frame) == pktType {
			return boom
		}
		return nil
	}

	if err := rig.dev.Configure(testProfile{freq: 868000000}); !errors.Is(err, boom) {
		t.Fatalf("Configure() = %v, want spi glitch", err)
	}
	// the half applied profile must not count as configured
	if err := rig.dev.Transmit(ctxNoWait(t), []byte{1}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Transmit() = %v, want ErrNotConfigured", err)
	}

	rig.sim.fail = nil
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() retry error: %v", err)
	}
}

func TestOpsRequireProfile(t *testing.T) {
	tests := []struct {
		name string
		op   func(d *Device, t *testing.T) error
	}{
		{"transmit", func(d *Device, t *testing.T) error {
			return d.Transmit(ctxNoWait(t), []byte{1})
		}},
		{"receive", func(d *Device, t *testing.T) error {
			_, err := d.Receive(ctxNoWait(t), time.Second)
			return err
		}},
		{"scan", func(d *Device, t *testing.T) error {
			_, err := d.Scan(400000000, 500000000, 100000)
			return err
		}},
		{"measure rssi", func(d *Device, t *testing.T) error {
			_, err := d.MeasureRssi(433920000, time.Millisecond)
			return err
		}},
		{"calibrate threshold", func(d *Device, t *testing.T) error {
			_, err := d.CalibrateThreshold()
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig()
			if err := tt.op(rig.dev, t); !errors.Is(err, ErrNotConfigured) {
				t.Errorf("%s = %v, want ErrNotConfigured", tt.name, err)
			}
		})
	}
}

func TestTransmitSuccess(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetTx = func() { rig.sim.queueIrq(protocol.IrqTxDone) }
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	payload := []byte("hello radio")
	if err := rig.dev.Transmit(ctxNoWait(t), payload); err != nil {
		t.Fatalf("Transmit() error: %v", err)
	}
	if got := rig.sim.lastTxFifo(); !bytes.Equal(got, payload) {
		t.Errorf("tx fifo = %q, want %q", got, payload)
	}
	if got := rig.dev.Stats(); got != (Stats{TxPackets: 1}) {
		t.Errorf("Stats() = %+v, want one tx packet", got)
	}
	// interrupts must be routed before the fifo is loaded
	arm := rig.sim.opFrames(opOf(protocol.SetDioIrqConfigCmd(7, 0)))
	if len(arm) != 1 {
		t.Fatalf("sent %d irq config frames, want 1", len(arm))
	}
	want := protocol.SetDioIrqConfigCmd(7, protocol.IrqTxDone|protocol.IrqTimeout)
	if !bytes.Equal(arm[0], want) {
		t.Errorf("irq config = % x, want % x", arm[0], want)
	}
}

func TestTransmitChipTimeout(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetTx = func() { rig.sim.queueIrq(protocol.IrqTimeout) }
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	if err := rig.dev.Transmit(ctxNoWait(t), []byte{1, 2, 3}); !errors.Is(err, ErrTxTimeout) {
		t.Fatalf("Transmit() = %v, want ErrTxTimeout", err)
	}
	if got := rig.dev.Stats(); got != (Stats{Timeouts: 1}) {
		t.Errorf("Stats() = %+v, want one timeout", got)
	}
	// the chip must be hauled back to standby with clean fifos
	if n := len(rig.sim.opFrames(opOf(protocol.SetStandbyCmd(protocol.StandbyRc)))); n != 1 {
		t.Errorf("sent %d standby frames, want 1", n)
	}
	if n := len(rig.sim.opFrames(opOf(protocol.ClearTxFifoCmd()))); n != 1 {
		t.Errorf("sent %d tx fifo clears, want 1", n)
	}
}

func TestTransmitTransportFault(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	boom := errors.New("wire broke")
	rig.sim.fail = func(frame []byte) error {
		if opOf(frame) == protocol.OpWrTxFifo {
			return boom
		}
		return nil
	}

	err := rig.dev.Transmit(ctxNoWait(t), []byte{1})
	if !errors.Is(err, boom) {
		t.Fatalf("Transmit() = %v, want wire broke", err)
	}
	if errors.Is(err, ErrTxTimeout) {
		t.Error("transport fault reported as timeout")
	}
	if got := rig.dev.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want untouched", got)
	}
}

func TestTransmitPayloadBounds(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetTx = func() { rig.sim.queueIrq(protocol.IrqTxDone) }
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	n := rig.sim.frameCount()
	err := rig.dev.Transmit(ctxNoWait(t), make([]byte, MaxPayload+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("Transmit(256 bytes) = %v, want ErrPayloadTooLarge", err)
	}
	if rig.sim.frameCount() != n {
		t.Errorf("oversize payload reached the bus: %d frames", rig.sim.frameCount()-n)
	}
	if got := rig.dev.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want untouched", got)
	}

	full := make([]byte, MaxPayload)
	for i := range full {
		full[i] = byte(i)
	}
	if err := rig.dev.Transmit(ctxNoWait(t), full); err != nil {
		t.Fatalf("Transmit(255 bytes) error: %v", err)
	}
	if got := rig.sim.lastTxFifo(); !bytes.Equal(got, full) {
		t.Error("255 byte payload mangled on the way to the fifo")
	}
}

func TestTransmitReceiveRoundTrip(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetTx = func() { rig.sim.queueIrq(protocol.IrqTxDone) }
	rig.sim.onSetRx = func() {
		rig.sim.setRxPacket(rig.sim.lastTxFifo())
		rig.sim.queueIrq(protocol.IrqRxDone)
	}
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	sent := []byte{0xDE, 0xAD, 0x00, 0xBE, 0xEF}
	if err := rig.dev.Transmit(ctxNoWait(t), sent); err != nil {
		t.Fatalf("Transmit() error: %v", err)
	}
	got, err := rig.dev.Receive(ctxNoWait(t), time.Second)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if !bytes.Equal(got, sent) {
		t.Errorf("Receive() = % x, want % x", got, sent)
	}
	if stats := rig.dev.Stats(); stats != (Stats{TxPackets: 1, RxPackets: 1}) {
		t.Errorf("Stats() = %+v, want one tx and one rx", stats)
	}
}

func TestReceiveCrcMismatch(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetRx = func() {
		rig.sim.setRxPacket([]byte{0xBA, 0xD0})
		rig.sim.queueIrq(protocol.IrqCrcError)
	}
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	got, err := rig.dev.Receive(ctxNoWait(t), time.Second)
	if !errors.Is(err, ErrCrcMismatch) {
		t.Fatalf("Receive() = %v, want ErrCrcMismatch", err)
	}
	if got != nil {
		t.Errorf("Receive() surfaced a corrupt payload: % x", got)
	}
	if stats := rig.dev.Stats(); stats != (Stats{CrcErrors: 1}) {
		t.Errorf("Stats() = %+v, want one crc error", stats)
	}
	// the corrupt frame must be flushed out of the fifo
	if n := len(rig.sim.opFrames(opOf(protocol.ClearRxFifoCmd()))); n != 1 {
		t.Errorf("sent %d rx fifo clears, want 1", n)
	}
}

func TestReceiveChipTimeout(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetRx = func() { rig.sim.queueIrq(protocol.IrqTimeout) }
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	if _, err := rig.dev.Receive(ctxNoWait(t), time.Second); !errors.Is(err, ErrRxTimeout) {
		t.Fatalf("Receive() = %v, want ErrRxTimeout", err)
	}
	if stats := rig.dev.Stats(); stats != (Stats{Timeouts: 1}) {
		t.Errorf("Stats() = %+v, want one timeout", stats)
	}
	// the radio must be usable right away
	if err := rig.dev.Configure(testProfile{freq: 915000000}); err != nil {
		t.Errorf("Configure() after timeout error: %v", err)
	}
}

func TestReceiveGateTimeout(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	// the chip never raises an interrupt, the driver side timer must fire
	start := time.Now()
	_, err := rig.dev.Receive(ctxNoWait(t), 30*time.Millisecond)
	if !errors.Is(err, ErrRxTimeout) {
		t.Fatalf("Receive() = %v, want ErrRxTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Receive() gave up after %v, before the timeout", elapsed)
	}
	if stats := rig.dev.Stats(); stats != (Stats{Timeouts: 1}) {
		t.Errorf("Stats() = %+v, want one timeout", stats)
	}
	if n := len(rig.sim.opFrames(opOf(protocol.SetStandbyCmd(protocol.StandbyRc)))); n != 1 {
		t.Errorf("sent %d standby frames, want 1", n)
	}
}

func TestReceiveSurvivesPreamble(t *testing.T) {
	rig := newTestRig()
	payload := []byte{1, 2, 3, 4}
	rig.sim.onSetRx = func() {
		rig.sim.setRxPacket(payload)
		// preamble first, packet completes after
		rig.sim.queueIrq(protocol.IrqPreambleDetected)
		rig.sim.queueIrq(protocol.IrqRxDone)
	}
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	got, err := rig.dev.Receive(ctxNoWait(t), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Receive() = % x, want % x", got, payload)
	}
}

func TestReceivePreambleExtendsOnlyOnce(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetRx = func() {
		// two preambles and then silence must still end in a timeout
		rig.sim.queueIrq(protocol.IrqPreambleDetected)
		rig.sim.queueIrq(protocol.IrqPreambleDetected)
	}
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	if _, err := rig.dev.Receive(ctxNoWait(t), 20*time.Millisecond); !errors.Is(err, ErrRxTimeout) {
		t.Fatalf("Receive() = %v, want ErrRxTimeout", err)
	}
	if stats := rig.dev.Stats(); stats != (Stats{Timeouts: 1}) {
		t.Errorf("Stats() = %+v, want one timeout", stats)
	}
}

func TestReceiveUntimedUsesSingleMode(t *testing.T) {
	rig := newTestRig()
	rig.sim.onSetRx = func() {
		rig.sim.setRxPacket([]byte{42})
		rig.sim.queueIrq(protocol.IrqRxDone)
	}
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	got, err := rig.dev.Receive(ctxNoWait(t), 0)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if !bytes.Equal(got, []byte{42}) {
		t.Errorf("Receive() = % x, want 2a", got)
	}
	frames := rig.sim.opFrames(opSetRx)
	if len(frames) != 1 {
		t.Fatalf("sent %d set rx frames, want 1", len(frames))
	}
	if want := protocol.SetRxCmd(protocol.TimeoutSingle); !bytes.Equal(frames[0], want) {
		t.Errorf("set rx frame = % x, want % x", frames[0], want)
	}
}

func TestReceiveContextCancel(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := rig.dev.Receive(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive() = %v, want context.Canceled", err)
	}
}

func TestAbortAtIdleIsNoOp(t *testing.T) {
	rig := newTestRig()
	for i := 0; i < 2; i++ {
		if err := rig.dev.Abort(); err != nil {
			t.Fatalf("Abort() #%d error: %v", i+1, err)
		}
	}
	if rig.sim.frameCount() != 0 {
		t.Errorf("idle Abort() sent %d frames, want 0", rig.sim.frameCount())
	}
}

func TestAbortUnblocksReceive(t *testing.T) {
	rig := newTestRig()
	started := make(chan struct{})
	rig.sim.onSetRx = func() { close(started) }
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := rig.dev.Receive(ctxNoWait(t), 0)
		done <- err
	}()
	<-started

	// the radio is taken, a second operation must bounce off
	if err := rig.dev.Transmit(ctxNoWait(t), []byte{1}); err == nil {
		t.Error("Transmit() during receive succeeded, want busy error")
	} else if errors.Is(err, ErrNotConfigured) {
		t.Errorf("Transmit() during receive = %v, want busy error", err)
	}

	if err := rig.dev.Abort(); err != nil {
		t.Fatalf("Abort() error: %v", err)
	}
	if err := <-done; !errors.Is(err, ErrAborted) {
		t.Fatalf("Receive() = %v, want ErrAborted", err)
	}
	if stats := rig.dev.Stats(); stats != (Stats{}) {
		t.Errorf("Stats() = %+v, want untouched by abort", stats)
	}

	// the abort must leave the radio ready for the next operation
	rig.sim.onSetTx = func() { rig.sim.queueIrq(protocol.IrqTxDone) }
	if err := rig.dev.Transmit(ctxNoWait(t), []byte{2}); err != nil {
		t.Errorf("Transmit() after abort error: %v", err)
	}
}

func TestScanSweepsBand(t *testing.T) {
	rig := newTestRig()
	rig.sim.setRssi(160) // -80 dBm
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	sweep, err := rig.dev.Scan(400000000, 1100000000, 250000)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	defer sweep.Stop()

	var points []SweepPoint
	for sweep.Next() {
		points = append(points, sweep.Point())
	}
	if err := sweep.Err(); err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if len(points) != 2801 {
		t.Fatalf("sweep produced %d points, want 2801", len(points))
	}
	if points[0].FreqHz != 400000000 {
		t.Errorf("first point at %d Hz, want 400 MHz", points[0].FreqHz)
	}
	if points[len(points)-1].FreqHz != 1100000000 {
		t.Errorf("last point at %d Hz, want 1100 MHz", points[len(points)-1].FreqHz)
	}
	for i := 1; i < len(points); i++ {
		if points[i].FreqHz <= points[i-1].FreqHz {
			t.Fatalf("point %d at %d Hz not above %d Hz", i, points[i].FreqHz, points[i-1].FreqHz)
		}
	}
	for _, pt := range points {
		if pt.Dbm != -80 {
			t.Fatalf("point at %d Hz reads %v dBm, want -80", pt.FreqHz, pt.Dbm)
		}
	}
}

func TestScanRaisesRssiAveraging(t *testing.T) {
	rig := newTestRig()
	rig.sim.setRegister(0xF3014C, 0x00000F00)
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	sweep, err := rig.dev.Scan(433000000, 434000000, 500000)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	sweep.Stop()

	frames := rig.sim.opFrames(opOf(protocol.WriteRegMemCmd(0, 0)))
	if len(frames) != 1 {
		t.Fatalf("sent %d register writes, want 1", len(frames))
	}
	want := protocol.WriteRegMemCmd(0xF3014C, 0x00000038)
	if !bytes.Equal(frames[0], want) {
		t.Errorf("rssi config write = % x, want % x", frames[0], want)
	}
}

func TestScanValidatesRange(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if _, err := rig.dev.Scan(400000000, 500000000, 0); err == nil {
		t.Error("Scan(step 0) succeeded, want error")
	}
	if _, err := rig.dev.Scan(500000000, 400000000, 100000); err == nil {
		t.Error("Scan(stop below start) succeeded, want error")
	}
}

func TestScanStopReleasesRadio(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	sweep, err := rig.dev.Scan(433000000, 434000000, 100000)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	for i := 0; i < 3 && sweep.Next(); i++ {
	}
	if err := sweep.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if sweep.Next() {
		t.Error("Next() after Stop() returned true")
	}

	// the chip parks in standby at the last tuned frequency
	tunes := rig.sim.opFrames(opOf(protocol.SetRfFrequencyCmd(0)))
	last := tunes[len(tunes)-1]
	if want := protocol.SetRfFrequencyCmd(433200000); !bytes.Equal(last, want) {
		t.Errorf("last tune = % x, want % x", last, want)
	}
	if n := len(rig.sim.opFrames(opOf(protocol.SetStandbyCmd(protocol.StandbyRc)))); n != 1 {
		t.Errorf("sent %d standby frames, want 1", n)
	}

	// and the radio is free again
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Errorf("Configure() after sweep error: %v", err)
	}
}

func TestScanAborted(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	sweep, err := rig.dev.Scan(433000000, 434000000, 100000)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if !sweep.Next() {
		t.Fatalf("first Next() = false, err %v", sweep.Err())
	}
	if err := rig.dev.Abort(); err != nil {
		t.Fatalf("Abort() error: %v", err)
	}
	if sweep.Next() {
		t.Error("Next() after Abort() returned true")
	}
	if err := sweep.Err(); !errors.Is(err, ErrAborted) {
		t.Errorf("Err() = %v, want ErrAborted", err)
	}
}

func TestMeasureRssi(t *testing.T) {
	rig := newTestRig()
	rig.sim.setRssi(163)
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	dbm, err := rig.dev.MeasureRssi(434000000, time.Millisecond)
	if err != nil {
		t.Fatalf("MeasureRssi() error: %v", err)
	}
	if dbm != -81.5 {
		t.Errorf("MeasureRssi() = %v dBm, want -81.5", dbm)
	}

	tunes := rig.sim.opFrames(opOf(protocol.SetRfFrequencyCmd(0)))
	last := tunes[len(tunes)-1]
	if want := protocol.SetRfFrequencyCmd(434000000); !bytes.Equal(last, want) {
		t.Errorf("tune frame = % x, want % x", last, want)
	}
	if n := len(rig.sim.opFrames(opOf(protocol.SetStandbyCmd(protocol.StandbyRc)))); n != 1 {
		t.Errorf("sent %d standby frames, want 1", n)
	}
}

func TestCalibrateThreshold(t *testing.T) {
	rig := newTestRig()
	rig.sim.setRssi(240) // -120 dBm ambient
	if err := rig.dev.Configure(testProfile{freq: 433920000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	thr, err := rig.dev.CalibrateThreshold()
	if err != nil {
		t.Fatalf("CalibrateThreshold() error: %v", err)
	}
	if thr != -41 {
		t.Errorf("CalibrateThreshold() = %d, want -41", thr)
	}
	// not an OOK profile: computed only, never written to the chip
	if n := len(rig.sim.opFrames(opOf(protocol.SetOokThrCmd(0)))); n != 0 {
		t.Errorf("sent %d threshold frames for a non OOK profile, want 0", n)
	}
	if stats := rig.dev.Stats(); stats != (Stats{}) {
		t.Errorf("Stats() = %+v, want untouched", stats)
	}
}

func TestCalibrateThresholdAppliesForOok(t *testing.T) {
	rig := newTestRig()
	rig.sim.setRssi(240)
	if err := rig.dev.Configure(testProfile{freq: 433920000, pktType: protocol.PacketOok}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	thr, err := rig.dev.CalibrateThreshold()
	if err != nil {
		t.Fatalf("CalibrateThreshold() error: %v", err)
	}
	if thr != -41 {
		t.Errorf("CalibrateThreshold() = %d, want -41", thr)
	}
	frames := rig.sim.opFrames(opOf(protocol.SetOokThrCmd(0)))
	if len(frames) != 1 {
		t.Fatalf("sent %d threshold frames, want 1", len(frames))
	}
	if want := protocol.SetOokThrCmd(-41); !bytes.Equal(frames[0], want) {
		t.Errorf("threshold frame = % x, want % x", frames[0], want)
	}
}

func TestRtcSteps(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want uint32
	}{
		{0, protocol.TimeoutSingle},
		{-time.Second, protocol.TimeoutSingle},
		{time.Second, 32768},
		{time.Millisecond, 32},
		{10 * time.Minute, protocol.TimeoutContinuous - 1},
	}
	for _, tt := range tests {
		if got := rtcSteps(tt.d); got != tt.want {
			t.Errorf("rtcSteps(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestClampI8(t *testing.T) {
	tests := []struct {
		in   int16
		want int8
	}{
		{-41, -41},
		{0, 0},
		{127, 127},
		{200, 127},
		{-128, -128},
		{-300, -128},
	}
	for _, tt := range tests {
		if got := clampI8(tt.in); got != tt.want {
			t.Errorf("clampI8(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
