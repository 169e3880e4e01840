package lr2021

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

func TestNewWithHardwareValidation(t *testing.T) {
	busy := &mockPin{}
	irq := &mockPin{}
	reset := &mockPin{}
	sim := newChipSim(irq)

	tests := []struct {
		name string
		hw   Hardware
	}{
		{"no spi", Hardware{Busy: busy, Irq: irq, Reset: reset}},
		{"no busy", Hardware{Spi: sim, Irq: irq, Reset: reset}},
		{"no irq", Hardware{Spi: sim, Busy: busy, Reset: reset}},
		{"no reset", Hardware{Spi: sim, Busy: busy, Irq: irq}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWithHardware(tt.hw); err == nil {
				t.Errorf("NewWithHardware(%s) succeeded, want error", tt.name)
			}
		})
	}

	dev, err := NewWithHardware(Hardware{Spi: sim, Busy: busy, Irq: irq, Reset: reset})
	if err != nil {
		t.Fatalf("NewWithHardware() error: %v", err)
	}
	if dev.irqDio != 7 {
		t.Errorf("default irq dio = %d, want 7", dev.irqDio)
	}
	if reset.outs[len(reset.outs)-1] != High {
		t.Error("reset line not driven high on setup")
	}
}

func TestResetPulsesLine(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Configure(testProfile{freq: 868000000}); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if err := rig.dev.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	outs := rig.reset.outs
	if len(outs) < 3 || outs[len(outs)-2] != Low || outs[len(outs)-1] != High {
		t.Errorf("reset line sequence = %v, want ... low, high", outs)
	}
	// a reset wipes the chip configuration
	if err := rig.dev.Transmit(ctxNoWait(t), []byte{1}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Transmit() after reset = %v, want ErrNotConfigured", err)
	}
}

func TestWakeUp(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.WakeUp(); err != nil {
		t.Fatalf("WakeUp() error: %v", err)
	}
	if got := rig.sim.opFrames(opGetStatus); len(got) != 1 {
		t.Errorf("wake up sent %d status frames, want 1", len(got))
	}
}

func TestCloseBestEffortStandby(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	standby := rig.sim.opFrames(opOf(protocol.SetStandbyCmd(protocol.StandbyRc)))
	if len(standby) == 0 {
		t.Error("Close() sent no standby command")
	}
	if rig.irq.handler != nil {
		t.Error("Close() left the irq pin watched")
	}
}

func TestExchangeRejectsOversizeCommand(t *testing.T) {
	rig := newTestRig()
	cmd := make([]byte, protocol.MaxCmdLen+1)
	if _, err := rig.dev.exchange(cmd); !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("exchange(19 bytes) = %v, want ErrFrameTooLong", err)
	}
	if rig.sim.frameCount() != 0 {
		t.Errorf("oversize command reached the bus: %d frames", rig.sim.frameCount())
	}
}

func TestBusyTimeout(t *testing.T) {
	rig := newTestRig()
	rig.busy.raise()
	defer rig.busy.drop()
	if err := rig.dev.SetFs(); !errors.Is(err, ErrBusyTimeout) {
		t.Errorf("SetFs() with busy stuck high = %v, want ErrBusyTimeout", err)
	}
}

func TestCommandStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status byte
		want   error
	}{
		{"fail", byte(protocol.CmdFail) << 1, ErrCmdFailed},
		{"param error", byte(protocol.CmdPerr) << 1, ErrCmdRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig()
			rig.sim.status[0] = tt.status
			if err := rig.dev.SetFs(); !errors.Is(err, tt.want) {
				t.Errorf("SetFs() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSystemReadouts(t *testing.T) {
	rig := newTestRig()

	v, err := rig.dev.GetVersion()
	if err != nil {
		t.Fatalf("GetVersion() error: %v", err)
	}
	if v.String() != "01.1b" {
		t.Errorf("GetVersion() = %s, want 01.1b", v)
	}

	temp, err := rig.dev.GetTemp()
	if err != nil {
		t.Fatalf("GetTemp() error: %v", err)
	}
	if temp != 25.5 {
		t.Errorf("GetTemp() = %v, want 25.5", temp)
	}

	vbat, err := rig.dev.GetVBat()
	if err != nil {
		t.Fatalf("GetVBat() error: %v", err)
	}
	if vbat != 3300 {
		t.Errorf("GetVBat() = %d, want 3300", vbat)
	}

	rnd, err := rig.dev.GetRandom()
	if err != nil {
		t.Fatalf("GetRandom() error: %v", err)
	}
	if rnd != 0xDEADBEEF {
		t.Errorf("GetRandom() = %#x, want 0xdeadbeef", rnd)
	}
}

func TestRegisterAccess(t *testing.T) {
	rig := newTestRig()
	rig.sim.setRegister(0xF3014C, 0x00000700)

	got, err := rig.dev.ReadRegister(0xF3014C)
	if err != nil {
		t.Fatalf("ReadRegister() error: %v", err)
	}
	if got != 0x00000700 {
		t.Errorf("ReadRegister() = %#x, want 0x700", got)
	}

	if err := rig.dev.WriteRegister(0xF30150, 0x12345678); err != nil {
		t.Fatalf("WriteRegister() error: %v", err)
	}
	frames := rig.sim.opFrames(opOf(protocol.WriteRegMemCmd(0, 0)))
	if len(frames) != 1 {
		t.Fatalf("WriteRegister() sent %d frames, want 1", len(frames))
	}
	want := protocol.WriteRegMemCmd(0xF30150, 0x12345678)
	if !bytes.Equal(frames[0], want) {
		t.Errorf("WriteRegister() frame = % x, want % x", frames[0], want)
	}
}

func TestLoadPramChunks(t *testing.T) {
	rig := newTestRig()
	patch := make([]byte, 80)
	for i := range patch {
		patch[i] = byte(i)
	}
	if err := rig.dev.LoadPram(patch); err != nil {
		t.Fatalf("LoadPram() error: %v", err)
	}

	frames := rig.sim.opFrames(protocol.OpWrRegMem)
	if len(frames) != 3 {
		t.Fatalf("LoadPram(80 bytes) sent %d blocks, want 3", len(frames))
	}
	wantAddrs := []uint32{0x801000, 0x801080, 0x801100}
	for i, f := range frames {
		if len(f) != 2+3+protocol.PramBlockLen {
			t.Errorf("block %d is %d bytes, want %d", i, len(f), 2+3+protocol.PramBlockLen)
		}
		addr := uint32(f[2])<<16 | uint32(f[3])<<8 | uint32(f[4])
		if addr != wantAddrs[i] {
			t.Errorf("block %d address = %#x, want %#x", i, addr, wantAddrs[i])
		}
	}
	// first chunk of the patch rides right after the address header
	if !bytes.Equal(frames[0][5:5+32], patch[:32]) {
		t.Error("block 0 does not carry the first 32 patch bytes")
	}
	if !bytes.Equal(frames[2][5:5+16], patch[64:80]) {
		t.Error("block 2 does not carry the patch tail")
	}
}

func TestStatsSnapshotAndReset(t *testing.T) {
	rig := newTestRig()
	rig.dev.countTx()
	rig.dev.countRx()
	rig.dev.countRx()
	rig.dev.countCrcError()
	rig.dev.countTimeout()

	got := rig.dev.Stats()
	want := Stats{TxPackets: 1, RxPackets: 2, CrcErrors: 1, Timeouts: 1}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	rig.dev.ResetStats()
	if got := rig.dev.Stats(); got != (Stats{}) {
		t.Errorf("Stats() after reset = %+v, want zero", got)
	}
}
