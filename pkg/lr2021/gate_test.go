package lr2021

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

func TestGateSingleWaiter(t *testing.T) {
	g := newIrqGate()
	if err := g.begin(); err != nil {
		t.Fatalf("begin() error: %v", err)
	}
	if err := g.begin(); !errors.Is(err, ErrAlreadyWaiting) {
		t.Errorf("second begin() = %v, want ErrAlreadyWaiting", err)
	}
	g.end()
	if err := g.begin(); err != nil {
		t.Errorf("begin() after end() error: %v", err)
	}
}

func TestGateDropsStaleSignals(t *testing.T) {
	g := newIrqGate()
	// signals arriving with nobody waiting must not leak into the
	// next operation
	g.tick()
	if err := g.begin(); err != nil {
		t.Fatalf("begin() error: %v", err)
	}
	select {
	case <-g.edges:
		t.Error("stale edge survived begin()")
	default:
	}
	g.end()

	g.interrupt() // no waiter, must not arm the abort channel
	if err := g.begin(); err != nil {
		t.Fatalf("begin() error: %v", err)
	}
	select {
	case <-g.abort:
		t.Error("stale abort survived begin()")
	default:
	}
}

func TestWaitIrqReturnsArmedFlags(t *testing.T) {
	rig := newTestRig()
	rig.sim.queueIrq(protocol.IrqTxDone | protocol.IrqTxFifo)

	if err := rig.dev.gate.begin(); err != nil {
		t.Fatalf("gate.begin() error: %v", err)
	}
	defer rig.dev.gate.end()

	got, err := rig.dev.waitIrq(ctxNoWait(t), protocol.IrqTxDone, time.Second)
	if err != nil {
		t.Fatalf("waitIrq() error: %v", err)
	}
	if got != protocol.IrqTxDone {
		t.Errorf("waitIrq() = %v, want tx_done", got)
	}
}

func TestWaitIrqSwallowsUnarmedFlags(t *testing.T) {
	rig := newTestRig()
	rig.sim.queueIrq(protocol.IrqRxDone)

	if err := rig.dev.gate.begin(); err != nil {
		t.Fatalf("gate.begin() error: %v", err)
	}
	defer rig.dev.gate.end()

	_, err := rig.dev.waitIrq(ctxNoWait(t), protocol.IrqTxDone, 20*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("waitIrq() = %v, want ErrWaitTimeout", err)
	}
	// the stray flags must have been cleared on the chip
	if n := len(rig.sim.opFrames(opGetAndClearIrq)); n != 1 {
		t.Errorf("sent %d clear commands, want 1", n)
	}
	if rig.irq.Read() != Low {
		t.Error("interrupt line still high after swallowing")
	}
}

func TestWaitIrqAborted(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.gate.begin(); err != nil {
		t.Fatalf("gate.begin() error: %v", err)
	}
	defer rig.dev.gate.end()

	done := make(chan error, 1)
	go func() {
		_, err := rig.dev.waitIrq(context.Background(), protocol.IrqTxDone, time.Second)
		done <- err
	}()
	time.Sleep(5 * time.Millisecond)
	rig.dev.gate.interrupt()

	if err := <-done; !errors.Is(err, ErrAborted) {
		t.Errorf("waitIrq() = %v, want ErrAborted", err)
	}
}

func TestWaitIrqContextCancel(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.gate.begin(); err != nil {
		t.Fatalf("gate.begin() error: %v", err)
	}
	defer rig.dev.gate.end()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rig.dev.waitIrq(ctx, protocol.IrqTxDone, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("waitIrq() = %v, want context.Canceled", err)
	}
}

func TestWaitIrqEdgeAfterWaitStarts(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.gate.begin(); err != nil {
		t.Fatalf("gate.begin() error: %v", err)
	}
	defer rig.dev.gate.end()

	go func() {
		time.Sleep(5 * time.Millisecond)
		rig.sim.queueIrq(protocol.IrqRxDone)
	}()
	got, err := rig.dev.waitIrq(ctxNoWait(t), protocol.IrqRxDone, time.Second)
	if err != nil {
		t.Fatalf("waitIrq() error: %v", err)
	}
	if got != protocol.IrqRxDone {
		t.Errorf("waitIrq() = %v, want rx_done", got)
	}
}
