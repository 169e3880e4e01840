package lr2021

import (
	"context"
	"sync"
	"time"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

// irqGate funnels pin edges to the single operation waiting on them.
// Edges are coalesced: the interrupt line is level based, so one
// pending tick is enough to trigger a status read.
type irqGate struct {
	edges chan struct{}
	abort chan struct{}

	mu      sync.Mutex
	waiting bool
}

func newIrqGate() *irqGate {
	return &irqGate{
		edges: make(chan struct{}, 1),
		abort: make(chan struct{}, 1),
	}
}

// tick is the pin watch handler. Safe to call from any goroutine.
func (g *irqGate) tick() {
	select {
	case g.edges <- struct{}{}:
	default:
	}
}

// begin claims the wait slot and drops signals left over from before
// the operation armed its interrupts.
func (g *irqGate) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.waiting {
		return ErrAlreadyWaiting
	}
	g.waiting = true
	select {
	case <-g.edges:
	default:
	}
	select {
	case <-g.abort:
	default:
	}
	return nil
}

func (g *irqGate) end() {
	g.mu.Lock()
	g.waiting = false
	g.mu.Unlock()
}

// interrupt unblocks the current waiter, if any. Without a waiter it
// is a no-op so a stale abort cannot kill a later operation.
func (g *irqGate) interrupt() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.waiting {
		return
	}
	select {
	case g.abort <- struct{}{}:
	default:
	}
}

// waitIrq blocks until one of the armed interrupts fires, the timeout
// elapses, the context is cancelled or Abort is called. A timeout of
// zero or less waits without a timer. Interrupts outside the armed set
// are cleared and swallowed. The gate slot must be held (gate.begin)
// before the command starting the operation is sent, so an edge racing
// the wait is never lost.
func (d *Device) waitIrq(ctx context.Context, armed protocol.IrqMask, timeout time.Duration) (protocol.IrqMask, error) {
	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}
	for {
		// The interrupt line is level based and stays high until the
		// flags are cleared, so a poll covers edges that fired before
		// this call.
		if d.irq.Read() == High {
			mask, err := d.GetAndClearIrq()
			if err != nil {
				return 0, err
			}
			if hit := mask & armed; hit != 0 {
				return hit, nil
			}
		}
		select {
		case <-d.gate.edges:
		case <-timerC:
			return 0, ErrWaitTimeout
		case <-d.gate.abort:
			return 0, ErrAborted
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}
