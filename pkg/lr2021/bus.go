package lr2021

import (
	"fmt"
	"time"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

const (
	// busyTimeout bounds the wait for the busy line before a command.
	busyTimeout = 100 * time.Millisecond
	// responseWait bounds the wait between a request and its response.
	// Slow readouts such as a 13 bit temperature conversion stay well
	// under a millisecond.
	responseWait = time.Millisecond
	// busyPoll is the sleep between busy line samples.
	busyPoll = 20 * time.Microsecond
)

// waitReady blocks until the busy line goes low.
func (d *Device) waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for d.busy.Read() == High {
		if time.Now().After(deadline) {
			return fmt.Errorf("busy high for more than %v: %w", timeout, ErrBusyTimeout)
		}
		time.Sleep(busyPoll)
	}
	return nil
}

// exchange sends one command and returns the status word echoed while
// the command was clocked in. The command must fit the chip command
// buffer; FIFO and patch traffic goes through exchangeData instead.
func (d *Device) exchange(cmd []byte) (protocol.Status, error) {
	if len(cmd) > protocol.MaxCmdLen {
		return protocol.Status{}, fmt.Errorf("command is %d bytes, max %d: %w", len(cmd), protocol.MaxCmdLen, ErrFrameTooLong)
	}
	d.busMu.Lock()
	defer d.busMu.Unlock()
	return d.exchangeLocked(cmd)
}

func (d *Device) exchangeLocked(cmd []byte) (protocol.Status, error) {
	if err := d.waitReady(busyTimeout); err != nil {
		return protocol.Status{}, err
	}
	echo := d.echo[:len(cmd)]
	if err := d.spi.Tx(cmd, echo); err != nil {
		return protocol.Status{}, fmt.Errorf("spi exchange: %w", err)
	}
	st, err := protocol.DecodeStatus(echo)
	if err != nil {
		return protocol.Status{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return st, checkStatus(st)
}

// exchangeCmd sends a command that carries no response payload.
func (d *Device) exchangeCmd(cmd []byte) error {
	_, err := d.exchange(cmd)
	return err
}

// exchangeRead sends a request and clocks out its response in a second
// chip-select window. The returned slice starts with the two status
// bytes and is only valid until the next exchange.
func (d *Device) exchangeRead(req []byte, rspLen int) ([]byte, error) {
	if len(req) > protocol.MaxCmdLen {
		return nil, fmt.Errorf("command is %d bytes, max %d: %w", len(req), protocol.MaxCmdLen, ErrFrameTooLong)
	}
	if rspLen > maxRspLen {
		return nil, fmt.Errorf("response of %d bytes exceeds %d: %w", rspLen, maxRspLen, ErrFrameTooLong)
	}
	d.busMu.Lock()
	defer d.busMu.Unlock()

	if _, err := d.exchangeLocked(req); err != nil {
		return nil, err
	}
	if err := d.waitReady(responseWait); err != nil {
		return nil, err
	}
	rsp := d.rsp[:rspLen]
	if err := d.spi.Tx(d.zeros[:rspLen], rsp); err != nil {
		return nil, fmt.Errorf("spi exchange: %w", err)
	}
	st, err := protocol.DecodeStatus(rsp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if err := checkStatus(st); err != nil {
		return nil, err
	}
	return rsp, nil
}

// exchangeData sends an opcode followed by a data block in a single
// chip-select window. Used for FIFO access and patch upload, which are
// not bound by the command buffer size.
func (d *Device) exchangeData(w, r []byte) (protocol.Status, error) {
	d.busMu.Lock()
	defer d.busMu.Unlock()

	if err := d.waitReady(busyTimeout); err != nil {
		return protocol.Status{}, err
	}
	if err := d.spi.Tx(w, r); err != nil {
		return protocol.Status{}, fmt.Errorf("spi exchange: %w", err)
	}
	st, err := protocol.DecodeStatus(r)
	if err != nil {
		return protocol.Status{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return st, checkStatus(st)
}

// checkStatus maps a failed command status to its sentinel error.
func checkStatus(st protocol.Status) error {
	switch st.Cmd() {
	case protocol.CmdFail:
		return fmt.Errorf("%s: %w", st, ErrCmdFailed)
	case protocol.CmdPerr:
		return fmt.Errorf("%s: %w", st, ErrCmdRejected)
	default:
		return nil
	}
}
