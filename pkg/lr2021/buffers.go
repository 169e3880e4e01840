package lr2021

import (
	"fmt"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

// MaxPayload is the largest packet payload across all modems. Every
// packet length field on the chip is a single byte.
const MaxPayload = 255

// packetBuffers holds the fixed TX and RX packet frames. Both are
// allocated once with the device and reused for every operation, the
// two opcode bytes riding in front of the payload so a FIFO access is
// a single SPI transfer.
type packetBuffers struct {
	txFrame [2 + MaxPayload]byte
	txEcho  [2 + MaxPayload]byte
	txLen   int

	rxReq [2 + MaxPayload]byte
	rxRsp [2 + MaxPayload]byte
}

func (b *packetBuffers) init() {
	b.txFrame[0] = protocol.OpWrTxFifo[0]
	b.txFrame[1] = protocol.OpWrTxFifo[1]
	// The read request is the opcode followed by zero filler and never
	// changes after this.
	b.rxReq[0] = protocol.OpRdRxFifo[0]
	b.rxReq[1] = protocol.OpRdRxFifo[1]
}

// loadTx stages a payload behind the FIFO write opcode. It fails
// before any bus traffic when the payload cannot fit.
func (b *packetBuffers) loadTx(payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("payload is %d bytes, max %d: %w", len(payload), MaxPayload, ErrPayloadTooLarge)
	}
	copy(b.txFrame[2:], payload)
	b.txLen = len(payload)
	return nil
}

// writeTxFifo pushes the staged payload into the chip TX FIFO.
func (d *Device) writeTxFifo() error {
	n := 2 + d.buf.txLen
	_, err := d.exchangeData(d.buf.txFrame[:n], d.buf.txEcho[:n])
	if err != nil {
		return fmt.Errorf("tx fifo write: %w", err)
	}
	return nil
}

// readRxFifo pulls n payload bytes out of the chip RX FIFO. The
// returned slice points into the RX buffer and is only valid until the
// next receive.
func (d *Device) readRxFifo(n int) ([]byte, error) {
	if n > MaxPayload {
		return nil, fmt.Errorf("rx length %d exceeds buffer: %w", n, ErrPayloadTooLarge)
	}
	_, err := d.exchangeData(d.buf.rxReq[:2+n], d.buf.rxRsp[:2+n])
	if err != nil {
		return nil, fmt.Errorf("rx fifo read: %w", err)
	}
	return d.buf.rxRsp[2 : 2+n], nil
}
