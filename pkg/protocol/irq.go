package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// IrqMask is a bit set over the chip's 32-bit interrupt register. The
// same type describes an enable mask written with SetDioIrqConfig and a
// pending set read back with GetStatus or GetAndClearIrq.
type IrqMask uint32

const (
	IrqRxFifo            IrqMask = 0x00000001
	IrqTxFifo            IrqMask = 0x00000002
	IrqRngReqValid       IrqMask = 0x00000004
	IrqTxTimestamp       IrqMask = 0x00000008
	IrqRxTimestamp       IrqMask = 0x00000010
	IrqPreambleDetected  IrqMask = 0x00000020
	IrqLoraHeaderValid   IrqMask = 0x00000040
	IrqCadDetected       IrqMask = 0x00000080
	IrqLoraHdrTimestamp  IrqMask = 0x00000100
	IrqLoraHeaderErr     IrqMask = 0x00000200
	IrqEol               IrqMask = 0x00000400
	IrqPa                IrqMask = 0x00000800
	IrqLoraTxRxHop       IrqMask = 0x00001000
	IrqSyncFail          IrqMask = 0x00002000
	IrqLoraSymbolEnd     IrqMask = 0x00004000
	IrqLoraTimestampStat IrqMask = 0x00008000
	IrqError             IrqMask = 0x00010000
	IrqCmd               IrqMask = 0x00020000
	IrqRxDone            IrqMask = 0x00040000
	IrqTxDone            IrqMask = 0x00080000
	IrqCadDone           IrqMask = 0x00100000
	IrqTimeout           IrqMask = 0x00200000
	IrqCrcError          IrqMask = 0x00400000
	IrqLenError          IrqMask = 0x00800000
	IrqAddrError         IrqMask = 0x01000000
	IrqFhss              IrqMask = 0x02000000
	IrqInterPacket1      IrqMask = 0x04000000
	IrqInterPacket2      IrqMask = 0x08000000
	IrqRngRespDone       IrqMask = 0x10000000
	IrqRngReqDis         IrqMask = 0x20000000
	IrqRngExchValid      IrqMask = 0x40000000
	IrqRngTimeout        IrqMask = 0x80000000

	// IrqNone clears an enable mask or matches an empty pending set.
	IrqNone IrqMask = 0
)

var irqNames = []struct {
	bit  IrqMask
	name string
}{
	{IrqRxFifo, "RxFifo"},
	{IrqTxFifo, "TxFifo"},
	{IrqRngReqValid, "RngReqValid"},
	{IrqTxTimestamp, "TxTimestamp"},
	{IrqRxTimestamp, "RxTimestamp"},
	{IrqPreambleDetected, "PreambleDetected"},
	{IrqLoraHeaderValid, "LoraHeaderValid"},
	{IrqCadDetected, "CadDetected"},
	{IrqLoraHdrTimestamp, "LoraHdrTimestamp"},
	{IrqLoraHeaderErr, "LoraHeaderErr"},
	{IrqEol, "Eol"},
	{IrqPa, "Pa"},
	{IrqLoraTxRxHop, "LoraTxRxHop"},
	{IrqSyncFail, "SyncFail"},
	{IrqLoraSymbolEnd, "LoraSymbolEnd"},
	{IrqLoraTimestampStat, "LoraTimestampStat"},
	{IrqError, "Error"},
	{IrqCmd, "Cmd"},
	{IrqRxDone, "RxDone"},
	{IrqTxDone, "TxDone"},
	{IrqCadDone, "CadDone"},
	{IrqTimeout, "Timeout"},
	{IrqCrcError, "CrcError"},
	{IrqLenError, "LenError"},
	{IrqAddrError, "AddrError"},
	{IrqFhss, "Fhss"},
	{IrqInterPacket1, "InterPacket1"},
	{IrqInterPacket2, "InterPacket2"},
	{IrqRngRespDone, "RngRespDone"},
	{IrqRngReqDis, "RngReqDis"},
	{IrqRngExchValid, "RngExchValid"},
	{IrqRngTimeout, "RngTimeout"},
}

// Has reports whether every bit of flag is set in m.
func (m IrqMask) Has(flag IrqMask) bool {
	return m&flag == flag && flag != 0
}

// Any reports whether at least one bit of flags is set in m.
func (m IrqMask) Any(flags IrqMask) bool {
	return m&flags != 0
}

func (m IrqMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, e := range irqNames {
		if m&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "|")
}

// DecodeIrq extracts the pending interrupt set from a 6-byte status
// response (GetStatus or GetAndClearIrq): two status bytes followed by
// the interrupt register, most significant byte first.
func DecodeIrq(rsp []byte) (IrqMask, error) {
	if len(rsp) != StatusRspLen {
		return 0, fmt.Errorf("irq status is %d bytes, want %d: %w", len(rsp), StatusRspLen, ErrMalformed)
	}
	return IrqMask(binary.BigEndian.Uint32(rsp[2:6])), nil
}
