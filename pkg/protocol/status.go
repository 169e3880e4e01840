package protocol

import "fmt"

// CmdStatus reports the outcome of the previous command.
type CmdStatus uint8

const (
	CmdFail    CmdStatus = 0 // command could not be executed
	CmdPerr    CmdStatus = 1 // invalid parameters or unknown opcode
	CmdOk      CmdStatus = 2 // command succeeded
	CmdData    CmdStatus = 3 // command succeeded, data follows
	CmdUnknown CmdStatus = 8
)

func (c CmdStatus) String() string {
	switch c {
	case CmdFail:
		return "fail"
	case CmdPerr:
		return "param error"
	case CmdOk:
		return "ok"
	case CmdData:
		return "data"
	default:
		return "unknown"
	}
}

// ResetSrc identifies the cause of the last chip reset.
type ResetSrc uint8

const (
	ResetCleared  ResetSrc = 0
	ResetAnalog   ResetSrc = 1
	ResetExternal ResetSrc = 2
	ResetSystem   ResetSrc = 3
	ResetWatchdog ResetSrc = 4
	ResetIocd     ResetSrc = 5
	ResetRtc      ResetSrc = 6
	ResetUnknown  ResetSrc = 16
)

func (r ResetSrc) String() string {
	switch r {
	case ResetCleared:
		return "cleared"
	case ResetAnalog:
		return "analog"
	case ResetExternal:
		return "external"
	case ResetSystem:
		return "system"
	case ResetWatchdog:
		return "watchdog"
	case ResetIocd:
		return "iocd"
	case ResetRtc:
		return "rtc"
	default:
		return "unknown"
	}
}

// ChipMode is the operating mode reported in the status word.
type ChipMode uint8

const (
	ModeSleep   ChipMode = 0
	ModeRc      ChipMode = 1 // standby on RC oscillator
	ModeXosc    ChipMode = 2 // standby on crystal oscillator
	ModeFs      ChipMode = 3 // frequency synthesis
	ModeRx      ChipMode = 4
	ModeTx      ChipMode = 5
	ModeUnknown ChipMode = 8
)

func (m ChipMode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeRc:
		return "standby-rc"
	case ModeXosc:
		return "standby-xosc"
	case ModeFs:
		return "fs"
	case ModeRx:
		return "rx"
	case ModeTx:
		return "tx"
	default:
		return "unknown"
	}
}

// Status is the two-byte word the chip shifts out at the start of every
// SPI exchange. Byte 0 carries the previous command outcome in bits 3:1
// and the interrupt-pending flag in bit 0. Byte 1 carries the reset
// source in bits 7:4 and the chip mode in bits 2:0.
type Status [2]byte

// DecodeStatus extracts the status word from the first two bytes of a
// response buffer.
func DecodeStatus(rsp []byte) (Status, error) {
	if len(rsp) < 2 {
		return Status{}, fmt.Errorf("status needs 2 bytes, got %d: %w", len(rsp), ErrMalformed)
	}
	return Status{rsp[0], rsp[1]}, nil
}

// Cmd returns the outcome of the previous command.
func (s Status) Cmd() CmdStatus {
	switch (s[0] >> 1) & 7 {
	case 0:
		return CmdFail
	case 1:
		return CmdPerr
	case 2:
		return CmdOk
	case 3:
		return CmdData
	default:
		return CmdUnknown
	}
}

// Ok reports whether the previous command succeeded.
func (s Status) Ok() bool {
	c := s.Cmd()
	return c == CmdOk || c == CmdData
}

// IrqPending reports whether at least one unmasked interrupt is pending.
func (s Status) IrqPending() bool {
	return s[0]&1 != 0
}

// ResetSource returns the cause of the last reset. The field is cleared
// by GetStatus.
func (s Status) ResetSource() ResetSrc {
	v := (s[1] >> 4) & 15
	if v > 6 {
		return ResetUnknown
	}
	return ResetSrc(v)
}

// Mode returns the chip operating mode at the time of the exchange.
func (s Status) Mode() ChipMode {
	v := s[1] & 7
	if v > 5 {
		return ModeUnknown
	}
	return ChipMode(v)
}

func (s Status) String() string {
	return fmt.Sprintf("cmd=%s mode=%s reset=%s irq=%t", s.Cmd(), s.Mode(), s.ResetSource(), s.IrqPending())
}
