package protocol

import "fmt"

// Register and memory access limits
const (
	// RegMemMaxWords is the most 32-bit words a single ReadRegMem or
	// block write can move.
	RegMemMaxWords = 64

	// PramBaseAddr is the start of the patch RAM.
	PramBaseAddr = 0x801000

	// PramBlockLen is the byte granularity used when streaming a patch
	// into the patch RAM through the data path.
	PramBlockLen = 128
)

// WriteRegMemCmd writes one 32-bit word at a register or memory address.
// Addresses are 24 bits and must be word aligned.
func WriteRegMemCmd(addr, data uint32) []byte {
	return []byte{
		GroupSystem, SysWriteRegMem,
		byte(addr), byte(addr >> 8), byte(addr >> 16),
		byte(data), byte(data >> 8), byte(data >> 16), byte(data >> 24),
	}
}

// WriteRegMemMaskCmd read-modify-writes a single word: only the bits set
// in mask are replaced by data.
func WriteRegMemMaskCmd(addr, mask, data uint32) []byte {
	return []byte{
		GroupSystem, SysWriteRegMemMask,
		byte(addr), byte(addr >> 8), byte(addr >> 16),
		byte(mask), byte(mask >> 8), byte(mask >> 16), byte(mask >> 24),
		byte(data), byte(data >> 8), byte(data >> 16), byte(data >> 24),
	}
}

// ReadRegMemReq reads words consecutive 32-bit words starting at addr.
// The address auto-increments, so data comes from contiguous locations.
func ReadRegMemReq(addr uint32, words uint8) []byte {
	return []byte{
		GroupSystem, SysReadRegMem,
		byte(addr), byte(addr >> 8), byte(addr >> 16),
		words,
	}
}

// ReadRegMemRspLen returns the response length for a read of the given
// word count, status bytes included.
func ReadRegMemRspLen(words uint8) int {
	return 2 + 4*int(words)
}

// DecodeRegMem decodes a ReadRegMem response into its 32-bit words.
func DecodeRegMem(rsp []byte, words uint8) ([]uint32, error) {
	want := ReadRegMemRspLen(words)
	if len(rsp) != want {
		return nil, fmt.Errorf("regmem response is %d bytes, want %d: %w", len(rsp), want, ErrMalformed)
	}
	out := make([]uint32, words)
	for i := range out {
		b := rsp[2+4*i:]
		out[i] = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return out, nil
}
