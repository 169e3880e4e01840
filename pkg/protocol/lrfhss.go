package protocol

import "encoding/binary"

// LrFhssSetSyncword is the LR-FHSS syncword opcode (group 0x02). Frame
// building for LR-FHSS runs on the host and is streamed through the TX
// FIFO.
const LrFhssSetSyncword = 0x57

// LrFhssSyncDefault is the syncword reset value.
const LrFhssSyncDefault uint32 = 0x2C0F7995

// SetLrFhssSyncwordCmd sets the 32-bit LR-FHSS syncword.
func SetLrFhssSyncwordCmd(syncword uint32) []byte {
	cmd := make([]byte, 6)
	cmd[0] = GroupRadio
	cmd[1] = LrFhssSetSyncword
	binary.BigEndian.PutUint32(cmd[2:6], syncword)
	return cmd
}
