package lr2021

import "errors"

var (
	// ErrBusyTimeout means the busy line stayed high past the allowed
	// wait before an exchange. The chip is stuck or unpowered.
	ErrBusyTimeout = errors.New("busy line timeout")

	// ErrFrameTooLong means a command exceeds the chip command buffer.
	// FIFO and patch transfers are exempt, they stream past the buffer.
	ErrFrameTooLong = errors.New("command frame too long")

	// ErrProtocol means the chip response could not be interpreted.
	ErrProtocol = errors.New("protocol error")

	// ErrCmdFailed means the chip reported the previous command could
	// not be executed in the current state.
	ErrCmdFailed = errors.New("command failed")

	// ErrCmdRejected means the chip reported an unknown opcode or bad
	// parameters for the previous command.
	ErrCmdRejected = errors.New("command rejected")

	// ErrWaitTimeout means no armed interrupt arrived in time.
	ErrWaitTimeout = errors.New("interrupt wait timeout")

	// ErrAlreadyWaiting means a second wait was attempted while one
	// was in flight. The gate holds a single waiter.
	ErrAlreadyWaiting = errors.New("already waiting on interrupt")

	// ErrPayloadTooLarge means the payload exceeds the packet buffer.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrNotConfigured means no profile has been applied yet.
	ErrNotConfigured = errors.New("radio not configured")

	// ErrTxTimeout means the packet was not sent in time.
	ErrTxTimeout = errors.New("transmit timeout")

	// ErrRxTimeout means no packet arrived in time.
	ErrRxTimeout = errors.New("receive timeout")

	// ErrCrcMismatch means a packet arrived with a bad checksum. The
	// payload is discarded.
	ErrCrcMismatch = errors.New("crc mismatch")

	// ErrAborted means the operation was cancelled by Abort.
	ErrAborted = errors.New("operation aborted")
)
