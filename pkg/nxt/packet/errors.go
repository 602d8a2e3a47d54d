package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCommand indicates a command buffer without a valid header.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidOperation indicates a buffer operation not allowed on the
	// current buffer, e.g. resizing a buffer without a 2-byte header.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrTypeMismatch indicates a reply can't be reinterpreted as the
	// requested type.
	ErrTypeMismatch = errors.New("reply type mismatch")
)

// StatusError wraps a non-zero status byte from a reply.
type StatusError struct {
	Code   byte
	Status byte
}

// Error implements error.
func (e *StatusError) Error() string {
	if msg, ok := statusMessages[e.Status]; ok {
		return fmt.Sprintf("command 0x%02x failed: %s (0x%02x)", e.Code, msg, e.Status)
	}
	return fmt.Sprintf("command 0x%02x failed: status 0x%02x", e.Code, e.Status)
}

// Status codes reported by the firmware.
const (
	StatusSuccess             byte = 0x00
	StatusPendingTransaction  byte = 0x20
	StatusMailboxEmpty        byte = 0x40
	StatusNoMoreHandles       byte = 0x81
	StatusNoSpace             byte = 0x82
	StatusNoMoreFiles         byte = 0x83
	StatusEndOfFileExpected   byte = 0x84
	StatusEndOfFile           byte = 0x85
	StatusNotLinearFile       byte = 0x86
	StatusFileNotFound        byte = 0x87
	StatusHandleAlreadyClosed byte = 0x88
	StatusNoLinearSpace       byte = 0x89
	StatusUndefinedError      byte = 0x8A
	StatusFileBusy            byte = 0x8B
	StatusNoWriteBuffers      byte = 0x8C
	StatusAppendNotPossible   byte = 0x8D
	StatusFileFull            byte = 0x8E
	StatusFileExists          byte = 0x8F
	StatusModuleNotFound      byte = 0x90
	StatusOutOfBoundary       byte = 0x91
	StatusIllegalFileName     byte = 0x92
	StatusIllegalHandle       byte = 0x93
	StatusRequestFailed       byte = 0xBD
	StatusUnknownOpcode       byte = 0xBE
	StatusInsanePacket        byte = 0xBF
	StatusOutOfRange          byte = 0xC0
	StatusBusError            byte = 0xDD
	StatusNoFreeBuffer        byte = 0xDE
	StatusInvalidChannel      byte = 0xDF
	StatusChannelBusy         byte = 0xE0
	StatusNoActiveProgram     byte = 0xEC
	StatusIllegalSize         byte = 0xED
	StatusIllegalMailbox      byte = 0xEE
	StatusInvalidField        byte = 0xEF
	StatusBadInputOutput      byte = 0xF0
	StatusInsufficientMemory  byte = 0xFB
	StatusBadArguments        byte = 0xFF
)

var statusMessages = map[byte]string{
	StatusPendingTransaction:  "pending communication transaction in progress",
	StatusMailboxEmpty:        "specified mailbox queue is empty",
	StatusNoMoreHandles:       "no more handles",
	StatusNoSpace:             "no space",
	StatusNoMoreFiles:         "no more files",
	StatusEndOfFileExpected:   "end of file expected",
	StatusEndOfFile:           "end of file",
	StatusNotLinearFile:       "not a linear file",
	StatusFileNotFound:        "file not found",
	StatusHandleAlreadyClosed: "handle already closed",
	StatusNoLinearSpace:       "no linear space",
	StatusUndefinedError:      "undefined error",
	StatusFileBusy:            "file is busy",
	StatusNoWriteBuffers:      "no write buffers",
	StatusAppendNotPossible:   "append not possible",
	StatusFileFull:            "file is full",
	StatusFileExists:          "file exists",
	StatusModuleNotFound:      "module not found",
	StatusOutOfBoundary:       "out of boundary",
	StatusIllegalFileName:     "illegal file name",
	StatusIllegalHandle:       "illegal handle",
	StatusRequestFailed:       "request failed",
	StatusUnknownOpcode:       "unknown command opcode",
	StatusInsanePacket:        "insane packet",
	StatusOutOfRange:          "data contains out-of-range values",
	StatusBusError:            "communication bus error",
	StatusNoFreeBuffer:        "no free memory in communication buffer",
	StatusInvalidChannel:      "specified channel/connection is not valid",
	StatusChannelBusy:         "specified channel/connection not configured or busy",
	StatusNoActiveProgram:     "no active program",
	StatusIllegalSize:         "illegal size specified",
	StatusIllegalMailbox:      "illegal mailbox queue ID specified",
	StatusInvalidField:        "attempted to access invalid field of a structure",
	StatusBadInputOutput:      "bad input or output specified",
	StatusInsufficientMemory:  "insufficient memory available",
	StatusBadArguments:        "bad arguments",
}
