// Package vc4 structured error types for device, memory and execution failures
package vc4

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Device errors: a control or memory device could not be opened
	ErrTypeDevice ErrorType = iota
	// Transport errors: the property ioctl itself failed
	ErrTypeTransport
	// Allocation errors: firmware refused a size/alignment/flags combination
	ErrTypeAllocation
	// Lock errors: allocation succeeded but could not be pinned
	ErrTypeLock
	// Map errors: the OS rejected the user-space mapping
	ErrTypeMap
	// Execution errors: a kernel dispatch did not complete successfully
	ErrTypeExecution
	// Teardown errors: a best-effort cleanup step failed
	ErrTypeTeardown
	// Invalid argument errors
	ErrTypeInvalidArg
)

// VC4Error represents a structured error with context
type VC4Error struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context (firmware status, requested size)
}

// Error implements the error interface
func (e *VC4Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vc4 %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("vc4 %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *VC4Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeDevice:
		return "Device"
	case ErrTypeTransport:
		return "Transport"
	case ErrTypeAllocation:
		return "Allocation"
	case ErrTypeLock:
		return "Lock"
	case ErrTypeMap:
		return "Map"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeTeardown:
		return "Teardown"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewDeviceError creates a device-access error. The message should name the
// probable cause (missing device file, insufficient privilege), since that
// is the dominant failure mode for this class of program.
func NewDeviceError(op string, message string, err error) error {
	return &VC4Error{
		Type:    ErrTypeDevice,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewTransportError creates an error for a failed property ioctl
func NewTransportError(op string, message string, err error) error {
	return &VC4Error{
		Type:    ErrTypeTransport,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewAllocationError creates an allocation error. requested carries the
// size in bytes the firmware refused.
func NewAllocationError(op string, message string, requested uint32) error {
	return &VC4Error{
		Type:    ErrTypeAllocation,
		Op:      op,
		Message: message,
		Context: requested,
	}
}

// NewLockError creates an error for a failed memory lock
func NewLockError(op string, message string) error {
	return &VC4Error{
		Type:    ErrTypeLock,
		Op:      op,
		Message: message,
	}
}

// NewMapError creates an error for a rejected user-space mapping
func NewMapError(op string, message string, err error) error {
	return &VC4Error{
		Type:    ErrTypeMap,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewExecutionError creates a kernel execution error. code carries the raw
// firmware status word; output buffers must be treated as undefined.
func NewExecutionError(op string, message string, code uint32) error {
	return &VC4Error{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Context: code,
	}
}

// NewTeardownError creates an error for a failed cleanup step
func NewTeardownError(op string, message string, err error) error {
	return &VC4Error{
		Type:    ErrTypeTeardown,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &VC4Error{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// Common pre-defined errors

var (
	// ErrMailboxClosed indicates use of a mailbox after Close
	ErrMailboxClosed = NewDeviceError("Mailbox", "mailbox is closed", nil)

	// ErrBufferDestroyed indicates access to a destroyed buffer
	ErrBufferDestroyed = NewInvalidArgError("Buffer", "buffer already destroyed")

	// ErrZeroSize indicates an allocation request of zero bytes
	ErrZeroSize = NewAllocationError("MemAlloc", "size must be positive", 0)
)

// IsDeviceError checks if an error is a device-access error
func IsDeviceError(err error) bool {
	return hasType(err, ErrTypeDevice)
}

// IsTransportError checks if an error is a property-ioctl error
func IsTransportError(err error) bool {
	return hasType(err, ErrTypeTransport)
}

// IsAllocationError checks if an error is an allocation error
func IsAllocationError(err error) bool {
	return hasType(err, ErrTypeAllocation)
}

// IsLockError checks if an error is a memory lock error
func IsLockError(err error) bool {
	return hasType(err, ErrTypeLock)
}

// IsMapError checks if an error is a mapping error
func IsMapError(err error) bool {
	return hasType(err, ErrTypeMap)
}

// IsExecutionError checks if an error is a kernel execution error
func IsExecutionError(err error) bool {
	return hasType(err, ErrTypeExecution)
}

// IsTeardownError checks if an error is a cleanup error
func IsTeardownError(err error) bool {
	return hasType(err, ErrTypeTeardown)
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	return hasType(err, ErrTypeInvalidArg)
}

func hasType(err error, t ErrorType) bool {
	var e *VC4Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// ExecutionCode extracts the firmware status word from an execution error.
// The second return value reports whether err carried one.
func ExecutionCode(err error) (uint32, bool) {
	var e *VC4Error
	if errors.As(err, &e) && e.Type == ErrTypeExecution {
		if code, ok := e.Context.(uint32); ok {
			return code, true
		}
	}
	return 0, false
}

// RequestedSize extracts the refused allocation size from an allocation
// error, when present.
func RequestedSize(err error) (uint32, bool) {
	var e *VC4Error
	if errors.As(err, &e) && e.Type == ErrTypeAllocation {
		if size, ok := e.Context.(uint32); ok {
			return size, true
		}
	}
	return 0, false
}
