// Package vc4 configuration constants
package vc4

// Device files
const (
	// DefaultMailboxPath is the property channel character device
	DefaultMailboxPath = "/dev/vcio"

	// DefaultMemPath is the physical memory character device used for
	// mapping locked allocations into user space
	DefaultMemPath = "/dev/mem"
)

// Memory layout parameters
const (
	// PageSize is the mapping granularity of /dev/mem on BCM283x
	PageSize = 4096

	// DefaultAlignment for GPU allocations (one page)
	DefaultAlignment = PageSize

	// CodeAlignment for staged QPU code and control records
	CodeAlignment = 16
)

// Property message framing
const (
	propRequestCode = 0x00000000
	propResponseOK  = 0x80000000
	propResponseErr = 0x80000001
	propTagEnd      = 0x00000000

	// Bit 31 of the tag indicator word marks a firmware response
	propResponseBit = 0x80000000

	// The firmware requires the message buffer 16-byte aligned
	propBufferAlign = 16
)

// Property tags understood by this package
const (
	tagGetFirmwareRevision = 0x00000001
	tagGetARMMemory        = 0x00010005
	tagGetVCMemory         = 0x00010006
	tagAllocateMemory      = 0x0003000C
	tagLockMemory          = 0x0003000D
	tagUnlockMemory        = 0x0003000E
	tagReleaseMemory       = 0x0003000F
	tagExecuteQPU          = 0x00030011
	tagEnableQPU           = 0x00030012
)
