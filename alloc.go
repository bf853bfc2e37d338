package vc4

import (
	"fmt"
	"strings"
)

// MemHandle is an opaque firmware-side identifier for a GPU memory
// allocation. It is non-zero while the allocation is live and must not be
// reused after MemFree.
type MemHandle uint32

// AllocFlags control how the firmware allocates memory and which cache
// alias the locked bus address will carry.
type AllocFlags uint32

const (
	// MemFlagDiscardable memory can be resized to zero at any time
	MemFlagDiscardable AllocFlags = 1 << 0
	// MemFlagNormal allocates through the fully cached alias
	MemFlagNormal AllocFlags = 0 << 2
	// MemFlagDirect allocates through the uncached direct alias
	MemFlagDirect AllocFlags = 1 << 2
	// MemFlagCoherent allocates through the ARM-coherent alias
	MemFlagCoherent AllocFlags = 2 << 2
	// MemFlagL1Nonallocating allocates through the L2-allocating alias
	MemFlagL1Nonallocating AllocFlags = 3 << 2
	// MemFlagZero initializes the allocation to all zeros
	MemFlagZero AllocFlags = 1 << 4
	// MemFlagNoInit leaves the allocation uninitialized (default)
	MemFlagNoInit AllocFlags = 1 << 5
	// MemFlagHintPermalock hints that the allocation stays locked
	MemFlagHintPermalock AllocFlags = 1 << 6

	// MemFlagZeroCopy is the recommended combination for buffers the CPU
	// fills and the GPU reads: uncached stores go straight to SDRAM.
	MemFlagZeroCopy = MemFlagDirect | MemFlagZero
)

// CacheAlias returns the bus-address alias the firmware will hand back
// when an allocation with these flags is locked.
func (f AllocFlags) CacheAlias() CacheAlias {
	switch f & (3 << 2) {
	case MemFlagDirect:
		return AliasDirect
	case MemFlagCoherent:
		return AliasCoherent
	case MemFlagL1Nonallocating:
		return AliasAllocating
	default:
		return AliasCached
	}
}

// Flags returns the allocation flag bits selecting this alias.
func (a CacheAlias) Flags() AllocFlags {
	switch a {
	case AliasDirect:
		return MemFlagDirect
	case AliasCoherent:
		return MemFlagCoherent
	case AliasAllocating:
		return MemFlagL1Nonallocating
	default:
		return MemFlagNormal
	}
}

// String renders the flag bits for diagnostics.
func (f AllocFlags) String() string {
	var parts []string
	if f&MemFlagDiscardable != 0 {
		parts = append(parts, "discardable")
	}
	parts = append(parts, f.CacheAlias().String())
	if f&MemFlagZero != 0 {
		parts = append(parts, "zero")
	}
	if f&MemFlagNoInit != 0 {
		parts = append(parts, "no-init")
	}
	if f&MemFlagHintPermalock != 0 {
		parts = append(parts, "permalock")
	}
	return strings.Join(parts, "|")
}

// MemAlloc asks the firmware for a block of GPU-visible memory. size and
// align are in bytes; align must be a power of two. The returned handle
// must be locked with MemLock before the memory is touched.
func MemAlloc(ch Channel, size, align uint32, flags AllocFlags) (MemHandle, error) {
	if size == 0 {
		return 0, ErrZeroSize
	}
	if align == 0 || align&(align-1) != 0 {
		return 0, NewInvalidArgError("MemAlloc", "alignment must be a power of two")
	}
	m := newPropMessage(16)
	tag := m.addTag(tagAllocateMemory, []uint32{size, align, uint32(flags)}, 1)
	if err := ch.Property(m.seal()); err != nil {
		return 0, err
	}
	if !m.ok() || !m.responded(tag) {
		return 0, NewAllocationError("MemAlloc",
			fmt.Sprintf("firmware refused allocation (response 0x%08X)", m.code()), size)
	}
	h := MemHandle(m.value(tag, 0))
	if h == 0 {
		return 0, NewAllocationError("MemAlloc",
			fmt.Sprintf("firmware returned no handle for %d bytes", size), size)
	}
	return h, nil
}

// MemLock pins an allocation and returns its bus address. The address is
// valid until MemUnlock.
func MemLock(ch Channel, h MemHandle) (BusAddress, error) {
	m := newPropMessage(12)
	tag := m.addTag(tagLockMemory, []uint32{uint32(h)}, 1)
	if err := ch.Property(m.seal()); err != nil {
		return 0, err
	}
	if !m.ok() || !m.responded(tag) {
		return 0, NewLockError("MemLock",
			fmt.Sprintf("firmware refused lock of handle %d (response 0x%08X)", h, m.code()))
	}
	bus := BusAddress(m.value(tag, 0))
	if bus == 0 {
		return 0, NewLockError("MemLock",
			fmt.Sprintf("firmware returned no bus address for handle %d", h))
	}
	return bus, nil
}

// MemUnlock invalidates the bus address previously returned by MemLock.
// Access through that address afterwards is undefined.
func MemUnlock(ch Channel, h MemHandle) error {
	return releaseOp(ch, "MemUnlock", tagUnlockMemory, h)
}

// MemFree releases an allocation back to the firmware. The handle must be
// unlocked first and is meaningless afterwards.
func MemFree(ch Channel, h MemHandle) error {
	return releaseOp(ch, "MemFree", tagReleaseMemory, h)
}

func releaseOp(ch Channel, op string, tagID uint32, h MemHandle) error {
	m := newPropMessage(12)
	tag := m.addTag(tagID, []uint32{uint32(h)}, 1)
	if err := ch.Property(m.seal()); err != nil {
		return err
	}
	if !m.ok() || !m.responded(tag) {
		return NewTeardownError(op,
			fmt.Sprintf("firmware refused handle %d (response 0x%08X)", h, m.code()), nil)
	}
	if status := m.value(tag, 0); status != 0 {
		return NewTeardownError(op,
			fmt.Sprintf("firmware reported status 0x%08X for handle %d", status, h), nil)
	}
	return nil
}

// FirmwareRevision returns the firmware revision word.
func FirmwareRevision(ch Channel) (uint32, error) {
	m := newPropMessage(12)
	tag := m.addTag(tagGetFirmwareRevision, nil, 1)
	if err := ch.Property(m.seal()); err != nil {
		return 0, err
	}
	if !m.ok() || !m.responded(tag) {
		return 0, NewTransportError("FirmwareRevision",
			fmt.Sprintf("firmware did not answer (response 0x%08X)", m.code()), nil)
	}
	return m.value(tag, 0), nil
}

// ARMMemory returns the base and size of the memory region owned by the
// ARM. Together with VCMemory this describes the SDRAM split.
func ARMMemory(ch Channel) (base, size uint32, err error) {
	return memoryRegion(ch, "ARMMemory", tagGetARMMemory)
}

// VCMemory returns the base and size of the memory region owned by the
// VideoCore; GPU allocations come out of this region.
func VCMemory(ch Channel) (base, size uint32, err error) {
	return memoryRegion(ch, "VCMemory", tagGetVCMemory)
}

func memoryRegion(ch Channel, op string, tagID uint32) (base, size uint32, err error) {
	m := newPropMessage(12)
	tag := m.addTag(tagID, nil, 2)
	if err := ch.Property(m.seal()); err != nil {
		return 0, 0, err
	}
	if !m.ok() || !m.responded(tag) {
		return 0, 0, NewTransportError(op,
			fmt.Sprintf("firmware did not answer (response 0x%08X)", m.code()), nil)
	}
	return m.value(tag, 0), m.value(tag, 1), nil
}
