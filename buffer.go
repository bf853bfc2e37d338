package vc4

import (
	"fmt"
	"unsafe"
)

// Buffer is a zero-copy GPU memory region: one firmware allocation, locked
// to a bus address and mapped into this process. The CPU reaches the bytes
// through the mapped views, the GPU through BusAddr. A Buffer owns its
// handle exclusively; share the Buffer value, never re-derive a second
// mapping from the same handle.
type Buffer struct {
	ch        Channel
	mapper    Mapper
	handle    MemHandle
	bus       BusAddress
	mapping   *Mapping
	size      uint32
	flags     AllocFlags
	destroyed bool
}

// NewBuffer allocates, locks and maps a GPU memory region in one step.
// size is rounded up to align (a power of two; 0 selects DefaultAlignment).
// If any stage fails the previously completed stages are rolled back and
// the error names the stage, so no partial buffer is ever handed out.
//
// Flags requesting the direct alias get an uncached mapping, so CPU stores
// reach SDRAM without a cache flush.
func NewBuffer(ch Channel, mapper Mapper, size, align uint32, flags AllocFlags) (*Buffer, error) {
	if ch == nil || mapper == nil {
		return nil, NewInvalidArgError("NewBuffer", "nil channel or mapper")
	}
	if align == 0 {
		align = DefaultAlignment
	}
	if size == 0 {
		return nil, ErrZeroSize
	}
	if align&(align-1) != 0 {
		return nil, NewInvalidArgError("NewBuffer", "alignment must be a power of two")
	}
	rounded := (size + align - 1) &^ (align - 1)

	handle, err := MemAlloc(ch, rounded, align, flags)
	if err != nil {
		return nil, err
	}
	bus, err := MemLock(ch, handle)
	if err != nil {
		_ = MemFree(ch, handle)
		return nil, err
	}
	mapping, err := mapper.Map(bus.Phys(), rounded, flags.CacheAlias() == AliasDirect)
	if err != nil {
		_ = MemUnlock(ch, handle)
		_ = MemFree(ch, handle)
		return nil, err
	}
	return &Buffer{
		ch:      ch,
		mapper:  mapper,
		handle:  handle,
		bus:     bus,
		mapping: mapping,
		size:    rounded,
		flags:   flags,
	}, nil
}

// Destroy unmaps, unlocks and frees the buffer. Every step is attempted
// even if an earlier one fails; the first error is returned. A second
// Destroy is a no-op.
func (b *Buffer) Destroy() error {
	if b == nil || b.destroyed {
		return nil
	}
	b.destroyed = true

	var first error
	if b.mapping != nil {
		if err := b.mapper.Unmap(b.mapping); err != nil && first == nil {
			first = err
		}
		b.mapping = nil
	}
	if b.bus != 0 {
		if err := MemUnlock(b.ch, b.handle); err != nil && first == nil {
			first = err
		}
		b.bus = 0
	}
	if b.handle != 0 {
		if err := MemFree(b.ch, b.handle); err != nil && first == nil {
			first = err
		}
		b.handle = 0
	}
	return first
}

// Bytes returns the CPU view of the buffer. Nil after Destroy.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.destroyed {
		return nil
	}
	return b.mapping.Bytes()
}

// Uint32s returns the buffer as a word slice, the natural unit of the
// property protocol and of QPU uniforms. Nil after Destroy.
func (b *Buffer) Uint32s() []uint32 {
	bts := b.Bytes()
	if len(bts) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&bts[0])), len(bts)/4)
}

// BusAddr returns the GPU's address of the buffer; zero after Destroy.
func (b *Buffer) BusAddr() BusAddress {
	if b == nil {
		return 0
	}
	return b.bus
}

// Handle returns the firmware memory handle; zero after Destroy.
func (b *Buffer) Handle() MemHandle {
	if b == nil {
		return 0
	}
	return b.handle
}

// Size returns the allocated size in bytes. It is a multiple of the
// requested alignment and at least the requested size.
func (b *Buffer) Size() uint32 {
	if b == nil {
		return 0
	}
	return b.size
}

// Flags returns the allocation flags the buffer was created with.
func (b *Buffer) Flags() AllocFlags {
	if b == nil {
		return 0
	}
	return b.flags
}

// Region is a sub-range of a Buffer carrying both of its addresses: the
// bus address for the GPU (this is what goes into uniforms) and the byte
// view for the CPU.
type Region struct {
	Bus  BusAddress
	Data []byte
}

// Uint32s returns the region as a word slice.
func (r Region) Uint32s() []uint32 {
	if len(r.Data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&r.Data[0])), len(r.Data)/4)
}

// Region returns the sub-range [off, off+size) of the buffer.
func (b *Buffer) Region(off, size uint32) (Region, error) {
	if b == nil || b.destroyed {
		return Region{}, ErrBufferDestroyed
	}
	if off+size < off || off+size > b.size {
		return Region{}, NewInvalidArgError("Region",
			fmt.Sprintf("range [%d, %d) outside buffer of %d bytes", off, off+size, b.size))
	}
	return Region{
		Bus:  BusAddress(uint32(b.bus) + off),
		Data: b.Bytes()[off : off+size],
	}, nil
}
