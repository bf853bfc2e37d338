package vc4

import (
	"encoding/binary"
	"sync"
)

// Simulated firmware used throughout the package tests. It implements
// both Channel and Mapper over a host byte arena: allocations come from a
// bump allocator, lock hands out bus addresses with the alias implied by
// the allocation flags, and Map returns views into the arena with the
// same page arithmetic DevMem performs. Execute requests are routed to a
// pluggable hook so protocol tests can emulate kernel behavior.

const (
	simPhysBase    = 0x1E000000
	simArenaSize   = 8 << 20
	simFirmwareRev = 0x5F2D1A03
	simARMBase     = 0x00000000
	simARMSize     = simPhysBase
	simVCSize      = 0x02000000
)

type simAlloc struct {
	phys   uint32
	size   uint32
	flags  AllocFlags
	locked bool
}

type simFirmware struct {
	mu          sync.Mutex
	arena       []byte
	next        uint32
	allocs      map[MemHandle]*simAlloc
	nextHandle  MemHandle
	rejectAlloc bool
	enableCount int
	execCount   int
	execFn      func(numQPUs uint32, control BusAddress) uint32

	// last execute request, raw
	lastNoFlush   uint32
	lastTimeoutMs uint32
}

func newSimFirmware() *simFirmware {
	return &simFirmware{
		arena:      make([]byte, simArenaSize+PageSize),
		allocs:     make(map[MemHandle]*simAlloc),
		nextHandle: 1,
	}
}

// live returns the number of allocations the firmware still tracks.
func (s *simFirmware) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.allocs)
}

// poison fills the whole arena with a junk byte so zero-initialization
// becomes observable.
func (s *simFirmware) poison() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.arena {
		s.arena[i] = 0xA5
	}
}

// word reads the little-endian word behind a bus address.
func (s *simFirmware) word(bus BusAddress) uint32 {
	return binary.LittleEndian.Uint32(s.arena[bus.Phys()-simPhysBase:])
}

// setWord writes the little-endian word behind a bus address.
func (s *simFirmware) setWord(bus BusAddress, v uint32) {
	binary.LittleEndian.PutUint32(s.arena[bus.Phys()-simPhysBase:], v)
}

func (s *simFirmware) Property(buf []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(buf) < 3 || buf[0] != uint32(len(buf)*4) {
		return NewTransportError("Property", "malformed message", nil)
	}
	i := 2
	for i < len(buf) && buf[i] != propTagEnd {
		if i+3 > len(buf) {
			return NewTransportError("Property", "truncated tag", nil)
		}
		valWords := int(buf[i+1] / 4)
		if i+3+valWords > len(buf) {
			return NewTransportError("Property", "tag value out of bounds", nil)
		}
		resp := s.handleTag(buf[i], buf[i+3:i+3+valWords])
		if resp < 0 {
			buf[1] = propResponseErr
			return nil
		}
		buf[i+2] = propResponseBit | uint32(resp*4)
		i += 3 + valWords
	}
	buf[1] = propResponseOK
	return nil
}

// handleTag processes one tag in place and returns the number of response
// words, or -1 for a firmware-level rejection of the whole message.
func (s *simFirmware) handleTag(id uint32, val []uint32) int {
	switch id {
	case tagAllocateMemory:
		size, align, flags := val[0], val[1], AllocFlags(val[2])
		if s.rejectAlloc {
			return -1
		}
		start := (s.next + align - 1) &^ (align - 1)
		if size == 0 || start+size > simArenaSize {
			val[0] = 0 // allocation failure: no handle
			return 1
		}
		h := s.nextHandle
		s.nextHandle++
		if flags&MemFlagZero != 0 {
			clear(s.arena[start : start+size])
		}
		s.allocs[h] = &simAlloc{phys: simPhysBase + start, size: size, flags: flags}
		s.next = start + size
		val[0] = uint32(h)
		return 1

	case tagLockMemory:
		a := s.allocs[MemHandle(val[0])]
		if a == nil {
			val[0] = 0
			return 1
		}
		a.locked = true
		val[0] = uint32(MakeBusAddress(a.phys, a.flags.CacheAlias()))
		return 1

	case tagUnlockMemory:
		a := s.allocs[MemHandle(val[0])]
		if a == nil || !a.locked {
			val[0] = 1
			return 1
		}
		a.locked = false
		val[0] = 0
		return 1

	case tagReleaseMemory:
		h := MemHandle(val[0])
		a := s.allocs[h]
		if a == nil || a.locked {
			val[0] = 1
			return 1
		}
		delete(s.allocs, h)
		val[0] = 0
		return 1

	case tagGetFirmwareRevision:
		val[0] = simFirmwareRev
		return 1

	case tagGetARMMemory:
		val[0] = simARMBase
		val[1] = simARMSize
		return 2

	case tagGetVCMemory:
		val[0] = simPhysBase
		val[1] = simVCSize
		return 2

	case tagEnableQPU:
		if val[0] != 0 {
			s.enableCount++
		}
		val[0] = 0
		return 1

	case tagExecuteQPU:
		s.execCount++
		s.lastNoFlush = val[2]
		s.lastTimeoutMs = val[3]
		status := uint32(0)
		if s.execFn != nil {
			status = s.execFn(val[0], BusAddress(val[1]))
		}
		val[0] = status
		return 1

	default:
		return -1
	}
}

// Map mirrors DevMem's page arithmetic over the arena.
func (s *simFirmware) Map(phys, size uint32, uncached bool) (*Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size == 0 {
		return nil, NewInvalidArgError("Map", "size must be positive")
	}
	base, off, length := pageSpan(phys, size, PageSize)
	if base < simPhysBase || base-simPhysBase+length > uint32(len(s.arena)) {
		return nil, NewMapError("Map", "range outside simulated arena", nil)
	}
	start := base - simPhysBase
	return &Mapping{
		mem:  s.arena[start : start+length],
		off:  int(off),
		size: int(size),
	}, nil
}

func (s *simFirmware) Unmap(m *Mapping) error {
	if m == nil || m.mem == nil {
		return nil
	}
	m.mem = nil
	return nil
}

// failMapper rejects every Map call, for rollback tests.
type failMapper struct{}

func (failMapper) Map(phys, size uint32, uncached bool) (*Mapping, error) {
	return nil, NewMapError("Map", "injected mapping failure", nil)
}

func (failMapper) Unmap(m *Mapping) error { return nil }
