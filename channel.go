package vc4

// Channel is the property-message transport to the device firmware. The
// production implementation is Mailbox over /dev/vcio; tests substitute a
// simulated firmware. The call is synchronous: the firmware's response is
// written in place into buf before Property returns.
//
// Channel only reports transport-level failures. Firmware-level rejection
// (response code != success) is left in the buffer for the calling
// operation to interpret.
type Channel interface {
	Property(buf []uint32) error
}

// Mapper maps physical address ranges into the process. The production
// implementation is DevMem over /dev/mem.
type Mapper interface {
	// Map makes [phys, phys+size) addressable. uncached requests a
	// synchronous mapping that bypasses the CPU cache.
	Map(phys, size uint32, uncached bool) (*Mapping, error)
	// Unmap releases a mapping. Safe on nil and already-unmapped values.
	Unmap(m *Mapping) error
}

// Mapping is a user-space view of a physical address range. The full
// page-aligned span is retained internally so Unmap always releases
// exactly what was mapped, regardless of the intra-page offset the caller
// asked for.
type Mapping struct {
	mem  []byte
	off  int
	size int
}

// Bytes returns the originally requested range. The slice is valid only
// until Unmap.
func (m *Mapping) Bytes() []byte {
	if m == nil || m.mem == nil {
		return nil
	}
	return m.mem[m.off : m.off+m.size]
}

// Size returns the requested length in bytes.
func (m *Mapping) Size() int {
	if m == nil {
		return 0
	}
	return m.size
}

// pageSpan computes the page-aligned base, the intra-page offset of phys,
// and the total mapping length covering [phys, phys+size).
func pageSpan(phys, size, pageSize uint32) (base, off, length uint32) {
	base = phys &^ (pageSize - 1)
	off = phys - base
	length = (size + off + pageSize - 1) &^ (pageSize - 1)
	return base, off, length
}
