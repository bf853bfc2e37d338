package vc4

import "fmt"

// CacheAlias selects the caching behavior encoded in the top two bits of a
// bus address. All four aliases address the same underlying SDRAM; they
// differ only in how accesses interact with the VideoCore caches.
type CacheAlias uint32

const (
	// AliasCached goes through L1 and L2 (bus base 0x00000000)
	AliasCached CacheAlias = 0
	// AliasCoherent is L2 cached but coherent with the ARM (0x40000000)
	AliasCoherent CacheAlias = 1
	// AliasAllocating is L2 cached, allocating on access (0x80000000)
	AliasAllocating CacheAlias = 2
	// AliasDirect bypasses all caches (0xC0000000)
	AliasDirect CacheAlias = 3
)

// String returns a human-readable alias name
func (a CacheAlias) String() string {
	switch a {
	case AliasCached:
		return "cached"
	case AliasCoherent:
		return "coherent"
	case AliasAllocating:
		return "allocating"
	case AliasDirect:
		return "direct"
	default:
		return fmt.Sprintf("alias(%d)", uint32(a))
	}
}

// BusAddress is an address as seen by the GPU and DMA engines. The top two
// bits carry a CacheAlias; the remaining 30 bits are the physical offset.
// A zero BusAddress signals failure from an allocation step.
type BusAddress uint32

// busPhysMask strips the alias bits
const busPhysMask = 0x3FFFFFFF

// Phys returns the ARM physical address, alias bits stripped.
func (b BusAddress) Phys() uint32 {
	return uint32(b) & busPhysMask
}

// Alias returns the cache alias encoded in the address.
func (b BusAddress) Alias() CacheAlias {
	return CacheAlias((uint32(b) >> 30) & 0x3)
}

// String formats the address with its alias for diagnostics.
func (b BusAddress) String() string {
	return fmt.Sprintf("0x%08X (%s)", uint32(b), b.Alias())
}

// MakeBusAddress constructs a bus address from a physical address and the
// desired cache alias. The alias is a performance hint, not addressing:
// every alias over the same physical offset reads and writes the same
// memory.
func MakeBusAddress(phys uint32, alias CacheAlias) BusAddress {
	return BusAddress((phys & busPhysMask) | (uint32(alias&0x3) << 30))
}
