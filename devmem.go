//go:build linux

package vc4

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DevMem maps physical memory through /dev/mem. The device is opened per
// Map call and closed immediately after the mmap; the mapping stays valid
// without the descriptor.
type DevMem struct {
	// Path overrides the device file; empty means DefaultMemPath.
	Path string
}

func (d *DevMem) path() string {
	if d.Path != "" {
		return d.Path
	}
	return DefaultMemPath
}

// Map makes the physical range [phys, phys+size) addressable in this
// process. phys need not be page aligned; the returned Mapping's Bytes
// start at phys exactly. uncached opens the device with O_SYNC so stores
// bypass the CPU cache, which is what a Direct-alias buffer needs.
func (d *DevMem) Map(phys, size uint32, uncached bool) (*Mapping, error) {
	if size == 0 {
		return nil, NewInvalidArgError("Map", "size must be positive")
	}
	flags := os.O_RDWR
	if uncached {
		flags |= os.O_SYNC
	}
	f, err := os.OpenFile(d.path(), flags, 0)
	if err != nil {
		return nil, NewDeviceError("Map", deviceHint(d.path(), err), err)
	}
	defer f.Close()

	base, off, length := pageSpan(phys, size, uint32(os.Getpagesize()))
	mem, err := unix.Mmap(int(f.Fd()), int64(base), int(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, NewMapError("Map",
			fmt.Sprintf("mmap of 0x%08X (%d bytes) rejected", phys, size), err)
	}
	return &Mapping{mem: mem, off: int(off), size: int(size)}, nil
}

// Unmap releases a mapping. The full page-aligned span recorded at map
// time is released; calling Unmap twice is a no-op.
func (d *DevMem) Unmap(m *Mapping) error {
	if m == nil || m.mem == nil {
		return nil
	}
	mem := m.mem
	m.mem = nil
	if err := unix.Munmap(mem); err != nil {
		return NewTeardownError("Unmap", "munmap failed", err)
	}
	return nil
}
