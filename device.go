//go:build linux

package vc4

import "errors"

// Device bundles the mailbox channel, the physical-memory mapper and a
// QPU executor behind one handle, in the way most programs want to use
// this package. The channel remains an explicit value underneath: every
// allocator and mapper call receives it as a dependency, so the pieces
// stay individually testable.
type Device struct {
	mbox *Mailbox
	mem  *DevMem
	exec *Executor
}

// DeviceInfo describes the firmware and the SDRAM split between ARM and
// VideoCore.
type DeviceInfo struct {
	FirmwareRevision uint32 `json:"firmware_revision"`
	ARMBase          uint32 `json:"arm_base"`
	ARMSize          uint32 `json:"arm_size"`
	VCBase           uint32 `json:"vc_base"`
	VCSize           uint32 `json:"vc_size"`
}

// Open opens the default control and memory devices.
func Open() (*Device, error) {
	return OpenPaths(DefaultMailboxPath, DefaultMemPath)
}

// OpenPaths opens a device with explicit device file paths, mainly for
// systems with non-standard udev naming.
func OpenPaths(mailboxPath, memPath string) (*Device, error) {
	mbox, err := OpenMailboxPath(mailboxPath)
	if err != nil {
		return nil, err
	}
	return &Device{
		mbox: mbox,
		mem:  &DevMem{Path: memPath},
		exec: NewExecutor(mbox),
	}, nil
}

// Channel returns the property channel for direct allocator calls.
func (d *Device) Channel() Channel {
	return d.mbox
}

// Mapper returns the physical-memory mapper.
func (d *Device) Mapper() Mapper {
	return d.mem
}

// Executor returns the device's kernel executor.
func (d *Device) Executor() *Executor {
	return d.exec
}

// NewBuffer allocates, locks and maps a zero-copy buffer on this device.
func (d *Device) NewBuffer(size, align uint32, flags AllocFlags) (*Buffer, error) {
	return NewBuffer(d.mbox, d.mem, size, align, flags)
}

// NewKernel stages a QPU program on this device.
func (d *Device) NewKernel(code []byte, uniforms [][]uint32) (*Kernel, error) {
	return NewKernel(d.mbox, d.mem, code, uniforms)
}

// Info queries firmware revision and memory split.
func (d *Device) Info() (DeviceInfo, error) {
	var info DeviceInfo
	var err error
	if info.FirmwareRevision, err = FirmwareRevision(d.mbox); err != nil {
		return DeviceInfo{}, err
	}
	if info.ARMBase, info.ARMSize, err = ARMMemory(d.mbox); err != nil {
		return DeviceInfo{}, err
	}
	if info.VCBase, info.VCSize, err = VCMemory(d.mbox); err != nil {
		return DeviceInfo{}, err
	}
	return info, nil
}

// Close powers the QPUs down if this device enabled them and closes the
// mailbox. Cleanup is best-effort; the first error is returned.
func (d *Device) Close() error {
	var first error
	if err := d.exec.Disable(); err != nil && first == nil {
		first = err
	}
	if err := d.mbox.Close(); err != nil && !errors.Is(err, ErrMailboxClosed) && first == nil {
		first = err
	}
	return first
}
