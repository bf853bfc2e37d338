//go:build linux

package vc4

import (
	"errors"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mboxPropertyIoctl is _IOWR(100, 0, char *): the property-channel request
// of the vcio driver. The size field encodes the width of a pointer, so it
// differs between 32-bit and 64-bit userlands.
var mboxPropertyIoctl = uintptr(3)<<30 |
	uintptr(unsafe.Sizeof(uintptr(0)))<<16 |
	uintptr(100)<<8

// Mailbox is an open property channel to the VideoCore firmware. It is
// safe for concurrent use; the driver processes one request at a time and
// the response is written into the caller's buffer before Property
// returns.
type Mailbox struct {
	mu sync.Mutex
	f  *os.File
}

// OpenMailbox opens the default property channel device.
func OpenMailbox() (*Mailbox, error) {
	return OpenMailboxPath(DefaultMailboxPath)
}

// OpenMailboxPath opens the property channel at the given device path.
func OpenMailboxPath(path string) (*Mailbox, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, NewDeviceError("OpenMailbox", deviceHint(path, err), err)
	}
	return &Mailbox{f: f}, nil
}

// deviceHint phrases an open failure so the dominant real-world causes
// (missing driver, insufficient privilege) are visible to the user.
func deviceHint(path string, err error) string {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return path + " not present; is this a Raspberry Pi with the vcio driver loaded?"
	case errors.Is(err, os.ErrPermission):
		return "permission denied opening " + path + "; run as root or join the video group"
	default:
		return "cannot open " + path
	}
}

// Property sends a sealed property message and blocks until the firmware
// has written its response into buf.
func (mb *Mailbox) Property(buf []uint32) error {
	if len(buf) < 3 {
		return NewInvalidArgError("Property", "message too short")
	}
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.f == nil {
		return ErrMailboxClosed
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, mb.f.Fd(), mboxPropertyIoctl,
		uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if errno != 0 {
		return NewTransportError("Property", "mailbox ioctl failed", errno)
	}
	return nil
}

// Close releases the channel. Further operations fail with
// ErrMailboxClosed.
func (mb *Mailbox) Close() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.f == nil {
		return ErrMailboxClosed
	}
	err := mb.f.Close()
	mb.f = nil
	if err != nil {
		return NewTeardownError("Close", "closing mailbox device failed", err)
	}
	return nil
}
