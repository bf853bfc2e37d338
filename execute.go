package vc4

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// MaxQPUs is the number of QPU compute units on the VideoCore IV.
const MaxQPUs = 12

// DefaultRunTimeout bounds a kernel dispatch. The firmware's execute
// request takes a millisecond timeout, so a hung kernel fails the dispatch
// instead of hanging the host forever.
const DefaultRunTimeout = 10 * time.Second

// QPUEnable powers up the QPU compute units. The firmware may reject
// execute requests until this has been issued; calling it again is
// harmless.
func QPUEnable(ch Channel) error {
	return qpuPower(ch, "QPUEnable", 1)
}

// QPUDisable powers the QPU compute units back down.
func QPUDisable(ch Channel) error {
	return qpuPower(ch, "QPUDisable", 0)
}

func qpuPower(ch Channel, op string, enable uint32) error {
	m := newPropMessage(12)
	tag := m.addTag(tagEnableQPU, []uint32{enable}, 1)
	if err := ch.Property(m.seal()); err != nil {
		return err
	}
	if !m.ok() || !m.responded(tag) {
		return NewExecutionError(op,
			fmt.Sprintf("firmware refused QPU power request (response 0x%08X)", m.code()), m.code())
	}
	if status := m.value(tag, 0); status != 0 {
		return NewExecutionError(op,
			fmt.Sprintf("QPU power request failed (status 0x%08X)", status), status)
	}
	return nil
}

// Kernel is a QPU program staged for dispatch: one Buffer holding the
// per-QPU uniform blocks, the executable code and the control list the
// firmware walks. The uniform words are a positional contract between host
// and kernel; any buffer the kernel reads or writes must appear in them as
// a bus address, never a virtual pointer.
type Kernel struct {
	buf      *Buffer
	numQPUs  uint32
	control  BusAddress
	code     Region
	uniforms []Region
}

// NewKernel stages code and per-QPU uniforms into a fresh zero-copy
// buffer. uniforms holds one word slice per QPU instance to launch; its
// length sets the QPU count. The code bytes are copied verbatim and never
// interpreted by this layer.
func NewKernel(ch Channel, mapper Mapper, code []byte, uniforms [][]uint32) (*Kernel, error) {
	if len(code) == 0 {
		return nil, NewInvalidArgError("NewKernel", "empty kernel image")
	}
	if len(uniforms) == 0 || len(uniforms) > MaxQPUs {
		return nil, NewInvalidArgError("NewKernel",
			fmt.Sprintf("uniform blocks must number 1..%d, got %d", MaxQPUs, len(uniforms)))
	}

	// Layout: uniform blocks, then code, then the control list, each
	// aligned so the GPU fetches from 16-byte boundaries.
	uniOff := make([]uint32, len(uniforms))
	off := uint32(0)
	for i, u := range uniforms {
		uniOff[i] = off
		off = alignUp(off+uint32(len(u))*4, CodeAlignment)
	}
	codeOff := off
	off = alignUp(off+uint32(len(code)), CodeAlignment)
	ctrlOff := off
	total := off + uint32(len(uniforms))*8

	buf, err := NewBuffer(ch, mapper, total, DefaultAlignment, MemFlagZeroCopy)
	if err != nil {
		return nil, err
	}

	k := &Kernel{
		buf:      buf,
		numQPUs:  uint32(len(uniforms)),
		uniforms: make([]Region, len(uniforms)),
	}
	for i, u := range uniforms {
		r, err := buf.Region(uniOff[i], uint32(len(u))*4)
		if err != nil {
			_ = buf.Destroy()
			return nil, err
		}
		for w, v := range u {
			binary.LittleEndian.PutUint32(r.Data[w*4:], v)
		}
		k.uniforms[i] = r
	}

	k.code, err = buf.Region(codeOff, uint32(len(code)))
	if err != nil {
		_ = buf.Destroy()
		return nil, err
	}
	copy(k.code.Data, code)

	// Control list: (uniforms address, code address) pair per QPU.
	ctrl, err := buf.Region(ctrlOff, k.numQPUs*8)
	if err != nil {
		_ = buf.Destroy()
		return nil, err
	}
	for i := range k.uniforms {
		binary.LittleEndian.PutUint32(ctrl.Data[i*8:], uint32(k.uniforms[i].Bus))
		binary.LittleEndian.PutUint32(ctrl.Data[i*8+4:], uint32(k.code.Bus))
	}
	k.control = ctrl.Bus
	return k, nil
}

// Buffer returns the staging buffer, for callers that want to inspect or
// reuse the mapped bytes between runs.
func (k *Kernel) Buffer() *Buffer {
	return k.buf
}

// Code returns the staged code region.
func (k *Kernel) Code() Region {
	return k.code
}

// Uniforms returns the staged uniform region for QPU instance i, allowing
// parameter updates between dispatches.
func (k *Kernel) Uniforms(i int) Region {
	return k.uniforms[i]
}

// Destroy releases the staging buffer.
func (k *Kernel) Destroy() error {
	if k == nil {
		return nil
	}
	return k.buf.Destroy()
}

// Executor dispatches kernels over a channel. Dispatches are serialized:
// the device runs one kernel at a time and the shared buffers have no
// other synchronization barrier than the blocking execute call, so a
// second Run waits for the first to finish.
type Executor struct {
	ch Channel

	// Timeout bounds each dispatch; zero or negative falls back to
	// DefaultRunTimeout. The firmware enforces it in milliseconds.
	Timeout time.Duration

	// NoFlush skips the VPM/cache flush before execution. Leave false
	// unless the kernel manages its own flushes.
	NoFlush bool

	mu      sync.Mutex
	enabled bool
}

// NewExecutor creates an executor over the given channel.
func NewExecutor(ch Channel) *Executor {
	return &Executor{ch: ch, Timeout: DefaultRunTimeout}
}

// Enable powers up the QPUs. Run does this lazily; Enable is for callers
// that want the failure up front.
func (e *Executor) Enable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enableLocked()
}

func (e *Executor) enableLocked() error {
	if e.enabled {
		return nil
	}
	if err := QPUEnable(e.ch); err != nil {
		return err
	}
	e.enabled = true
	return nil
}

// Disable powers the QPUs down again.
func (e *Executor) Disable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return nil
	}
	if err := QPUDisable(e.ch); err != nil {
		return err
	}
	e.enabled = false
	return nil
}

// Run dispatches the kernel and blocks until the firmware reports
// completion. A non-zero status is returned verbatim as an execution
// error; the kernel's output buffers must then be treated as undefined.
// There is no retry and no queueing.
//
// The host must not touch memory shared with the kernel while Run is in
// flight; the blocking call is the only synchronization barrier.
func (e *Executor) Run(k *Kernel) error {
	if k == nil || k.buf == nil || k.buf.destroyed {
		return NewInvalidArgError("Run", "kernel not staged")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enableLocked(); err != nil {
		return err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	noflush := uint32(0)
	if e.NoFlush {
		noflush = 1
	}

	m := newPropMessage(16)
	tag := m.addTag(tagExecuteQPU, []uint32{
		k.numQPUs,
		uint32(k.control),
		noflush,
		uint32(timeout / time.Millisecond),
	}, 1)
	if err := e.ch.Property(m.seal()); err != nil {
		return err
	}
	if !m.ok() || !m.responded(tag) {
		return NewExecutionError("Run",
			fmt.Sprintf("firmware refused execute request (response 0x%08X)", m.code()), m.code())
	}
	if status := m.value(tag, 0); status != 0 {
		return NewExecutionError("Run",
			fmt.Sprintf("kernel did not complete (status 0x%08X)", status), status)
	}
	return nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
