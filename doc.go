// Package vc4 provides user-space access to VideoCore IV GPU memory and
// QPU kernel execution on Raspberry Pi class hardware.
//
// The package talks to the firmware over the mailbox property channel
// (/dev/vcio) to allocate, lock and free GPU-visible memory, maps the
// resulting physical ranges into the process through /dev/mem, and
// dispatches QPU programs referencing those buffers by bus address.
//
// Because CPU and GPU share the same SDRAM, a buffer allocated here is
// zero-copy: the host writes input data through the mapped virtual
// address and the GPU reads the identical bytes through the bus address.
//
// Example usage:
//
//	dev, err := vc4.Open()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	buf, err := dev.NewBuffer(1<<20, vc4.PageSize, vc4.MemFlagZeroCopy)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer buf.Destroy()
//
//	words := buf.Uint32s()
//	for i := range words {
//		words[i] = uint32(i)
//	}
//	// hand buf.BusAddr() to a QPU kernel via uniforms
//
// Opening the devices requires elevated privileges (root, or membership
// in the video group for /dev/vcio).
package vc4
