package vc4

import (
	"testing"
)

func TestMemAllocLockFreeCycle(t *testing.T) {
	sim := newSimFirmware()

	h, err := MemAlloc(sim, 4096, 4096, MemFlagZeroCopy)
	if err != nil {
		t.Fatalf("MemAlloc: %v", err)
	}
	if h == 0 {
		t.Fatal("MemAlloc returned zero handle")
	}

	bus, err := MemLock(sim, h)
	if err != nil {
		t.Fatalf("MemLock: %v", err)
	}
	if bus.Alias() != AliasDirect {
		t.Errorf("lock alias = %v, want direct", bus.Alias())
	}
	if bus.Phys() < simPhysBase {
		t.Errorf("physical address 0x%08X below arena base", bus.Phys())
	}

	if err := MemUnlock(sim, h); err != nil {
		t.Fatalf("MemUnlock: %v", err)
	}
	if err := MemFree(sim, h); err != nil {
		t.Fatalf("MemFree: %v", err)
	}
	if n := sim.live(); n != 0 {
		t.Errorf("%d allocations still live after free", n)
	}
}

func TestMemAllocZeroSize(t *testing.T) {
	sim := newSimFirmware()
	_, err := MemAlloc(sim, 0, 4096, MemFlagNormal)
	if !IsAllocationError(err) {
		t.Fatalf("zero size: got %v, want allocation error", err)
	}
}

func TestMemAllocBadAlignment(t *testing.T) {
	sim := newSimFirmware()
	for _, align := range []uint32{0, 3, 12, 4095} {
		_, err := MemAlloc(sim, 4096, align, MemFlagNormal)
		if !IsInvalidArgError(err) {
			t.Errorf("align %d: got %v, want invalid argument error", align, err)
		}
	}
}

func TestMemAllocFirmwareReject(t *testing.T) {
	sim := newSimFirmware()
	sim.rejectAlloc = true

	_, err := MemAlloc(sim, 4096, 4096, MemFlagNormal)
	if !IsAllocationError(err) {
		t.Fatalf("got %v, want allocation error", err)
	}
	if size, ok := RequestedSize(err); !ok || size != 4096 {
		t.Errorf("RequestedSize = %d, %v; want 4096, true", size, ok)
	}
}

func TestMemAllocExhausted(t *testing.T) {
	sim := newSimFirmware()
	// Larger than the arena: firmware answers with handle 0.
	_, err := MemAlloc(sim, simArenaSize+PageSize, 4096, MemFlagNormal)
	if !IsAllocationError(err) {
		t.Fatalf("got %v, want allocation error", err)
	}
}

func TestMemLockUnknownHandle(t *testing.T) {
	sim := newSimFirmware()
	_, err := MemLock(sim, 99)
	if !IsLockError(err) {
		t.Fatalf("got %v, want lock error", err)
	}
}

func TestMemFreeWhileLocked(t *testing.T) {
	sim := newSimFirmware()
	h, err := MemAlloc(sim, 4096, 4096, MemFlagNormal)
	if err != nil {
		t.Fatalf("MemAlloc: %v", err)
	}
	if _, err := MemLock(sim, h); err != nil {
		t.Fatalf("MemLock: %v", err)
	}

	if err := MemFree(sim, h); !IsTeardownError(err) {
		t.Fatalf("free while locked: got %v, want teardown error", err)
	}
	if n := sim.live(); n != 1 {
		t.Errorf("allocation count = %d after refused free, want 1", n)
	}
}

func TestMemUnlockUnknownHandle(t *testing.T) {
	sim := newSimFirmware()
	if err := MemUnlock(sim, 42); !IsTeardownError(err) {
		t.Fatalf("got %v, want teardown error", err)
	}
	if err := MemFree(sim, 42); !IsTeardownError(err) {
		t.Fatalf("got %v, want teardown error", err)
	}
}

func TestFirmwareQueries(t *testing.T) {
	sim := newSimFirmware()

	rev, err := FirmwareRevision(sim)
	if err != nil {
		t.Fatalf("FirmwareRevision: %v", err)
	}
	if rev != simFirmwareRev {
		t.Errorf("revision = 0x%08X, want 0x%08X", rev, uint32(simFirmwareRev))
	}

	base, size, err := ARMMemory(sim)
	if err != nil {
		t.Fatalf("ARMMemory: %v", err)
	}
	if base != simARMBase || size != simARMSize {
		t.Errorf("ARM region = 0x%08X+0x%X, want 0x%08X+0x%X", base, size,
			uint32(simARMBase), uint32(simARMSize))
	}

	base, size, err = VCMemory(sim)
	if err != nil {
		t.Fatalf("VCMemory: %v", err)
	}
	if base != simPhysBase || size != simVCSize {
		t.Errorf("VC region = 0x%08X+0x%X, want 0x%08X+0x%X", base, size,
			uint32(simPhysBase), uint32(simVCSize))
	}
}

func TestMemAllocHonorsAlignment(t *testing.T) {
	sim := newSimFirmware()

	// Nudge the bump allocator off alignment with a small block.
	if _, err := MemAlloc(sim, 16, 16, MemFlagNormal); err != nil {
		t.Fatalf("MemAlloc: %v", err)
	}
	h, err := MemAlloc(sim, 4096, 4096, MemFlagNormal)
	if err != nil {
		t.Fatalf("MemAlloc: %v", err)
	}
	bus, err := MemLock(sim, h)
	if err != nil {
		t.Fatalf("MemLock: %v", err)
	}
	if bus.Phys()%4096 != 0 {
		t.Errorf("physical address 0x%08X not 4096-byte aligned", bus.Phys())
	}
}
