package arena

import (
	"testing"
	"unsafe"
)

func ptrAt(p uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&p))
}

func mustNewLocal(t *testing.T, blockSize uintptr) *Local {
	t.Helper()
	a, err := NewLocal(blockSize)
	if err != nil {
		t.Fatalf("NewLocal(%d): %v", blockSize, err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestLocalBumpSequential(t *testing.T) {
	a := mustNewLocal(t, 64)

	prev := a.Allocate()
	if prev == nil {
		t.Fatalf("first Allocate returned nil")
	}
	for i := 0; i < 100; i++ {
		p := a.Allocate()
		if p == nil {
			t.Fatalf("Allocate %d returned nil", i)
		}
		if uintptr(p)-uintptr(prev) != 64 {
			t.Fatalf("bump spacing: want 64 got %d", uintptr(p)-uintptr(prev))
		}
		prev = p
	}
}

func TestLocalExhaustionAndReuse(t *testing.T) {
	// 4MiB 档位一个 arena 恰好 15 块，容易整体打满
	a := mustNewLocal(t, 4<<20)

	var ptrs []unsafe.Pointer
	for {
		p := a.Allocate()
		if p == nil {
			break
		}
		ptrs = append(ptrs, p)
	}
	if len(ptrs) != 15 {
		t.Fatalf("capacity: want 15 blocks got %d", len(ptrs))
	}
	if !a.Full() {
		t.Fatalf("Full: want true after exhaustion")
	}

	// 释放一块后必须能从位图拿回同一地址
	a.Deallocate(ptrs[7])
	if a.Full() {
		t.Fatalf("Full: want false after Deallocate")
	}
	p := a.Allocate()
	if p != ptrs[7] {
		t.Fatalf("reuse: want %p got %p", ptrs[7], p)
	}
	if !a.Full() {
		t.Fatalf("Full: want true after reuse")
	}
	if a.Allocate() != nil {
		t.Fatalf("Allocate on full arena: want nil")
	}
}

func TestLocalBitmapDrain(t *testing.T) {
	a := mustNewLocal(t, 4<<20)

	var ptrs []unsafe.Pointer
	for p := a.Allocate(); p != nil; p = a.Allocate() {
		ptrs = append(ptrs, p)
	}
	for _, p := range ptrs {
		a.Deallocate(p)
	}

	// 全部回收后应能重新拿满，且地址集合不变
	seen := make(map[uintptr]bool, len(ptrs))
	for _, p := range ptrs {
		seen[uintptr(p)] = true
	}
	for i := 0; i < len(ptrs); i++ {
		p := a.Allocate()
		if p == nil {
			t.Fatalf("re-allocate %d: want block got nil", i)
		}
		if !seen[uintptr(p)] {
			t.Fatalf("re-allocate %d: address %p not from original set", i, p)
		}
		delete(seen, uintptr(p))
	}
	if a.Allocate() != nil {
		t.Fatalf("over-allocate: want nil")
	}
}

func TestLocalOwns(t *testing.T) {
	a := mustNewLocal(t, 64)
	b := mustNewLocal(t, 64)

	p := a.Allocate()
	if !a.Owns(p) {
		t.Fatalf("Owns: arena should own its own block")
	}
	if b.Owns(p) {
		t.Fatalf("Owns: foreign arena should not own block")
	}
	if a.Owns(ptrAt(1)) {
		t.Fatalf("Owns: arbitrary address should be outside")
	}
}

func TestLocalCloseIdempotent(t *testing.T) {
	a, err := NewLocal(64)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
