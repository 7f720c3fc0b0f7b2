package arena

import (
	"testing"
	"unsafe"
)

func newTestPool(t *testing.T, blockSize uintptr) *Pool {
	t.Helper()
	p := NewPool(blockSize)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPoolLazyGrowth(t *testing.T) {
	p := newTestPool(t, 4<<20)
	if p.ArenaCount() != 0 {
		t.Fatalf("fresh pool: want 0 arenas got %d", p.ArenaCount())
	}

	// 前 15 次落在首个 arena，第 16 次触发第二个
	for i := 0; i < 15; i++ {
		if p.Allocate() == nil {
			t.Fatalf("Allocate %d: want block got nil", i)
		}
	}
	if p.ArenaCount() != 1 {
		t.Fatalf("after 15 allocs: want 1 arena got %d", p.ArenaCount())
	}
	if p.Allocate() == nil {
		t.Fatalf("Allocate 16: want block got nil")
	}
	if p.ArenaCount() != 2 {
		t.Fatalf("after 16 allocs: want 2 arenas got %d", p.ArenaCount())
	}
}

func TestPoolGrowthBound(t *testing.T) {
	p := newTestPool(t, 4<<20)

	// 16 个 arena × 15 块 = 240 块是硬上限
	for i := 0; i < 240; i++ {
		if p.Allocate() == nil {
			t.Fatalf("Allocate %d: want block got nil", i)
		}
	}
	if p.ArenaCount() != MaxArenas {
		t.Fatalf("want %d arenas got %d", MaxArenas, p.ArenaCount())
	}
	if p.Allocate() != nil {
		t.Fatalf("Allocate 241: want nil on exhausted pool")
	}
}

func TestPoolDeallocateRoutesToOwner(t *testing.T) {
	p := newTestPool(t, 4<<20)

	var ptrs []unsafe.Pointer
	for i := 0; i < 30; i++ { // 跨两个 arena
		ptr := p.Allocate()
		if ptr == nil {
			t.Fatalf("Allocate %d: want block got nil", i)
		}
		ptrs = append(ptrs, ptr)
	}
	if p.ArenaCount() != 2 {
		t.Fatalf("want 2 arenas got %d", p.ArenaCount())
	}
	for _, ptr := range ptrs {
		if !p.Deallocate(ptr) {
			t.Fatalf("Deallocate %p: owner not found", ptr)
		}
	}
}

func TestPoolDeallocateUnknown(t *testing.T) {
	p := newTestPool(t, 64)
	if p.Allocate() == nil {
		t.Fatalf("Allocate: want block got nil")
	}
	var local int
	if p.Deallocate(unsafe.Pointer(&local)) {
		t.Fatalf("Deallocate foreign pointer: want false")
	}
}

func TestPoolReclaimAfterExhaustion(t *testing.T) {
	p := newTestPool(t, 4<<20)

	var ptrs []unsafe.Pointer
	for i := 0; i < 240; i++ {
		ptrs = append(ptrs, p.Allocate())
	}
	if p.Allocate() != nil {
		t.Fatalf("want nil on exhausted pool")
	}

	p.Deallocate(ptrs[100])
	got := p.Allocate()
	if got == nil {
		t.Fatalf("Allocate after Deallocate: want block got nil")
	}
	if got != ptrs[100] {
		t.Fatalf("want reclaimed block %p got %p", ptrs[100], got)
	}
	if p.ArenaCount() != MaxArenas {
		t.Fatalf("arena count changed: got %d", p.ArenaCount())
	}
}
