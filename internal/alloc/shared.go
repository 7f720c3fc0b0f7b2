package alloc

import (
	"sync/atomic"
	"unsafe"

	"github.com/alcxpr/acheron/internal/arena"
	"github.com/alcxpr/acheron/internal/direct"
	"github.com/alcxpr/acheron/internal/errs"
	"github.com/alcxpr/acheron/internal/sizeclass"
)

// Shared 进程级共享分配器：池走无锁 CAS，可被任意 goroutine 并发调用。
type Shared struct {
	pools  [sizeclass.NumClasses]*arena.SharedPool
	direct *direct.Registry
	closed atomic.Bool
}

// NewShared 创建 20 个空共享池；arena 由池在首次分配时按需保留。
func NewShared() *Shared {
	s := &Shared{direct: direct.NewRegistry()}
	for i := range s.pools {
		s.pools[i] = arena.NewSharedPool(uintptr(sizeclass.MinSize) << i)
	}
	return s
}

// Allocate 取 size 字节，语义同 Local.Allocate，但可并发调用。
func (s *Shared) Allocate(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	if s.closed.Load() {
		return nil, errs.ErrClosed
	}
	class := sizeclass.Round(size)
	if class == 0 {
		return allocateDirect(s.direct, size)
	}
	ptr := s.pools[sizeclass.Index(class)].Allocate()
	if ptr == nil {
		return nil, errs.ErrOutOfMemory
	}
	return ptr, nil
}

// Deallocate 归还块，语义同 Local.Deallocate，但可并发调用。
func (s *Shared) Deallocate(ptr unsafe.Pointer, size uintptr) error {
	if ptr == nil || size == 0 {
		return nil
	}
	if s.closed.Load() {
		return errs.ErrClosed
	}
	class := sizeclass.Round(size)
	if class == 0 {
		return deallocateDirect(s.direct, ptr)
	}
	if !s.pools[sizeclass.Index(class)].Deallocate(ptr) {
		return errs.ErrBadArgument
	}
	return nil
}

// Stats 汇总各池 arena 数、保留字节与未归还的直接映射。
func (s *Shared) Stats() Stats {
	var st Stats
	for _, p := range s.pools {
		st.Arenas += p.ArenaCount()
	}
	st.ReservedBytes = st.Arenas * arena.RegionSize
	st.DirectCount, st.DirectBytes = s.direct.Totals()
	return st
}

// Close 释放全部资源。进程级单例正常情况下不关，留给测试和显式实例用。
// 调用方保证此时已无并发访问。
func (s *Shared) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	var firstErr error
	for _, p := range s.pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := drainDirect(s.direct); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
