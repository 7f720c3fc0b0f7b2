package alloc

import (
	"unsafe"

	"github.com/alcxpr/acheron/internal/arena"
	"github.com/alcxpr/acheron/internal/direct"
	"github.com/alcxpr/acheron/internal/errs"
	"github.com/alcxpr/acheron/internal/mmap"
	"github.com/alcxpr/acheron/internal/sizeclass"
)

// Local 单 goroutine 独占的分配器：每个档位一个池，零同步开销。
// 对应 C 系 malloc 的 thread-local 路线，但线程态显式持有，由调用方 Close。
type Local struct {
	pools  [sizeclass.NumClasses]*arena.Pool
	direct *direct.Registry
	closed bool
}

// NewLocal 创建 20 个空池；arena 由池在首次分配时按需保留。
func NewLocal() *Local {
	l := &Local{direct: direct.NewRegistry()}
	for i := range l.pools {
		l.pools[i] = arena.NewPool(uintptr(sizeclass.MinSize) << i)
	}
	return l
}

// Allocate 取 size 字节：0 返回 nil；超过最大档位直接走 OS 映射；
// 否则路由到对应档位的池。池打不开新 arena 时返回 ErrOutOfMemory。
func (l *Local) Allocate(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, nil
	}
	if l.closed {
		return nil, errs.ErrClosed
	}
	class := sizeclass.Round(size)
	if class == 0 {
		return allocateDirect(l.direct, size)
	}
	ptr := l.pools[sizeclass.Index(class)].Allocate()
	if ptr == nil {
		return nil, errs.ErrOutOfMemory
	}
	return ptr, nil
}

// Deallocate 归还块。nil 或 0 字节为 no-op；size 必须与分配时一致。
// 指针不属于任何 arena 或登记表时返回 ErrBadArgument。
func (l *Local) Deallocate(ptr unsafe.Pointer, size uintptr) error {
	if ptr == nil || size == 0 {
		return nil
	}
	if l.closed {
		return errs.ErrClosed
	}
	class := sizeclass.Round(size)
	if class == 0 {
		return deallocateDirect(l.direct, ptr)
	}
	if !l.pools[sizeclass.Index(class)].Deallocate(ptr) {
		return errs.ErrBadArgument
	}
	return nil
}

// Stats 汇总各池 arena 数、保留字节与未归还的直接映射。
func (l *Local) Stats() Stats {
	var st Stats
	for _, p := range l.pools {
		st.Arenas += p.ArenaCount()
	}
	st.ReservedBytes = st.Arenas * arena.RegionSize
	st.DirectCount, st.DirectBytes = l.direct.Totals()
	return st
}

// Close 释放全部 arena 和没归还的直接映射，之后任何操作返回 ErrClosed。
func (l *Local) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	var firstErr error
	for _, p := range l.pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := drainDirect(l.direct); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// allocateDirect 超档位路径：精确映射 size 字节并登记。
func allocateDirect(reg *direct.Registry, size uintptr) (unsafe.Pointer, error) {
	data, err := mmap.Map(int(size))
	if err != nil {
		return nil, errs.ErrOutOfMemory
	}
	ptr := unsafe.Pointer(&data[0])
	reg.Add(uintptr(ptr), int(size))
	return ptr, nil
}

// deallocateDirect 按登记长度还原切片后解除映射。
func deallocateDirect(reg *direct.Registry, ptr unsafe.Pointer) error {
	size, ok := reg.Remove(uintptr(ptr))
	if !ok {
		return errs.ErrBadArgument
	}
	return mmap.Unmap(unsafe.Slice((*byte)(ptr), size))
}

// drainDirect 回收登记表里剩下的所有映射。
func drainDirect(reg *direct.Registry) error {
	var firstErr error
	for base, size := range reg.Drain() {
		b := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
		if err := mmap.Unmap(b); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
