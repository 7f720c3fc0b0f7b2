package acheron

import (
	"unsafe"

	"github.com/alcxpr/acheron/internal/alloc"
)

// SharedAllocator 进程共享策略：任意 goroutine 并发调用，无锁。
// 多数场景用 Shared() 单例即可；NewShared 留给测试和需要独立生命周期的场合。
type SharedAllocator struct {
	a *alloc.Shared
}

// NewShared 创建独立的共享分配器实例。
func NewShared() *SharedAllocator {
	return &SharedAllocator{a: alloc.NewShared()}
}

// Allocate 取 size 字节；0 返回 nil，超过 4MiB 档位直接走 OS 映射。
func (s *SharedAllocator) Allocate(size uintptr) (unsafe.Pointer, error) {
	if s == nil || s.a == nil {
		return nil, ErrClosed
	}
	return s.a.Allocate(size)
}

// Deallocate 归还块，size 必须与分配时一致。
func (s *SharedAllocator) Deallocate(ptr unsafe.Pointer, size uintptr) error {
	if s == nil || s.a == nil {
		return ErrClosed
	}
	return s.a.Deallocate(ptr, size)
}

// Stats 返回统计快照。
func (s *SharedAllocator) Stats() Stats {
	if s == nil || s.a == nil {
		return Stats{}
	}
	return s.a.Stats()
}

// Close 释放全部资源，调用方保证此时已无并发访问。幂等。
func (s *SharedAllocator) Close() error {
	if s == nil || s.a == nil {
		return nil
	}
	return s.a.Close()
}
