package acheron

import (
	"unsafe"

	"github.com/alcxpr/acheron/internal/alloc"
)

// LocalAllocator 线程私有策略：调用方保证单 goroutine 访问，换取零同步开销。
// 通常每个工作 goroutine 各建一个，退出前 Close 归还全部内存。
type LocalAllocator struct {
	a *alloc.Local
}

// NewLocal 创建线程私有分配器。
func NewLocal() *LocalAllocator {
	return &LocalAllocator{a: alloc.NewLocal()}
}

// Allocate 取 size 字节；0 返回 nil，超过 4MiB 档位直接走 OS 映射。
func (l *LocalAllocator) Allocate(size uintptr) (unsafe.Pointer, error) {
	if l == nil || l.a == nil {
		return nil, ErrClosed
	}
	return l.a.Allocate(size)
}

// Deallocate 归还块，size 必须与分配时一致。
func (l *LocalAllocator) Deallocate(ptr unsafe.Pointer, size uintptr) error {
	if l == nil || l.a == nil {
		return ErrClosed
	}
	return l.a.Deallocate(ptr, size)
}

// Stats 返回统计快照。
func (l *LocalAllocator) Stats() Stats {
	if l == nil || l.a == nil {
		return Stats{}
	}
	return l.a.Stats()
}

// Close 释放全部 arena 与未归还的直接映射。幂等。
func (l *LocalAllocator) Close() error {
	if l == nil || l.a == nil {
		return nil
	}
	return l.a.Close()
}
