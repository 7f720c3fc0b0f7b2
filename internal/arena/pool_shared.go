package arena

import (
	"sync/atomic"
	"unsafe"
)

// SharedPool Pool 的无锁版本：slot 数组只追加，增长靠 CAS 抢占下一个下标，
// 输家整体重试。current 是尽力而为的轮转提示，并发互相覆盖无害。
type SharedPool struct {
	blockSize uintptr
	arenas    [MaxArenas]atomic.Pointer[Shared]
	num       atomic.Int32
	current   atomic.Int32
}

// NewSharedPool 创建空池，首块内存在第一次 Allocate 时才保留。
func NewSharedPool(blockSize uintptr) *SharedPool {
	return &SharedPool{blockSize: blockSize}
}

// Allocate 先试 current，再轮询已发布的 arena，最后 CAS 抢 slot 新建。
// 16 个 arena 全满时返回 nil。
func (p *SharedPool) Allocate() unsafe.Pointer {
	for {
		num := p.num.Load()
		current := p.current.Load()

		if current < num {
			if a := p.arenas[current].Load(); a != nil {
				if ptr := a.Allocate(); ptr != nil {
					return ptr
				}
			}
		}
		for i := int32(0); i < num; i++ {
			if i == current {
				continue
			}
			a := p.arenas[i].Load()
			if a == nil {
				// slot 已被抢占但 arena 尚未发布，跳过
				continue
			}
			if ptr := a.Allocate(); ptr != nil {
				p.current.Store(i)
				return ptr
			}
		}

		if num >= MaxArenas {
			return nil
		}
		if !p.num.CompareAndSwap(num, num+1) {
			continue
		}
		a, err := NewShared(p.blockSize)
		if err != nil {
			// 映射失败，回滚抢到的 slot
			p.num.Add(-1)
			return nil
		}
		p.arenas[num].Store(a)
		p.current.Store(num)
		return a.Allocate()
	}
}

// Deallocate 线性扫描找 owner 并释放；找不到返回 false。
func (p *SharedPool) Deallocate(ptr unsafe.Pointer) bool {
	num := p.num.Load()
	for i := int32(0); i < num; i++ {
		if a := p.arenas[i].Load(); a != nil && a.Owns(ptr) {
			a.Deallocate(ptr)
			return true
		}
	}
	return false
}

// ArenaCount 返回已创建的 arena 数（供测试断言）。
func (p *SharedPool) ArenaCount() int { return int(p.num.Load()) }

// BlockSize 返回本池的块大小。
func (p *SharedPool) BlockSize() uintptr { return p.blockSize }

// Close 释放所有 arena 的映射。调用方保证此时已无并发访问。
func (p *SharedPool) Close() error {
	var firstErr error
	num := p.num.Load()
	for i := int32(0); i < num; i++ {
		if a := p.arenas[i].Load(); a != nil {
			if err := a.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			p.arenas[i].Store(nil)
		}
	}
	p.num.Store(0)
	p.current.Store(0)
	return firstErr
}
