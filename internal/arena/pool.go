package arena

import "unsafe"

// Pool 管理同一档位的至多 16 个 Local arena。arena 只追加不删除，
// current 是轮转提示，指向最近分配成功的 arena。
type Pool struct {
	blockSize uintptr
	arenas    [MaxArenas]*Local
	num       int
	current   int
}

// NewPool 创建空池，首块内存在第一次 Allocate 时才保留。
func NewPool(blockSize uintptr) *Pool {
	return &Pool{blockSize: blockSize}
}

// Allocate 先试 current 指向的 arena，再按序轮询其余，最后尝试新建；
// 16 个 arena 全满时返回 nil。
func (p *Pool) Allocate() unsafe.Pointer {
	if p.current < p.num {
		if ptr := p.arenas[p.current].Allocate(); ptr != nil {
			return ptr
		}
	}
	for i := 0; i < p.num; i++ {
		if i == p.current {
			continue
		}
		if ptr := p.arenas[i].Allocate(); ptr != nil {
			p.current = i
			return ptr
		}
	}

	if p.num >= MaxArenas {
		return nil
	}
	a, err := NewLocal(p.blockSize)
	if err != nil {
		return nil
	}
	p.arenas[p.num] = a
	p.current = p.num
	p.num++
	return a.Allocate()
}

// Deallocate 线性扫描找 owner 并释放；找不到返回 false。
// arena 数至多 16，线性扫足够，不做索引。
func (p *Pool) Deallocate(ptr unsafe.Pointer) bool {
	for i := 0; i < p.num; i++ {
		if a := p.arenas[i]; a != nil && a.Owns(ptr) {
			a.Deallocate(ptr)
			return true
		}
	}
	return false
}

// ArenaCount 返回已创建的 arena 数（供测试断言）。
func (p *Pool) ArenaCount() int { return p.num }

// BlockSize 返回本池的块大小。
func (p *Pool) BlockSize() uintptr { return p.blockSize }

// Close 释放所有 arena 的映射，返回第一个出错的结果。
func (p *Pool) Close() error {
	var firstErr error
	for i := 0; i < p.num; i++ {
		if a := p.arenas[i]; a != nil {
			if err := a.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			p.arenas[i] = nil
		}
	}
	p.num = 0
	p.current = 0
	return firstErr
}
