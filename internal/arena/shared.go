package arena

import (
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/alcxpr/acheron/internal/mmap"
)

// Shared 多 goroutine 共享的 arena。与 Local 同布局，状态全部走原子操作：
// bump 用 CAS 抢位，位图按字 CAS/OR/AND，全程无锁。
// L1 与 L2 不在同一个原子操作里更新，允许短暂不一致——L1 只是提示位，
// 偏旧只会多一次空扫或一次无效探测，不会损坏状态。
type Shared struct {
	data []byte
	reg  region
	lay  layout

	bump  atomic.Uintptr
	count atomic.Uintptr

	l2 []uint64
	l1 []uint64
}

// NewShared 创建 blockSize 档位的共享 arena，向 OS 保留 64MiB。
func NewShared(blockSize uintptr) (*Shared, error) {
	data, err := mmap.Map(RegionSize)
	if err != nil {
		return nil, err
	}
	a := &Shared{
		data: data,
		lay:  computeLayout(blockSize),
	}
	a.reg = region{base: uintptr(unsafe.Pointer(&data[0])), size: a.lay.usable}
	a.l2, a.l1 = carveBitmaps(data, a.lay)
	return a, nil
}

// Allocate 取一个块：bump 的 CAS 快路径，耗尽后查位图。满则返回 nil。
func (a *Shared) Allocate() unsafe.Pointer {
	offset := a.bump.Load()
	for offset < a.lay.usable {
		if a.bump.CompareAndSwap(offset, offset+a.lay.blockSize) {
			return unsafe.Pointer(&a.data[offset])
		}
		offset = a.bump.Load()
	}
	return a.bitmapAllocate()
}

// Deallocate 原子置 L2 位，再无条件置上级 L1 位。
// ptr 必须来自本 arena，否则行为未定义。
func (a *Shared) Deallocate(ptr unsafe.Pointer) {
	idx := a.reg.offsetOf(ptr) >> a.lay.blockShift
	atomic.OrUint64(&a.l2[idx/wordBits], 1<<(idx%wordBits))
	l1Bit := idx / wordBits / l2PerL1
	atomic.OrUint64(&a.l1[l1Bit/wordBits], 1<<(l1Bit%wordBits))
}

// Owns 判断 ptr 是否落在本 arena 的块区内。
func (a *Shared) Owns(ptr unsafe.Pointer) bool {
	return a.reg.contains(ptr)
}

// Full bump 耗尽且 L1 全零时为满。
func (a *Shared) Full() bool {
	if a.bump.Load() < a.lay.usable {
		return false
	}
	for i := range a.l1 {
		if atomic.LoadUint64(&a.l1[i]) != 0 {
			return false
		}
	}
	return true
}

// BlockSize 返回块大小（供测试断言）。
func (a *Shared) BlockSize() uintptr { return a.lay.blockSize }

// Close 把整块映射归还 OS。调用方保证此时已无并发访问。
func (a *Shared) Close() error {
	if a.data == nil {
		return nil
	}
	err := mmap.Unmap(a.data)
	a.data, a.l1, a.l2 = nil, nil, nil
	a.reg = region{}
	return err
}

// bitmapAllocate 位图慢路径。轮转起点由原子计数派生，把并发扫描摊开到
// 不同的 L1 区域，减少多线程抢同一个字的冲突。
func (a *Shared) bitmapAllocate() unsafe.Pointer {
	counter := a.count.Add(1) - 1

	start := counter % a.lay.l1Bits
	wordIdx := start / wordBits
	bitOff := start % wordBits

	for i := uintptr(0); i < a.lay.l1Words; i++ {
		idx := (wordIdx + i) % a.lay.l1Words
		w := atomic.LoadUint64(&a.l1[idx])
		if i == 0 && bitOff != 0 {
			w &= ^uint64(0) << bitOff
		}
		if w == 0 {
			continue
		}
		l1Index := idx*wordBits + uintptr(bits.TrailingZeros64(w))
		regionStart := l1Index * l2PerL1
		for j := uintptr(0); j < l2PerL1; j++ {
			l2Idx := regionStart + j
			if l2Idx >= a.lay.l2Words {
				break
			}
			w2 := atomic.LoadUint64(&a.l2[l2Idx])
			for w2 != 0 {
				bit := uintptr(bits.TrailingZeros64(w2))
				blockIndex := l2Idx*wordBits + bit
				if blockIndex >= a.lay.numBlocks {
					break
				}
				next := w2 &^ (1 << bit)
				if atomic.CompareAndSwapUint64(&a.l2[l2Idx], w2, next) {
					if next == 0 {
						a.updateL1ForRegion(l1Index)
					}
					return unsafe.Pointer(&a.data[blockIndex<<a.lay.blockShift])
				}
				w2 = atomic.LoadUint64(&a.l2[l2Idx])
			}
		}
	}
	return nil
}

// updateL1ForRegion 重扫整个 L2 区域后原子改写 L1 汇总位。
func (a *Shared) updateL1ForRegion(l1Index uintptr) {
	regionStart := l1Index * l2PerL1
	hasFree := false
	for i := uintptr(0); i < l2PerL1 && regionStart+i < a.lay.l2Words; i++ {
		if atomic.LoadUint64(&a.l2[regionStart+i]) != 0 {
			hasFree = true
			break
		}
	}
	word, bit := l1Index/wordBits, l1Index%wordBits
	if hasFree {
		atomic.OrUint64(&a.l1[word], 1<<bit)
	} else {
		atomic.AndUint64(&a.l1[word], ^(uint64(1) << bit))
	}
}
