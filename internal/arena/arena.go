package arena

import (
	"math/bits"
	"unsafe"

	"github.com/alcxpr/acheron/internal/mmap"
)

// Local 单 goroutine 独占的 arena：一块 64MiB 匿名映射，bump 快路径 + 两级位图慢路径。
// 不做任何同步，调用方保证串行访问。
type Local struct {
	data []byte
	reg  region
	lay  layout

	bump  uintptr // 只增的 bump 偏移，指向从未分配过的下一字节
	count uintptr // 分配计数，只用来给位图扫描选轮转起点，不是存活块数

	l2 []uint64 // 每块一位，1=空闲
	l1 []uint64 // 每 64 个 L2 字一位，1=该区域可能有空闲块
}

// NewLocal 创建 blockSize 档位的 arena，向 OS 保留 64MiB。
func NewLocal(blockSize uintptr) (*Local, error) {
	data, err := mmap.Map(RegionSize)
	if err != nil {
		return nil, err
	}
	a := &Local{
		data: data,
		lay:  computeLayout(blockSize),
	}
	a.reg = region{base: uintptr(unsafe.Pointer(&data[0])), size: a.lay.usable}
	a.l2, a.l1 = carveBitmaps(data, a.lay)
	return a, nil
}

// Allocate 取一个块：bump 未耗尽走快路径，否则查位图。满则返回 nil。
func (a *Local) Allocate() unsafe.Pointer {
	if a.bump < a.lay.usable {
		p := unsafe.Pointer(&a.data[a.bump])
		a.bump += a.lay.blockSize
		return p
	}
	return a.bitmapAllocate()
}

// Deallocate 标记块为空闲：置 L2 位，再无条件置上级 L1 位。
// ptr 必须来自本 arena，否则行为未定义。
func (a *Local) Deallocate(ptr unsafe.Pointer) {
	idx := a.reg.offsetOf(ptr) >> a.lay.blockShift
	a.l2[idx/wordBits] |= 1 << (idx % wordBits)
	l1Bit := idx / wordBits / l2PerL1
	a.l1[l1Bit/wordBits] |= 1 << (l1Bit % wordBits)
}

// Owns 判断 ptr 是否落在本 arena 的块区内，与块是否存活无关。
func (a *Local) Owns(ptr unsafe.Pointer) bool {
	return a.reg.contains(ptr)
}

// Full bump 耗尽且 L1 全零时为满。
func (a *Local) Full() bool {
	if a.bump < a.lay.usable {
		return false
	}
	for _, w := range a.l1 {
		if w != 0 {
			return false
		}
	}
	return true
}

// BlockSize 返回块大小（供测试断言）。
func (a *Local) BlockSize() uintptr { return a.lay.blockSize }

// Close 把整块映射归还 OS。只在池销毁时调用，arena 不会提前收缩。
func (a *Local) Close() error {
	if a.data == nil {
		return nil
	}
	err := mmap.Unmap(a.data)
	a.data, a.l1, a.l2 = nil, nil, nil
	a.reg = region{}
	return err
}

// bitmapAllocate 位图慢路径：以 count 取模选轮转起点，扫 L1 跳过全零字，
// 命中后下到对应 L2 区域清掉第一个空闲位。
func (a *Local) bitmapAllocate() unsafe.Pointer {
	counter := a.count
	a.count++

	start := counter % a.lay.l1Bits
	wordIdx := start / wordBits
	bitOff := start % wordBits

	for i := uintptr(0); i < a.lay.l1Words; i++ {
		idx := (wordIdx + i) % a.lay.l1Words
		w := a.l1[idx]
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
			w2 := a.l2[l2Idx]
			if w2 == 0 {
				continue
			}
			bit := uintptr(bits.TrailingZeros64(w2))
			blockIndex := l2Idx*wordBits + bit
			if blockIndex >= a.lay.numBlocks {
				break
			}
			a.l2[l2Idx] &^= 1 << bit
			if a.l2[l2Idx] == 0 {
				a.updateL1ForRegion(l1Index)
			}
			return unsafe.Pointer(&a.data[blockIndex<<a.lay.blockShift])
		}
	}
	return nil
}

// updateL1ForRegion 重扫整个 L2 区域后改写 L1 汇总位，不依赖清位时的局部判断。
func (a *Local) updateL1ForRegion(l1Index uintptr) {
	regionStart := l1Index * l2PerL1
	hasFree := false
	for i := uintptr(0); i < l2PerL1 && regionStart+i < a.lay.l2Words; i++ {
		if a.l2[regionStart+i] != 0 {
			hasFree = true
			break
		}
	}
	word, bit := l1Index/wordBits, l1Index%wordBits
	if hasFree {
		a.l1[word] |= 1 << bit
	} else {
		a.l1[word] &^= 1 << bit
	}
}
