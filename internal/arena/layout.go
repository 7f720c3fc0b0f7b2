package arena

import (
	"math/bits"
	"unsafe"
)

const (
	// RegionSize 每个 arena 保留的虚拟内存大小（64MiB）。
	RegionSize = 64 << 20
	// MaxArenas 单个池可持有的 arena 上限。
	MaxArenas = 16
	// l2PerL1 每个 L1 位覆盖的 L2 字数，即 64*64=4096 个块。
	l2PerL1 = 64

	wordBits  = 64
	wordBytes = 8
)

// layout 由块大小推导出的 arena 内部几何：块区在前，L2/L1 位图从映射区尾部切出。
type layout struct {
	blockSize  uintptr
	blockShift uint // log2(blockSize)，指针和块号 O(1) 互转
	numBlocks  uintptr
	usable     uintptr // 块区字节数，恒为 blockSize 的整数倍
	l2Words    uintptr
	l1Bits     uintptr
	l1Words    uintptr
}

// computeLayout 计算 blockSize 档位的布局。blockSize 必须是二次幂。
// usable 向下取整到整块边界，保证最后一个块不会压到位图上。
func computeLayout(blockSize uintptr) layout {
	lay := layout{
		blockSize:  blockSize,
		blockShift: uint(bits.TrailingZeros(uint(blockSize))),
	}
	theoretical := uintptr(RegionSize) / blockSize
	lay.l2Words = (theoretical + wordBits - 1) / wordBits
	lay.l1Bits = (lay.l2Words + l2PerL1 - 1) / l2PerL1
	lay.l1Words = (lay.l1Bits + wordBits - 1) / wordBits

	bitmapBytes := (lay.l2Words + lay.l1Words) * wordBytes
	lay.numBlocks = (RegionSize - bitmapBytes) / blockSize
	lay.usable = lay.numBlocks * blockSize
	return lay
}

// region 描述 [base, base+size) 地址区间。
type region struct {
	base uintptr
	size uintptr
}

// contains 单次无符号比较：p 低于 base 时差值回绕成大数，自然落在界外。
func (r region) contains(p unsafe.Pointer) bool {
	return uintptr(p)-r.base < r.size
}

// offsetOf 返回 p 相对 base 的偏移，调用方须先保证 contains。
func (r region) offsetOf(p unsafe.Pointer) uintptr {
	return uintptr(p) - r.base
}

// carveBitmaps 从映射区尾部切出 L2、L1 位图。匿名映射天然清零，无需再初始化。
func carveBitmaps(data []byte, lay layout) (l2, l1 []uint64) {
	start := uintptr(RegionSize) - (lay.l2Words+lay.l1Words)*wordBytes
	words := unsafe.Slice((*uint64)(unsafe.Pointer(&data[start])), lay.l2Words+lay.l1Words)
	return words[:lay.l2Words], words[lay.l2Words:]
}
