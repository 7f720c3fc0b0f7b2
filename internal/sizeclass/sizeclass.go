package sizeclass

import "math/bits"

// 尺寸档位：8B 起每档翻倍，最大 4MiB，共 20 档。
const (
	MinSize    = 8
	MaxSize    = 4 << 20
	NumClasses = 20
)

// Round 把 size 向上取整到二次幂档位；超过 MaxSize 返回 0（哨兵：直接走 OS 映射）。
func Round(size uintptr) uintptr {
	if size <= MinSize {
		return MinSize
	}
	if size > MaxSize {
		return 0
	}
	return uintptr(1) << bits.Len(uint(size-1))
}

// Index 把档位转成池数组下标，范围 [0, NumClasses)。size 必须来自 Round。
func Index(size uintptr) int {
	if size <= MinSize {
		return 0
	}
	return bits.Len(uint(size-1)) - 3
}
