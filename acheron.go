// Package acheron 提供按尺寸分档的用户态内存分配器：
// 每档一组 64MiB arena，bump 快路径 + 两级位图复用，不依赖 Go 堆。
// local 策略零同步，shared 策略全程无锁。
package acheron

import (
	"sync"
	"unsafe"

	"github.com/alcxpr/acheron/internal/alloc"
	"github.com/alcxpr/acheron/internal/errs"
)

// 对外暴露的 sentinel errors，便于调用方 errors.Is。
var (
	ErrOutOfMemory = errs.ErrOutOfMemory
	ErrBadArgument = errs.ErrBadArgument
	ErrClosed      = errs.ErrClosed
)

// Allocator 标准分配契约，LocalAllocator 与 SharedAllocator 都实现它。
// Allocate(0) 返回 (nil, nil)；Deallocate 的 size 必须与分配时一致。
type Allocator interface {
	Allocate(size uintptr) (unsafe.Pointer, error)
	Deallocate(ptr unsafe.Pointer, size uintptr) error
}

// Stats 分配器统计快照。
type Stats = alloc.Stats

var (
	sharedOnce sync.Once
	sharedInst *SharedAllocator
)

// Shared 返回进程级共享分配器，首次调用时初始化一次，之后恒返回同一实例。
// 进程生命周期内不关闭。
func Shared() *SharedAllocator {
	sharedOnce.Do(func() {
		sharedInst = NewShared()
	})
	return sharedInst
}
