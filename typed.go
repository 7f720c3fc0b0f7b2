package acheron

import "unsafe"

// Make 为 n 个 T 分配一块连续内存并返回切片。
// 内存不保证清零：复用的块里可能残留旧数据。零大小类型返回 nil。
func Make[T any](a Allocator, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	size := sizeFor[T](n)
	if size == 0 {
		return nil, nil
	}
	p, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(p), n), nil
}

// Free 归还 Make 分配的切片，长度必须与分配时一致。
func Free[T any](a Allocator, s []T) error {
	if len(s) == 0 {
		return nil
	}
	return a.Deallocate(unsafe.Pointer(&s[0]), sizeFor[T](len(s)))
}

// New 分配单个 T，内存不保证清零。
func New[T any](a Allocator) (*T, error) {
	size := sizeFor[T](1)
	if size == 0 {
		return nil, nil
	}
	p, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// Delete 归还 New 分配的对象。
func Delete[T any](a Allocator, v *T) error {
	if v == nil {
		return nil
	}
	return a.Deallocate(unsafe.Pointer(v), sizeFor[T](1))
}

// sizeFor 计算 n 个 T 的字节数并按对齐向上取整。
// 分配与释放两侧都经它换算，保证落到同一个档位。
func sizeFor[T any](n int) uintptr {
	var zero T
	size := uintptr(n) * unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)
	return (size + align - 1) &^ (align - 1)
}
