//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Map 通过 VirtualAlloc 保留并提交 size 字节的可读写内存，内容全零。
func Map(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// Unmap 整块释放。data 必须与 Map 返回的切片同基址。
func Unmap(data []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&data[0])), 0, windows.MEM_RELEASE)
}
