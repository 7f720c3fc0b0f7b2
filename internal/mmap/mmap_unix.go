//go:build unix

package mmap

import (
	"golang.org/x/sys/unix"
)

// Map 匿名映射 size 字节的可读写私有内存，内容全零。
func Map(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Unmap 解除映射。data 必须与 Map 返回的切片同基址同长度。
func Unmap(data []byte) error {
	return unix.Munmap(data)
}
