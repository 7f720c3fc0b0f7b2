package direct

import "sync"

const shardCount = 32

type shard struct {
	mu sync.Mutex
	m  map[uintptr]int
}

// Registry 登记绕过池、直接走 OS 映射的大块分配：基址 -> 映射长度。
// 分片加锁，shared 策略下多 goroutine 并发进出。
type Registry struct {
	shards [shardCount]shard
}

// NewRegistry 创建空登记表。
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].m = make(map[uintptr]int)
	}
	return r
}

// shardOf 用基址的页号选分片。映射基址都页对齐，低 12 位恒零。
func (r *Registry) shardOf(base uintptr) *shard {
	return &r.shards[(base>>12)%shardCount]
}

// Add 登记一块映射。
func (r *Registry) Add(base uintptr, size int) {
	sh := r.shardOf(base)
	sh.mu.Lock()
	sh.m[base] = size
	sh.mu.Unlock()
}

// Remove 注销并返回登记过的长度；不存在返回 false。
func (r *Registry) Remove(base uintptr) (int, bool) {
	sh := r.shardOf(base)
	sh.mu.Lock()
	size, ok := sh.m[base]
	if ok {
		delete(sh.m, base)
	}
	sh.mu.Unlock()
	return size, ok
}

// Totals 返回未注销映射的数量与总字节数。
func (r *Registry) Totals() (count, bytes int) {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		count += len(sh.m)
		for _, size := range sh.m {
			bytes += size
		}
		sh.mu.Unlock()
	}
	return count, bytes
}

// Drain 取出全部登记项并清空，Close 时用来回收没归还的映射。
func (r *Registry) Drain() map[uintptr]int {
	out := make(map[uintptr]int)
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		for base, size := range sh.m {
			out[base] = size
			delete(sh.m, base)
		}
		sh.mu.Unlock()
	}
	return out
}
