package alloc

// Stats 分配器统计快照。并发场景下各字段独立读取，彼此可能略有偏差。
type Stats struct {
	Arenas        int // 已创建的 arena 总数
	ReservedBytes int // arena 保留的虚拟内存总字节数
	DirectCount   int // 未归还的 OS 直接映射数量
	DirectBytes   int // 未归还的 OS 直接映射总字节数
}
