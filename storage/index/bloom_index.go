package index

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter 是布隆过滤器的并发安全包装
// 用于 Get 的快速否定路径：一定不存在的键无需查索引、更无需读盘
// 布隆过滤器不支持删除，Remove 过的键会残留，由索引做二次确认
type BloomFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewBloomFilter 创建一个新的布隆过滤器
// 参数：
//   - n: 预期存储的键数量
//   - fp: 期望的误判率
//
// 返回：
//   - *BloomFilter: 布隆过滤器指针
func NewBloomFilter(n uint, fp float64) *BloomFilter {
	// 使用 NewWithEstimates 自动计算最优的 m 和 k
	return &BloomFilter{
		filter: bloom.NewWithEstimates(n, fp),
	}
}

// Add 添加一个键到布隆过滤器
// 参数：
//   - key: 要添加的键
func (bf *BloomFilter) Add(key string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.filter.AddString(key)
}

// Test 测试一个键是否可能存在
// 参数：
//   - key: 要测试的键
//
// 返回：
//   - bool: true 表示可能存在，false 表示一定不存在
func (bf *BloomFilter) Test(key string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.TestString(key)
}

// Reset 重置布隆过滤器，保持原有的 m 和 k 参数
// 压缩后重建索引时可用于清除已删除键的残留
func (bf *BloomFilter) Reset() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	m := bf.filter.Cap()
	k := bf.filter.K()
	bf.filter = bloom.New(m, k)
}

// K 返回布隆过滤器使用的哈希函数数量
func (bf *BloomFilter) K() uint {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.K()
}

// Cap 返回布隆过滤器的位数组容量
func (bf *BloomFilter) Cap() uint {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.Cap()
}
