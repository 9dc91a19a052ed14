package index

import (
	"github.com/forever-free1/DriftKV/storage"
)

// MapIndex 是基于 Go 内置 map 的内存索引实现（默认实现）
// 查询 O(1)，但不保留键的顺序
type MapIndex struct {
	data map[string]*storage.Position
}

// NewMapIndex 创建一个新的 Map 索引实例
// 返回：
//   - *MapIndex: Map 索引指针
func NewMapIndex() *MapIndex {
	return &MapIndex{
		data: make(map[string]*storage.Position),
	}
}

// Put 写入键到位置的映射
// 参数：
//   - key: 键
//   - pos: 位置指针
func (idx *MapIndex) Put(key string, pos *storage.Position) {
	idx.data[key] = pos
}

// Get 根据键从 Map 索引获取位置
// 参数：
//   - key: 键
// 返回：
//   - *storage.Position: 位置指针，不存在返回 nil
func (idx *MapIndex) Get(key string) *storage.Position {
	return idx.data[key]
}

// Delete 从 Map 索引中删除键
// 参数：
//   - key: 键
// 返回：
//   - bool: 是否删除成功
func (idx *MapIndex) Delete(key string) bool {
	_, exists := idx.data[key]
	if exists {
		delete(idx.data, key)
		return true
	}
	return false
}

// ForEach 遍历索引中的所有键值对
func (idx *MapIndex) ForEach(fn func(key string, pos *storage.Position) bool) {
	for k, p := range idx.data {
		if !fn(k, p) {
			return
		}
	}
}

// Size 返回 Map 索引中的键数量
func (idx *MapIndex) Size() int {
	return len(idx.data)
}

// Close 关闭 Map 索引
func (idx *MapIndex) Close() {
	// 清空 map，释放内存
	idx.data = nil
}

// 确保 MapIndex 实现了 Index 接口
var _ Index = (*MapIndex)(nil)
