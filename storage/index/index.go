package index

import "github.com/forever-free1/DriftKV/storage"

// Index 是内存索引的抽象接口
// 负责存储键到段文件位置（Position）的映射
// 不变式：索引中每个键指向的位置必须能解码出该键最近一次的 set 记录
type Index interface {
	// Put 写入键到位置的映射
	// 参数：
	//   - key: 键
	//   - pos: 位置指针
	Put(key string, pos *storage.Position)

	// Get 根据键获取位置
	// 参数：
	//   - key: 键
	// 返回：
	//   - *storage.Position: 位置指针，不存在返回 nil
	Get(key string) *storage.Position

	// Delete 根据键删除索引项
	// 参数：
	//   - key: 键
	// 返回：
	//   - bool: 是否删除成功，键不存在返回 false
	Delete(key string) bool

	// ForEach 遍历索引中的所有键值对
	// 回调返回 false 时提前终止遍历
	// 压缩器依赖该方法折叠出所有仍被引用的段 ID
	ForEach(fn func(key string, pos *storage.Position) bool)

	// Size 返回索引中的键数量
	Size() int

	// Close 关闭索引，释放资源
	Close()
}
