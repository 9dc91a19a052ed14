package storage

import "errors"

// ErrKeyNotFound 表示删除不存在的键时返回的错误
// 注意：Get 查不到键不算错误（返回 ok=false），只有 Remove 才返回该错误
var ErrKeyNotFound = errors.New("key not found")

// Position 表示一条记录在段文件中的位置
// Offset 是该记录写入前的文件长度，读取时直接 Seek 即可，无需额外存储记录长度
type Position struct {
	SegmentID uint32 // 段文件 ID
	Offset    int64  // 记录起始偏移量
}

// Engine 是日志结构存储引擎的抽象接口
// 实现了键值存储的基本操作：Set、Get、Remove、Close
type Engine interface {
	// Set 写入键值对，覆盖旧值不报错（last-write-wins）
	// 参数：
	//   - key: 键
	//   - value: 值
	// 返回：
	//   - error: 写入错误
	Set(key, value string) error

	// Get 根据键获取值
	// 参数：
	//   - key: 键
	// 返回：
	//   - string: 值
	//   - bool: 键是否存在，不存在时不视为错误
	//   - error: 读取错误
	Get(key string) (string, bool, error)

	// Remove 删除键值对
	// 参数：
	//   - key: 键
	// 返回：
	//   - error: 键不存在时返回 ErrKeyNotFound
	Remove(key string) error

	// Close 关闭存储引擎，释放资源
	// 返回：
	//   - error: 关闭错误
	Close() error
}
