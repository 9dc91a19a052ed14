package kvlog

import "errors"

// ErrInvalidRecord 表示记录字节无法解码（病态或截断的输入）
var ErrInvalidRecord = errors.New("invalid record data")

// ErrBadSegmentName 表示段文件名中的 ID 无法解析为无符号整数
var ErrBadSegmentName = errors.New("bad segment file name")

// ErrInconsistentStorage 表示索引指向的位置解码不出对应键的 set 记录
// 说明日志或索引已被破坏，该操作不可恢复
var ErrInconsistentStorage = errors.New("inconsistent storage")

// ErrStoreClosed 表示存储引擎已关闭
var ErrStoreClosed = errors.New("store is closed")
