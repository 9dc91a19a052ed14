package kvlog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RecordType 定义日志记录的操作类型
type RecordType string

const (
	// RecordSet 写入操作
	RecordSet RecordType = "set"
	// RecordRemove 删除操作
	RecordRemove RecordType = "remove"
	// RecordGet 读取操作（保留类型，重放时为空操作，仅用于调试对称性）
	RecordGet RecordType = "get"
)

// Record 表示段文件中的一条日志记录
// 封闭和类型：set(key,value) / remove(key) / get(key)
// 记录一经写入不可变，由 (段 ID, 偏移量) 唯一定位
type Record struct {
	Type  RecordType `json:"type"`
	Key   string     `json:"key"`
	Value string     `json:"value,omitempty"` // 仅 set 记录携带
}

// NewSetRecord 创建一条 set 记录
func NewSetRecord(key, value string) Record {
	return Record{Type: RecordSet, Key: key, Value: value}
}

// NewRemoveRecord 创建一条 remove 记录
func NewRemoveRecord(key string) Record {
	return Record{Type: RecordRemove, Key: key}
}

// Encode 将记录编码为一行 JSON，以 '\n' 结尾
// JSON 字符串转义保证键和值中的换行符不会被误认为记录分隔符
// 满足往返律：Decode(Encode(r)) == r
//
// 返回：
//   - []byte: 编码后的字节（含结尾换行符）
//   - error: 编码错误
func (r Record) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return append(data, '\n'), nil
}

// DecodeRecord 从一行字节解码出记录
// 输入可以带或不带结尾换行符；病态输入（截断、未知类型、行尾多余内容）
// 一律返回包装了 ErrInvalidRecord 的错误
//
// 参数：
//   - line: 一行编码后的记录字节
//
// 返回：
//   - Record: 解码后的记录
//   - error: 解码错误
func DecodeRecord(line []byte) (Record, error) {
	line = bytes.TrimSuffix(line, []byte{'\n'})

	var rec Record
	dec := json.NewDecoder(bytes.NewReader(line))
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	// 行尾不允许有多余内容
	if dec.More() {
		return Record{}, fmt.Errorf("%w: trailing bytes after record", ErrInvalidRecord)
	}

	switch rec.Type {
	case RecordSet, RecordRemove, RecordGet:
	default:
		return Record{}, fmt.Errorf("%w: unknown record type %q", ErrInvalidRecord, rec.Type)
	}
	return rec, nil
}
