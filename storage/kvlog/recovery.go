package kvlog

import (
	"bufio"
	"fmt"
	"io"

	"github.com/forever-free1/DriftKV/storage"
	"github.com/forever-free1/DriftKV/storage/index"
)

// replayRecords 顺序重放 r 中的编码记录
// 对每条记录以其写入前的流位置（即本记录的起始偏移）调用 apply
// 干净的 EOF 正常结束；尾部残缺记录（崩溃留下的部分写入）解码失败并返回错误，
// 这是本引擎选定的严格策略：启动时发现病态尾巴直接让 Open 失败，不静默截断
//
// 参数：
//   - r: 记录字节流（段文件或测试注入的内存流）
//   - apply: 折叠函数，收到 (记录起始偏移, 记录)
//
// 返回：
//   - error: 读取或解码错误
func replayRecords(r io.Reader, apply func(offset int64, rec Record) error) error {
	br := bufio.NewReader(r)
	var offset int64

	for {
		line, err := br.ReadBytes('\n')
		if len(line) == 0 {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("读取段数据失败: %w", err)
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("读取段数据失败: %w", err)
		}

		rec, derr := DecodeRecord(line)
		if derr != nil {
			return derr
		}
		if aerr := apply(offset, rec); aerr != nil {
			return aerr
		}
		offset += int64(len(line))

		if err == io.EOF {
			return nil
		}
	}
}

// applyRecord 是重放的纯折叠步骤，不做任何 I/O
// set 更新索引和布隆过滤器；remove 幂等删除（重放时键不存在是合法的）；
// get 是保留类型，空操作
func applyRecord(idx index.Index, bloom *index.BloomFilter, segID uint32, offset int64, rec Record) {
	switch rec.Type {
	case RecordSet:
		idx.Put(rec.Key, &storage.Position{SegmentID: segID, Offset: offset})
		if bloom != nil {
			bloom.Add(rec.Key)
		}
	case RecordRemove:
		idx.Delete(rec.Key)
	case RecordGet:
		// 空操作
	}
}

// rebuildIndex 按段 ID 升序重放所有段文件，在空索引上重建出与在线写入等价的末态
// 参数：
//   - dir: 段目录
//   - segIDs: 升序段 ID 列表
//   - idx: 要填充的索引（应为空）
//   - bloom: 要重建的布隆过滤器，可为 nil
//
// 返回：
//   - error: 重放错误
func rebuildIndex(dir string, segIDs []uint32, idx index.Index, bloom *index.BloomFilter) error {
	for _, id := range segIDs {
		f, err := openSegmentForRead(dir, id)
		if err != nil {
			return err
		}

		err = replayRecords(f, func(offset int64, rec Record) error {
			applyRecord(idx, bloom, id, offset, rec)
			return nil
		})
		cerr := f.Close()
		if err != nil {
			return fmt.Errorf("重放段 %s 失败: %w", segmentFileName(id), err)
		}
		if cerr != nil {
			return fmt.Errorf("关闭段文件失败: %w", cerr)
		}
	}
	return nil
}
