package kvlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/forever-free1/DriftKV/storage"
)

// hint 快照文件名
const hintFileName = "index.hint"

// hintSnapshot 是索引的落盘快照
// Segments 记录快照生成时每个段的字节长度，作为指纹：
// 打开时只要目录中的段集合和长度与指纹完全一致，快照就是新鲜的，
// 可以直接装载而不必重放所有段
type hintSnapshot struct {
	CurrentSegmentID uint32           `codec:"current"`
	Segments         map[uint32]int64 `codec:"segments"`
	Entries          []hintEntry      `codec:"entries"`
}

// hintEntry 是快照中的一条索引项
type hintEntry struct {
	Key       string `codec:"key"`
	SegmentID uint32 `codec:"segment"`
	Offset    int64  `codec:"offset"`
}

// writeHintSnapshot 将当前索引写成 hint 快照
// 编码为 msgpack 并经 snappy 压缩，先写临时文件再原子重命名，
// 崩溃最多留下一个被忽略的残缺临时文件
//
// 调用方必须持有写锁
func (s *Store) writeHintSnapshot() error {
	snap := hintSnapshot{
		CurrentSegmentID: s.currentSegmentID,
		Segments:         make(map[uint32]int64, len(s.knownSegments)),
		Entries:          make([]hintEntry, 0, s.idx.Size()),
	}

	for id := range s.knownSegments {
		stat, err := os.Stat(segmentPath(s.dir, id))
		if err != nil {
			return fmt.Errorf("获取段文件状态失败: %w", err)
		}
		snap.Segments[id] = stat.Size()
	}

	s.idx.ForEach(func(key string, pos *storage.Position) bool {
		snap.Entries = append(snap.Entries, hintEntry{
			Key:       key,
			SegmentID: pos.SegmentID,
			Offset:    pos.Offset,
		})
		return true
	})

	tmp := filepath.Join(s.dir, hintFileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("创建 hint 临时文件失败: %w", err)
	}

	sw := snappy.NewBufferedWriter(f)
	enc := codec.NewEncoder(sw, &codec.MsgpackHandle{})
	if err := enc.Encode(&snap); err != nil {
		sw.Close()
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("编码 hint 快照失败: %w", err)
	}
	if err := sw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("压缩 hint 快照失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("关闭 hint 临时文件失败: %w", err)
	}

	if err := os.Rename(tmp, filepath.Join(s.dir, hintFileName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("替换 hint 快照失败: %w", err)
	}
	return nil
}

// loadHintSnapshot 尝试装载 hint 快照
// 快照缺失、损坏或指纹不匹配（段集合或长度有变化）时返回 false，
// 由调用方退回全量重放
//
// 参数：
//   - ids: 目录中实际存在的段 ID（升序）
//
// 返回：
//   - bool: 是否成功装载
func (s *Store) loadHintSnapshot(ids []uint32) bool {
	f, err := os.Open(filepath.Join(s.dir, hintFileName))
	if err != nil {
		return false
	}
	defer f.Close()

	var snap hintSnapshot
	dec := codec.NewDecoder(snappy.NewReader(f), &codec.MsgpackHandle{})
	if err := dec.Decode(&snap); err != nil {
		return false
	}

	// 指纹校验：段集合与字节长度必须和磁盘完全一致
	if len(snap.Segments) != len(ids) {
		return false
	}
	for _, id := range ids {
		want, ok := snap.Segments[id]
		if !ok {
			return false
		}
		stat, err := os.Stat(segmentPath(s.dir, id))
		if err != nil || stat.Size() != want {
			return false
		}
	}

	for i := range snap.Entries {
		e := &snap.Entries[i]
		s.idx.Put(e.Key, &storage.Position{SegmentID: e.SegmentID, Offset: e.Offset})
		s.bloomFilter.Add(e.Key)
	}
	s.currentSegmentID = snap.CurrentSegmentID
	return true
}
