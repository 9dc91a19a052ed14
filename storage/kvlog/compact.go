package kvlog

import (
	"fmt"
	"os"
	"sort"

	"github.com/forever-free1/DriftKV/metrics"
	"github.com/forever-free1/DriftKV/storage"
)

// compactLocked 回收不再被索引引用的整段文件
// 算法：折叠索引得到存活段集合，已知段减去存活段即为死段，逐个删除
// 这是文件粒度的粗压缩：只要还有一个存活键指向某段，该段就完整保留，
// 即使其中大部分字节已是垃圾；永远不会改写或合并段内容
//
// 调用方必须持有写锁
func (s *Store) compactLocked() error {
	live := make(map[uint32]struct{})
	s.idx.ForEach(func(_ string, pos *storage.Position) bool {
		live[pos.SegmentID] = struct{}{}
		return true
	})

	for id := range s.knownSegments {
		if _, ok := live[id]; ok {
			continue
		}
		if err := removeSegment(s.dir, id); err != nil {
			if os.IsNotExist(err) {
				// 惰性创建的段可能还没有对应文件
				delete(s.knownSegments, id)
				continue
			}
			return fmt.Errorf("删除死段 %s 失败: %w", segmentFileName(id), err)
		}
		delete(s.knownSegments, id)
		metrics.SegmentsDeleted.Inc()
	}

	metrics.CompactionsTotal.Inc()
	metrics.SegmentsOnDisk.Set(float64(len(s.knownSegments)))
	return nil
}

// Compact 手动触发一次压缩
// 正常情况下压缩由 Set 在轮转边界自动触发，该方法供运维和测试使用
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.compactLocked()
}

// sortedSegmentIDs 返回集合中的段 ID（升序）
func sortedSegmentIDs(set map[uint32]struct{}) []uint32 {
	ids := make([]uint32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
