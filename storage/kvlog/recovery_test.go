package kvlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/forever-free1/DriftKV/storage/index"
)

// encodeAll 把记录序列编码成一个内存段，重放测试无需真实文件
func encodeAll(t *testing.T, records ...Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, rec := range records {
		data, err := rec.Encode()
		if err != nil {
			t.Fatalf("Encode 失败: %v", err)
		}
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestReplayRecords_Offsets(t *testing.T) {
	first := NewSetRecord("a", "1")
	second := NewSetRecord("b", "2")
	data := encodeAll(t, first, second)

	firstLen, _ := first.Encode()

	var offsets []int64
	err := replayRecords(bytes.NewReader(data), func(offset int64, _ Record) error {
		offsets = append(offsets, offset)
		return nil
	})
	if err != nil {
		t.Fatalf("重放失败: %v", err)
	}

	if len(offsets) != 2 {
		t.Fatalf("期望重放 2 条记录, 得到 %d", len(offsets))
	}
	// 偏移量是每条记录写入前的流位置
	if offsets[0] != 0 {
		t.Errorf("第一条记录偏移: got %d, want 0", offsets[0])
	}
	if offsets[1] != int64(len(firstLen)) {
		t.Errorf("第二条记录偏移: got %d, want %d", offsets[1], len(firstLen))
	}
}

func TestReplayRecords_EmptyStream(t *testing.T) {
	err := replayRecords(bytes.NewReader(nil), func(int64, Record) error {
		t.Fatal("空流不应产生记录")
		return nil
	})
	if err != nil {
		t.Errorf("空流应干净结束, 得到: %v", err)
	}
}

func TestReplayRecords_TruncatedTail(t *testing.T) {
	// 崩溃策略：尾部残缺记录必须让重放失败，而不是被静默丢弃
	data := encodeAll(t, NewSetRecord("a", "1"))
	data = append(data, []byte(`{"type":"set","key":"b"`)...)

	var replayed int
	err := replayRecords(bytes.NewReader(data), func(int64, Record) error {
		replayed++
		return nil
	})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("期望 ErrInvalidRecord, 得到: %v", err)
	}
	if replayed != 1 {
		t.Errorf("残缺尾巴之前的记录应已重放: got %d, want 1", replayed)
	}
}

func TestApplyRecord_Fold(t *testing.T) {
	idx := index.NewMapIndex()
	defer idx.Close()

	// set 建立索引项
	applyRecord(idx, nil, 3, 0, NewSetRecord("a", "1"))
	pos := idx.Get("a")
	if pos == nil {
		t.Fatal("set 重放后索引中应有键 a")
	}
	if pos.SegmentID != 3 || pos.Offset != 0 {
		t.Errorf("位置不匹配: got %+v", *pos)
	}

	// 后写覆盖先写
	applyRecord(idx, nil, 4, 17, NewSetRecord("a", "2"))
	pos = idx.Get("a")
	if pos.SegmentID != 4 || pos.Offset != 17 {
		t.Errorf("覆盖后位置不匹配: got %+v", *pos)
	}

	// remove 删除索引项，键不存在时也是幂等空操作
	applyRecord(idx, nil, 4, 40, NewRemoveRecord("a"))
	if idx.Get("a") != nil {
		t.Error("remove 重放后键 a 应已删除")
	}
	applyRecord(idx, nil, 4, 60, NewRemoveRecord("missing"))

	// get 是保留类型，空操作
	applyRecord(idx, nil, 4, 80, Record{Type: RecordGet, Key: "a"})
	if idx.Get("a") != nil {
		t.Error("get 记录不应影响索引")
	}
}

func TestApplyRecord_RebuildsBloom(t *testing.T) {
	idx := index.NewMapIndex()
	defer idx.Close()
	bloom := index.NewBloomFilter(1000, 0.01)

	applyRecord(idx, bloom, 0, 0, NewSetRecord("rebuilt", "v"))
	if !bloom.Test("rebuilt") {
		t.Error("重放后布隆过滤器应包含该键")
	}
}
