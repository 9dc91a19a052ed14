package kvlog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHint_WrittenOnClose(t *testing.T) {
	store, dir := openTestStore(t)
	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, hintFileName)); err != nil {
		t.Errorf("Close 后应存在 hint 快照: %v", err)
	}
}

func TestHint_LoadedOnOpen(t *testing.T) {
	store, dir := openTestStore(t)
	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := store.Set("b", "2"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := store.Remove("b"); err != nil {
		t.Fatalf("Remove 失败: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("a")
	if err != nil || !ok {
		t.Fatalf("Get a 失败: %v, ok=%v", err, ok)
	}
	if value != "1" {
		t.Errorf("a 值不匹配: got %s, want 1", value)
	}
	if _, ok, _ := reopened.Get("b"); ok {
		t.Error("b 已删除, 快照装载后不应存在")
	}
}

func TestHint_StaleSnapshotIgnored(t *testing.T) {
	// 快照写出后段又有新写入，指纹失配，必须退回全量重放
	store, dir := openTestStore(t)
	if err := store.Set("a", "old"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	// 绕过快照追加新数据：关闭 hint 的实例不会更新快照
	bypass, err := Open(dir, WithHint(false))
	if err != nil {
		t.Fatalf("打开失败: %v", err)
	}
	if err := bypass.Set("a", "new"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := bypass.Set("fresh", "yes"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := bypass.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("a")
	if err != nil || !ok {
		t.Fatalf("Get a 失败: %v, ok=%v", err, ok)
	}
	if value != "new" {
		t.Errorf("过期快照未被忽略: got %s, want new", value)
	}
	if _, ok, _ := reopened.Get("fresh"); !ok {
		t.Error("重放后应看到快照之后写入的键")
	}
}

func TestHint_CorruptSnapshotIgnored(t *testing.T) {
	// 损坏的快照不会让 Open 失败，重放才是权威
	store, dir := openTestStore(t)
	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, hintFileName), []byte("garbage"), 0644); err != nil {
		t.Fatalf("破坏快照失败: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("损坏快照不应让 Open 失败: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("a")
	if err != nil || !ok {
		t.Fatalf("Get 失败: %v, ok=%v", err, ok)
	}
	if value != "1" {
		t.Errorf("值不匹配: got %s, want 1", value)
	}
}
