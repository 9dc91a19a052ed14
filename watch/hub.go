package watch

import (
	"fmt"
	"sync"

	art "github.com/plar/go-adaptive-radix-tree"
)

// ==================== 事件定义 ====================

// EventType 定义事件类型
type EventType string

const (
	EventSet    EventType = "set"
	EventRemove EventType = "remove"
)

// Event 表示一次键值变更
type Event struct {
	Type  EventType `json:"type"`            // 事件类型：set 或 remove
	Key   string    `json:"key"`             // 变更的键
	Value string    `json:"value,omitempty"` // 变更后的值（仅 set 事件有值）
}

// ==================== Watcher 定义 ====================

// Watcher 表示一个订阅者
// 键值变更事件通过 Ch 推送给订阅者
type Watcher struct {
	// 事件通道
	Ch chan *Event

	// 关注的键前缀，空字符串表示关注所有键
	Prefix string

	closed bool
}

// NewWatcher 创建新的 Watcher
//
// 参数：
//   - prefix: 关注的前缀，为空表示关注所有
//   - bufferSize: 事件通道的缓冲区大小
//
// 返回：
//   - *Watcher: Watcher 实例
func NewWatcher(prefix string, bufferSize int) *Watcher {
	return &Watcher{
		Ch:     make(chan *Event, bufferSize),
		Prefix: prefix,
	}
}

// Close 关闭 Watcher
func (w *Watcher) Close() {
	if !w.closed {
		close(w.Ch)
		w.closed = true
	}
}

// ==================== WatchHub 定义 ====================

// WatchHub 进程内事件通知中心
// 负责管理所有的 Watcher，并将引擎的键值变更事件分发给匹配的订阅者
type WatchHub struct {
	// 所有的 watcher 列表
	watchers []*Watcher

	// 保护 watchers 列表的锁
	mu sync.RWMutex

	// 用于前缀匹配的 ART 树
	// key: 前缀字符串
	// value: 关注该前缀的所有 watcher 列表
	prefixTree art.Tree
}

// NewWatchHub 创建新的 WatchHub
func NewWatchHub() *WatchHub {
	return &WatchHub{
		watchers:   make([]*Watcher, 0),
		prefixTree: art.New(),
	}
}

// ==================== Watcher 管理 ====================

// Watch 注册一个新的 Watcher
//
// 参数：
//   - prefix: 关注的前缀，为空表示关注所有键
//   - bufferSize: 事件通道的缓冲区大小
//
// 返回：
//   - *Watcher: 注册的 Watcher 实例
func (h *WatchHub) Watch(prefix string, bufferSize int) *Watcher {
	watcher := NewWatcher(prefix, bufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.watchers = append(h.watchers, watcher)

	// 带前缀的 watcher 挂到前缀树上，分发时按树查找
	if prefix != "" {
		var list []*Watcher
		if val, found := h.prefixTree.Search(art.Key(prefix)); found {
			list = val.([]*Watcher)
		}
		list = append(list, watcher)
		h.prefixTree.Insert(art.Key(prefix), list)
	}

	return watcher
}

// Unregister 取消注册一个 Watcher 并关闭它
func (h *WatchHub) Unregister(watcher *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, w := range h.watchers {
		if w == watcher {
			h.watchers = append(h.watchers[:i], h.watchers[i+1:]...)
			break
		}
	}

	if watcher.Prefix != "" {
		if val, found := h.prefixTree.Search(art.Key(watcher.Prefix)); found {
			list := val.([]*Watcher)
			for i, w := range list {
				if w == watcher {
					list = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(list) > 0 {
				h.prefixTree.Insert(art.Key(watcher.Prefix), list)
			} else {
				h.prefixTree.Delete(art.Key(watcher.Prefix))
			}
		}
	}

	watcher.Close()
}

// ==================== 事件通知 ====================

// Notify 将事件分发给所有匹配的 Watcher
// 非阻塞发送：订阅者的通道已满时跳过该订阅者，避免阻塞写路径
func (h *WatchHub) Notify(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, watcher := range h.findWatchersLocked(event.Key) {
		if watcher.closed {
			continue
		}
		select {
		case watcher.Ch <- event:
		default:
		}
	}
}

// NotifySet 通知 set 事件，在引擎 Set 成功后调用
func (h *WatchHub) NotifySet(key, value string) {
	h.Notify(&Event{Type: EventSet, Key: key, Value: value})
}

// NotifyRemove 通知 remove 事件，在引擎 Remove 成功后调用
func (h *WatchHub) NotifyRemove(key string) {
	h.Notify(&Event{Type: EventRemove, Key: key})
}

// ==================== 前缀匹配（利用 ART 特性） ====================

// findWatchersLocked 找到所有关注该键的 watcher
// 树上登记的前缀中，匹配该键的恰好是键自身的各个前缀，
// 逐一在树中查找即可；调用方需持有读锁
func (h *WatchHub) findWatchersLocked(key string) []*Watcher {
	var result []*Watcher

	for i := 1; i <= len(key); i++ {
		if val, found := h.prefixTree.Search(art.Key(key[:i])); found {
			result = append(result, val.([]*Watcher)...)
		}
	}

	// 关注所有键的 watcher 不在树上，单独补齐
	for _, watcher := range h.watchers {
		if watcher.Prefix == "" {
			result = append(result, watcher)
		}
	}

	return result
}

// ==================== 工具方法 ====================

// Count 返回当前注册的 Watcher 数量
func (h *WatchHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Close 关闭所有 Watcher
func (h *WatchHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, watcher := range h.watchers {
		watcher.Close()
	}
	h.watchers = nil
	h.prefixTree = art.New()
}

// String 返回 WatchHub 的字符串描述
func (h *WatchHub) String() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fmt.Sprintf("WatchHub{watchers: %d}", len(h.watchers))
}
