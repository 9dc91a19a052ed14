package kvlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/forever-free1/DriftKV/metrics"
	"github.com/forever-free1/DriftKV/storage"
	"github.com/forever-free1/DriftKV/storage/index"
	"github.com/forever-free1/DriftKV/watch"
)

// Store 表示日志结构存储引擎的核心结构体
// 封装了段文件管理、内存索引和配置选项
// 每个 Store 实例独占一个数据目录并拥有自己的索引，没有任何进程级单例；
// 同一目录被多个进程同时打开是未定义行为，引擎不做防护
type Store struct {
	dir              string              // 数据目录
	currentSegmentID uint32              // 当前活跃段 ID
	knownSegments    map[uint32]struct{} // 已知段 ID 集合，只因压缩而收缩
	idx              index.Index         // 内存索引（支持 Map 或 ART）
	bloomFilter      *index.BloomFilter  // 布隆过滤器，用于快速判断键是否存在
	options          *Options            // 配置选项
	rotations        uint64              // 自打开以来的轮转次数，驱动压缩触发
	mu               sync.RWMutex
	closed           bool
}

// Options 定义 Store 的配置选项
type Options struct {
	// SegmentSizeLimit 单个段文件的轮转阈值（字节）
	// 写入后活跃段超过该阈值时轮转到下一个段
	SegmentSizeLimit int64

	// CompactionInterval 每多少次轮转触发一次压缩
	CompactionInterval uint64

	// IndexType 索引类型：Map（默认）或 ART
	IndexType IndexType

	// BloomFilterFP 布隆过滤器的期望误判率
	BloomFilterFP float64

	// BloomFilterCap 布隆过滤器的预估键容量
	BloomFilterCap uint

	// UseHint 是否启用 hint 快照（关闭时写出、打开时尝试加载以跳过全量重放）
	UseHint bool

	// Hub 事件通知中心，为 nil 时不发布变更事件
	Hub *watch.WatchHub
}

// IndexType 定义索引类型
type IndexType int

const (
	// IndexTypeMap 使用内置 Map 作为索引（默认）
	IndexTypeMap IndexType = iota
	// IndexTypeART 使用自适应基数树作为索引
	IndexTypeART
)

// Option 定义 Options 的配置函数
type Option func(*Options)

// WithSegmentSizeLimit 设置段轮转阈值
func WithSegmentSizeLimit(limit int64) Option {
	return func(o *Options) {
		o.SegmentSizeLimit = limit
	}
}

// WithCompactionInterval 设置压缩触发的轮转间隔
func WithCompactionInterval(n uint64) Option {
	return func(o *Options) {
		o.CompactionInterval = n
	}
}

// WithIndexType 设置索引类型
func WithIndexType(indexType IndexType) Option {
	return func(o *Options) {
		o.IndexType = indexType
	}
}

// WithBloomFilterFP 设置布隆过滤器的期望误判率
func WithBloomFilterFP(fp float64) Option {
	return func(o *Options) {
		o.BloomFilterFP = fp
	}
}

// WithHint 设置是否启用 hint 快照
func WithHint(enabled bool) Option {
	return func(o *Options) {
		o.UseHint = enabled
	}
}

// WithWatchHub 挂载事件通知中心
func WithWatchHub(hub *watch.WatchHub) Option {
	return func(o *Options) {
		o.Hub = hub
	}
}

// Open 打开或创建一个数据库
// 扫描段目录确定当前段 ID，并重放所有段重建索引（优先尝试 hint 快照）
//
// 参数：
//   - dir: 数据目录
//   - opts: 配置选项
//
// 返回：
//   - *Store: 数据库指针
//   - error: 打开错误
func Open(dir string, opts ...Option) (*Store, error) {
	// 应用配置选项
	options := &Options{
		SegmentSizeLimit:   1 * 1024 * 1024, // 默认 1MB 轮转
		CompactionInterval: 10,              // 默认每 10 次轮转压缩一次
		IndexType:          IndexTypeMap,
		BloomFilterFP:      0.01,
		BloomFilterCap:     1000000,
		UseHint:            true,
	}
	for _, opt := range opts {
		opt(options)
	}

	// 创建索引实例
	var idx index.Index
	switch options.IndexType {
	case IndexTypeART:
		idx = index.NewARTIndex()
	default:
		idx = index.NewMapIndex()
	}

	// 确保目录存在
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	// 扫描已有段文件
	ids, err := listSegmentIDs(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:           dir,
		knownSegments: make(map[uint32]struct{}, len(ids)),
		idx:           idx,
		bloomFilter:   index.NewBloomFilter(options.BloomFilterCap, options.BloomFilterFP),
		options:       options,
	}
	for _, id := range ids {
		s.knownSegments[id] = struct{}{}
	}
	// 没有任何段时从 0 号段开始，否则活跃段是最大 ID
	if len(ids) > 0 {
		s.currentSegmentID = ids[len(ids)-1]
	}

	// 先尝试 hint 快照，指纹不匹配或损坏时退回全量重放
	if !options.UseHint || !s.loadHintSnapshot(ids) {
		if err := rebuildIndex(dir, ids, idx, s.bloomFilter); err != nil {
			idx.Close()
			return nil, err
		}
	}

	metrics.LiveKeys.Set(float64(idx.Size()))
	metrics.SegmentsOnDisk.Set(float64(len(s.knownSegments)))

	return s, nil
}

// Set 写入键值对，覆盖已有键不报错（last-write-wins）
// 写入后活跃段超过轮转阈值时关闭该段并递增段 ID，新段在下一次写入时惰性创建；
// 每 CompactionInterval 次轮转会在递增段 ID 之前同步运行一次压缩
//
// 参数：
//   - key: 键
//   - value: 值
//
// 返回：
//   - error: 写入或压缩错误
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	data, err := NewSetRecord(key, value).Encode()
	if err != nil {
		return err
	}

	offset, newSize, err := s.appendToActive(data)
	if err != nil {
		return err
	}

	// 更新内存索引和布隆过滤器
	s.idx.Put(key, &storage.Position{SegmentID: s.currentSegmentID, Offset: offset})
	s.bloomFilter.Add(key)

	metrics.SetsTotal.Inc()
	metrics.LiveKeys.Set(float64(s.idx.Size()))

	if s.options.Hub != nil {
		s.options.Hub.NotifySet(key, value)
	}

	// 轮转检查：活跃段超限后该段即被视为关闭，新段惰性创建
	if newSize > s.options.SegmentSizeLimit {
		s.rotations++
		if s.rotations%s.options.CompactionInterval == 0 {
			if err := s.compactLocked(); err != nil {
				return err
			}
		}
		s.currentSegmentID++
		metrics.RotationsTotal.Inc()
	}

	return nil
}

// Get 根据键获取值
// 键不存在不是错误，返回 ok=false
//
// 参数：
//   - key: 键
//
// 返回：
//   - string: 值
//   - bool: 键是否存在
//   - error: 读取错误；索引指向的位置不是该键的 set 记录时返回 ErrInconsistentStorage
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrStoreClosed
	}

	metrics.GetsTotal.Inc()

	// 布隆过滤器快速否定路径：返回 false 的键一定不存在
	if !s.bloomFilter.Test(key) {
		return "", false, nil
	}

	pos := s.idx.Get(key)
	if pos == nil {
		// 布隆过滤器误判，索引才是权威
		return "", false, nil
	}

	rec, err := s.readRecordAt(pos)
	if err != nil {
		return "", false, err
	}

	// 索引不变式：必须解码出该键的 set 记录，否则日志与索引已经分叉
	if rec.Type != RecordSet || rec.Key != key {
		return "", false, fmt.Errorf("%w: 段 %s 偏移 %d 不是键 %q 的 set 记录",
			ErrInconsistentStorage, segmentFileName(pos.SegmentID), pos.Offset, key)
	}

	return rec.Value, true, nil
}

// Remove 删除键值对
// 向活跃段追加一条 remove 记录（不一定是持有旧值的那个段），供未来恢复重放
//
// 参数：
//   - key: 键
//
// 返回：
//   - error: 键不存在返回 storage.ErrKeyNotFound；否则为写入错误
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if s.idx.Get(key) == nil {
		return storage.ErrKeyNotFound
	}

	data, err := NewRemoveRecord(key).Encode()
	if err != nil {
		return err
	}
	if _, _, err := s.appendToActive(data); err != nil {
		return err
	}

	s.idx.Delete(key)

	metrics.RemovesTotal.Inc()
	metrics.LiveKeys.Set(float64(s.idx.Size()))

	if s.options.Hub != nil {
		s.options.Hub.NotifyRemove(key)
	}

	return nil
}

// Close 关闭数据库
// 启用 hint 时写出索引快照，加速下一次 Open
//
// 返回：
//   - error: 关闭错误
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var hintErr error
	if s.options.UseHint {
		hintErr = s.writeHintSnapshot()
	}

	if s.idx != nil {
		s.idx.Close()
	}

	if hintErr != nil {
		return fmt.Errorf("写出 hint 快照失败: %w", hintErr)
	}
	return nil
}

// Len 返回当前索引中的键数量
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Size()
}

// SegmentIDs 返回当前已知的段 ID（升序），供诊断和测试使用
func (s *Store) SegmentIDs() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSegmentIDs(s.knownSegments)
}

// appendToActive 向活跃段追加一条编码记录
// 文件句柄只在本次调用内有效：打开、写入、关闭，出错也不会跨操作持有
//
// 返回：
//   - offset: 写入前的段长度，即本记录的起始偏移
//   - newSize: 写入后的段长度，用于轮转判断
//   - err: 写入错误
func (s *Store) appendToActive(data []byte) (offset int64, newSize int64, err error) {
	f, err := openSegmentForAppend(s.dir, s.currentSegmentID)
	if err != nil {
		return 0, 0, err
	}

	offset, err = segmentSize(f)
	if err != nil {
		f.Close()
		return 0, 0, err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, 0, fmt.Errorf("追加记录失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, 0, fmt.Errorf("关闭段文件失败: %w", err)
	}

	s.knownSegments[s.currentSegmentID] = struct{}{}
	metrics.SegmentsOnDisk.Set(float64(len(s.knownSegments)))

	return offset, offset + int64(len(data)), nil
}

// readRecordAt 按位置读取一条记录
// 打开段文件、Seek 到绝对偏移、解码一行，句柄在返回前释放
func (s *Store) readRecordAt(pos *storage.Position) (Record, error) {
	f, err := openSegmentForRead(s.dir, pos.SegmentID)
	if err != nil {
		return Record{}, err
	}
	defer f.Close()

	if _, err := f.Seek(pos.Offset, io.SeekStart); err != nil {
		return Record{}, fmt.Errorf("段文件定位失败 (offset=%d): %w", pos.Offset, err)
	}

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return Record{}, fmt.Errorf("读取记录失败: %w", err)
	}
	return DecodeRecord(line)
}

// 确保 Store 实现了 storage.Engine 接口
var _ storage.Engine = (*Store)(nil)
