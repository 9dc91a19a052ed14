package kvlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// 段文件扩展名
const segmentExt = ".data"

// segmentFileName 生成段文件名
// ID 固定 9 位十进制零填充，保证文件名字典序与数值序一致
func segmentFileName(id uint32) string {
	return fmt.Sprintf("%09d%s", id, segmentExt)
}

// segmentPath 生成段文件的完整路径
func segmentPath(dir string, id uint32) string {
	return filepath.Join(dir, segmentFileName(id))
}

// listSegmentIDs 扫描目录，返回所有段文件的 ID（升序）
// 参数：
//   - dir: 段文件所在目录
//
// 返回：
//   - []uint32: 升序排列的段 ID
//   - error: 目录读取失败，或匹配命名约定的文件名解析不出无符号整数 ID
func listSegmentIDs(dir string) ([]uint32, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取段目录失败: %w", err)
	}

	var ids []uint32
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != segmentExt {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), segmentExt)
		n, err := strconv.ParseUint(stem, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadSegmentName, e.Name())
		}
		ids = append(ids, uint32(n))
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// openSegmentForAppend 以追加模式打开段文件，不存在则创建
// O_APPEND 保证写入永远落在文件末尾，已有字节不会被覆盖
func openSegmentForAppend(dir string, id uint32) (*os.File, error) {
	f, err := os.OpenFile(segmentPath(dir, id), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开段文件失败: %w", err)
	}
	return f, nil
}

// openSegmentForRead 以只读模式打开段文件，调用方通过 Seek 按绝对偏移定位
func openSegmentForRead(dir string, id uint32) (*os.File, error) {
	f, err := os.Open(segmentPath(dir, id))
	if err != nil {
		return nil, fmt.Errorf("打开段文件失败: %w", err)
	}
	return f, nil
}

// segmentSize 返回段文件的当前字节长度
// 既作为下一条记录的落盘偏移，也用于判断是否轮转
func segmentSize(f *os.File) (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("获取段文件状态失败: %w", err)
	}
	return stat.Size(), nil
}

// removeSegment 删除段文件
// 只允许压缩器在确认没有任何索引项指向该段后调用
func removeSegment(dir string, id uint32) error {
	return os.Remove(segmentPath(dir, id))
}
