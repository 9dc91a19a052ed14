package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SetsTotal 累计写入次数
	SetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftkv_sets_total",
		Help: "Total number of set operations",
	})

	// GetsTotal 累计读取次数
	GetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftkv_gets_total",
		Help: "Total number of get operations",
	})

	// RemovesTotal 累计删除次数
	RemovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftkv_removes_total",
		Help: "Total number of remove operations",
	})

	// RotationsTotal 累计段轮转次数
	RotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftkv_segment_rotations_total",
		Help: "Total number of active segment rotations",
	})

	// CompactionsTotal 累计压缩次数
	CompactionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftkv_compactions_total",
		Help: "Total number of compaction runs",
	})

	// SegmentsDeleted 压缩删除的段文件总数
	SegmentsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driftkv_segments_deleted_total",
		Help: "Total number of dead segment files deleted by compaction",
	})

	// LiveKeys 当前索引中的键数量
	LiveKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "driftkv_live_keys",
		Help: "Current number of live keys in the index",
	})

	// SegmentsOnDisk 当前磁盘上的段文件数量
	SegmentsOnDisk = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "driftkv_segments_on_disk",
		Help: "Current number of segment files known to the store",
	})
)

// Register 将所有采集器注册到指定的 Registerer
// 参数：
//   - reg: prometheus 注册器，传 nil 使用默认注册器
func Register(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		SetsTotal,
		GetsTotal,
		RemovesTotal,
		RotationsTotal,
		CompactionsTotal,
		SegmentsDeleted,
		LiveKeys,
		SegmentsOnDisk,
	)
}
