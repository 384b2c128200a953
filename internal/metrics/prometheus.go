package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Chunks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groupreaper_chunks_total",
		Help: "已执行的删除分块数",
	}, []string{"kind"})

	RowsDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groupreaper_rows_deleted_total",
		Help: "已删除的记录数",
	}, []string{"kind"})

	RunErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groupreaper_run_errors_total",
		Help: "删除任务失败次数",
	}, []string{"kind"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "groupreaper_run_duration_seconds",
		Help:    "单次删除任务调度耗时",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister 注册指标，可在 main 中调用。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(Chunks, RowsDeleted, RunErrors, RunDuration)
}

// ObserveChunk 记录一次分块删除。
func ObserveChunk(kind string, deleted int) {
	Chunks.WithLabelValues(kind).Inc()
	if deleted > 0 {
		RowsDeleted.WithLabelValues(kind).Add(float64(deleted))
	}
}
