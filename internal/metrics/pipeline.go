package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvstudio",
			Subsystem: "render",
			Name:      "requests_total",
			Help:      "渲染请求总数。",
		},
		[]string{"format", "status"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvstudio",
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "渲染耗时分布（秒）。",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"format"},
	)

	importTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvstudio",
			Subsystem: "import",
			Name:      "requests_total",
			Help:      "导入请求总数。",
		},
		[]string{"parser", "status"},
	)

	importQuality = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cvstudio",
			Subsystem: "import",
			Name:      "quality_score",
			Help:      "成功导入记录的质量分分布。",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

// ObserveRender 记录一次渲染的结果与耗时。
func ObserveRender(format, status string, seconds float64) {
	renderTotal.WithLabelValues(format, status).Inc()
	renderDuration.WithLabelValues(format).Observe(seconds)
}

// ObserveImport 记录一次导入的结果; 成功时附带质量分。
func ObserveImport(parserType, status string, quality int) {
	importTotal.WithLabelValues(parserType, status).Inc()
	if status == "success" {
		importQuality.Observe(float64(quality))
	}
}
