// Package metrics 提供监控指标功能.
// 所有指标注册到包内独立的 Prometheus 注册表，通过 /metrics 暴露.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.VotesTotal.WithLabelValues("added").Inc()
package metrics

import (
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/avatarhub/pkg/configs"
)

const namespace = "avatarhub"

var (
	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	runtimeOnce sync.Once

	// RequestCounter HTTP请求计数器.
	RequestCounter = NewCounter("http_requests_total", "Total number of HTTP requests", []string{"method", "endpoint", "status"})

	// RequestDuration HTTP请求持续时间.
	RequestDuration = NewHistogram("http_request_duration_seconds", "HTTP request duration in seconds", []string{"method", "endpoint"})

	// ActiveConnections 正在处理的请求数.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_connections",
		Help:      "Number of in-flight HTTP requests",
	})

	// VotesTotal 投票切换次数，action 取 added|removed.
	VotesTotal = NewCounter("votes_total", "Vote toggles by resulting action", []string{"action"})

	// ItemsTotal 条目生命周期事件计数，op 取 created|updated|deleted.
	ItemsTotal = NewCounter("items_total", "Item lifecycle operations", []string{"op"})

	// GalleryCacheTotal 画廊列表缓存命中情况，result 取 hit|miss|error.
	GalleryCacheTotal = NewCounter("gallery_cache_total", "Gallery list cache lookups", []string{"result"})

	// ResponseCacheTotal 响应缓存中间件查找结果，result 取 hit|miss|error.
	ResponseCacheTotal = NewCounter("response_cache_total", "HTTP response cache lookups", []string{"route", "result"})

	// EventsConsumedTotal 进程内消费的事件数.
	EventsConsumedTotal = NewCounter("events_consumed_total", "Item events consumed", []string{"topic"})

	// JobRunsTotal 定时任务执行次数，result 取 ok|error.
	JobRunsTotal = NewCounter("job_runs_total", "Maintenance job runs", []string{"job", "result"})
)

func init() {
	registry.MustRegister(ActiveConnections)
}

// InitMetrics 初始化Metrics，按需注册运行时收集器.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled || !config.RuntimeMetrics {
		return nil
	}

	runtimeOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})

	return nil
}

// RegisterRoutes 在引擎上挂载 /metrics 与可选的 pprof 端点.
func RegisterRoutes(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	// gorm prometheus 插件注册在默认注册表上，一并暴露
	gatherers := prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	engine.GET(path, gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	if config.Pprof {
		g := engine.Group("/debug/pprof")
		g.GET("/", gin.WrapF(pprof.Index))
		g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		g.GET("/profile", gin.WrapF(pprof.Profile))
		g.GET("/symbol", gin.WrapF(pprof.Symbol))
		g.GET("/trace", gin.WrapF(pprof.Trace))
		g.GET("/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// NewCounter 创建新的计数器指标.
func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
	registry.MustRegister(counter)

	return counter
}

// NewGauge 创建新的仪表盘指标.
func NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
	registry.MustRegister(gauge)

	return gauge
}

// NewHistogram 创建新的直方图指标.
func NewHistogram(name, help string, labels []string) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   prometheus.DefBuckets,
		},
		labels,
	)
	registry.MustRegister(histogram)

	return histogram
}
