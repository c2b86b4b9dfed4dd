package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/platform/envutil"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver so callers never
// have to check METRICS_ENABLED themselves.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	checkIns      *prometheus.CounterVec
	mediaUploads  *prometheus.CounterVec
	mediaTrimmed  prometheus.Counter
	recordDeletes *prometheus.CounterVec
	sagaActions   *prometheus.CounterVec
	adminActions  *prometheus.CounterVec

	storageBootstrap *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false, nil)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second, nil)
}

// Init builds the process-wide metrics set, or returns nil when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics registers a fresh collector set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "th_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "th_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_checkins_total",
			Help: "Check-in submissions by outcome.",
		}, []string{"outcome"}),
		mediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_media_uploads_total",
			Help: "Hiking media uploads by kind/status.",
		}, []string{"kind", "status"}),
		mediaTrimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "th_media_trimmed_total",
			Help: "Media files dropped for exceeding the per check-in limit.",
		}),
		recordDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_record_deletes_total",
			Help: "Hiking record deletions by outcome.",
		}, []string{"outcome"}),
		sagaActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_saga_compensations_total",
			Help: "Saga compensation actions by kind/status.",
		}, []string{"kind", "status"}),
		adminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_admin_actions_total",
			Help: "Admin mutations by resource/action.",
		}, []string{"resource", "action"}),
		storageBootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "th_object_storage_bootstrap_total",
			Help: "Object storage provider bootstraps by mode/outcome/error code.",
		}, []string{"mode", "outcome", "code"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "th_db_pool",
			Help: "database/sql pool statistics.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "th_redis_up",
			Help: "1 when the last Redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "th_redis_ping_seconds",
			Help: "Latency of the last Redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.checkIns, m.mediaUploads, m.mediaTrimmed, m.recordDeletes,
		m.sagaActions, m.adminActions, m.storageBootstrap,
		m.dbStats, m.redisUp, m.redisPing,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format; 503 when metrics are off.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// IncCheckIn records a check-in outcome: created, replayed, rejected, conflict or failed.
func (m *Metrics) IncCheckIn(outcome string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncMediaUpload(kind, status string) {
	if m == nil {
		return
	}
	m.mediaUploads.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) AddMediaTrimmed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mediaTrimmed.Add(float64(n))
}

func (m *Metrics) IncRecordDelete(outcome string) {
	if m == nil {
		return
	}
	m.recordDeletes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSagaAction(kind, status string) {
	if m == nil {
		return
	}
	m.sagaActions.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) IncAdminAction(resource, action string) {
	if m == nil {
		return
	}
	m.adminActions.WithLabelValues(resource, action).Inc()
}

func (m *Metrics) ObserveStorageBootstrap(mode, outcome, code string) {
	if m == nil {
		return
	}
	m.storageBootstrap.WithLabelValues(mode, outcome, code).Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
