package monitoring

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Monitor tracks scheduled run health and exposes Prometheus metrics from its
// own registry.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	analyses       int
	failures       int

	registry         *prometheus.Registry
	analysesTotal    *prometheus.CounterVec
	commentsFetched  prometheus.Counter
	commentsAnalyzed prometheus.Counter
	analysisDuration prometheus.Histogram
	runsTotal        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func NewMonitor() *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,
		analysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comment_analyses_total",
			Help: "Video analyses by outcome",
		}, []string{"outcome"}),
		commentsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "comments_fetched_total",
			Help: "Comments retrieved from the YouTube API",
		}),
		commentsAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "comments_analyzed_total",
			Help: "Sampled comments sent for AI analysis",
		}),
		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "comment_analysis_duration_seconds",
			Help:    "End-to-end duration of one video analysis",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watch_runs_total",
			Help: "Scheduled watch runs by result",
		}, []string{"result"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// RecordAnalysis counts one pipeline outcome: "success", "partial" (analysis
// failed but the report was produced) or an error kind.
func (m *Monitor) RecordAnalysis(outcome string, fetched, analyzed int, duration time.Duration) {
	m.analysesTotal.WithLabelValues(outcome).Inc()
	m.commentsFetched.Add(float64(fetched))
	m.commentsAnalyzed.Add(float64(analyzed))
	m.analysisDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.analyses++
	if outcome != "success" && outcome != "partial" {
		m.failures++
	}
	m.mu.Unlock()
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.runsTotal.WithLabelValues("success").Inc()
	logrus.Infof("Run completed successfully - %s (took %v)", summary, duration)
}

// RecordPartialFailure does not change health status.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.runsTotal.WithLabelValues("partial").Inc()
	logrus.Warnf("PARTIAL FAILURE: %v (duration: %v)", err, duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.runsTotal.WithLabelValues("critical").Inc()
	logrus.Errorf("CRITICAL FAILURE: %v (duration: %v)", err, duration)
}

// IsHealthy is true until a scheduled run fails critically, and again after
// the next successful run.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	served := fmt.Sprintf("%d analyses served, %d failed", m.analyses, m.failures)
	if m.lastRunTime.IsZero() {
		return "No scheduled runs yet; " + served
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s (%s); %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary, served)
	}
	return fmt.Sprintf("Last run failed: %s (%s); %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary, served)
}

// Handler serves the monitor's metrics in the Prometheus exposition format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
