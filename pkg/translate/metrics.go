package translate

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Translation request metrics, recorded by Instrumented.
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_translation_requests_total",
			Help: "Total number of translation requests by engine, language pair and outcome",
		},
		[]string{"engine", "source", "target", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingosense_translation_request_duration_seconds",
			Help:    "Duration of translation requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"engine", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingosense_translation_request_size_bytes",
			Help:    "Size of translation request text in bytes",
			Buckets: prometheus.ExponentialBuckets(32, 4, 8),
		},
		[]string{"engine"},
	)

	translationResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingosense_translation_response_size_bytes",
			Help:    "Size of translation response text in bytes",
			Buckets: prometheus.ExponentialBuckets(32, 4, 8),
		},
		[]string{"engine"},
	)

	// Worker pool metrics
	workerPoolWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lingosense_worker_pool_workers",
			Help: "Number of model workers by state (running, busy, idle)",
		},
		[]string{"engine", "state"},
	)

	workerStartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_worker_starts_total",
			Help: "Total number of worker process starts",
		},
		[]string{"engine", "worker_id"},
	)

	workerRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_worker_restarts_total",
			Help: "Total number of worker process restarts",
		},
		[]string{"engine", "worker_id"},
	)

	workerUptime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lingosense_worker_uptime_seconds",
			Help: "Uptime of each worker process in seconds",
		},
		[]string{"engine", "worker_id"},
	)

	workerMemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lingosense_worker_memory_usage_bytes",
			Help: "Resident memory of worker processes in bytes",
		},
		[]string{"engine", "worker_id"},
	)

	workerQueueWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingosense_worker_queue_wait_seconds",
			Help:    "Time spent waiting for an available worker",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"engine"},
	)

	socketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingosense_socket_connections_total",
			Help: "Total number of Unix socket connections to workers",
		},
		[]string{"engine", "worker_id", "status"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// poolMetrics records worker pool metrics for one engine.
type poolMetrics struct {
	engine string
}

// workerSnapshot is the state of one worker at sampling time.
type workerSnapshot struct {
	id      int
	running bool
	busy    bool
	started time.Time
	pid     int
}

func (m poolMetrics) observe(workers []workerSnapshot) {
	var running, busy, idle int
	for _, w := range workers {
		if !w.running {
			continue
		}
		running++
		if w.busy {
			busy++
		} else {
			idle++
		}
		workerUptime.WithLabelValues(m.engine, strconv.Itoa(w.id)).Set(time.Since(w.started).Seconds())
		if rss := processRSS(w.pid); rss > 0 {
			workerMemoryUsage.WithLabelValues(m.engine, strconv.Itoa(w.id)).Set(float64(rss))
		}
	}
	workerPoolWorkers.WithLabelValues(m.engine, "running").Set(float64(running))
	workerPoolWorkers.WithLabelValues(m.engine, "busy").Set(float64(busy))
	workerPoolWorkers.WithLabelValues(m.engine, "idle").Set(float64(idle))
}

func (m poolMetrics) workerStarted(id int, restart bool) {
	workerStartsTotal.WithLabelValues(m.engine, strconv.Itoa(id)).Inc()
	if restart {
		workerRestartsTotal.WithLabelValues(m.engine, strconv.Itoa(id)).Inc()
	}
}

func (m poolMetrics) queueWait(d time.Duration) {
	workerQueueWaitTime.WithLabelValues(m.engine).Observe(d.Seconds())
}

func (m poolMetrics) socketConnection(id int, err error) {
	socketConnectionsTotal.WithLabelValues(m.engine, strconv.Itoa(id), statusLabel(err)).Inc()
}

// instrumented records request metrics around every call to the wrapped
// Translator.
type instrumented struct {
	Translator
	engine string
}

// Instrumented wraps tr with Prometheus request metrics labelled by engine.
func Instrumented(tr Translator, engine EngineType) Translator {
	return &instrumented{Translator: tr, engine: string(engine)}
}

func (t *instrumented) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	start := time.Now()
	out, err := t.Translator.Translate(ctx, text, sourceTag, targetTag)
	status := statusLabel(err)

	translationRequestsTotal.WithLabelValues(t.engine, sourceTag, targetTag, status).Inc()
	translationRequestDuration.WithLabelValues(t.engine, status).Observe(time.Since(start).Seconds())
	translationRequestSize.WithLabelValues(t.engine).Observe(float64(len(text)))
	if err == nil {
		translationResponseSize.WithLabelValues(t.engine).Observe(float64(len(out)))
	}
	return out, err
}
