package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// Prom implements Metrics on top of prometheus vectors registered against
// the default registry, so promhttp.Handler() picks them up.
type Prom struct {
	lookups   *prometheus.HistogramVec
	creates   prometheus.Histogram
	http      *prometheus.HistogramVec
	kafka     *prometheus.HistogramVec
	cacheHits *prometheus.CounterVec
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		lookups: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_lookup_duration_ms",
			Help:      "Order lookup latency in milliseconds.",
			Buckets:   latencyBuckets,
		}, []string{"source"}),
		creates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_create_db_duration_ms",
			Help:      "Order creation DB write latency in milliseconds.",
			Buckets:   latencyBuckets,
		}),
		http: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route", "status"}),
		kafka: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_process_duration_ms",
			Help:      "Kafka message processing latency in milliseconds.",
			Buckets:   latencyBuckets,
		}, []string{"ok"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_cache_total",
			Help:      "Order detail cache hits and misses.",
		}, []string{"result"}),
	}
	prometheus.MustRegister(p.lookups, p.creates, p.http, p.kafka, p.cacheHits)
	return p
}

func (p *Prom) ObserveLookup(source string, cacheMs, dbMs float64) {
	p.lookups.WithLabelValues(source).Observe(cacheMs + dbMs)
}

func (p *Prom) ObserveCreate(dbWriteMs float64) {
	p.creates.Observe(dbWriteMs)
}

func (p *Prom) ObserveHTTP(method, route string, status int, durMs float64) {
	p.http.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durMs)
}

func (p *Prom) ObserveKafka(processMs float64, ok bool) {
	p.kafka.WithLabelValues(strconv.FormatBool(ok)).Observe(processMs)
}

func (p *Prom) IncCacheHit()  { p.cacheHits.WithLabelValues("hit").Inc() }
func (p *Prom) IncCacheMiss() { p.cacheHits.WithLabelValues("miss").Inc() }
