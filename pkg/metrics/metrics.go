// Package metrics, Prometheus metriklerini kendi registry'sinde toplar.
//
// HTTP istek sayısı/süresi Middleware ile, anlık değerler (WS bağlantı sayısı
// gibi) RegisterGauge ile eklenir. Handler /metrics yanıtını üretir.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "votespace"

// Metric isimleri (namespace dahil).
const (
	MetricHTTPRequestsTotal   = "votespace_http_requests_total"
	MetricHTTPRequestDuration = "votespace_http_request_duration_seconds"
)

// unmatchedRoute, mux'ta pattern'i olmayan istekler için route label'ı.
const unmatchedRoute = "unmatched"

// Metrics, uygulamanın Prometheus registry'si. Eşzamanlı kullanım güvenlidir.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New, boş bir registry oluşturur ve HTTP metriklerini kaydeder.
// Global DefaultRegisterer kullanılmaz; testlerde birden fazla instance olabilir.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// RegisterGauge, her scrape'te fn çağrılarak okunan bir gauge ekler.
// name namespace'siz verilir (ör: "ws_connections").
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)

	if err := m.registry.Register(gauge); err != nil {
		return fmt.Errorf("failed to register gauge %s: %w", name, err)
	}
	return nil
}

// Handler, registry'yi Prometheus text formatında sunar.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware, her isteği method/route/status ile sayar ve süresini ölçer.
//
// Route label'ı ServeMux'un eşlediği pattern'dir (ör: "GET /api/polls/{id}");
// böylece poll ID'leri label kardinalitesini şişirmez. Mux pattern'i request
// üzerine yazdığı için değer next döndükten sonra okunur.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}

		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder, yazılan status kodunu yakalar.
// WebSocket upgrade'i için Hijack alttaki writer'a iletilir.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	// Upgrade başarılı → 101
	r.status = http.StatusSwitchingProtocols
	r.wroteHeader = true
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap, http.ResponseController için.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
