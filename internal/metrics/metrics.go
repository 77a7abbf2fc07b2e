// Package metrics собирает метрики Prometheus: события магазина и HTTP-запросы.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keyshop"

// unmatchedRoute заменяет путь запроса, не совпавшего ни с одним маршрутом.
const unmatchedRoute = "unmatched"

// Metrics хранит собственный реестр, чтобы тесты и несколько экземпляров не конфликтовали.
type Metrics struct {
	registry *prometheus.Registry

	purchases  *prometheus.CounterVec
	keysSold   *prometheus.CounterVec
	revenue    *prometheus.CounterVec
	rejections *prometheus.CounterVec
	stock      *prometheus.GaugeVec

	requestDuration *prometheus.SummaryVec
	requests        *prometheus.CounterVec
}

// New создаёт и регистрирует метрики.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		purchases: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Completed purchases by product.",
		}, []string{"product"}),
		keysSold: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_sold_total",
			Help:      "License keys issued by product.",
		}, []string{"product"}),
		revenue: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_spent_total",
			Help:      "Credits debited by purchases.",
		}, []string{"product"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_rejections_total",
			Help:      "Rejected purchases by reason.",
		}, []string{"reason"}),
		stock: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_keys",
			Help:      "Keys currently in stock by product.",
		}, []string{"product"}),
		requestDuration: f.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.005,
				0.99: 0.001,
			},
		}, []string{"method", "path", "status_code"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status_code"}),
	}
}

// PurchaseCompleted учитывает успешную покупку.
func (m *Metrics) PurchaseCompleted(productID string, quantity int, total int64) {
	m.purchases.WithLabelValues(productID).Inc()
	m.keysSold.WithLabelValues(productID).Add(float64(quantity))
	m.revenue.WithLabelValues(productID).Add(float64(total))
}

// PurchaseRejected учитывает отказ в покупке.
func (m *Metrics) PurchaseRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

// StockChanged обновляет остаток ключей продукта.
func (m *Metrics) StockChanged(productID string, stock int) {
	m.stock.WithLabelValues(productID).Set(float64(stock))
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware измеряет длительность и число HTTP-запросов по шаблону маршрута.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.requestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, path, code).Inc()
	})
}
