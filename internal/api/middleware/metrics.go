// metrics.go — Prometheus HTTP метрики FMS backend.
// Регистрирует метрики: fms_http_requests_total, fms_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fms_http_requests_total",
			Help: "Общее количество HTTP-запросов к FMS backend",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fms_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к FMS backend в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath заменяет идентификаторы в пути на {id}:
// /items/a1b2c3d4-... → /items/{id}, /files/a1b2c3d4-... → /files/{id}.
// Пути статики и файлового хранилища сворачиваются до префикса.
func normalizePath(path string) string {
	switch path {
	case "/items", "/health/live", "/health/ready", "/metrics":
		return path
	}

	for _, prefix := range []string{"/items/", "/files/"} {
		if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return prefix + "{id}"
		}
	}

	if strings.HasPrefix(path, "/public/") {
		return "/public/*"
	}

	return "other"
}
