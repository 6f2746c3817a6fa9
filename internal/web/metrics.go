package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parserpotato/ingest/internal/ingest"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_http_requests_total",
		Help: "HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	uploadRecordsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_upload_records_processed_total",
		Help: "Records read from uploaded files.",
	})

	uploadRowsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_upload_rows_succeeded_total",
		Help: "Rows inserted across all uploads.",
	})

	uploadRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_upload_rows_skipped_total",
		Help: "Rows skipped due to validation failures or duplicates.",
	})

	uploadEntitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_upload_entities_created_total",
		Help: "Entities created per type.",
	}, []string{"entity"})
)

// observeUpload records pipeline outcome metrics for one upload.
func observeUpload(report *ingest.Report) {
	uploadRecordsProcessed.Add(float64(report.RecordsProcessed))
	uploadRowsSucceeded.Add(float64(report.SuccessRowsCount))
	uploadRowsSkipped.Add(float64(report.SkippedRowsCount))
	uploadEntitiesCreated.WithLabelValues("customer").Add(float64(report.CustomersCreated))
	uploadEntitiesCreated.WithLabelValues("product").Add(float64(report.ProductsCreated))
	uploadEntitiesCreated.WithLabelValues("order").Add(float64(report.OrdersCreated))
	uploadEntitiesCreated.WithLabelValues("order_item").Add(float64(report.OrderItemsCreated))
}

// statusRecorder captures the response status for metric labels.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
