package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "socialdesk",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	postWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialdesk",
			Subsystem: "posts",
			Name:      "writes_total",
			Help:      "Committed post writes by operation.",
		},
		[]string{"op"},
	)

	autoReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialdesk",
			Subsystem: "conversations",
			Name:      "auto_replies_total",
			Help:      "Automatic replies by source (completion or fallback).",
		},
		[]string{"source"},
	)

	uploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "socialdesk",
			Subsystem: "uploads",
			Name:      "bytes_total",
			Help:      "Bytes stored by the upload service.",
		},
	)

	uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialdesk",
			Subsystem: "uploads",
			Name:      "files_total",
			Help:      "Upload attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		postWrites,
		autoReplies,
		uploadBytes,
		uploads,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request count and latency labelled by route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		// Ctx strings alias the request buffer; labels outlive the request.
		route := utils.CopyString(c.Route().Path)
		method := utils.CopyString(c.Method())
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordPostWrite(op string) {
	postWrites.WithLabelValues(op).Inc()
}

func RecordAutoReply(fallback bool) {
	source := "completion"
	if fallback {
		source = "fallback"
	}
	autoReplies.WithLabelValues(source).Inc()
}

func RecordUpload(size int64, err error) {
	if err != nil {
		uploads.WithLabelValues("rejected").Inc()
		return
	}
	uploads.WithLabelValues("stored").Inc()
	uploadBytes.Add(float64(size))
}
