package metrics

import (
	"net/http"
	"time"

	"token-transfer-indexer/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "token_transfer_indexer"

// Collector records decoder and pipeline metrics on its own registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	payloads       *prometheus.CounterVec
	transfers      *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec
	storageErrors  *prometheus.CounterVec
	publishErrors  prometheus.Counter
	batchRows      prometheus.Histogram
}

// NewCollector creates a collector with Go and process collectors registered
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		payloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payloads_total",
			Help:      "Stream payloads decoded, by source and outcome.",
		}, []string{"source", "outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Decoded transfers, by token standard.",
		}, []string{"standard"}),
		decodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding one stream payload.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"outcome"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Failed repository writes, by operation.",
		}, []string{"operation"}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed result publications.",
		}),
		batchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_rows",
			Help:      "Transfer rows written per repository batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.payloads,
		c.transfers,
		c.decodeDuration,
		c.storageErrors,
		c.publishErrors,
		c.batchRows,
	)
	return c
}

// ObserveDecode records one decoded payload
func (c *Collector) ObserveDecode(source string, result entity.DecodeResult, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := result.Outcome.String()
	c.payloads.WithLabelValues(source, outcome).Inc()
	c.decodeDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if result.Outcome != entity.OutcomeEvents {
		return
	}
	c.transfers.WithLabelValues(string(entity.TransferTypeERC20)).Add(float64(len(result.Transfers.ERC20)))
	c.transfers.WithLabelValues(string(entity.TransferTypeERC721)).Add(float64(len(result.Transfers.ERC721)))
	for _, t := range result.Transfers.ERC1155 {
		c.transfers.WithLabelValues(string(t.TransferType())).Inc()
	}
}

// ObserveBatch records the size of one repository write
func (c *Collector) ObserveBatch(rows int) {
	if c == nil {
		return
	}
	c.batchRows.Observe(float64(rows))
}

// StorageError counts a failed repository operation
func (c *Collector) StorageError(operation string) {
	if c == nil {
		return
	}
	c.storageErrors.WithLabelValues(operation).Inc()
}

// PublishError counts a failed publication
func (c *Collector) PublishError() {
	if c == nil {
		return
	}
	c.publishErrors.Inc()
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
