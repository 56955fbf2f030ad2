// Package metrics holds the Prometheus collectors for chunking and ingestion.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"legal_chunker/internal/chunker"
)

const namespace = "legal_chunker"

// Metrics owns its registry, so several instances can live side by side in
// tests. All methods are no-ops on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	chunksProduced *prometheus.CounterVec
	chunkChars     prometheus.Histogram
	chunkDuration  prometheus.Histogram

	documents      *prometheus.CounterVec
	ingestDuration prometheus.Histogram
	searches       prometheus.Counter
}

// Document outcomes recorded by ObserveDocument.
const (
	OutcomeIndexed = "indexed"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

func New() *Metrics {
	buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chunksProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_produced_total",
			Help:      "Chunks produced by chunk type",
		}, []string{"chunk_type"}),
		chunkChars: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_characters",
			Help:      "Chunk length in characters",
			Buckets:   []float64{50, 100, 250, 500, 750, 1000, 1500, 2000, 3000},
		}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_seconds",
			Help:      "Time spent chunking one text",
			Buckets:   buckets,
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents handled by the ingest pipeline by outcome",
		}, []string{"outcome"}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_seconds",
			Help:      "Time spent ingesting one document",
			Buckets:   buckets,
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Similarity searches served",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chunksProduced, m.chunkChars, m.chunkDuration,
		m.documents, m.ingestDuration, m.searches,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveChunks records one chunking run.
func (m *Metrics) ObserveChunks(chunks []chunker.Chunk, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chunkDuration.Observe(elapsed.Seconds())
	for _, c := range chunks {
		m.chunksProduced.WithLabelValues(string(c.Metadata.ChunkType)).Inc()
		m.chunkChars.Observe(float64(c.CharEndIndex - c.CharStartIndex))
	}
}

// ObserveDocument records the outcome of one document ingest. elapsed is
// ignored for skipped documents.
func (m *Metrics) ObserveDocument(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		m.ingestDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveSearch() {
	if m == nil {
		return
	}
	m.searches.Inc()
}
