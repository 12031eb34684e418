// Package metrics exposes Prometheus metrics for chat turns.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ContextDecisionsTotal   *prometheus.CounterVec
	EstimatedTokens         *prometheus.HistogramVec
	EmbeddingFallbacksTotal *prometheus.CounterVec
	AnswerDuration          *prometheus.HistogramVec
	QueryLimitRejections    prometheus.Counter
	EmbeddingCacheLookups   *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ContextDecisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yirikai_context_decisions_total",
				Help: "Chat turns by resolved context mode",
			},
			[]string{"scope", "model", "mode"},
		),
		EstimatedTokens: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yirikai_context_estimated_tokens",
				Help:    "Estimated document tokens per chat turn",
				Buckets: prometheus.ExponentialBuckets(1000, 2, 10),
			},
			[]string{"scope", "model"},
		),
		EmbeddingFallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yirikai_embedding_fallbacks_total",
				Help: "Retrieval turns that fell back to leading chunks",
			},
			[]string{"reason"},
		),
		AnswerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yirikai_answer_duration_seconds",
				Help:    "Duration of model answer generation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "status"},
		),
		QueryLimitRejections: f.NewCounter(
			prometheus.CounterOpts{
				Name: "yirikai_query_limit_rejections_total",
				Help: "Chat requests rejected by the daily query limit",
			},
		),
		EmbeddingCacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yirikai_embedding_cache_lookups_total",
				Help: "Query embedding cache lookups by layer and result",
			},
			[]string{"layer", "result"},
		),
	}
}

func (m *Metrics) ObserveDecision(scope, model, mode string, tokens int) {
	if m == nil {
		return
	}
	m.ContextDecisionsTotal.WithLabelValues(scope, model, mode).Inc()
	m.EstimatedTokens.WithLabelValues(scope, model).Observe(float64(tokens))
}

func (m *Metrics) ObserveEmbeddingFallback(reason string) {
	if m == nil {
		return
	}
	m.EmbeddingFallbacksTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveAnswer(model string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AnswerDuration.WithLabelValues(model, status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveQueryLimitRejection() {
	if m == nil {
		return
	}
	m.QueryLimitRejections.Inc()
}

func (m *Metrics) ObserveCacheLookup(layer string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EmbeddingCacheLookups.WithLabelValues(layer, result).Inc()
}
