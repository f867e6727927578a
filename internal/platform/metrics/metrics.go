package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ConversationsTotal *prometheus.CounterVec
	MessagesTotal      *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	ValidationResults  *prometheus.CounterVec
	SessionCacheTotal  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConversationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_conversations_total",
			Help: "Total number of conversations",
		}, []string{"state", "channel"}),
		MessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_messages_total",
			Help: "Total number of inbound messages by conversation state",
		}, []string{"state"}),
		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mia_validation_duration_seconds",
			Help:    "Validation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		}),
		ValidationResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_validation_results_total",
			Help: "Total number of identity validation attempts by outcome",
		}, []string{"result"}),
		SessionCacheTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mia_session_cache_total",
			Help: "Session cache lookups by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementConversations counts a newly created conversation.
func (m *Metrics) IncrementConversations(state, channel string) {
	if m == nil {
		return
	}
	m.ConversationsTotal.WithLabelValues(state, channel).Inc()
}

// IncrementMessages counts an inbound message against the state it arrived in.
func (m *Metrics) IncrementMessages(state string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(state).Inc()
}

// ObserveValidation records one identity validation call.
func (m *Metrics) ObserveValidation(d time.Duration, result string) {
	if m == nil {
		return
	}
	m.ValidationDuration.Observe(d.Seconds())
	m.ValidationResults.WithLabelValues(result).Inc()
}

// IncrementCache records a session cache lookup outcome (hit or miss).
func (m *Metrics) IncrementCache(outcome string) {
	if m == nil {
		return
	}
	m.SessionCacheTotal.WithLabelValues(outcome).Inc()
}
