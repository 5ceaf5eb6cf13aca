package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the exchange pipeline.
type ConversationMetrics struct {
	exchangesTotal *prometheus.CounterVec
	qualifiedTotal prometheus.Counter
	llmLatency     prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "conversation",
			Name:      "exchanges_total",
			Help:      "Total message exchanges by outcome",
		}, []string{"status"}),
		qualifiedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "conversation",
			Name:      "leads_qualified_total",
			Help:      "Total exchanges that produced a qualified lead",
		}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "realty",
			Subsystem: "conversation",
			Name:      "generation_latency_seconds",
			Help:      "Latency of completion provider calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.exchangesTotal, m.qualifiedTotal, m.llmLatency)
	return m
}

func (m *ConversationMetrics) ObserveExchange(status string) {
	if m == nil {
		return
	}
	m.exchangesTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveQualified() {
	if m == nil {
		return
	}
	m.qualifiedTotal.Inc()
}

func (m *ConversationMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}

// MessagingMetrics exposes counters for SMS flows.
type MessagingMetrics struct {
	inboundTotal  *prometheus.CounterVec
	outboundTotal *prometheus.CounterVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Twilio webhooks",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realty",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound SMS sends",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal)
	return m
}

func (m *MessagingMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}
