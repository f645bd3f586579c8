package signalapi

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instruments the client reports into. Attach
// with WithMetrics; a client without metrics counts nothing.
type Metrics struct {
	// Ops counts relay API operations by operation and outcome ("ok" or
	// "error").
	Ops *prometheus.CounterVec

	// Frames counts raw frames received on the streaming connection.
	Frames prometheus.Counter

	// DecodeFailures counts envelopes that failed to decode.
	DecodeFailures prometheus.Counter
}

// NewMetrics creates the client metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_api_ops_total",
			Help: "Relay API operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_stream_frames_total",
			Help: "Raw frames received on the streaming connection.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_decode_failures_total",
			Help: "Envelopes that failed to decode.",
		}),
	}
	reg.MustRegister(m.Ops, m.Frames, m.DecodeFailures)
	return m
}
