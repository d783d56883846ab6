// Package metrics exposes the session metrics of a client to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-sscp/go-sscp/client"
)

const (
	namespace = "sscp"
	subsystem = "session"
)

// Source is the client whose metrics are exposed.
type Source interface {
	GetMetrics() *client.ConnectionMetrics
	State() client.ConnState
}

// Register registers the counters of src and its session state gauge on reg.
// labels are attached to every metric, e.g. the controller name.
func Register(reg prometheus.Registerer, src Source, labels prometheus.Labels) error {
	m := src.GetMetrics()

	counters := []struct {
		name string
		help string
		fn   func() uint64
	}{
		{"connects_total", "Total number of successful TCP connects", m.ConnectCount.Load},
		{"connect_errors_total", "Total number of failed TCP connects", m.ConnectErrCount.Load},
		{"logins_total", "Total number of successful logins", m.LoginCount.Load},
		{"login_errors_total", "Total number of failed logins", m.LoginErrCount.Load},
		{"frames_sent_total", "Total number of request frames written", m.FrameSendCount.Load},
		{"frames_received_total", "Total number of reply frames read", m.FrameRecvCount.Load},
		{"broken_connections_total", "Total number of exchanges aborted by socket errors or timeouts", m.BrokenConnCount.Load},
		{"reconnects_total", "Total number of reconnection attempts", m.ReconnectCount.Load},
		{"reconnect_errors_total", "Total number of reconnection sequences that failed", m.ReconnectErrCount.Load},
		{"retries_total", "Total number of operations retried after a reconnection", m.RetryCount.Load},
		{"reads_total", "Total number of variable read operations", m.ReadCount.Load},
		{"read_errors_total", "Total number of failed variable read operations", m.ReadErrCount.Load},
		{"writes_total", "Total number of variable write operations", m.WriteCount.Load},
		{"write_errors_total", "Total number of failed variable write operations", m.WriteErrCount.Load},
	}

	for _, c := range counters {
		fn := c.fn
		collector := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        c.name,
			Help:        c.help,
			ConstLabels: labels,
		}, func() float64 { return float64(fn()) })

		if err := reg.Register(collector); err != nil {
			return err
		}
	}

	state := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "state",
		Help:        "Session state: 0 disconnected, 1 connected, 2 authenticated",
		ConstLabels: labels,
	}, func() float64 { return float64(src.State()) })

	return reg.Register(state)
}

// Handler returns the HTTP handler serving the metrics gathered by reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
