package platform

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts client activity. Register it with WithMetrics to expose it.
type Metrics struct {
	Requests        *prometheus.CounterVec
	SessionMints    *prometheus.CounterVec
	RegionFailovers prometheus.Counter
}

// NewMetrics creates the client collectors and registers them with reg.
// A nil reg registers on a private registry. Clients sharing a registerer
// share the collectors already registered there.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platform",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "API requests issued, by host and outcome.",
	}, []string{"host", "outcome"}))
	if err != nil {
		return nil, err
	}
	mints, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platform",
		Subsystem: "client",
		Name:      "session_mints_total",
		Help:      "Session tokens requested from the identity endpoint, by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	failovers, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "platform",
		Subsystem: "client",
		Name:      "region_failovers_total",
		Help:      "Calls retried against the fallback region after the primary failed.",
	}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Requests:        requests,
		SessionMints:    mints,
		RegionFailovers: failovers,
	}, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}
