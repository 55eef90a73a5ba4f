package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics groups the collectors exported by the auth pipeline.
type AuthMetrics struct {
	cacheLookups *prometheus.CounterVec
	decisions    *prometheus.CounterVec
}

// NewAuthMetrics registers the collectors with reg, reusing collectors that are
// already registered under the same name.
func NewAuthMetrics(reg prometheus.Registerer) (*AuthMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "cache_lookups_total",
		Help:      "Identity and permission cache lookups partitioned by cache and result.",
	}, []string{"cache", "result"}))
	if err != nil {
		return nil, err
	}

	decisions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "auth_decisions_total",
		Help:      "Authentication and authorization outcomes partitioned by stage and outcome.",
	}, []string{"stage", "outcome"}))
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{cacheLookups: lookups, decisions: decisions}, nil
}

// CacheObserver returns a callback suitable for cache.Config.Observe.
func (m *AuthMetrics) CacheObserver(cache string) func(hit bool) {
	if m == nil {
		return nil
	}
	return func(hit bool) {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.cacheLookups.WithLabelValues(cache, result).Inc()
	}
}

// Decision records one pipeline outcome, e.g. ("authorize", "forbidden").
func (m *AuthMetrics) Decision(stage, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(stage, outcome).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}
