package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arbor/pkg/domain"
)

// Metrics holds the prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	passes         prometheus.Counter
	aborts         prometheus.Counter
	commits        *prometheus.CounterVec
	mutations      *prometheus.CounterVec
	unmounts       prometheus.Counter
	commitDuration prometheus.Histogram
	abortDuration  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "passes_total",
			Help:      "Render passes started.",
		}),
		aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "aborted_passes_total",
			Help:      "Render passes that failed before commit.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "commits_total",
			Help:      "Commits by outcome (applied, skipped, incomplete).",
		}, []string{"outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "host_mutations_total",
			Help:      "Host primitives called during commit.",
		}, []string{"op"}),
		unmounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "unmounted_nodes_total",
			Help:      "Work nodes removed with their subtrees.",
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "commit_duration_seconds",
			Help:      "Duration of the commit phase.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		abortDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbor",
			Subsystem: "reconciler",
			Name:      "aborted_pass_duration_seconds",
			Help:      "Time spent in passes that aborted.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.passes, m.aborts, m.commits, m.mutations, m.unmounts, m.commitDuration, m.abortDuration)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPassStart: func(context.Context, *domain.PassEvent) {
			m.passes.Inc()
		},
		OnPassAbort: func(_ context.Context, e *domain.PassEvent) {
			m.aborts.Inc()
			m.abortDuration.Observe(e.Duration.Seconds())
		},
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			outcome := "applied"
			switch {
			case e.Failures > 0:
				outcome = "incomplete"
			case e.Skipped:
				outcome = "skipped"
			}
			m.commits.WithLabelValues(outcome).Inc()
			m.commitDuration.Observe(e.Duration.Seconds())
		},
		OnMutation: func(_ context.Context, e *domain.MutationEvent) {
			m.mutations.WithLabelValues(string(e.Op)).Inc()
		},
		OnUnmount: func(context.Context, *domain.UnmountEvent) {
			m.unmounts.Inc()
		},
	}
}
