// Package metrics exposes learning progress as Prometheus metrics.
//
// Metrics live on a private registry so several learners (and tests) can
// coexist in one process. A Metrics value is a learner.Recorder and is
// passed to the learner with learner.WithRecorder.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clog"

// Metrics holds the learner metrics.
type Metrics struct {
	registry *prometheus.Registry

	// LinesTotal counts learned lines. Labels: outcome (created, matched, dropped)
	LinesTotal *prometheus.CounterVec

	// PrependedSlotsTotal counts slots added to the front of templates.
	PrependedSlotsTotal prometheus.Counter

	// InteriorAlternativesTotal counts alternatives added inside templates.
	InteriorAlternativesTotal prometheus.Counter

	// AlignmentFaultsTotal counts matched templates that failed to align.
	AlignmentFaultsTotal prometheus.Counter

	// Templates is the current number of templates.
	Templates prometheus.Gauge
}

var _ learner.Recorder = (*Metrics)(nil)

// New creates the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		LinesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Lines learned, by outcome.",
		}, []string{"outcome"}),
		PrependedSlotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prepended_slots_total",
			Help:      "Slots prepended to existing templates.",
		}),
		InteriorAlternativesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interior_alternatives_total",
			Help:      "Alternatives recorded inside existing templates.",
		}),
		AlignmentFaultsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alignment_faults_total",
			Help:      "Matched templates that could not be aligned with the line.",
		}),
		Templates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "templates",
			Help:      "Number of learned templates.",
		}),
	}

	// Pre-create the outcome series so they are exported as zero.
	for _, o := range []learner.Outcome{learner.OutcomeCreated, learner.OutcomeMatched, learner.OutcomeDropped} {
		m.LinesTotal.WithLabelValues(o.String())
	}
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// LineLearned implements learner.Recorder.
func (m *Metrics) LineLearned(res learner.Result, templates int) {
	m.LinesTotal.WithLabelValues(res.Outcome.String()).Inc()
	if res.Prepended > 0 {
		m.PrependedSlotsTotal.Add(float64(res.Prepended))
	}
	if res.Alternatives > 0 {
		m.InteriorAlternativesTotal.Add(float64(res.Alternatives))
	}
	m.Templates.Set(float64(templates))
}

// AlignmentFault implements learner.Recorder.
func (m *Metrics) AlignmentFault() {
	m.AlignmentFaultsTotal.Inc()
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return m.serve(ctx, ln, logger)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
