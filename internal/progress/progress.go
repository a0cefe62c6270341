// Package progress reports learning progress through a logger.
package progress

import (
	"log/slog"
	"time"

	"github.com/bimmerbailey/clog/internal/learner"
)

// Source provides the running totals being reported.
type Source interface {
	Stats() learner.Stats
}

// Reporter logs a progress record every Interval lines. It is not safe for
// concurrent use; call it from the goroutine that feeds the learner.
type Reporter struct {
	source   Source
	logger   *slog.Logger
	interval int
	lines    int
	start    time.Time
	now      func() time.Time
}

// New creates a Reporter. An interval of 0 disables the periodic records but
// Done still logs the totals.
func New(source Source, logger *slog.Logger, interval int) *Reporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Reporter{
		source:   source,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
	r.start = r.now()
	return r
}

// Line counts one processed line.
func (r *Reporter) Line() {
	r.lines++
	if r.interval > 0 && r.lines%r.interval == 0 {
		s := r.source.Stats()
		r.logger.Info("learning",
			"lines", r.lines,
			"templates", s.Templates,
			"rate", r.rate())
	}
}

// Done logs the final totals. Seen counts the lines passed to Line, lines
// counts everything the learner has taken in.
func (r *Reporter) Done() {
	s := r.source.Stats()
	r.logger.Info("learning finished",
		"seen", r.lines,
		"lines", s.Lines,
		"templates", s.Templates,
		"words", s.Words,
		"created", s.Created,
		"matched", s.Matched,
		"dropped", s.Dropped,
		"faults", s.Faults,
		"rate", r.rate(),
		"elapsed", r.now().Sub(r.start).Round(time.Millisecond))
}

// rate returns lines per second since the reporter was created.
func (r *Reporter) rate() float64 {
	elapsed := r.now().Sub(r.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.lines) / elapsed
}
