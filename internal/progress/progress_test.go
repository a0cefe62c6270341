package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/clog/internal/learner"
)

type fixedSource struct {
	stats learner.Stats
}

func (s fixedSource) Stats() learner.Stats { return s.stats }

func newTestReporter(interval int) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	r := New(fixedSource{learner.Stats{Lines: 5, Templates: 2, Words: 7}}, logger, interval)

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.start = clock
	r.now = func() time.Time { return clock.Add(2 * time.Second) }
	return r, &buf
}

func TestReporterInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		lines    int
		want     int
	}{
		{"every line", 1, 3, 3},
		{"every second line", 2, 5, 2},
		{"interval not reached", 10, 9, 0},
		{"disabled", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, buf := newTestReporter(tt.interval)
			for i := 0; i < tt.lines; i++ {
				r.Line()
			}
			if got := strings.Count(buf.String(), "msg=learning "); got != tt.want {
				t.Errorf("got %d progress records, want %d:\n%s", got, tt.want, buf.String())
			}
			if r.lines != tt.lines {
				t.Errorf("lines = %d, want %d", r.lines, tt.lines)
			}
		})
	}
}

func TestReporterRecordFields(t *testing.T) {
	r, buf := newTestReporter(4)
	for i := 0; i < 4; i++ {
		r.Line()
	}
	out := buf.String()
	for _, want := range []string{"lines=4", "templates=2", "rate=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("progress record missing %q:\n%s", want, out)
		}
	}
}

func TestReporterDone(t *testing.T) {
	r, buf := newTestReporter(0)
	for i := 0; i < 3; i++ {
		r.Line()
	}
	r.Done()

	out := buf.String()
	for _, want := range []string{`msg="learning finished"`, "seen=3", "lines=5", "templates=2", "words=7", "rate=1.5", "elapsed=2s"} {
		if !strings.Contains(out, want) {
			t.Errorf("final record missing %q:\n%s", want, out)
		}
	}
}
