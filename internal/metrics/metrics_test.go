package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	m := New()
	l := learner.New(learner.WithRecorder(m))

	for _, line := range []string{
		"alpha beta gamma delta",
		"kernel alpha beta gamma delta",
		"alpha beta gamma delta",
		"42",
	} {
		if _, err := l.Learn(line); err != nil {
			t.Fatalf("Learn(%q) error = %v", line, err)
		}
	}

	tests := []struct {
		outcome string
		want    float64
	}{
		{"created", 1},
		{"matched", 2},
		{"dropped", 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues(tt.outcome)); got != tt.want {
			t.Errorf("lines_total{outcome=%q} = %v, want %v", tt.outcome, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(m.PrependedSlotsTotal); got != 1 {
		t.Errorf("prepended_slots_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Templates); got != 1 {
		t.Errorf("templates = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AlignmentFaultsTotal); got != 0 {
		t.Errorf("alignment_faults_total = %v, want 0", got)
	}
}

func TestRecorderInteriorAlternatives(t *testing.T) {
	m := New()
	l := learner.New(learner.WithRecorder(m), learner.WithInteriorAlternatives(true))
	l.Learn("user alice logged in")
	l.Learn("user bob logged in")

	if got := testutil.ToFloat64(m.InteriorAlternativesTotal); got != 1 {
		t.Errorf("interior_alternatives_total = %v, want 1", got)
	}
}

func TestAlignmentFault(t *testing.T) {
	m := New()
	m.AlignmentFault()
	m.AlignmentFault()
	if got := testutil.ToFloat64(m.AlignmentFaultsTotal); got != 2 {
		t.Errorf("alignment_faults_total = %v, want 2", got)
	}
}

func TestRegistryExportsAllMetrics(t *testing.T) {
	m := New()
	got, err := testutil.GatherAndCount(m.Registry())
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if got != 7 {
		t.Errorf("GatherAndCount() = %d, want 7", got)
	}
}

func TestServe(t *testing.T) {
	m := New()
	m.Templates.Set(3)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.serve(ctx, ln, nil)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "clog_templates 3") {
		t.Errorf("metrics output missing clog_templates:\n%s", body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not stop")
	}
}
