package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/clog/internal/output"
	"github.com/spf13/viper"
)

func TestFollowNoFollow(t *testing.T) {
	viper.Reset()

	file := writeTempFile(t, t.TempDir(), "app.log", []string{"aaa bbb ccc", "aaa zzz", "unrelated words here"})

	var out bytes.Buffer
	cmd := newTestCmd(&out, addFollowFlags)
	setFlag(t, cmd, "from-start", "true")
	setFlag(t, cmd, "no-follow", "true")
	setFlag(t, cmd, "pattern", "^aaa")
	if err := runFollow(cmd, []string{file}); err != nil {
		t.Fatalf("runFollow() error = %v", err)
	}

	want := `[["aaa"], ["bbb"], ["ccc"]]
[["aaa"], ["zzz"]]
`
	if !strings.HasPrefix(out.String(), want) {
		t.Errorf("output =\n%s\nwant prefix\n%s", out.String(), want)
	}
	if strings.Contains(out.String(), "unrelated") {
		t.Errorf("filtered line was learned:\n%s", out.String())
	}
}

func TestFollowForDuration(t *testing.T) {
	viper.Reset()
	viper.Set("format", "json")

	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", sampleLines)
	dump := filepath.Join(dir, "out.cbor")

	var out bytes.Buffer
	cmd := newTestCmd(&out, addFollowFlags)
	setFlag(t, cmd, "from-start", "true")
	setFlag(t, cmd, "for", "200ms")
	setFlag(t, cmd, "out", dump)

	start := time.Now()
	if err := runFollow(cmd, []string{file}); err != nil {
		t.Fatalf("runFollow() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("runFollow() returned after %v, want at least 200ms", elapsed)
	}

	snap, err := output.ReadSnapshotFile(dump)
	if err != nil {
		t.Fatalf("ReadSnapshotFile() error = %v", err)
	}
	if len(snap.Templates) != 3 || snap.Stats.Lines != 9 {
		t.Errorf("dump has %d templates and %d lines, want 3 and 9", len(snap.Templates), snap.Stats.Lines)
	}
	if !strings.Contains(out.String(), `"templates"`) {
		t.Errorf("expected JSON snapshot on stdout, got:\n%s", out.String())
	}
}

func TestFollowErrors(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", sampleLines)

	tests := []struct {
		name    string
		flags   map[string]string
		path    string
		wantErr string
	}{
		{"missing file", nil, filepath.Join(dir, "missing.log"), "file does not exist"},
		{"bad pattern", map[string]string{"pattern": "("}, file, "invalid pattern"},
		{"bad duration", map[string]string{"for": "soon"}, file, "invalid --for"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newTestCmd(&out, addFollowFlags)
			for name, value := range tt.flags {
				setFlag(t, cmd, name, value)
			}
			err := runFollow(cmd, []string{tt.path})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("runFollow() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
