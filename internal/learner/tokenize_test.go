package learner

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain words",
			line: "user alice logged in",
			want: []string{"user", "alice", "logged", "in"},
		},
		{
			name: "numbers are dropped",
			line: "request 1234 took 56 ms",
			want: []string{"request", "took", "ms"},
		},
		{
			name: "mixed alphanumerics are kept",
			line: "worker w42 started 7a",
			want: []string{"worker", "w42", "started", "7a"},
		},
		{
			name: "separators collapse",
			line: `GET /api/v1/users/17 "ok" (200) {a:b} [x,y]`,
			want: []string{"GET", "api", "v1", "users", "ok", "a", "b", "x", "y"},
		},
		{
			name: "ip address and timestamp vanish",
			line: "2024-01-02 10:11:12 connect from 10.0.0.1",
			want: []string{"2024-01-02", "connect", "from"},
		},
		{
			name: "only separators",
			line: " ,.:/()",
			want: []string{},
		},
		{
			name: "empty line",
			line: "",
			want: []string{},
		},
		{
			name: "tabs and hyphens are not separators",
			line: "a\tb c-d",
			want: []string{"a\tb", "c-d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"asdf", false},
		{"123a", false},
		{"a123", false},
		{"6789", true},
		{"", true},
		{"-1", false},
		{"1.5", false},
		{"٣٤", true},
	}

	for _, tt := range tests {
		if got := IsNumeric(tt.input); got != tt.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
