// Package parser turns log input into a stream of numbered lines.
//
// Lines are read lazily and handed to a callback one at a time, so input of
// any size can be learned without holding it in memory. When message
// extraction is enabled, structured envelopes (JSON objects and syslog
// headers) are peeled off and only the free-text message is kept.
package parser

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// MaxLineSize is the longest line the reader accepts. Longer lines are
// skipped.
const MaxLineSize = 1024 * 1024 // 1MB

// Format represents the envelope a line was recognized in.
type Format string

const (
	FormatJSON   Format = "json"
	FormatSyslog Format = "syslog"
	FormatPlain  Format = "plain"
)

// Line is a single non-blank input line.
type Line struct {
	Num     int    `json:"num"`
	Raw     string `json:"raw"`
	Message string `json:"message"`
	Format  Format `json:"format"`
}

// Reader streams lines from files or readers.
type Reader struct {
	// ExtractMessage replaces Message with the payload of recognized
	// envelopes. Otherwise Message is always Raw.
	ExtractMessage bool

	logger *slog.Logger
}

// New creates a Reader.
func New(extractMessage bool) *Reader {
	return &Reader{ExtractMessage: extractMessage, logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger that reports skipped lines.
func (r *Reader) WithLogger(logger *slog.Logger) *Reader {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// StreamFile streams the lines of the file at path, or of stdin when path
// is "-".
func (r *Reader) StreamFile(ctx context.Context, path string, fn func(Line) error) error {
	if path == "-" {
		return r.Stream(ctx, os.Stdin, fn)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := r.Stream(ctx, f, fn); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Stream calls fn for every non-blank line of src, in order. Lines longer
// than MaxLineSize are skipped with a warning. It stops at the first error
// returned by fn or when ctx is cancelled.
func (r *Reader) Stream(ctx context.Context, src io.Reader, fn func(Line) error) error {
	br := bufio.NewReaderSize(src, 64*1024)

	lineNum := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, tooLong, err := readLine(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		lineNum++
		if tooLong {
			r.logger.Warn("skipping oversized line", "line", lineNum, "max_bytes", MaxLineSize)
			continue
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if err := fn(r.Parse(raw, lineNum)); err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// MaxLineSize is consumed and reported as tooLong with no text.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	started := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && started {
				break
			}
			return "", false, err
		}
		started = true
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	return string(buf), tooLong, nil
}

// Parse builds the Line for raw.
func (r *Reader) Parse(raw string, num int) Line {
	line := Line{Num: num, Raw: raw, Message: raw, Format: FormatPlain}
	if !r.ExtractMessage {
		return line
	}
	if msg, ok := jsonMessage(raw); ok {
		line.Message = msg
		line.Format = FormatJSON
		return line
	}
	if msg, ok := syslogMessage(raw); ok {
		line.Message = msg
		line.Format = FormatSyslog
	}
	return line
}

// jsonMessage returns the message field of a JSON log object.
func jsonMessage(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return "", false
	}
	for _, key := range []string{"msg", "message", "text"} {
		if v, ok := data[key].(string); ok {
			return v, true
		}
	}
	return "", false
}

// syslogHeader matches an RFC 3164 header, with optional priority and PID.
var syslogHeader = regexp.MustCompile(`^(?:<\d{1,3}>)?[A-Z][a-z]{2} [ \d]\d \d{2}:\d{2}:\d{2} \S+ [^\s:\[]+(?:\[\d+\])?: `)

// syslogMessage returns the part of a syslog line after its header.
func syslogMessage(raw string) (string, bool) {
	loc := syslogHeader.FindStringIndex(raw)
	if loc == nil {
		return "", false
	}
	return raw[loc[1]:], true
}
