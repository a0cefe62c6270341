// Package tail follows a growing log file and feeds its lines to a callback.
//
// It implements "tail -f" like functionality with optional pattern
// filtering and log rotation handling, so templates can be learned from a
// live log.
package tail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bimmerbailey/clog/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// ErrRotated is returned when the followed file is rotated away and
// FollowRotate is off.
var ErrRotated = errors.New("file rotated")

// Options configures the follower.
type Options struct {
	FilePath     string                  // Path to the log file
	Lines        int                     // Number of existing trailing lines to emit first
	FromStart    bool                    // Emit the whole existing file instead of Lines
	Follow       bool                    // Whether to follow the file for new content
	FollowRotate bool                    // Whether to follow through log rotations
	Pattern      *regexp.Regexp          // Optional regex pattern to filter lines
	Reader       *parser.Reader          // Builds lines; nil uses a plain reader
	OnLine       func(parser.Line) error // Called for each matching line
	Logger       *slog.Logger
}

// Tailer follows a single file.
type Tailer struct {
	opts    Options
	reader  *parser.Reader
	logger  *slog.Logger
	file    *os.File
	offset  int64
	lineNum int
	watcher *fsnotify.Watcher
}

// New creates a new Tailer with the given options.
func New(opts Options) *Tailer {
	reader := opts.Reader
	if reader == nil {
		reader = parser.New(false)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tailer{opts: opts, reader: reader, logger: logger}
}

// Run emits the existing lines and, when following, every appended line.
// It blocks until ctx is cancelled or an error occurs.
func (t *Tailer) Run(ctx context.Context) error {
	f, err := os.Open(t.opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	t.file = f
	defer t.close()

	switch {
	case t.opts.FromStart:
		if t.opts.Follow {
			err = t.readNewContent()
		} else {
			err = t.readAll(ctx)
		}
	case t.opts.Lines > 0:
		err = t.readInitialLines(ctx)
	default:
		t.offset, err = t.file.Seek(0, io.SeekEnd)
	}
	if err != nil {
		return fmt.Errorf("failed to read initial lines: %w", err)
	}

	if !t.opts.Follow {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	t.watcher = watcher
	if err := watcher.Add(t.opts.FilePath); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	return t.watch(ctx)
}

// readAll emits every line of the file, including an unterminated last one.
func (t *Tailer) readAll(ctx context.Context) error {
	return t.reader.Stream(ctx, t.file, t.emitLine)
}

// readInitialLines emits the last Lines lines of the file and leaves the
// offset at its end.
func (t *Tailer) readInitialLines(ctx context.Context) error {
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	fileSize := stat.Size()
	if fileSize == 0 {
		return nil
	}

	// Assume lines of about 300 bytes, doubled to leave room for long ones.
	startPos := fileSize - int64(t.opts.Lines*300*2)
	if startPos < 0 {
		startPos = 0
	}
	if _, err := t.file.Seek(startPos, io.SeekStart); err != nil {
		return err
	}

	var tail []string
	err = t.reader.Stream(ctx, t.file, func(line parser.Line) error {
		// Not at the start: the first line is partial.
		if startPos > 0 && line.Num == 1 {
			return nil
		}
		tail = append(tail, line.Raw)
		return nil
	})
	if err != nil {
		return err
	}
	if len(tail) > t.opts.Lines {
		tail = tail[len(tail)-t.opts.Lines:]
	}

	for _, raw := range tail {
		t.lineNum++
		if err := t.emit(raw); err != nil {
			return err
		}
	}

	t.offset, err = t.file.Seek(0, io.SeekEnd)
	return err
}

// watch monitors the file for changes and emits new lines.
func (t *Tailer) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-t.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if err := t.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a file system event.
func (t *Tailer) handleEvent(ctx context.Context, event fsnotify.Event) error {
	switch {
	case event.Has(fsnotify.Write):
		return t.readNewContent()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return t.handleRotation(ctx)
	}
	return nil
}

// readNewContent emits the complete lines written since the last read. An
// unterminated last line is left for the next write.
func (t *Tailer) readNewContent() error {
	if t.file == nil {
		return nil
	}
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() < t.offset {
		t.logger.Info("file truncated, reading from the start", "path", t.opts.FilePath)
		t.offset = 0
	}
	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	br := bufio.NewReader(t.file)
	for {
		chunk, err := br.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		t.offset += int64(len(chunk))
		t.lineNum++
		line := strings.TrimRight(chunk, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) > parser.MaxLineSize {
			t.logger.Warn("skipping oversized line", "line", t.lineNum, "max_bytes", parser.MaxLineSize)
			continue
		}
		if err := t.emit(line); err != nil {
			return err
		}
	}
}

// handleRotation waits for a rotated file to reappear and re-opens it.
func (t *Tailer) handleRotation(ctx context.Context) error {
	if !t.opts.FollowRotate {
		t.logger.Warn("file rotated, stopping", "path", t.opts.FilePath)
		return ErrRotated
	}

	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file to reappear")
		case <-ticker.C:
			f, err := os.Open(t.opts.FilePath)
			if err != nil {
				continue
			}
			t.file = f
			t.offset = 0
			if err := t.watcher.Add(t.opts.FilePath); err != nil {
				return fmt.Errorf("failed to watch rotated file: %w", err)
			}
			t.logger.Info("file rotated, following new file", "path", t.opts.FilePath)
			return t.readNewContent()
		}
	}
}

// emitLine passes a line built by the reader through the filter.
func (t *Tailer) emitLine(line parser.Line) error {
	t.lineNum = line.Num
	if !t.shouldEmit(line.Raw) {
		return nil
	}
	return t.opts.OnLine(line)
}

// emit builds the line for raw at the current line number.
func (t *Tailer) emit(raw string) error {
	if !t.shouldEmit(raw) {
		return nil
	}
	return t.opts.OnLine(t.reader.Parse(raw, t.lineNum))
}

// shouldEmit checks if a raw line passes the pattern filter.
func (t *Tailer) shouldEmit(raw string) bool {
	return t.opts.Pattern == nil || t.opts.Pattern.MatchString(raw)
}

// close closes all resources.
func (t *Tailer) close() {
	if t.file != nil {
		t.file.Close()
	}
	if t.watcher != nil {
		t.watcher.Close()
	}
}
