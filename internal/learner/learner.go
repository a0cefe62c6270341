package learner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Defaults for the matching tolerances.
const (
	DefaultMinConsequentMatches = 3
	DefaultMaxNewAlternatives   = 1
)

var (
	// ErrAlignmentFault is returned when a template accepted by the matcher
	// cannot be aligned with the line while updating it. It indicates a bug.
	ErrAlignmentFault = errors.New("matched template does not align with line")

	// ErrNotSupported is returned by operations without an implementation.
	ErrNotSupported = errors.New("not supported")
)

// Outcome describes what learning a line did to the template store.
type Outcome int

const (
	// OutcomeDropped means the line had no usable tokens.
	OutcomeDropped Outcome = iota
	// OutcomeCreated means the line started a new template.
	OutcomeCreated
	// OutcomeMatched means the line was folded into an existing template.
	OutcomeMatched
)

// String returns the lower-case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeMatched:
		return "matched"
	default:
		return "dropped"
	}
}

// Result reports how a single line was learned.
type Result struct {
	// TemplateID is the created or matched template, -1 when dropped.
	TemplateID int
	Outcome    Outcome
	// Tokens is the number of tokens the line produced.
	Tokens int
	// Prepended is the number of leading slots added to a matched template.
	Prepended int
	// Alternatives is the number of interior alternatives recorded.
	Alternatives int
}

// Stats are running totals of a Learner.
type Stats struct {
	Lines     int `json:"lines" yaml:"lines" cbor:"lines"`
	Dropped   int `json:"dropped" yaml:"dropped" cbor:"dropped"`
	Created   int `json:"created" yaml:"created" cbor:"created"`
	Matched   int `json:"matched" yaml:"matched" cbor:"matched"`
	Faults    int `json:"faults" yaml:"faults" cbor:"faults"`
	Templates int `json:"templates" yaml:"templates" cbor:"templates"`
	Words     int `json:"words" yaml:"words" cbor:"words"`
}

// Recorder receives an event for every learned line. Implementations must
// be cheap; they are called with the learner's lock held.
type Recorder interface {
	LineLearned(res Result, templates int)
	AlignmentFault()
}

// Learner owns the template store and word index. It is safe for
// concurrent use; every line is matched and applied atomically.
type Learner struct {
	mu       sync.Mutex
	store    *store
	matcher  *matcher
	interior bool
	logger   *slog.Logger
	recorder Recorder
	stats    Stats
}

// Option configures a Learner.
type Option func(*Learner)

// WithMinConsequentMatches sets the minimum alignment score a line needs to
// join an existing template. Values below 1 keep the default of 3.
func WithMinConsequentMatches(n int) Option {
	return func(l *Learner) {
		if n > 0 {
			l.matcher.minConsequentMatches = n
		}
	}
}

// WithMaxNewAlternatives sets how many tokens of a line may fail to align
// before a template is rejected. Negative values keep the default of 1.
func WithMaxNewAlternatives(n int) Option {
	return func(l *Learner) {
		if n >= 0 {
			l.matcher.maxNewAlternatives = n
		}
	}
}

// WithInteriorAlternatives makes the learner record tolerated mismatches as
// new alternatives of the slots they replaced. Off by default.
func WithInteriorAlternatives(enabled bool) Option {
	return func(l *Learner) {
		l.interior = enabled
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Learner) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRecorder sets a Recorder notified about every learned line.
func WithRecorder(r Recorder) Option {
	return func(l *Learner) {
		l.recorder = r
	}
}

// New creates an empty Learner.
func New(opts ...Option) *Learner {
	s := newStore()
	l := &Learner{
		store: s,
		matcher: &matcher{
			store:                s,
			minConsequentMatches: DefaultMinConsequentMatches,
			maxNewAlternatives:   DefaultMaxNewAlternatives,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MinConsequentMatches returns the configured minimum alignment score.
func (l *Learner) MinConsequentMatches() int {
	return l.matcher.minConsequentMatches
}

// MaxNewAlternatives returns the configured mismatch tolerance.
func (l *Learner) MaxNewAlternatives() int {
	return l.matcher.maxNewAlternatives
}

// InteriorAlternatives reports whether mismatched tokens are recorded as
// slot alternatives.
func (l *Learner) InteriorAlternatives() bool {
	return l.interior
}

// Learn tokenizes line and folds it into the template store.
func (l *Learner) Learn(line string) (Result, error) {
	return l.LearnTokens(Tokenize(line))
}

// LearnTokens folds an already tokenized line into the template store.
// A non-nil error wraps ErrAlignmentFault; the line is then counted but the
// store is left unchanged.
func (l *Learner) LearnTokens(tokens []string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.Lines++
	res := Result{TemplateID: -1, Outcome: OutcomeDropped, Tokens: len(tokens)}

	if id, ok := l.matcher.bestMatch(tokens); ok {
		prepended, alts, err := l.update(tokens, id)
		if err != nil {
			l.stats.Faults++
			l.logger.Error("alignment fault while updating template",
				"template", id, "tokens", tokens, "error", err)
			if l.recorder != nil {
				l.recorder.AlignmentFault()
			}
			return res, err
		}
		t, _ := l.store.get(id)
		t.Hits++
		l.stats.Matched++
		res.TemplateID = id
		res.Outcome = OutcomeMatched
		res.Prepended = prepended
		res.Alternatives = alts
		l.logger.Debug("line matched template", "template", id, "prepended", prepended, "alternatives", alts)
	} else if id, ok := l.create(tokens); ok {
		l.stats.Created++
		res.TemplateID = id
		res.Outcome = OutcomeCreated
		l.logger.Debug("new template", "template", id, "slots", len(tokens))
	} else {
		l.stats.Dropped++
	}

	if l.recorder != nil {
		l.recorder.LineLearned(res, l.store.len())
	}
	return res, nil
}

// Match returns the template line would be folded into, without changing
// anything.
func (l *Learner) Match(line string) (int, bool) {
	return l.FindBestMatch(Tokenize(line))
}

// FindBestMatch returns the template tokens would be folded into.
func (l *Learner) FindBestMatch(tokens []string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matcher.bestMatch(tokens)
}

// Score returns the ordered alignment score of tokens against template id,
// or 0 when the template is disqualified or does not exist.
func (l *Learner) Score(tokens []string, id int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matcher.score(tokens, id)
}

// Candidates returns the templates sharing enough tokens with tokens to be
// scored.
func (l *Learner) Candidates(tokens []string) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matcher.candidates(tokens)
}

// Len returns the number of templates.
func (l *Learner) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.len()
}

// Template returns a copy of template id.
func (l *Learner) Template(id int) (Template, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.store.get(id)
	if !ok {
		return Template{}, false
	}
	return t.clone(), true
}

// Templates returns copies of all templates ordered by ID.
func (l *Learner) Templates() []Template {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Template, len(l.store.templates))
	for i, t := range l.store.templates {
		out[i] = t.clone()
	}
	return out
}

// ContainsToken reports whether any slot of template id contains token.
func (l *Learner) ContainsToken(id int, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.containsToken(id, token)
}

// Lookup returns the sorted IDs of templates containing token.
func (l *Learner) Lookup(token string) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.store.index.lookup(token)...)
}

// IndexEntries returns the word index ordered by token.
func (l *Learner) IndexEntries() []IndexEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.index.snapshot()
}

// Stats returns the running totals.
func (l *Learner) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.stats
	s.Templates = l.store.len()
	s.Words = l.store.index.len()
	return s
}

// SaveState would persist the learned state. There is no on-disk format
// yet, so it always fails with ErrNotSupported.
func (l *Learner) SaveState(w io.Writer) error {
	return fmt.Errorf("save learner state: %w", ErrNotSupported)
}

// LoadState would restore a persisted state. It always fails with
// ErrNotSupported.
func (l *Learner) LoadState(r io.Reader) error {
	return fmt.Errorf("load learner state: %w", ErrNotSupported)
}
