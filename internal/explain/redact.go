package explain

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"

	"github.com/zeebo/blake3"
)

// RedactionPattern is a named pattern for sensitive template tokens.
type RedactionPattern struct {
	Name  string
	Regex *regexp.Regexp
	Type  string // placeholder prefix, as in [EMAIL:hash]
}

// Template tokens are split on punctuation, so these patterns match what
// survives tokenization rather than whole addresses.
var (
	emailRegex        = regexp.MustCompile(`[a-zA-Z0-9_%+-]+@[a-zA-Z0-9-]+`)
	awsAccessKeyRegex = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
	apiKeyRegex       = regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|token|secret|password|passwd|pwd)=[a-zA-Z0-9_\-]{8,}`)
	jwtRegex          = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}`)
	macAddressRegex   = regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}-){5}[0-9A-Fa-f]{2}\b`)
	uuidRegex         = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
)

// BuiltInPatterns contains every known redaction pattern by name.
var BuiltInPatterns = map[string]RedactionPattern{
	"email":       {Name: "email", Regex: emailRegex, Type: "EMAIL"},
	"aws_key":     {Name: "aws_key", Regex: awsAccessKeyRegex, Type: "AWS_KEY"},
	"api_key":     {Name: "api_key", Regex: apiKeyRegex, Type: "SECRET"},
	"jwt":         {Name: "jwt", Regex: jwtRegex, Type: "JWT"},
	"mac_address": {Name: "mac_address", Regex: macAddressRegex, Type: "MAC"},
	"uuid":        {Name: "uuid", Regex: uuidRegex, Type: "UUID"},
}

// DefaultPatterns returns the pattern names enabled when none are configured.
func DefaultPatterns() []string {
	return []string{"email", "aws_key", "api_key", "jwt"}
}

// Redactor replaces sensitive tokens with placeholders. The same value always
// gets the same placeholder, so the model can still correlate them.
type Redactor struct {
	enabled  bool
	patterns []RedactionPattern
	hashMap  map[string]string // value -> placeholder
	mu       sync.RWMutex
}

// NewRedactor creates a Redactor for the named patterns. Unknown names are
// rejected; an empty list selects DefaultPatterns.
func NewRedactor(enabled bool, names []string) (*Redactor, error) {
	if len(names) == 0 {
		names = DefaultPatterns()
	}
	patterns := make([]RedactionPattern, 0, len(names))
	for _, name := range names {
		p, ok := BuiltInPatterns[name]
		if !ok {
			return nil, fmt.Errorf("unknown redaction pattern %q", name)
		}
		patterns = append(patterns, p)
	}
	return &Redactor{
		enabled:  enabled,
		patterns: patterns,
		hashMap:  make(map[string]string),
	}, nil
}

// Redact returns text with every sensitive match replaced.
//
//	"login by bob@example" → "login by [EMAIL:1f0c]"
func (r *Redactor) Redact(text string) string {
	if r == nil || !r.enabled {
		return text
	}
	for _, p := range r.patterns {
		text = p.Regex.ReplaceAllStringFunc(text, func(match string) string {
			return r.placeholder(match, p.Type)
		})
	}
	return text
}

// Count returns the number of distinct values redacted so far.
func (r *Redactor) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hashMap)
}

func (r *Redactor) placeholder(value, kind string) string {
	r.mu.RLock()
	p, ok := r.hashMap[value]
	r.mu.RUnlock()
	if ok {
		return p
	}

	sum := blake3.Sum256([]byte(value))
	p = fmt.Sprintf("[%s:%s]", kind, hex.EncodeToString(sum[:2]))

	r.mu.Lock()
	r.hashMap[value] = p
	r.mu.Unlock()
	return p
}
