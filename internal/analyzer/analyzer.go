// Package analyzer summarizes learned templates: how well they cover the
// input, how they are distributed, and which ones dominate.
package analyzer

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/bimmerbailey/clog/internal/output"
)

// Stats holds aggregate statistics for a set of templates.
type Stats struct {
	TotalLines    int             `json:"total_lines" yaml:"total_lines"`
	LearnedLines  int             `json:"learned_lines" yaml:"learned_lines"`
	DroppedLines  int             `json:"dropped_lines" yaml:"dropped_lines"`
	Templates     int             `json:"templates" yaml:"templates"`
	Words         int             `json:"words" yaml:"words"`
	Coverage      float64         `json:"coverage" yaml:"coverage"` // share of learned lines that matched an existing template
	Singletons    int             `json:"singletons" yaml:"singletons"`
	MeanSlots     float64         `json:"mean_slots" yaml:"mean_slots"`
	MaxSlots      int             `json:"max_slots" yaml:"max_slots"`
	VariableSlots int             `json:"variable_slots" yaml:"variable_slots"` // slots holding more than one alternative
	TopTemplates  []TemplateCount `json:"top_templates,omitempty" yaml:"top_templates,omitempty"`
}

// TemplateCount tracks a template and how many lines it absorbed.
type TemplateCount struct {
	ID      int     `json:"id" yaml:"id"`
	Hits    int     `json:"hits" yaml:"hits"`
	Percent float64 `json:"percent" yaml:"percent"`
	Pattern string  `json:"pattern" yaml:"pattern"`
}

// GroupedResult represents templates grouped by slot count.
type GroupedResult struct {
	Slots     int     `json:"slots" yaml:"slots"`
	Templates int     `json:"templates" yaml:"templates"`
	Hits      int     `json:"hits" yaml:"hits"`
	Percent   float64 `json:"percent" yaml:"percent"` // share of all hits
}

// Analyzer performs analysis on snapshots.
type Analyzer struct{}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ComputeStats calculates aggregate statistics for s and its topN busiest
// templates.
func (a *Analyzer) ComputeStats(s *output.Snapshot, topN int) Stats {
	stats := Stats{
		TotalLines:   s.Stats.Lines,
		LearnedLines: s.Stats.Created + s.Stats.Matched,
		DroppedLines: s.Stats.Dropped,
		Templates:    len(s.Templates),
		Words:        len(s.Index),
	}
	if stats.LearnedLines > 0 {
		stats.Coverage = float64(s.Stats.Matched) / float64(stats.LearnedLines)
	}
	if len(s.Templates) == 0 {
		return stats
	}

	totalSlots := 0
	for _, t := range s.Templates {
		if t.Hits == 1 {
			stats.Singletons++
		}
		totalSlots += len(t.Slots)
		if len(t.Slots) > stats.MaxSlots {
			stats.MaxSlots = len(t.Slots)
		}
		for _, slot := range t.Slots {
			if len(slot) > 1 {
				stats.VariableSlots++
			}
		}
	}
	stats.MeanSlots = float64(totalSlots) / float64(len(s.Templates))
	stats.TopTemplates = topTemplates(s.Templates, totalHits(s.Templates), topN)

	return stats
}

// topTemplates returns the n templates with the most hits. Ties keep the
// lower ID first.
func topTemplates(templates []output.TemplateRecord, total, n int) []TemplateCount {
	counts := make([]TemplateCount, 0, len(templates))
	for _, t := range templates {
		tc := TemplateCount{ID: t.ID, Hits: t.Hits, Pattern: t.Pattern}
		if total > 0 {
			tc.Percent = float64(t.Hits) * 100 / float64(total)
		}
		counts = append(counts, tc)
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Hits > counts[j].Hits
	})

	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func totalHits(templates []output.TemplateRecord) int {
	total := 0
	for _, t := range templates {
		total += t.Hits
	}
	return total
}

// GroupBySlotCount groups templates by their number of slots, shortest
// first.
func (a *Analyzer) GroupBySlotCount(s *output.Snapshot) []GroupedResult {
	if len(s.Templates) == 0 {
		return nil
	}

	groups := make(map[int]*GroupedResult)
	for _, t := range s.Templates {
		g, ok := groups[len(t.Slots)]
		if !ok {
			g = &GroupedResult{Slots: len(t.Slots)}
			groups[len(t.Slots)] = g
		}
		g.Templates++
		g.Hits += t.Hits
	}

	total := totalHits(s.Templates)
	result := make([]GroupedResult, 0, len(groups))
	for _, g := range groups {
		if total > 0 {
			g.Percent = float64(g.Hits) * 100 / float64(total)
		}
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Slots < result[j].Slots
	})
	return result
}

// FilterOptions defines the criteria for filtering templates.
type FilterOptions struct {
	Pattern string // regular expression matched against the rendered pattern
	MinHits int
	Invert  bool // keep templates whose pattern does not match
}

// Filter returns the templates of s matching opts, in ID order.
func (a *Analyzer) Filter(s *output.Snapshot, opts FilterOptions) ([]output.TemplateRecord, error) {
	var re *regexp.Regexp
	if opts.Pattern != "" {
		var err error
		re, err = regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	var result []output.TemplateRecord
	for _, t := range s.Templates {
		if t.Hits < opts.MinHits {
			continue
		}
		if re != nil {
			matched := re.MatchString(t.Pattern)
			if opts.Invert {
				matched = !matched
			}
			if !matched {
				continue
			}
		}
		result = append(result, t)
	}
	return result, nil
}
