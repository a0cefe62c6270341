package output

import (
	"time"

	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/google/uuid"
)

// Snapshot is a point-in-time export of a learner, suitable for printing or
// writing to a dump file. It is not a restorable learner state.
type Snapshot struct {
	RunID       string               `json:"run_id" yaml:"run_id" cbor:"run_id"`
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at" cbor:"generated_at"`
	Settings    Settings             `json:"settings" yaml:"settings" cbor:"settings"`
	Stats       learner.Stats        `json:"stats" yaml:"stats" cbor:"stats"`
	Templates   []TemplateRecord     `json:"templates" yaml:"templates" cbor:"templates"`
	Index       []learner.IndexEntry `json:"index" yaml:"index" cbor:"index"`
}

// Settings records the tolerances the templates were learned with.
type Settings struct {
	MinConsequentMatches int  `json:"min_consequent_matches" yaml:"min_consequent_matches" cbor:"min_consequent_matches"`
	MaxNewAlternatives   int  `json:"max_new_alternatives" yaml:"max_new_alternatives" cbor:"max_new_alternatives"`
	InteriorAlternatives bool `json:"interior_alternatives" yaml:"interior_alternatives" cbor:"interior_alternatives"`
}

// TemplateRecord is a template as it appears in a snapshot.
type TemplateRecord struct {
	ID          int            `json:"id" yaml:"id" cbor:"id"`
	Hits        int            `json:"hits" yaml:"hits" cbor:"hits"`
	Fingerprint string         `json:"fingerprint" yaml:"fingerprint" cbor:"fingerprint"`
	Pattern     string         `json:"pattern" yaml:"pattern" cbor:"pattern"`
	Slots       []learner.Slot `json:"slots" yaml:"slots" cbor:"slots"`
}

// NewSnapshot captures the current templates and index of l.
func NewSnapshot(l *learner.Learner) *Snapshot {
	templates := l.Templates()
	records := make([]TemplateRecord, len(templates))
	for i, t := range templates {
		records[i] = TemplateRecord{
			ID:          t.ID,
			Hits:        t.Hits,
			Fingerprint: Fingerprint(t.Slots),
			Pattern:     t.Pattern(),
			Slots:       t.Slots,
		}
	}

	return &Snapshot{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Settings: Settings{
			MinConsequentMatches: l.MinConsequentMatches(),
			MaxNewAlternatives:   l.MaxNewAlternatives(),
			InteriorAlternatives: l.InteriorAlternatives(),
		},
		Stats:     l.Stats(),
		Templates: records,
		Index:     l.IndexEntries(),
	}
}
