// Package learner incrementally learns log line templates.
//
// Each incoming line is split into tokens and compared against the templates
// learned so far. A template is an ordered list of slots; every slot holds the
// alternative tokens seen at that position. Lines that align with an existing
// template in order (tolerating a configurable number of unknown tokens) are
// folded into it, anything else starts a new template.
//
// An inverted word index maps every token to the templates containing it, so
// only templates sharing enough tokens with a line are ever scored.
//
// Basic usage:
//
//	l := learner.New(
//	    learner.WithMinConsequentMatches(3),
//	    learner.WithMaxNewAlternatives(1),
//	)
//	for _, line := range lines {
//	    if _, err := l.Learn(line); err != nil {
//	        return err
//	    }
//	}
//	for _, t := range l.Templates() {
//	    fmt.Println(t.ID, t.Pattern())
//	}
//
// Learning is greedy and single pass: the order of the input decides which
// templates form.
package learner
