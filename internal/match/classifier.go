package match

import (
	"strings"

	"github.com/daviddao/permmatch/internal/types"
)

// Counts holds the keyword tallies for each scenario.
type Counts struct {
	Add    int `json:"add"`
	Remove int `json:"remove"`
	Modify int `json:"modify"`
}

// Scenario resolves the counts to a single label. A zero total or a shared
// maximum falls back to ADD.
func (c Counts) Scenario() types.Scenario {
	top := max(c.Add, c.Remove, c.Modify)
	if top == 0 {
		return types.ScenarioAdd
	}
	winners := 0
	winner := types.ScenarioAdd
	for _, v := range []struct {
		n int
		s types.Scenario
	}{{c.Add, types.ScenarioAdd}, {c.Remove, types.ScenarioRemove}, {c.Modify, types.ScenarioModify}} {
		if v.n == top {
			winners++
			winner = v.s
		}
	}
	if winners > 1 {
		return types.ScenarioAdd
	}
	return winner
}

// Classifier counts scenario keywords in message text.
type Classifier struct {
	add, remove, modify []string
	exclusions          []string
}

// NewClassifier builds a Classifier from the keyword configuration.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		add:        lowerAll(cfg.Keywords.Add),
		remove:     lowerAll(cfg.Keywords.Remove),
		modify:     lowerAll(cfg.Keywords.Modify),
		exclusions: lowerAll(cfg.Exclusions),
	}
}

// Counts tallies non-overlapping keyword occurrences after the exclusion
// phrases have been cut out.
func (c *Classifier) Counts(text string) Counts {
	lower := strings.ToLower(text)
	for _, ex := range c.exclusions {
		// A separator keeps the text on either side from fusing into a keyword.
		lower = strings.ReplaceAll(lower, ex, "\n")
	}
	return Counts{
		Add:    countAll(lower, c.add),
		Remove: countAll(lower, c.remove),
		Modify: countAll(lower, c.modify),
	}
}

// Classify returns the scenario for text. It never returns an empty label.
func (c *Classifier) Classify(text string) types.Scenario {
	return c.Counts(text).Scenario()
}

func countAll(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		n += strings.Count(text, kw)
	}
	return n
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
