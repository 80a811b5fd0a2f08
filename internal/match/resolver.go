package match

import (
	"sort"

	"go.uber.org/zap"

	"github.com/daviddao/permmatch/internal/types"
)

// Resolver picks, per employee, the most recent message with a valid match.
type Resolver struct {
	scanner    *Scanner
	classifier *Classifier
	log        *zap.Logger
}

// NewResolver builds a Resolver. A nil logger disables logging.
func NewResolver(cfg Config, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		scanner:    NewScanner(cfg),
		classifier: NewClassifier(cfg),
		log:        log,
	}
}

// Scanner returns the scanner used by the resolver.
func (r *Resolver) Scanner() *Scanner { return r.scanner }

// Classifier returns the classifier used by the resolver.
func (r *Resolver) Classifier() *Classifier { return r.classifier }

// Resolve returns the match result for one employee. msgs is not modified.
func (r *Resolver) Resolve(emp types.Employee, msgs []types.Message) types.MatchResult {
	return r.resolve(emp, ByRecency(msgs))
}

// ResolveAll returns one result per employee, in roster order.
func (r *Resolver) ResolveAll(emps []types.Employee, msgs []types.Message) []types.MatchResult {
	ordered := ByRecency(msgs)
	results := make([]types.MatchResult, 0, len(emps))
	for _, emp := range emps {
		res := r.resolve(emp, ordered)
		if res.Matched {
			r.log.Debug("employee matched",
				zap.String("employee", emp.Label()),
				zap.String("message", res.MessageRef),
				zap.String("scenario", string(res.Scenario)),
				zap.String("source", string(res.Source)))
		} else {
			r.log.Debug("employee unresolved", zap.String("employee", emp.Label()))
		}
		results = append(results, res)
	}
	return results
}

func (r *Resolver) resolve(emp types.Employee, ordered []*types.Message) types.MatchResult {
	result := types.MatchResult{Employee: emp}
	for _, msg := range ordered {
		occ := r.scanner.FindValidMatches(emp, msg)
		if len(occ) == 0 {
			continue
		}
		first := occ[0]
		result.Matched = true
		result.MessageRef = msg.Ref()
		result.MessageDate = msg.Date
		result.Scenario = r.classifier.Classify(msg.CombinedText())
		result.Source = first.Source
		result.Snippet = first.Snippet
		return result
	}
	return result
}

// ByRecency returns pointers to msgs ordered newest first. Messages without a
// date sort after dated ones; equal dates put the later container position
// first.
func ByRecency(msgs []types.Message) []*types.Message {
	ordered := make([]*types.Message, len(msgs))
	for i := range msgs {
		ordered[i] = &msgs[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Index > b.Index
	})
	return ordered
}
