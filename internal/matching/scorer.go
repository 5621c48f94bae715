// Package matching implements the pairing engine: the pairwise compatibility
// scorer, the top-K preview generator, the maximum-weight final assigner and
// the accept/reject/auto-confirm match lifecycle.
package matching

import (
	"fmt"

	"github.com/hilo-match/hilo/internal/config"
	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/tags"
)

// Weights are the scoring constants. Invariant: FF > AF >= AA > 0, so that
// familiar-familiar overlap dominates the aspirational pairings.
type Weights struct {
	FF    float64
	AF    float64
	AA    float64
	Trait float64
	Bound float64
}

func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		FF:    cfg.Matching.WFF,
		AF:    cfg.Matching.WAF,
		AA:    cfg.Matching.WAA,
		Trait: cfg.Matching.WTrait,
		Bound: cfg.Matching.WBound,
	}
}

// Validate enforces the weight ordering invariant.
func (w Weights) Validate() error {
	if !(w.FF > w.AF && w.AF >= w.AA && w.AA > 0) {
		return fmt.Errorf("invalid weights: need W_FF > W_AF >= W_AA > 0, got FF=%v AF=%v AA=%v",
			w.FF, w.AF, w.AA)
	}
	return nil
}

// IDFSource supplies inverse-document-frequency values for leaf tags.
// *tags.Stats is the production implementation.
type IDFSource interface {
	// IDF returns ln(N/user_count) for the tag; false when undefined.
	IDF(tag string) (float64, bool)
}

// Scorer is a pure pairwise compatibility function over two forms.
// Score is symmetric and never negative; tags failing the matchable-chain
// test and tags unseen in the population contribute nothing.
type Scorer struct {
	catalog *tags.Catalog
	idf     IDFSource
	weights Weights
}

func NewScorer(catalog *tags.Catalog, idf IDFSource, weights Weights) *Scorer {
	return &Scorer{catalog: catalog, idf: idf, weights: weights}
}

// Score combines, additively:
//   - familiar(A) ∩ familiar(B) IDF sum, weighted FF
//   - aspirational(A) ∩ familiar(B) and the mirrored term, weighted AF
//   - aspirational(A) ∩ aspirational(B) IDF sum, weighted AA
//   - ideal-trait/self-trait matches in both directions, Trait points each
//   - physical-boundary closeness: Bound * (1 - |pb(A)-pb(B)| / 3)
func (s *Scorer) Score(a, b *db.Form) float64 {
	score := 0.0

	score += s.weights.FF * s.overlapIDF(a.FamiliarTags, b.FamiliarTags)
	score += s.weights.AF * s.overlapIDF(a.AspirationalTags, b.FamiliarTags)
	score += s.weights.AF * s.overlapIDF(b.AspirationalTags, a.FamiliarTags)
	score += s.weights.AA * s.overlapIDF(a.AspirationalTags, b.AspirationalTags)

	traitMatches := countOverlap(a.IdealTraits, b.SelfTraits) + countOverlap(b.IdealTraits, a.SelfTraits)
	score += s.weights.Trait * float64(traitMatches)

	diff := a.PhysicalBoundary - b.PhysicalBoundary
	if diff < 0 {
		diff = -diff
	}
	score += s.weights.Bound * (1.0 - float64(diff)/3.0)

	return score
}

// overlapIDF sums the IDF of tags present in both sets, gated by the
// matchable chain. Tags without a defined IDF contribute zero.
func (s *Scorer) overlapIDF(setA, setB []string) float64 {
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(setB))
	for _, tag := range setB {
		inB[tag] = struct{}{}
	}

	sum := 0.0
	for _, tag := range setA {
		if _, ok := inB[tag]; !ok {
			continue
		}
		if !s.catalog.IsLeaf(tag) || !s.catalog.MatchableChain(tag) {
			continue
		}
		if idf, ok := s.idf.IDF(tag); ok {
			sum += idf
		}
	}
	return sum
}

func countOverlap(setA, setB []string) int {
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inB := make(map[string]struct{}, len(setB))
	for _, id := range setB {
		inB[id] = struct{}{}
	}
	count := 0
	for _, id := range setA {
		if _, ok := inB[id]; ok {
			count++
		}
	}
	return count
}
