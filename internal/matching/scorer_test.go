package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/hilo-match/hilo/internal/db"
)

// stubIDF lets tests pin exact IDF values per tag.
type stubIDF map[string]float64

func (s stubIDF) IDF(tag string) (float64, bool) {
	v, ok := s[tag]
	return v, ok
}

func testForm(familiar, aspirational, selfTraits, idealTraits []string, boundary int16) *db.Form {
	return &db.Form{
		FamiliarTags:     datatypes.NewJSONSlice(familiar),
		AspirationalTags: datatypes.NewJSONSlice(aspirational),
		SelfTraits:       datatypes.NewJSONSlice(selfTraits),
		IdealTraits:      datatypes.NewJSONSlice(idealTraits),
		PhysicalBoundary: boundary,
	}
}

func TestScoreCombinesAllComponents(t *testing.T) {
	scorer := NewScorer(testCatalog(t), stubIDF{"hiking": 1, "jazz": 1}, testWeights())

	a := testForm(
		[]string{"hiking", "jazz"}, nil,
		[]string{"calm"}, []string{"humorous"}, 3)
	b := testForm(
		[]string{"hiking"}, []string{"jazz"},
		[]string{"humorous"}, []string{"calm"}, 3)

	// FF: hiking shared familiar        -> 3 * 1
	// AF: jazz aspirational(B)/fam(A)   -> 2 * 1
	// Traits: both directions match     -> 1 * 2
	// Boundary: identical               -> 2 * (1 - 0/3)
	assert.InDelta(t, 9.0, scorer.Score(a, b), 1e-9)
}

func TestScoreIsSymmetric(t *testing.T) {
	scorer := NewScorer(testCatalog(t), stubIDF{"hiking": 0.7, "jazz": 1.3, "soccer": 0.4}, testWeights())

	a := testForm([]string{"hiking", "soccer"}, []string{"jazz"}, []string{"calm"}, []string{"humorous"}, 1)
	b := testForm([]string{"jazz"}, []string{"hiking"}, []string{"humorous"}, nil, 4)

	assert.InDelta(t, scorer.Score(a, b), scorer.Score(b, a), 1e-9)
}

func TestScoreBoundaryCloseness(t *testing.T) {
	scorer := NewScorer(testCatalog(t), stubIDF{}, testWeights())

	at := func(pa, pb int16) float64 {
		return scorer.Score(testForm(nil, nil, nil, nil, pa), testForm(nil, nil, nil, nil, pb))
	}

	// Only the boundary term fires: Bound * (1 - diff/3).
	assert.InDelta(t, 2.0, at(2, 2), 1e-9)
	assert.InDelta(t, 2.0*(1-1.0/3), at(2, 3), 1e-9)
	assert.InDelta(t, 0.0, at(1, 4), 1e-9)
}

func TestScoreSkipsNonScoringTags(t *testing.T) {
	scorer := NewScorer(testCatalog(t), stubIDF{
		"campus_politics": 5,
		"outdoors":        5,
		"chess":           5, // defined IDF but absent from the stub below
		"hiking":          1,
	}, testWeights())

	// campus_politics fails the matchable chain, outdoors is not a leaf.
	a := testForm([]string{"campus_politics", "outdoors", "hiking"}, nil, nil, nil, 2)
	b := testForm([]string{"campus_politics", "outdoors", "hiking"}, nil, nil, nil, 2)

	// Only hiking scores: FF 3*1, boundary 2.
	assert.InDelta(t, 5.0, scorer.Score(a, b), 1e-9)
}

func TestScoreUndefinedIDFContributesNothing(t *testing.T) {
	scorer := NewScorer(testCatalog(t), stubIDF{}, testWeights())

	a := testForm([]string{"hiking"}, nil, nil, nil, 2)
	b := testForm([]string{"hiking"}, nil, nil, nil, 2)

	assert.InDelta(t, 2.0, scorer.Score(a, b), 1e-9)
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, testWeights().Validate())

	bad := testWeights()
	bad.AF = bad.FF // FF must strictly dominate
	assert.Error(t, bad.Validate())

	bad = testWeights()
	bad.AA = 0
	assert.Error(t, bad.Validate())
}
