package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/db"
)

// seedPreviewCohort sets up one male and three females:
//   - f1 shares hiking and jazz with m1
//   - f2 shares only hiking
//   - f3 shares nothing and sits at the far boundary, so the pair scores zero
func seedPreviewCohort(t *testing.T, gdb *gorm.DB) {
	seedEntrant(t, gdb, formSpec{id: "m1", gender: db.GenderMale,
		familiar: []string{"hiking", "jazz"}, boundary: 1})
	seedEntrant(t, gdb, formSpec{id: "f1", gender: db.GenderFemale,
		familiar: []string{"hiking", "jazz"}, boundary: 1})
	seedEntrant(t, gdb, formSpec{id: "f2", gender: db.GenderFemale,
		familiar: []string{"hiking"}, boundary: 1})
	seedEntrant(t, gdb, formSpec{id: "f3", gender: db.GenderFemale,
		familiar: []string{"chess"}, boundary: 4})
}

func loadPreview(t *testing.T, gdb *gorm.DB, userID string) *db.MatchPreview {
	t.Helper()
	var preview db.MatchPreview
	err := gdb.First(&preview, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	require.NoError(t, err)
	return &preview
}

func TestPreviewGeneratorRanksByScore(t *testing.T) {
	gdb := testDB(t)
	seedPreviewCohort(t, gdb)

	gen := NewPreviewGenerator(gdb, testCatalog(t), testWeights(), 6, testLogger())
	require.NoError(t, gen.Run(context.Background()))

	preview := loadPreview(t, gdb, "m1")
	require.NotNil(t, preview)
	assert.Equal(t, []string{"f1", "f2"}, []string(preview.CandidateIDs))
	require.Len(t, preview.Scores, 2)
	assert.Greater(t, preview.Scores[0], preview.Scores[1])

	// Zero-compatibility candidates are dropped, but the user still gets a
	// row.
	empty := loadPreview(t, gdb, "f3")
	require.NotNil(t, empty)
	assert.Empty(t, []string(empty.CandidateIDs))
}

func TestPreviewGeneratorTrimsToTopK(t *testing.T) {
	gdb := testDB(t)
	seedPreviewCohort(t, gdb)

	gen := NewPreviewGenerator(gdb, testCatalog(t), testWeights(), 1, testLogger())
	require.NoError(t, gen.Run(context.Background()))

	preview := loadPreview(t, gdb, "m1")
	require.NotNil(t, preview)
	assert.Equal(t, []string{"f1"}, []string(preview.CandidateIDs))
}

func TestPreviewGeneratorExcludesVetoedPairs(t *testing.T) {
	gdb := testDB(t)
	seedPreviewCohort(t, gdb)
	// A single direction excludes the pair for both sides.
	require.NoError(t, gdb.Create(&db.Veto{VetoerID: "f1", VetoedID: "m1"}).Error)

	gen := NewPreviewGenerator(gdb, testCatalog(t), testWeights(), 6, testLogger())
	require.NoError(t, gen.Run(context.Background()))

	assert.Equal(t, []string{"f2"}, []string(loadPreview(t, gdb, "m1").CandidateIDs))
	assert.Empty(t, []string(loadPreview(t, gdb, "f1").CandidateIDs))
}

func TestPreviewGeneratorSkipsMatchedUsers(t *testing.T) {
	gdb := testDB(t)
	seedPreviewCohort(t, gdb)
	require.NoError(t, gdb.Model(&db.User{}).
		Where("id = ?", "f1").
		Update("status", db.StatusMatched).Error)

	gen := NewPreviewGenerator(gdb, testCatalog(t), testWeights(), 6, testLogger())
	require.NoError(t, gen.Run(context.Background()))

	// f1 is out of the round: no row of her own, not offered to m1.
	assert.Nil(t, loadPreview(t, gdb, "f1"))
	assert.Equal(t, []string{"f2"}, []string(loadPreview(t, gdb, "m1").CandidateIDs))
}

func TestPreviewGeneratorIsIdempotent(t *testing.T) {
	gdb := testDB(t)
	seedPreviewCohort(t, gdb)

	gen := NewPreviewGenerator(gdb, testCatalog(t), testWeights(), 6, testLogger())
	require.NoError(t, gen.Run(context.Background()))
	first := loadPreview(t, gdb, "m1")
	require.NoError(t, gen.Run(context.Background()))
	second := loadPreview(t, gdb, "m1")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CandidateIDs, second.CandidateIDs)
	assert.Equal(t, first.Scores, second.Scores)

	var count int64
	require.NoError(t, gdb.Model(&db.MatchPreview{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)
}

func TestPreviewGeneratorEmptyPopulation(t *testing.T) {
	gdb := testDB(t)
	gen := NewPreviewGenerator(gdb, testCatalog(t), testWeights(), 6, testLogger())
	require.NoError(t, gen.Run(context.Background()))

	var count int64
	require.NoError(t, gdb.Model(&db.MatchPreview{}).Count(&count).Error)
	assert.Zero(t, count)
}
