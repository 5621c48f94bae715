package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/tags"
)

// PreviewGenerator computes each eligible user's top-K candidates from the
// opposite cohort and persists them.
//
// Statistics are computed over the full submitted-form snapshot so
// previously matched users keep stable IDF values, but preview rows are only
// written for form_completed users. Each user's row is replaced in a single
// upsert, so readers always observe an atomic per-user list. Running twice
// over unchanged inputs persists identical output.
type PreviewGenerator struct {
	db      *gorm.DB
	catalog *tags.Catalog
	weights Weights
	topK    int
	log     *slog.Logger
}

func NewPreviewGenerator(gdb *gorm.DB, catalog *tags.Catalog, weights Weights, topK int, log *slog.Logger) *PreviewGenerator {
	return &PreviewGenerator{db: gdb, catalog: catalog, weights: weights, topK: topK, log: log}
}

type candidate struct {
	id    string
	score float64
}

// Run regenerates previews for every form_completed user.
func (g *PreviewGenerator) Run(ctx context.Context) error {
	snapshot, err := loadSnapshot(ctx, g.db)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		g.log.Debug("no submitted forms, skipping preview generation")
		return nil
	}

	stats := tags.ComputeStats(taggedForms(snapshot), g.catalog)
	scorer := NewScorer(g.catalog, stats, g.weights)

	excluded, err := loadExclusions(ctx, g.db)
	if err != nil {
		return err
	}

	males, females := partitionByGender(eligible(snapshot))
	cohortOf := map[db.Gender][]entrant{
		db.GenderMale:   males,
		db.GenderFemale: females,
	}

	written := 0
	for _, cohort := range [][]entrant{males, females} {
		for _, u := range cohort {
			candidates := g.rankCandidates(scorer, u, cohortOf[u.form.Gender.Opposite()], excluded)
			if err := g.storePreview(ctx, u.user.ID, candidates); err != nil {
				return err
			}
			written++
		}
	}

	g.log.Debug("preview generation completed",
		"users", written, "population", stats.Population())
	return nil
}

// rankCandidates scores u against every non-excluded candidate and keeps the
// top K with positive score, ordered by descending score with the candidate
// ID as tie-break.
func (g *PreviewGenerator) rankCandidates(scorer *Scorer, u entrant, opposite []entrant, excluded pairSet) []candidate {
	var ranked []candidate
	for _, v := range opposite {
		if excluded.contains(u.user.ID, v.user.ID) {
			continue
		}
		if score := scorer.Score(&u.form, &v.form); score > 0 {
			ranked = append(ranked, candidate{id: v.user.ID, score: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	if len(ranked) > g.topK {
		ranked = ranked[:g.topK]
	}
	return ranked
}

// storePreview replaces the user's preview row. Users with no qualifying
// candidates get an empty row.
func (g *PreviewGenerator) storePreview(ctx context.Context, userID string, candidates []candidate) error {
	ids := make([]string, len(candidates))
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
		scores[i] = c.score
	}

	preview := db.MatchPreview{
		UserID:       userID,
		CandidateIDs: datatypes.NewJSONSlice(ids),
		Scores:       datatypes.NewJSONSlice(scores),
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"candidate_ids", "scores", "updated_at"}),
		}).
		Create(&preview).Error
	if err != nil {
		return fmt.Errorf("store preview for user %s: %w", userID, err)
	}
	return nil
}
