package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/tags"
)

// forbiddenScore marks vetoed pairs in the weight matrix. It is finite so
// the solver's arithmetic stays well-defined, and large enough in magnitude
// that any set of real edges beats any assignment touching a forbidden one
// at the population sizes this engine targets.
const forbiddenScore = -1e9

// AssignedPair is one emitted match, in canonical order (UserAID < UserBID).
type AssignedPair struct {
	UserAID string
	UserBID string
	Score   float64
}

// FinalAssigner produces the globally optimal disjoint pairing over eligible
// unvetoed pairs and promotes the matched users, all inside one transaction.
type FinalAssigner struct {
	db      *gorm.DB
	catalog *tags.Catalog
	weights Weights
	log     *slog.Logger
}

func NewFinalAssigner(gdb *gorm.DB, catalog *tags.Catalog, weights Weights, log *slog.Logger) *FinalAssigner {
	return &FinalAssigner{db: gdb, catalog: catalog, weights: weights, log: log}
}

// Run executes a full assignment round and returns the number of matches
// created. All mutations (match rows, status promotions, preview and veto
// cleanup) commit together or not at all.
func (a *FinalAssigner) Run(ctx context.Context) (int, error) {
	var created int
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pairs, err := a.compute(ctx, tx)
		if err != nil {
			return err
		}

		for _, p := range pairs {
			match := db.FinalMatch{
				UserAID: p.UserAID,
				UserBID: p.UserBID,
				Score:   p.Score,
			}
			if err := tx.Create(&match).Error; err != nil {
				return fmt.Errorf("create final match: %w", err)
			}
			err := tx.Model(&db.User{}).
				Where("id IN ? AND status = ?", []string{p.UserAID, p.UserBID}, db.StatusFormCompleted).
				Update("status", db.StatusMatched).Error
			if err != nil {
				return fmt.Errorf("promote matched users: %w", err)
			}
		}

		// Previews and vetoes belong to the finished round.
		if err := tx.Where("1 = 1").Delete(&db.MatchPreview{}).Error; err != nil {
			return fmt.Errorf("clear previews: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&db.Veto{}).Error; err != nil {
			return fmt.Errorf("clear vetoes: %w", err)
		}

		created = len(pairs)
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.log.Info("final assignment completed", "matches_created", created)
	return created, nil
}

// DryRun computes the assignment without mutating anything.
func (a *FinalAssigner) DryRun(ctx context.Context) ([]AssignedPair, error) {
	return a.compute(ctx, a.db)
}

// compute builds the padded weight matrix over the eligible cohorts and
// solves the maximum-weight bipartite matching. Pairs with non-positive
// weight are dropped: dummy columns from padding and zero-compatibility
// pairs both fall out here.
func (a *FinalAssigner) compute(ctx context.Context, tx *gorm.DB) ([]AssignedPair, error) {
	snapshot, err := loadSnapshot(ctx, tx)
	if err != nil {
		return nil, err
	}

	males, females := partitionByGender(eligible(snapshot))
	if len(males) == 0 || len(females) == 0 {
		a.log.Info("cannot match: need at least one user of each gender",
			"males", len(males), "females", len(females))
		return nil, nil
	}

	stats := tags.ComputeStats(taggedForms(snapshot), a.catalog)
	scorer := NewScorer(a.catalog, stats, a.weights)

	excluded, err := loadExclusions(ctx, tx)
	if err != nil {
		return nil, err
	}

	// Square matrix padded with zero-weight dummy edges; assignment to a
	// dummy node means "unmatched".
	n := max(len(males), len(females))
	weights := make([][]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
	}
	for i, m := range males {
		for j, f := range females {
			if excluded.contains(m.user.ID, f.user.ID) {
				weights[i][j] = forbiddenScore
				continue
			}
			weights[i][j] = scorer.Score(&m.form, &f.form)
		}
	}

	assignment := solveAssignment(weights)

	var pairs []AssignedPair
	for i := range males {
		j := assignment[i]
		if j >= len(females) || weights[i][j] <= 0 {
			continue
		}
		aID, bID := males[i].user.ID, females[j].user.ID
		if bID < aID {
			aID, bID = bID, aID
		}
		pairs = append(pairs, AssignedPair{UserAID: aID, UserBID: bID, Score: weights[i][j]})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].UserAID < pairs[j].UserAID })
	return pairs, nil
}
