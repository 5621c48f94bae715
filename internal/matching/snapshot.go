package matching

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/tags"
)

// entrant pairs a user row with its form for one matching run.
type entrant struct {
	user db.User
	form db.Form
}

// loadSnapshot fetches every user whose form has been submitted
// (form_completed, matched or confirmed) together with the form, ordered by
// user ID for deterministic downstream iteration. The broader set keeps IDF
// statistics stable across rounds; callers filter to eligible() for the
// users actually being matched.
func loadSnapshot(ctx context.Context, gdb *gorm.DB) ([]entrant, error) {
	var users []db.User
	err := gdb.WithContext(ctx).
		Where("status IN ?", []db.UserStatus{db.StatusFormCompleted, db.StatusMatched, db.StatusConfirmed}).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load snapshot users: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	var forms []db.Form
	if err := gdb.WithContext(ctx).Where("user_id IN ?", ids).Find(&forms).Error; err != nil {
		return nil, fmt.Errorf("load snapshot forms: %w", err)
	}

	formByUser := make(map[string]db.Form, len(forms))
	for _, f := range forms {
		formByUser[f.UserID] = f
	}

	snapshot := make([]entrant, 0, len(users))
	for _, u := range users {
		form, ok := formByUser[u.ID]
		if !ok {
			// A user past form_completed without a form violates the data
			// model; skip rather than poison the whole run.
			continue
		}
		snapshot = append(snapshot, entrant{user: u, form: form})
	}
	return snapshot, nil
}

// eligible filters the snapshot down to the users being matched this round.
func eligible(snapshot []entrant) []entrant {
	var out []entrant
	for _, e := range snapshot {
		if e.user.Status == db.StatusFormCompleted {
			out = append(out, e)
		}
	}
	return out
}

// partitionByGender splits entrants into the two cohorts, each sorted by
// user ID.
func partitionByGender(entrants []entrant) (males, females []entrant) {
	for _, e := range entrants {
		if e.form.Gender == db.GenderMale {
			males = append(males, e)
		} else {
			females = append(females, e)
		}
	}
	byID := func(list []entrant) func(i, j int) bool {
		return func(i, j int) bool { return list[i].user.ID < list[j].user.ID }
	}
	sort.Slice(males, byID(males))
	sort.Slice(females, byID(females))
	return males, females
}

// taggedForms projects the snapshot onto what tag statistics need.
func taggedForms(snapshot []entrant) []tags.TaggedForm {
	out := make([]tags.TaggedForm, len(snapshot))
	for i, e := range snapshot {
		out[i] = tags.TaggedForm{
			Familiar:     e.form.FamiliarTags,
			Aspirational: e.form.AspirationalTags,
		}
	}
	return out
}

// pairSet answers "is this unordered pair excluded" in O(1).
type pairSet map[[2]string]struct{}

func (s pairSet) add(a, b string) {
	if b < a {
		a, b = b, a
	}
	s[[2]string{a, b}] = struct{}{}
}

func (s pairSet) contains(a, b string) bool {
	if b < a {
		a, b = b, a
	}
	_, ok := s[[2]string{a, b}]
	return ok
}

// loadExclusions builds the symmetric exclusion set from all veto edges.
func loadExclusions(ctx context.Context, gdb *gorm.DB) (pairSet, error) {
	var vetoes []db.Veto
	if err := gdb.WithContext(ctx).Find(&vetoes).Error; err != nil {
		return nil, fmt.Errorf("load vetoes: %w", err)
	}
	set := make(pairSet, len(vetoes))
	for _, v := range vetoes {
		set.add(v.VetoerID, v.VetoedID)
	}
	return set, nil
}
