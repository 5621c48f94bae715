package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

// VetoRepository provides data access for the Veto model. A veto is a
// directed edge, but matching treats the pair as excluded when either
// direction exists.
type VetoRepository struct {
	db *gorm.DB
}

func NewVetoRepository(database *gorm.DB) *VetoRepository {
	return &VetoRepository{db: database}
}

// Add inserts the edge (vetoer, vetoed). Re-inserting an existing edge is a
// no-op; self-vetoes are rejected.
func (r *VetoRepository) Add(ctx context.Context, vetoerID, vetoedID string) error {
	if vetoerID == vetoedID {
		return apperr.Conflict("cannot veto yourself")
	}
	veto := db.Veto{VetoerID: vetoerID, VetoedID: vetoedID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vetoer_id"}, {Name: "vetoed_id"}},
			DoNothing: true,
		}).
		Create(&veto).Error
}

// Remove deletes the edge and reports whether it existed.
func (r *VetoRepository) Remove(ctx context.Context, vetoerID, vetoedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("vetoer_id = ? AND vetoed_id = ?", vetoerID, vetoedID).
		Delete(&db.Veto{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByVetoer returns the IDs the user has vetoed.
func (r *VetoRepository) ListByVetoer(ctx context.Context, vetoerID string) ([]string, error) {
	var vetoes []db.Veto
	err := r.db.WithContext(ctx).
		Where("vetoer_id = ?", vetoerID).
		Order("created_at").
		Find(&vetoes).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(vetoes))
	for i, v := range vetoes {
		ids[i] = v.VetoedID
	}
	return ids, nil
}
