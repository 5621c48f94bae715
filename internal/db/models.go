package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStatus tracks a user's progress through the pairing rounds.
//
// Flow:
//   - unverified:           email verified, card not verified
//   - verification_pending: card photo uploaded, awaiting admin review
//   - verified:             card verified, form not submitted yet
//   - form_completed:       form submitted, eligible for matching
//   - matched:              final pair generated, awaiting confirmation
//   - confirmed:            pair confirmed by both sides (or auto-confirmed)
//
// Status advances monotonically except for the matched -> form_completed
// revert when one side rejects the final match.
type UserStatus string

const (
	StatusUnverified          UserStatus = "unverified"
	StatusVerificationPending UserStatus = "verification_pending"
	StatusVerified            UserStatus = "verified"
	StatusFormCompleted       UserStatus = "form_completed"
	StatusMatched             UserStatus = "matched"
	StatusConfirmed           UserStatus = "confirmed"
)

// CanFillForm reports whether the user may create or update a form.
func (s UserStatus) CanFillForm() bool {
	return s == StatusVerified || s == StatusFormCompleted
}

// CanVeto reports whether the user may cast or remove vetoes.
func (s UserStatus) CanVeto() bool { return s == StatusFormCompleted }

// CanDecideMatch reports whether the user may accept or reject a final match.
func (s UserStatus) CanDecideMatch() bool { return s == StatusMatched }

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Opposite returns the other cohort.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// User table. Created on first successful email verification.
type User struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	Email     string     `gorm:"uniqueIndex;size:255;not null"`
	Status    UserStatus `gorm:"size:32;not null;default:unverified"`
	WechatID  *string    `gorm:"size:64"`
	Grade     *string    `gorm:"size:32"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Form holds a user's questionnaire. One row per user, exists only once the
// user reaches form_completed.
//
// Tag and trait sets are stored as JSON arrays so the model runs unchanged
// on Postgres and the in-memory SQLite used by tests.
type Form struct {
	ID               string                      `gorm:"type:uuid;primaryKey"`
	UserID           string                      `gorm:"type:uuid;uniqueIndex;not null"`
	Gender           Gender                      `gorm:"size:16;not null"`
	FamiliarTags     datatypes.JSONSlice[string] `gorm:"not null"`
	AspirationalTags datatypes.JSONSlice[string] `gorm:"not null"`
	RecentTopics     string                      `gorm:"type:text;not null"`
	SelfTraits       datatypes.JSONSlice[string] `gorm:"not null"`
	IdealTraits      datatypes.JSONSlice[string] `gorm:"not null"`
	PhysicalBoundary int16                       `gorm:"not null"`
	SelfIntro        string                      `gorm:"type:text;not null"`
	ProfilePhotoPath *string                     `gorm:"size:255"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
}

func (f *Form) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Veto is a directed exclusion edge. The pair {a,b} is excluded from
// matching if either (a,b) or (b,a) exists.
type Veto struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	VetoerID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_vetoes_pair,priority:1;index"`
	VetoedID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_vetoes_pair,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (v *Veto) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// MatchPreview is a user's top-K candidate list, replaced atomically on each
// preview-generation run. CandidateIDs and Scores are parallel slices ordered
// by descending score.
type MatchPreview struct {
	ID           string                       `gorm:"type:uuid;primaryKey"`
	UserID       string                       `gorm:"type:uuid;uniqueIndex;not null"`
	CandidateIDs datatypes.JSONSlice[string]  `gorm:"not null"`
	Scores       datatypes.JSONSlice[float64] `gorm:"not null"`
	UpdatedAt    time.Time                    `gorm:"autoUpdateTime"`
}

func (p *MatchPreview) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// AcceptState is one side's decision on a final match.
type AcceptState string

const (
	AcceptPending  AcceptState = "pending"
	AcceptAccepted AcceptState = "accepted"
)

// FinalMatch is a persisted pair emitted by the final assigner.
// Invariant: UserAID < UserBID (canonical ordering, no duplicate pairs).
// A rejected match is deleted rather than flagged.
type FinalMatch struct {
	ID         string      `gorm:"type:uuid;primaryKey"`
	UserAID    string      `gorm:"type:uuid;not null;index"`
	UserBID    string      `gorm:"type:uuid;not null;index"`
	Score      float64     `gorm:"not null"`
	UserAState AcceptState `gorm:"size:16;not null;default:pending"`
	UserBState AcceptState `gorm:"size:16;not null;default:pending"`
	CreatedAt  time.Time   `gorm:"autoCreateTime"`
}

func (m *FinalMatch) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// PartnerID returns the other side of the pair, or "" if userID is not part
// of the match.
func (m *FinalMatch) PartnerID(userID string) string {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	}
	return ""
}

// ScheduleStatus tracks a scheduled slot through its lifecycle. The claim
// step flips pending to running, which is what guarantees at-most-one
// execution per slot.
type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	ScheduleRunning   ScheduleStatus = "running"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleFailed    ScheduleStatus = "failed"
)

// ScheduledMatch is a durable future instant at which the final assigner
// fires. Invariant: UNIQUE(scheduled_time).
type ScheduledMatch struct {
	ID             string         `gorm:"type:uuid;primaryKey"`
	ScheduledTime  time.Time      `gorm:"uniqueIndex;not null"`
	Status         ScheduleStatus `gorm:"size:16;not null;default:pending;index:idx_scheduled_due,priority:1"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	ExecutedAt     *time.Time
	MatchesCreated *int
	ErrorMessage   *string `gorm:"size:512"`
}

func (s *ScheduledMatch) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
