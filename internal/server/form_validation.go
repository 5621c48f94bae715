package server

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
)

type formRequest struct {
	Gender           string   `json:"gender"`
	FamiliarTags     []string `json:"familiar_tags"`
	AspirationalTags []string `json:"aspirational_tags"`
	RecentTopics     string   `json:"recent_topics"`
	SelfTraits       []string `json:"self_traits"`
	IdealTraits      []string `json:"ideal_traits"`
	PhysicalBoundary int16    `json:"physical_boundary"`
	SelfIntro        string   `json:"self_intro"`
	ProfilePhotoPath *string  `json:"profile_photo_path"`
}

type formResponse struct {
	Gender           string   `json:"gender"`
	FamiliarTags     []string `json:"familiar_tags"`
	AspirationalTags []string `json:"aspirational_tags"`
	RecentTopics     string   `json:"recent_topics"`
	SelfTraits       []string `json:"self_traits"`
	IdealTraits      []string `json:"ideal_traits"`
	PhysicalBoundary int16    `json:"physical_boundary"`
	SelfIntro        string   `json:"self_intro"`
	ProfilePhotoPath *string  `json:"profile_photo_path,omitempty"`
}

func formView(f *db.Form) formResponse {
	return formResponse{
		Gender:           string(f.Gender),
		FamiliarTags:     f.FamiliarTags,
		AspirationalTags: f.AspirationalTags,
		RecentTopics:     f.RecentTopics,
		SelfTraits:       f.SelfTraits,
		IdealTraits:      f.IdealTraits,
		PhysicalBoundary: f.PhysicalBoundary,
		SelfIntro:        f.SelfIntro,
		ProfilePhotoPath: f.ProfilePhotoPath,
	}
}

// buildForm validates the submission against the catalogs and limits and
// returns the row to upsert.
func (s *Server) buildForm(userID string, req *formRequest) (*db.Form, error) {
	gender := db.Gender(req.Gender)
	if gender != db.GenderMale && gender != db.GenderFemale {
		return nil, apperr.Validation("gender must be male or female")
	}
	if req.PhysicalBoundary < 1 || req.PhysicalBoundary > 4 {
		return nil, apperr.Validation("physical_boundary must be between 1 and 4")
	}
	if req.RecentTopics == "" {
		return nil, apperr.Validation("recent_topics is required")
	}
	if req.SelfIntro == "" {
		return nil, apperr.Validation("self_intro is required")
	}

	if len(req.FamiliarTags) == 0 {
		return nil, apperr.Validation("at least one familiar tag is required")
	}
	total := len(req.FamiliarTags) + len(req.AspirationalTags)
	if total > s.cfg.Matching.TotalTags {
		return nil, apperr.Validation(fmt.Sprintf(
			"at most %d tags may be selected in total", s.cfg.Matching.TotalTags))
	}

	familiar, err := s.checkTagList("familiar_tags", req.FamiliarTags)
	if err != nil {
		return nil, err
	}
	aspirational, err := s.checkTagList("aspirational_tags", req.AspirationalTags)
	if err != nil {
		return nil, err
	}
	for tag := range aspirational {
		if _, dup := familiar[tag]; dup {
			return nil, apperr.Validation(fmt.Sprintf(
				"tag %q cannot be both familiar and aspirational", tag))
		}
	}

	if err := s.checkTraitList("self_traits", req.SelfTraits); err != nil {
		return nil, err
	}
	if err := s.checkTraitList("ideal_traits", req.IdealTraits); err != nil {
		return nil, err
	}

	return &db.Form{
		UserID:           userID,
		Gender:           gender,
		FamiliarTags:     datatypes.NewJSONSlice(req.FamiliarTags),
		AspirationalTags: datatypes.NewJSONSlice(emptyIfNil(req.AspirationalTags)),
		RecentTopics:     req.RecentTopics,
		SelfTraits:       datatypes.NewJSONSlice(emptyIfNil(req.SelfTraits)),
		IdealTraits:      datatypes.NewJSONSlice(emptyIfNil(req.IdealTraits)),
		PhysicalBoundary: req.PhysicalBoundary,
		SelfIntro:        req.SelfIntro,
		ProfilePhotoPath: req.ProfilePhotoPath,
	}, nil
}

// checkTagList verifies each tag is a known leaf with no duplicates and
// returns the set for disjointness checks. Selecting internal nodes is
// rejected; only leaves carry IDF weight.
func (s *Server) checkTagList(field string, list []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(list))
	for _, tag := range list {
		if !s.catalog.Known(tag) {
			return nil, apperr.Validation(fmt.Sprintf("%s: unknown tag %q", field, tag))
		}
		if !s.catalog.IsLeaf(tag) {
			return nil, apperr.Validation(fmt.Sprintf("%s: tag %q is a category, pick a leaf", field, tag))
		}
		if _, dup := seen[tag]; dup {
			return nil, apperr.Validation(fmt.Sprintf("%s: duplicate tag %q", field, tag))
		}
		seen[tag] = struct{}{}
	}
	return seen, nil
}

func (s *Server) checkTraitList(field string, list []string) error {
	if len(list) > s.cfg.Matching.TraitsLimitEach {
		return apperr.Validation(fmt.Sprintf(
			"%s: at most %d traits may be selected", field, s.cfg.Matching.TraitsLimitEach))
	}
	seen := make(map[string]struct{}, len(list))
	for _, id := range list {
		if !s.traits.Contains(id) {
			return apperr.Validation(fmt.Sprintf("%s: unknown trait %q", field, id))
		}
		if _, dup := seen[id]; dup {
			return apperr.Validation(fmt.Sprintf("%s: duplicate trait %q", field, id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
