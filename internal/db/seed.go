package db

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedUser struct {
	email            string
	gender           Gender
	grade            string
	familiar         []string
	aspirational     []string
	selfTraits       []string
	idealTraits      []string
	physicalBoundary int16
	topics           string
	intro            string
}

var seedUsers = []seedUser{
	{
		email: "ada@example.edu", gender: GenderFemale, grade: "2023",
		familiar:         []string{"climbing", "jazz", "photography"},
		aspirational:     []string{"soccer", "astronomy"},
		selfTraits:       []string{"adventurous", "creative"},
		idealTraits:      []string{"calm", "thoughtful"},
		physicalBoundary: 3,
		topics:           "Lead climbing grades, darkroom printing",
		intro:            "Usually at the climbing wall or in the darkroom.",
	},
	{
		email: "bree@example.edu", gender: GenderFemale, grade: "2024",
		familiar:         []string{"classical", "painting", "philosophy"},
		aspirational:     []string{"hiking", "board_games"},
		selfTraits:       []string{"calm", "introverted", "thoughtful"},
		idealTraits:      []string{"humorous"},
		physicalBoundary: 2,
		topics:           "Late Beethoven quartets, phenomenology reading group",
		intro:            "Conservatory refugee studying aesthetics.",
	},
	{
		email: "cleo@example.edu", gender: GenderFemale, grade: "2025",
		familiar:         []string{"moba", "rhythm_games", "indie"},
		aspirational:     []string{"cycling"},
		selfTraits:       []string{"extroverted", "humorous"},
		idealTraits:      []string{"ambitious", "creative"},
		physicalBoundary: 4,
		topics:           "Ranked queue horror stories, new indie releases",
		intro:            "Support main looking for a duo.",
	},
	{
		email: "dan@example.edu", gender: GenderMale, grade: "2023",
		familiar:         []string{"soccer", "climbing", "astronomy"},
		aspirational:     []string{"jazz"},
		selfTraits:       []string{"calm", "thoughtful"},
		idealTraits:      []string{"adventurous"},
		physicalBoundary: 3,
		topics:           "Five-a-side tactics, telescope mounts",
		intro:            "Physics student who climbs badly but enthusiastically.",
	},
	{
		email: "eli@example.edu", gender: GenderMale, grade: "2024",
		familiar:         []string{"board_games", "philosophy", "film"},
		aspirational:     []string{"classical", "painting"},
		selfTraits:       []string{"humorous", "organized"},
		idealTraits:      []string{"calm", "introverted"},
		physicalBoundary: 2,
		topics:           "Heavy euros, Tarkovsky marathons",
		intro:            "Will teach you any board game in under ten minutes.",
	},
	{
		email: "finn@example.edu", gender: GenderMale, grade: "2025",
		familiar:         []string{"cycling", "indie", "moba"},
		aspirational:     []string{"rhythm_games", "camping"},
		selfTraits:       []string{"ambitious", "extroverted"},
		idealTraits:      []string{"humorous", "extroverted"},
		physicalBoundary: 4,
		topics:           "Gravel routes out of town, gig calendars",
		intro:            "Chasing sunrises on two wheels.",
	},
}

// Seed loads a small demo population, all in form_completed so a preview or
// assignment run has something to chew on. Idempotent: existing users are
// left alone, forms are replaced.
func Seed(database *gorm.DB) error {
	for _, su := range seedUsers {
		grade := su.grade
		user := User{Email: su.email, Status: StatusFormCompleted, Grade: &grade}
		err := database.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).
			Create(&user).Error
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.email, err)
		}
		if err := database.First(&user, "email = ?", su.email).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", su.email, err)
		}

		form := Form{
			UserID:           user.ID,
			Gender:           su.gender,
			FamiliarTags:     datatypes.NewJSONSlice(su.familiar),
			AspirationalTags: datatypes.NewJSONSlice(su.aspirational),
			RecentTopics:     su.topics,
			SelfTraits:       datatypes.NewJSONSlice(su.selfTraits),
			IdealTraits:      datatypes.NewJSONSlice(su.idealTraits),
			PhysicalBoundary: su.physicalBoundary,
			SelfIntro:        su.intro,
		}
		err = database.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"gender", "familiar_tags", "aspirational_tags", "recent_topics",
					"self_traits", "ideal_traits", "physical_boundary", "self_intro",
					"updated_at",
				}),
			}).
			Create(&form).Error
		if err != nil {
			return fmt.Errorf("seed form for %s: %w", su.email, err)
		}
	}
	return nil
}
