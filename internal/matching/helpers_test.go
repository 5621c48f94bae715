package matching

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/tags"
)

const matchingCatalogJSON = `[
  {
    "id": "outdoors", "is_matchable": true,
    "children": [
      {"id": "hiking", "is_matchable": true},
      {"id": "camping", "is_matchable": true}
    ]
  },
  {
    "id": "music", "is_matchable": true,
    "children": [
      {"id": "jazz", "is_matchable": true},
      {"id": "rock", "is_matchable": true}
    ]
  },
  {
    "id": "politics", "is_matchable": false,
    "children": [
      {"id": "campus_politics", "is_matchable": true}
    ]
  },
  {"id": "soccer", "is_matchable": true},
  {"id": "chess", "is_matchable": true}
]`

func testCatalog(t *testing.T) *tags.Catalog {
	t.Helper()
	c, err := tags.ParseCatalog([]byte(matchingCatalogJSON))
	require.NoError(t, err)
	return c
}

func testWeights() Weights {
	return Weights{FF: 3, AF: 2, AA: 1, Trait: 1, Bound: 2}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// formSpec is the per-user input for seeding matching tests.
type formSpec struct {
	id           string
	gender       db.Gender
	familiar     []string
	aspirational []string
	selfTraits   []string
	idealTraits  []string
	boundary     int16
}

func seedEntrant(t *testing.T, gdb *gorm.DB, spec formSpec) {
	t.Helper()
	if spec.boundary == 0 {
		spec.boundary = 2
	}
	user := db.User{
		ID:     spec.id,
		Email:  spec.id + "@example.edu",
		Status: db.StatusFormCompleted,
	}
	require.NoError(t, gdb.Create(&user).Error)

	form := db.Form{
		UserID:           spec.id,
		Gender:           spec.gender,
		FamiliarTags:     datatypes.NewJSONSlice(emptySlice(spec.familiar)),
		AspirationalTags: datatypes.NewJSONSlice(emptySlice(spec.aspirational)),
		RecentTopics:     "topics",
		SelfTraits:       datatypes.NewJSONSlice(emptySlice(spec.selfTraits)),
		IdealTraits:      datatypes.NewJSONSlice(emptySlice(spec.idealTraits)),
		PhysicalBoundary: spec.boundary,
		SelfIntro:        "intro",
	}
	require.NoError(t, gdb.Create(&form).Error)
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func userStatus(t *testing.T, gdb *gorm.DB, id string) db.UserStatus {
	t.Helper()
	var user db.User
	require.NoError(t, gdb.First(&user, "id = ?", id).Error)
	return user.Status
}
