package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogJSON = `[
  {
    "id": "sports", "name": "Sports", "is_matchable": true,
    "children": [
      {"id": "soccer", "name": "Soccer", "is_matchable": true},
      {"id": "chess_boxing", "name": "Chess boxing", "is_matchable": false}
    ]
  },
  {
    "id": "politics", "name": "Politics", "is_matchable": false,
    "children": [
      {"id": "campus_politics", "name": "Campus politics", "is_matchable": true}
    ]
  },
  {"id": "knitting", "name": "Knitting", "is_matchable": true}
]`

func TestParseCatalogStructure(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalogJSON))
	require.NoError(t, err)

	assert.True(t, c.Known("sports"))
	assert.True(t, c.Known("soccer"))
	assert.False(t, c.Known("quidditch"))

	assert.False(t, c.IsLeaf("sports"))
	assert.True(t, c.IsLeaf("soccer"))
	assert.True(t, c.IsLeaf("knitting"))
	assert.False(t, c.IsLeaf("quidditch"))

	assert.Equal(t, []string{"sports"}, c.Ancestors("soccer"))
	assert.Nil(t, c.Ancestors("knitting"))

	assert.Equal(t, []string{"campus_politics", "chess_boxing", "knitting", "soccer"}, c.Leaves())
	assert.Len(t, c.Tree(), 3)
}

func TestMatchableChain(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalogJSON))
	require.NoError(t, err)

	assert.True(t, c.MatchableChain("soccer"))
	assert.True(t, c.MatchableChain("knitting"))

	// Own flag false.
	assert.False(t, c.MatchableChain("chess_boxing"))
	// Matchable leaf under a non-matchable parent.
	assert.True(t, c.IsMatchable("campus_politics"))
	assert.False(t, c.MatchableChain("campus_politics"))

	assert.False(t, c.MatchableChain("quidditch"))
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `[
			{"id": "a", "is_matchable": true},
			{"id": "a", "is_matchable": true}
		]`,
		"empty id":             `[{"id": "", "is_matchable": true}]`,
		"missing is_matchable": `[{"id": "a", "name": "A"}]`,
		"duplicate across levels": `[
			{"id": "a", "is_matchable": true, "children": [
				{"id": "a", "is_matchable": true}
			]}
		]`,
		"not json": `{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParseTraits(t *testing.T) {
	list, set, err := ParseTraits([]byte(`[
		{"id": "calm", "name": "Calm"},
		{"id": "humorous", "name": "Humorous"}
	]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Calm", list[0].Name)
	assert.True(t, set.Contains("calm"))
	assert.False(t, set.Contains("chaotic"))

	_, _, err = ParseTraits([]byte(`[{"id": "calm"}, {"id": "calm"}]`))
	assert.Error(t, err)

	_, _, err = ParseTraits([]byte(`[{"id": ""}]`))
	assert.Error(t, err)
}
