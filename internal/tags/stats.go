package tags

import "math"

// TaggedForm is the slice of a questionnaire the statistics need: the two
// leaf-tag sets of one user.
type TaggedForm struct {
	Familiar     []string
	Aspirational []string
}

// Stats holds per-tag usage counts over a population of submitted forms.
//
// For each leaf tag that is matchable along its full chain, UserCount is the
// number of forms containing the tag in either set (counted once per user).
// The population N is the number of forms with at least one such tag.
type Stats struct {
	userCount  map[string]int
	population int
}

// ComputeStats scans the given forms and counts tag usage. Tags failing the
// matchable-chain test or not resolving to a catalog leaf are ignored.
func ComputeStats(forms []TaggedForm, catalog *Catalog) *Stats {
	s := &Stats{userCount: make(map[string]int)}

	for _, form := range forms {
		seen := make(map[string]struct{})
		for _, tag := range form.Familiar {
			if catalog.IsLeaf(tag) && catalog.MatchableChain(tag) {
				seen[tag] = struct{}{}
			}
		}
		for _, tag := range form.Aspirational {
			if catalog.IsLeaf(tag) && catalog.MatchableChain(tag) {
				seen[tag] = struct{}{}
			}
		}
		if len(seen) == 0 {
			continue
		}
		s.population++
		for tag := range seen {
			s.userCount[tag]++
		}
	}

	return s
}

// StatsFromCounts builds statistics from precomputed counts. Used by tests
// and by callers that already hold aggregated data.
func StatsFromCounts(population int, userCount map[string]int) *Stats {
	counts := make(map[string]int, len(userCount))
	for tag, n := range userCount {
		counts[tag] = n
	}
	return &Stats{userCount: counts, population: population}
}

// IDF returns ln(N / user_count) for the tag. The second return is false
// when the IDF is undefined: the tag was never seen or the population is
// empty. A tag present in every form yields 0 (neutral).
func (s *Stats) IDF(tag string) (float64, bool) {
	count := s.userCount[tag]
	if count == 0 || s.population == 0 {
		return 0, false
	}
	return math.Log(float64(s.population) / float64(count)), true
}

// UserCount returns how many forms carry the tag.
func (s *Stats) UserCount(tag string) int { return s.userCount[tag] }

// Population returns N, the number of forms with at least one matchable tag.
func (s *Stats) Population() int { return s.population }
