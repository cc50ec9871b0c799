// Package ranking orders POI and transport candidates under the hard
// constraints of a constraint.Record. Every ranker returns indices into the
// table it was given; an empty result means no candidate is feasible.
package ranking

import (
	"context"
	"log"
	"sort"
	"strings"

	"ai-travel-planner/internal/constraint"
	"ai-travel-planner/internal/geo"
	"ai-travel-planner/internal/poi"
	"ai-travel-planner/internal/timeutil"
)

// DefaultIntercityHeadroom is the share of the intercity budget the outbound
// leg may spend.
const DefaultIntercityHeadroom = 0.6

// DefaultModes is returned when no distance rule applies.
var DefaultModes = []string{"metro", "taxi", "walk"}

// Policy holds the tunable ranking constants.
type Policy struct {
	IntercityHeadroom float64
}

// DefaultPolicy returns the stock ranking policy.
func DefaultPolicy() Policy {
	return Policy{IntercityHeadroom: DefaultIntercityHeadroom}
}

// Query describes the trip a candidate list is ranked for.
type Query struct {
	City   string
	People int
}

// Ranker ranks candidates. Locator is only needed for hotel location limits.
type Ranker struct {
	Locator geo.Locator
	Policy  Policy
}

// NewRanker creates a Ranker.
func NewRanker(loc geo.Locator, policy Policy) *Ranker {
	return &Ranker{Locator: loc, Policy: policy}
}

// RankHotels filters hotels by the hotel constraints of rec and orders the
// survivors by nightly price.
func (r *Ranker) RankHotels(ctx context.Context, hotels []poi.Accommodation, q Query, rec constraint.Record) []int {
	candidates := indices(len(hotels))

	if names, ok := rec.MustLiveHotel.Get(); ok && len(names) > 0 {
		want := constraint.NewNameSet(names...)
		candidates = keep(candidates, func(i int) bool { return want.Has(hotels[i].Name) })
		if len(candidates) == 0 {
			return []int{}
		}
	}

	if names, ok := rec.MustNotLiveHotel.Get(); ok {
		deny := constraint.NewNameSet(names...)
		candidates = keep(candidates, func(i int) bool { return !deny.Has(hotels[i].Name) })
	}

	for _, feature := range rec.MustLiveHotelFeature.Or(nil) {
		candidates = keep(candidates, func(i int) bool { return strings.Contains(hotels[i].Feature, feature) })
	}

	for _, limit := range rec.HotelLocationLimits.Or(nil) {
		candidates = keep(candidates, func(i int) bool {
			if r.Locator == nil {
				return false
			}
			km, ok := geo.Distance(ctx, r.Locator, q.City, hotels[i].Name, limit.POI)
			return ok && km <= limit.MaxDistance
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return hotels[candidates[a]].Price < hotels[candidates[b]].Price
	})
	return candidates
}

// RankOutbound orders outbound intercity options by departure time. With an
// intercity budget, options costing more than the headroom share of it are
// dropped unless that would drop every option. With an overall budget the
// order becomes the sum of the time rank and the price rank.
func (r *Ranker) RankOutbound(options []poi.IntercityOption, intercity, overall constraint.Field[float64]) []int {
	candidates := indices(len(options))
	sortByDeparture(options, candidates)

	if budget, ok := intercity.Get(); ok {
		limit := r.Policy.IntercityHeadroom * budget
		affordable := keep(candidates, func(i int) bool { return options[i].Cost <= limit })
		if len(affordable) > 0 {
			candidates = affordable
		} else if len(candidates) > 0 {
			log.Printf("No outbound option within %.2f of intercity budget %.2f, ranking by departure only", limit, budget)
		}
	}

	if !overall.IsSet() {
		return candidates
	}

	score := make(map[int]int, len(candidates))
	for pos, i := range candidates {
		score[i] = pos + 1
	}
	byPrice := append([]int(nil), candidates...)
	sort.SliceStable(byPrice, func(a, b int) bool {
		return options[byPrice[a]].Cost < options[byPrice[b]].Cost
	})
	for pos, i := range byPrice {
		score[i] += pos + 1
	}

	sort.Ints(candidates)
	sort.SliceStable(candidates, func(a, b int) bool {
		return score[candidates[a]] < score[candidates[b]]
	})
	return candidates
}

// RankReturn orders return options latest departure first. Options with an
// unreadable departure time go last.
func RankReturn(options []poi.IntercityOption) []int {
	candidates := indices(len(options))
	key := func(i int) int {
		if d := departure(options[i]); d <= timeutil.MinutesPerDay {
			return d
		}
		return -1
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return key(candidates[a]) > key(candidates[b])
	})
	return candidates
}

// ModesForDistance returns the innercity modes allowed for a leg of the
// given length: the union of every matching rule, or DefaultModes when
// nothing matches.
func ModesForDistance(distance float64, rules []constraint.DistanceRule) []string {
	var modes []string
	seen := make(map[string]struct{})
	for _, rule := range rules {
		if !ruleMatches(distance, rule) {
			continue
		}
		for _, m := range rule.Modes {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			modes = append(modes, m)
		}
	}
	if len(modes) == 0 {
		return append([]string(nil), DefaultModes...)
	}
	return modes
}

func ruleMatches(d float64, rule constraint.DistanceRule) bool {
	switch {
	case rule.Min != nil && rule.Max != nil:
		return d >= *rule.Min && d <= *rule.Max
	case rule.Max != nil:
		return d <= *rule.Max
	case rule.Min != nil && *rule.Min != 0:
		return d >= *rule.Min
	}
	return false
}

func sortByDeparture(options []poi.IntercityOption, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		return departure(options[idx[a]]) < departure(options[idx[b]])
	})
}

// departure sorts unparseable times after every valid one.
func departure(o poi.IntercityOption) int {
	m, err := timeutil.ParseClock(o.BeginTime)
	if err != nil {
		return timeutil.MinutesPerDay + 1
	}
	return m
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func keep(idx []int, pred func(int) bool) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if pred(i) {
			out = append(out, i)
		}
	}
	return out
}
