package ranking

import (
	"sort"
	"strings"

	"ai-travel-planner/internal/constraint"
	"ai-travel-planner/internal/poi"
)

const (
	tierNamed = iota
	tierTyped
	tierOther
)

// RankRestaurants drops excluded restaurants and those above the per-meal
// budget, then puts must-visit names first, must-visit cuisines second and
// everything else last, cheapest first within each tier.
func RankRestaurants(restaurants []poi.Restaurant, rec constraint.Record) []int {
	denyNames := constraint.NewNameSet(rec.MustNotVisitRestaurant.Or(nil)...)
	denyTypes := rec.MustNotVisitRestaurantType.Or(nil)
	wantNames := constraint.NewNameSet(rec.MustVisitRestaurant.Or(nil)...)
	wantTypes := rec.MustVisitRestaurantType.Or(nil)
	perMeal, capped := rec.RestaurantBudgetPerMeal.Get()

	candidates := keep(indices(len(restaurants)), func(i int) bool {
		r := restaurants[i]
		if denyNames.Has(r.Name) || containsAny(r.Cuisine, denyTypes) {
			return false
		}
		return !capped || r.Price <= perMeal
	})

	tier := func(i int) int {
		r := restaurants[i]
		switch {
		case wantNames.Has(r.Name):
			return tierNamed
		case containsAny(r.Cuisine, wantTypes):
			return tierTyped
		}
		return tierOther
	}
	sortByTierThenPrice(candidates, tier, func(i int) float64 { return restaurants[i].Price })
	return candidates
}

// RankAttractions drops excluded attractions and, when only free ones are
// allowed, every paid one. Must-see names come first, then must-see types.
func RankAttractions(attractions []poi.Attraction, rec constraint.Record) []int {
	denyNames := constraint.NewNameSet(rec.MustNotSeeAttraction.Or(nil)...)
	denyTypes := rec.MustNotSeeAttractionType.Or(nil)
	wantNames := constraint.NewNameSet(rec.MustSeeAttraction.Or(nil)...)
	wantTypes := rec.MustSeeAttractionType.Or(nil)
	onlyFree := rec.OnlyFreeAttractions.Or(false)

	candidates := keep(indices(len(attractions)), func(i int) bool {
		a := attractions[i]
		if denyNames.Has(a.Name) || containsAny(a.Type, denyTypes) {
			return false
		}
		return !onlyFree || a.Price == 0
	})

	tier := func(i int) int {
		a := attractions[i]
		switch {
		case wantNames.Has(a.Name):
			return tierNamed
		case containsAny(a.Type, wantTypes):
			return tierTyped
		}
		return tierOther
	}
	sortByTierThenPrice(candidates, tier, func(i int) float64 { return attractions[i].Price })
	return candidates
}

func sortByTierThenPrice(idx []int, tier func(int) int, price func(int) float64) {
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := tier(idx[a]), tier(idx[b])
		if ta != tb {
			return ta < tb
		}
		return price(idx[a]) < price(idx[b])
	})
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
