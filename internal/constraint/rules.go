package constraint

import (
	"regexp"
	"strconv"
	"strings"
)

// A set operand is a set literal or a bare identifier.
const (
	numPat    = `(\d+(?:\.\d+)?)`
	quotedPat = `(?:'([^']*)'|"([^"]*)")`
	setPat    = `(\{[^{}]*\}|[A-Za-z_]\w*)`
)

// rule maps one compiled matcher onto the record keys it fills. Rules run in
// table order over every match found in the snippet.
type rule struct {
	key     string
	re      *regexp.Regexp
	extract func(matches [][]string, snippet string, qc QueryContext, rec *Record)
}

type listField func(*Record) *Field[[]string]

// rules is evaluated top to bottom. The symmetric intercity rule must stay
// after the depart/return rules because it only fills what they left empty.
var rules = []rule{
	setRule("must_see_attraction", "attraction_name_set",
		func(r *Record) *Field[[]string] { return &r.MustSeeAttraction },
		func(r *Record) *Field[[]string] { return &r.MustNotSeeAttraction }),
	setRule("must_see_attraction_type", "attraction_type_set",
		func(r *Record) *Field[[]string] { return &r.MustSeeAttractionType },
		func(r *Record) *Field[[]string] { return &r.MustNotSeeAttractionType }),
	{
		key: "only_free_attractions",
		re:  regexp.MustCompile(`\battraction_cost\s*==\s*0(?:\.0+)?\b`),
		extract: func(_ [][]string, _ string, _ QueryContext, rec *Record) {
			rec.OnlyFreeAttractions = Constrained(true)
		},
	},
	setRule("must_visit_restaurant", "restaurant_name_set",
		func(r *Record) *Field[[]string] { return &r.MustVisitRestaurant },
		func(r *Record) *Field[[]string] { return &r.MustNotVisitRestaurant }),
	setRule("must_visit_restaurant_type", "restaurant_type_set",
		func(r *Record) *Field[[]string] { return &r.MustVisitRestaurantType },
		func(r *Record) *Field[[]string] { return &r.MustNotVisitRestaurantType }),
	setRule("must_live_hotel", "accommodation_name_set",
		func(r *Record) *Field[[]string] { return &r.MustLiveHotel },
		func(r *Record) *Field[[]string] { return &r.MustNotLiveHotel }),
	setRule("must_live_hotel_feature", "accommodation_type_set",
		func(r *Record) *Field[[]string] { return &r.MustLiveHotelFeature },
		nil),
	{
		key: "must_live_hotel_location_limit",
		re:  regexp.MustCompile(`\bpoi_distance\([^,]*,[^,]*,\s*` + quotedPat + `\s*\)\s*(?:<=|<)\s*` + numPat),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			limits, _ := rec.HotelLocationLimits.Get()
			for _, m := range ms {
				limits = addLocationLimit(limits, m[1]+m[2], parseNum(m[3]))
			}
			rec.HotelLocationLimits = Constrained(limits)
		},
	},
	{
		key: "room_number",
		re:  regexp.MustCompile(`\broom_count\(\w*\)\s*==\s*(\d+)`),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			if n, err := strconv.Atoi(ms[0][1]); err == nil {
				rec.RoomNumber = Constrained(n)
			}
		},
	},
	{
		key: "bed_number",
		re:  regexp.MustCompile(`\broom_type\(\w*\)\s*==\s*(\d+)`),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			if n, err := strconv.Atoi(ms[0][1]); err == nil {
				rec.BedNumber = Constrained(n)
			}
		},
	},
	setRule("must_innercity_transport", "innercity_transport_set",
		func(r *Record) *Field[[]string] { return &r.MustInnercityTransport },
		func(r *Record) *Field[[]string] { return &r.MustNotInnercityTransport }),
	{
		key: "transport_rules_by_distance",
		re: regexp.MustCompile(`\bif\s+([^:\n]*distance[^:\n]*):[^:]*?innercity_transport_type\([\w()]*\)\s*(?:==\s*` +
			quotedPat + `|in\s*(\{[^{}]*\}))`),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			drs, _ := rec.TransportRulesByDistance.Get()
			for _, m := range ms {
				modes := literals(m[4])
				if m[4] == "" {
					modes = []string{m[2] + m[3]}
				}
				lo, hi := distanceBounds(m[1])
				drs = append(drs, DistanceRule{Min: lo, Max: hi, Modes: modes})
			}
			rec.TransportRulesByDistance = Constrained(drs)
		},
	},
	{
		key: "must_depart_transport|must_return_transport",
		re: regexp.MustCompile(`\bintercity_transport_type\(\s*allactivities\(\w+\)\[\s*(0|-1)\s*\]\s*\)\s*(==|!=)\s*` +
			quotedPat),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			for _, m := range ms {
				var target *Field[[]string]
				switch {
				case m[1] == "0" && m[2] == "==":
					target = &rec.MustDepartTransport
				case m[1] == "0":
					target = &rec.MustNotDepartTransport
				case m[2] == "==":
					target = &rec.MustReturnTransport
				default:
					target = &rec.MustNotReturnTransport
				}
				union(target, []string{m[3] + m[4]})
			}
		},
	},
	{
		key: "intercity_transport_set",
		re:  regexp.MustCompile(`\bintercity_transport_set\s*==\s*` + setPat),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			if rec.MustDepartTransport.IsSet() || rec.MustReturnTransport.IsSet() ||
				rec.MustNotDepartTransport.IsSet() || rec.MustNotReturnTransport.IsSet() {
				return
			}
			modes := literals(ms[0][1])
			rec.MustDepartTransport = Constrained(modes)
			rec.MustReturnTransport = Constrained(append([]string(nil), modes...))
		},
	},
	{
		key: "budgets",
		re: regexp.MustCompile(`\b(attraction_cost|restaurant_cost|accommodation_cost|hotel_cost|` +
			`intercity_transport_cost|innercity_transport_cost|total_cost|overall_cost)\s*(?:<=|<)\s*` + numPat),
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			for _, m := range ms {
				tighten(budgetField(rec, m[1]), parseNum(m[2]))
			}
		},
	},
	{
		key: "hotel_budget",
		re: regexp.MustCompile(`\b(?:hotel|accommodation)_cost\s*/\s*[\w()]+\s*/\s*\(\s*[\w()]+\s*-\s*1\s*\)\s*(?:<=|<)\s*` +
			numPat),
		extract: func(ms [][]string, _ string, qc QueryContext, rec *Record) {
			for _, m := range ms {
				tighten(&rec.HotelBudget, float64(qc.Days*qc.People)*parseNum(m[1]))
			}
		},
	},
	{
		key: "restaurant_budget_per_meal",
		re:  perMealRe,
		extract: func(_ [][]string, snippet string, _ QueryContext, rec *Record) {
			for _, loc := range perMealRe.FindAllStringSubmatchIndex(snippet, -1) {
				name := snippet[loc[2]:loc[3]]
				if strings.HasPrefix(name, "activity_price") && !inMealBranch(snippet, loc[0]) {
					continue
				}
				tighten(&rec.RestaurantBudgetPerMeal, parseNum(snippet[loc[4]:loc[5]]))
			}
		},
	},
	{
		key:     "activities_time_dict",
		re:      positionRe,
		extract: extractTimeWindows,
	},
}

// setRule builds the matcher for membership tests against a named set.
// "SET <= name_set" (or "name_set >= SET") fills must. "not (SET & name_set)"
// and "len(SET & name_set) == 0" fill mustNot. Any other use of the
// intersection, and a negated subset test, fills nothing. A nil mustNot
// ignores the disjoint forms.
func setRule(key, setVar string, must, mustNot listField) rule {
	re := regexp.MustCompile(`\bnot\s*\(?\s*` + setPat + `\s*&\s*` + setVar + `\b` +
		`|\blen\(\s*` + setPat + `\s*&\s*` + setVar + `\s*\)\s*==\s*0\b` +
		`|(\bnot\s*\(?\s*)?` + setPat + `\s*(?:<=|<)\s*` + setVar + `\b` +
		`|\b` + setVar + `\s*(?:>=|>|<=)\s*` + setPat)
	return rule{
		key: key,
		re:  re,
		extract: func(ms [][]string, _ string, _ QueryContext, rec *Record) {
			for _, m := range ms {
				var raw string
				var target listField
				switch {
				case m[1] != "":
					raw, target = m[1], mustNot
				case m[2] != "":
					raw, target = m[2], mustNot
				case m[4] != "":
					if m[3] != "" {
						continue
					}
					raw, target = m[4], must
				default:
					raw, target = m[5], must
				}
				if target == nil {
					continue
				}
				union(target(rec), literals(raw))
			}
		},
	}
}

var (
	literalRe  = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
	positionRe = regexp.MustCompile(`\bactivity_position\(\w+\)\s*==\s*` + quotedPat)
	stayRe     = regexp.MustCompile(`\bactivity_time\(\w+\)\s*>=?\s*` + numPat)
	arriveRe   = regexp.MustCompile(`\bactivity_start_time\(\w+\)\s*<=?\s*` + quotedPat)
	leaveRe    = regexp.MustCompile(`\bactivity_end_time\(\w+\)\s*>=?\s*` + quotedPat)
	lowerRe    = regexp.MustCompile(`(?:>=|>)\s*` + numPat + `|` + numPat + `\s*(?:<=|<)\s*[A-Za-z_]`)
	upperRe    = regexp.MustCompile(`(?:<=|<)\s*` + numPat)
	perMealRe  = regexp.MustCompile(`\b(restaurant_cost_per_meal|activity_price\(\w+\))\s*(?:<=|<)\s*` + numPat)
	mealRe     = regexp.MustCompile(`'(?:lunch|dinner|breakfast)'|"(?:lunch|dinner|breakfast)"|restaurant`)
)

// literals returns the quoted names in raw, in source order and without
// duplicates. When raw holds no quoted literal the trimmed text itself is
// returned as a single name.
func literals(raw string) []string {
	out := []string{}
	ms := literalRe.FindAllStringSubmatch(raw, -1)
	for _, m := range ms {
		out = appendUnique(out, m[1]+m[2])
	}
	if len(ms) == 0 {
		trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "{}"))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// extractTimeWindows binds each stay/arrive/leave condition to the nearest
// preceding activity_position test and folds the named POI into the
// must-visit list it belongs to.
func extractTimeWindows(positions [][]string, snippet string, qc QueryContext, rec *Record) {
	locs := positionRe.FindAllStringSubmatchIndex(snippet, -1)
	nameAt := func(offset int) string {
		name := positions[0][1] + positions[0][2]
		for i, loc := range locs {
			if loc[0] > offset {
				break
			}
			name = positions[i][1] + positions[i][2]
		}
		return name
	}

	touched := []string{}
	for _, loc := range stayRe.FindAllStringSubmatchIndex(snippet, -1) {
		name := nameAt(loc[0])
		stay, _ := rec.ActivitiesStayTime.Get()
		if stay == nil {
			stay = map[string]int{}
		}
		stay[name] = int(parseNum(snippet[loc[2]:loc[3]]))
		rec.ActivitiesStayTime = Constrained(stay)
		touched = appendUnique(touched, name)
	}
	for _, loc := range arriveRe.FindAllStringSubmatchIndex(snippet, -1) {
		name := nameAt(loc[0])
		arrive, _ := rec.ActivitiesArriveTime.Get()
		if arrive == nil {
			arrive = map[string]string{}
		}
		arrive[name] = submatch(snippet, loc, 1) + submatch(snippet, loc, 2)
		rec.ActivitiesArriveTime = Constrained(arrive)
		touched = appendUnique(touched, name)
	}
	for _, loc := range leaveRe.FindAllStringSubmatchIndex(snippet, -1) {
		name := nameAt(loc[0])
		leave, _ := rec.ActivitiesLeaveTime.Get()
		if leave == nil {
			leave = map[string]string{}
		}
		leave[name] = submatch(snippet, loc, 1) + submatch(snippet, loc, 2)
		rec.ActivitiesLeaveTime = Constrained(leave)
		touched = appendUnique(touched, name)
	}

	for _, name := range touched {
		if qc.Restaurants.Has(name) && !qc.Attractions.Has(name) {
			union(&rec.MustVisitRestaurant, []string{name})
			continue
		}
		union(&rec.MustSeeAttraction, []string{name})
	}
}

func submatch(s string, loc []int, group int) string {
	if loc[2*group] < 0 {
		return ""
	}
	return s[loc[2*group]:loc[2*group+1]]
}

func distanceBounds(cond string) (lo, hi *float64) {
	if m := lowerRe.FindStringSubmatch(cond); m != nil {
		v := parseNum(m[1] + m[2])
		lo = &v
	}
	if m := upperRe.FindStringSubmatch(cond); m != nil {
		v := parseNum(m[1])
		hi = &v
	}
	return lo, hi
}

// inMealBranch reports whether the comparison at offset sits under an if or
// elif whose condition names a meal or a restaurant. The condition on the
// comparison's own line counts, then every enclosing block by indentation.
func inMealBranch(snippet string, offset int) bool {
	lineStart := strings.LastIndex(snippet[:offset], "\n") + 1
	if mealRe.MatchString(snippet[lineStart:offset]) && strings.Contains(snippet[lineStart:offset], "if ") {
		return true
	}

	lines := strings.Split(snippet[:lineStart], "\n")
	depth := indentOf(snippet[lineStart:])
	for i := len(lines) - 1; i >= 0 && depth > 0; i-- {
		line := lines[i]
		if strings.TrimSpace(line) == "" || indentOf(line) >= depth {
			continue
		}
		depth = indentOf(line)
		trimmed := strings.TrimSpace(line)
		if (strings.HasPrefix(trimmed, "if ") || strings.HasPrefix(trimmed, "elif ")) && mealRe.MatchString(trimmed) {
			return true
		}
	}
	return false
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func budgetField(rec *Record, accumulator string) *Field[float64] {
	switch accumulator {
	case "attraction_cost":
		return &rec.AttractionBudget
	case "restaurant_cost":
		return &rec.RestaurantBudget
	case "accommodation_cost", "hotel_cost":
		return &rec.HotelBudget
	case "intercity_transport_cost":
		return &rec.IntercityTransportBudget
	case "innercity_transport_cost":
		return &rec.InnercityTransportBudget
	}
	return &rec.OverallBudget
}

// tighten keeps the smallest bound seen for a budget.
func tighten(f *Field[float64], v float64) {
	if cur, ok := f.Get(); ok && cur <= v {
		return
	}
	*f = Constrained(v)
}

func union(f *Field[[]string], names []string) {
	cur, _ := f.Get()
	merged := append([]string{}, cur...)
	for _, n := range names {
		merged = appendUnique(merged, n)
	}
	*f = Constrained(merged)
}

func addLocationLimit(limits []LocationLimit, poi string, km float64) []LocationLimit {
	for i := range limits {
		if limits[i].POI == poi {
			if km < limits[i].MaxDistance {
				limits[i].MaxDistance = km
			}
			return limits
		}
	}
	return append(limits, LocationLimit{POI: poi, MaxDistance: km})
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

func parseNum(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
