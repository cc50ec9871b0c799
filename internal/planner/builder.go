// Package planner places activities on a day-structured itinerary under
// venue opening hours and meal windows.
//
// PlaceAttraction, PlaceMeal and PlaceBreakfast work on a copy of the plan so
// a caller can try a candidate and throw the result away on failure.
// PlaceIntercityTransport and PlaceAccommodation always commit and mutate the
// plan they are given.
package planner

import (
	"fmt"

	"ai-travel-planner/internal/poi"
	"ai-travel-planner/internal/timeutil"
)

// Meal selects the window used by PlaceMeal.
type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

// Policy holds the placement constants. Clock values are "HH:MM".
type Policy struct {
	AttractionVisitMinutes int
	MealMinutes            int
	BreakfastMinutes       int
	BreakfastEarliest      string
	BreakfastLatest        string
	LunchEarliest          string
	LunchLatest            string
	DinnerEarliest         string
	DinnerLatest           string
}

// DefaultPolicy returns the stock placement policy.
func DefaultPolicy() Policy {
	return Policy{
		AttractionVisitMinutes: 90,
		MealMinutes:            60,
		BreakfastMinutes:       30,
		BreakfastEarliest:      "08:00",
		BreakfastLatest:        "10:00",
		LunchEarliest:          "11:00",
		LunchLatest:            "13:00",
		DinnerEarliest:         "17:00",
		DinnerLatest:           "20:00",
	}
}

type window struct {
	earliest int
	latest   int
}

// Builder places activities. It holds no per-plan state.
type Builder struct {
	policy    Policy
	breakfast window
	lunch     window
	dinner    window
}

// NewBuilder validates p and returns a Builder using it.
func NewBuilder(p Policy) (*Builder, error) {
	if p.AttractionVisitMinutes <= 0 || p.MealMinutes <= 0 || p.BreakfastMinutes <= 0 {
		return nil, fmt.Errorf("durations must be positive")
	}
	b := &Builder{policy: p}
	var err error
	if b.breakfast, err = parseWindow(p.BreakfastEarliest, p.BreakfastLatest); err != nil {
		return nil, fmt.Errorf("invalid breakfast window: %w", err)
	}
	if b.lunch, err = parseWindow(p.LunchEarliest, p.LunchLatest); err != nil {
		return nil, fmt.Errorf("invalid lunch window: %w", err)
	}
	if b.dinner, err = parseWindow(p.DinnerEarliest, p.DinnerLatest); err != nil {
		return nil, fmt.Errorf("invalid dinner window: %w", err)
	}
	return b, nil
}

// Policy returns the policy the builder was created with.
func (b *Builder) Policy() Policy {
	return b.policy
}

func parseWindow(earliest, latest string) (window, error) {
	e, err := timeutil.ParseClock(earliest)
	if err != nil {
		return window{}, err
	}
	l, err := timeutil.ParseClock(latest)
	if err != nil {
		return window{}, err
	}
	if l <= e {
		return window{}, fmt.Errorf("%s is not after %s", latest, earliest)
	}
	return window{earliest: e, latest: l}, nil
}

// PlaceIntercityTransport appends a train or flight to day d of plan.
// The ticket price is multiplied by tickets.
func (b *Builder) PlaceIntercityTransport(plan *Itinerary, d int, opt poi.IntercityOption, legs []TransportLeg, tickets int) error {
	if d < 1 {
		return placementErr(KindInvalid, "day %d out of range", d)
	}
	a := Activity{
		Start:      opt.From,
		End:        opt.To,
		StartTime:  opt.BeginTime,
		EndTime:    opt.EndTime,
		Price:      opt.Cost,
		Cost:       opt.Cost * float64(tickets),
		Tickets:    tickets,
		Transports: legs,
	}
	switch {
	case opt.TrainID != "":
		a.Type = ActivityTrain
		a.TrainID = opt.TrainID
	case opt.FlightID != "":
		a.Type = ActivityAirplane
		a.FlightID = opt.FlightID
	default:
		return placementErr(KindInvalid, "intercity option %s-%s has neither train nor flight id", opt.From, opt.To)
	}
	plan.add(d, a)
	return nil
}

// PlaceAttraction schedules a visit to attr on day d for a party arriving at
// arrival. The visit starts at opening time at the earliest and is cut short
// at closing time.
func (b *Builder) PlaceAttraction(plan Itinerary, d int, attr poi.Attraction, arrival string, legs []TransportLeg, people int) (Itinerary, error) {
	if d < 1 {
		return plan, placementErr(KindInvalid, "day %d out of range", d)
	}
	at, err := timeutil.ParseClock(arrival)
	if err != nil {
		return plan, placementErr(KindInvalid, "arrival at %s: %v", attr.Name, err)
	}
	opens, closes, _, err := hours(attr.OpenTime, attr.EndTime)
	if err != nil {
		return plan, placementErr(KindInvalid, "opening hours of %s: %v", attr.Name, err)
	}
	if closes <= at {
		return plan, placementErr(KindClosed, "%s closes at %s, before arrival at %s", attr.Name, attr.EndTime, arrival)
	}

	start := max(at, opens)
	end := min(start+b.policy.AttractionVisitMinutes, closes)

	out := plan.Clone()
	out.add(d, Activity{
		Type:       ActivityAttraction,
		Position:   attr.Name,
		StartTime:  timeutil.FormatClock(start),
		EndTime:    timeutil.FormatClock(end),
		Price:      attr.Price,
		Cost:       attr.Price * float64(people),
		Tickets:    people,
		Transports: legs,
	})
	return out, nil
}

// PlaceMeal schedules lunch or dinner at r on day d. The meal may not start
// before the window opens or at/after it closes. Its end is clamped to the
// venue's closing time unless the venue stays open past midnight.
func (b *Builder) PlaceMeal(plan Itinerary, d int, meal Meal, r poi.Restaurant, arrival string, legs []TransportLeg, people int) (Itinerary, error) {
	var w window
	var kind ActivityType
	switch meal {
	case MealLunch:
		w, kind = b.lunch, ActivityLunch
	case MealDinner:
		w, kind = b.dinner, ActivityDinner
	default:
		return plan, placementErr(KindInvalid, "unknown meal %q", meal)
	}
	if d < 1 {
		return plan, placementErr(KindInvalid, "day %d out of range", d)
	}
	at, err := timeutil.ParseClock(arrival)
	if err != nil {
		return plan, placementErr(KindInvalid, "arrival at %s: %v", r.Name, err)
	}
	opens, closes, overnight, err := hours(r.OpenTime, r.EndTime)
	if err != nil {
		return plan, placementErr(KindInvalid, "opening hours of %s: %v", r.Name, err)
	}
	if closes <= w.earliest {
		return plan, placementErr(KindClosed, "%s closes at %s, before %s starts", r.Name, r.EndTime, meal)
	}

	start := max(at, opens, w.earliest)
	if start >= w.latest {
		return plan, placementErr(KindMealWindow, "%s at %s would start at %s, too late",
			meal, r.Name, timeutil.FormatClock(start))
	}
	if closes <= start {
		return plan, placementErr(KindClosed, "%s closes at %s, before %s could start", r.Name, r.EndTime, meal)
	}

	end := start + b.policy.MealMinutes
	if !overnight {
		end = min(end, closes)
	}

	out := plan.Clone()
	out.add(d, Activity{
		Type:       kind,
		Position:   r.Name,
		StartTime:  timeutil.FormatClock(start),
		EndTime:    timeutil.FormatClock(end),
		Price:      r.Price,
		Cost:       r.Price * float64(people),
		Transports: legs,
	})
	return out, nil
}

// PlaceBreakfast schedules the free hotel breakfast on day d.
func (b *Builder) PlaceBreakfast(plan Itinerary, d int, hotel poi.Accommodation, arrival string) (Itinerary, error) {
	if d < 1 {
		return plan, placementErr(KindInvalid, "day %d out of range", d)
	}
	at, err := timeutil.ParseClock(arrival)
	if err != nil {
		return plan, placementErr(KindInvalid, "breakfast at %s: %v", hotel.Name, err)
	}
	start := max(at, b.breakfast.earliest)
	if start >= b.breakfast.latest {
		return plan, placementErr(KindMealWindow, "breakfast at %s would start at %s, too late",
			hotel.Name, timeutil.FormatClock(start))
	}

	out := plan.Clone()
	out.add(d, Activity{
		Type:      ActivityBreakfast,
		Position:  hotel.Name,
		StartTime: timeutil.FormatClock(start),
		EndTime:   timeutil.FormatClock(start + b.policy.BreakfastMinutes),
	})
	return out, nil
}

// PlaceAccommodation checks the party into hotel on day d for the rest of
// the day. The room price is multiplied by rooms.
func (b *Builder) PlaceAccommodation(plan *Itinerary, d int, hotel poi.Accommodation, arrival string, legs []TransportLeg, rooms int) error {
	if d < 1 {
		return placementErr(KindInvalid, "day %d out of range", d)
	}
	if _, err := timeutil.ParseClock(arrival); err != nil {
		return placementErr(KindInvalid, "arrival at %s: %v", hotel.Name, err)
	}
	plan.add(d, Activity{
		Type:       ActivityAccommodation,
		Position:   hotel.Name,
		StartTime:  arrival,
		EndTime:    "24:00",
		Price:      hotel.Price,
		Cost:       hotel.Price * float64(rooms),
		RoomType:   hotel.NumBed,
		Rooms:      rooms,
		Transports: legs,
	})
	return nil
}

// hours parses a venue's opening hours. A closing time earlier than the
// opening time means the venue stays open past midnight; closes is then
// moved onto the next day.
func hours(openTime, endTime string) (opens, closes int, overnight bool, err error) {
	if opens, err = timeutil.ParseClock(openTime); err != nil {
		return 0, 0, false, err
	}
	if closes, err = timeutil.ParseClock(endTime); err != nil {
		return 0, 0, false, err
	}
	if closes < opens {
		closes += timeutil.MinutesPerDay
		overnight = true
	}
	return opens, closes, overnight, nil
}
