package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-travel-planner/internal/constraint"
	"ai-travel-planner/internal/geo"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/planner"
	"ai-travel-planner/internal/ranking"
)

// dayCursor tracks where the party is and when it is free again.
type dayCursor struct {
	clock    string
	position string
}

// PlanFirstDay builds day 1 of the trip from the best ranked candidates: the
// outbound train or flight, one attraction, a lunch or dinner and the hotel.
// A trip longer than one day also gets the first return option on its last
// day. The itinerary is stored under tripID.
func (a *App) PlanFirstDay(ctx context.Context, req TripRequest, tripID string) (planner.Itinerary, int64, error) {
	start := time.Now()
	trip, err := a.load(ctx, req)
	if err != nil {
		return planner.Itinerary{}, 0, err
	}
	rec, tables := trip.res.Merged, trip.tables
	people := max(req.People, 1)

	var plan planner.Itinerary
	out := trip.ranker.RankOutbound(tables.Outbound, rec.IntercityTransportBudget, rec.OverallBudget)
	if len(out) == 0 {
		return plan, 0, fmt.Errorf("no outbound option from %s to %s", req.Origin, req.Dest)
	}
	outbound := tables.Outbound[out[0]]
	if err := a.builder.PlaceIntercityTransport(&plan, 1, outbound, nil, people); err != nil {
		return plan, 0, fmt.Errorf("failed to place outbound transport: %w", err)
	}
	cur := dayCursor{clock: outbound.EndTime}

	for _, i := range ranking.RankAttractions(tables.Attractions, rec) {
		attr := tables.Attractions[i]
		legs := a.legs(ctx, trip, cur, attr.Name)
		next, err := a.builder.PlaceAttraction(plan, 1, attr, cur.clock, legs, people)
		if err != nil {
			log.Printf("Skipping attraction %s: %v", attr.Name, err)
			continue
		}
		plan, cur = next, advance(next, attr.Name)
		break
	}

	placedMeal := false
meals:
	for _, i := range ranking.RankRestaurants(tables.Restaurants, rec) {
		r := tables.Restaurants[i]
		legs := a.legs(ctx, trip, cur, r.Name)
		for _, meal := range []planner.Meal{planner.MealLunch, planner.MealDinner} {
			next, err := a.builder.PlaceMeal(plan, 1, meal, r, cur.clock, legs, people)
			if err != nil {
				continue
			}
			plan, cur = next, advance(next, r.Name)
			placedMeal = true
			break meals
		}
	}
	if !placedMeal {
		log.Printf("No restaurant fits a meal window after %s", cur.clock)
	}

	hotels := trip.ranker.RankHotels(ctx, tables.Accommodations, ranking.Query{City: req.Dest, People: people}, rec)
	if len(hotels) > 0 {
		hotel := tables.Accommodations[hotels[0]]
		rooms := rec.RoomNumber.Or(roomsFor(people, hotel.NumBed))
		if err := a.builder.PlaceAccommodation(&plan, 1, hotel, cur.clock, a.legs(ctx, trip, cur, hotel.Name), rooms); err != nil {
			return plan, 0, fmt.Errorf("failed to place hotel: %w", err)
		}
	} else {
		log.Printf("No hotel satisfies the constraints for %s", req.Dest)
	}

	if req.Days > 1 {
		if back := ranking.RankReturn(tables.Return); len(back) > 0 {
			if err := a.builder.PlaceIntercityTransport(&plan, req.Days, tables.Return[back[0]], nil, people); err != nil {
				return plan, 0, fmt.Errorf("failed to place return transport: %w", err)
			}
		}
	}

	id, err := a.plans.Save(ctx, tripID, plan)
	if err != nil {
		return plan, 0, err
	}
	a.record(ctx, metrics.Since("plan", req.Dest, len(plan.Days), start))

	a.printPlan(plan)
	fmt.Fprintf(a.out, "Saved itinerary %d for trip %s (cost %.2f).\n", id, tripID, plan.Cost())
	return plan, id, nil
}

// legs returns the single innercity hop from the cursor to dest, or no hop
// when either end cannot be located. Travel time and fares are not modelled.
func (a *App) legs(ctx context.Context, trip *tripData, cur dayCursor, dest string) []planner.TransportLeg {
	if cur.position == "" || cur.position == dest {
		return nil
	}
	km, ok := geo.Distance(ctx, trip.ranker.Locator, trip.tables.City, cur.position, dest)
	if !ok {
		return nil
	}
	rec := trip.res.Merged
	mode := pickMode(ranking.ModesForDistance(km, rec.TransportRulesByDistance.Or(nil)), rec)
	return []planner.TransportLeg{{
		Start:     cur.position,
		End:       dest,
		Mode:      mode,
		StartTime: cur.clock,
		EndTime:   cur.clock,
		Distance:  km,
	}}
}

// pickMode returns the first mode allowed by the innercity transport
// constraints, or the first mode when none is.
func pickMode(modes []string, rec constraint.Record) string {
	deny := constraint.NewNameSet(rec.MustNotInnercityTransport.Or(nil)...)
	want := rec.MustInnercityTransport.Or(nil)
	allow := constraint.NewNameSet(want...)
	for _, m := range modes {
		if deny.Has(m) || (len(want) > 0 && !allow.Has(m)) {
			continue
		}
		return m
	}
	return modes[0]
}

func advance(plan planner.Itinerary, position string) dayCursor {
	acts := plan.Days[0].Activities
	return dayCursor{clock: acts[len(acts)-1].EndTime, position: position}
}

func roomsFor(people, beds int) int {
	beds = max(beds, 1)
	return (people + beds - 1) / beds
}

func (a *App) printPlan(plan planner.Itinerary) {
	for _, d := range plan.Days {
		if len(d.Activities) == 0 {
			continue
		}
		fmt.Fprintf(a.out, "Day %d:\n", d.Day)
		for _, act := range d.Activities {
			name := act.Position
			if name == "" {
				name = describeIntercity(act)
			}
			fmt.Fprintf(a.out, "  %s-%s  %-13s %s  %.2f\n", act.StartTime, act.EndTime, act.Type, name, act.Cost)
		}
	}
}

func describeIntercity(act planner.Activity) string {
	id := act.TrainID
	if id == "" {
		id = act.FlightID
	}
	return fmt.Sprintf("%s %s -> %s", id, act.Start, act.End)
}
