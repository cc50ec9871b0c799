package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"ai-travel-planner/internal/poi"
)

const (
	upsertAttraction = `INSERT INTO attractions
		(city, name, type, lat, lon, opentime, endtime, price, recommendmintime, recommendmaxtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (city, name) DO UPDATE SET
			type = excluded.type, lat = excluded.lat, lon = excluded.lon,
			opentime = excluded.opentime, endtime = excluded.endtime, price = excluded.price,
			recommendmintime = excluded.recommendmintime, recommendmaxtime = excluded.recommendmaxtime`

	upsertRestaurant = `INSERT INTO restaurants
		(city, name, cuisine, lat, lon, price, opentime, endtime, recommendedfood)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (city, name) DO UPDATE SET
			cuisine = excluded.cuisine, lat = excluded.lat, lon = excluded.lon, price = excluded.price,
			opentime = excluded.opentime, endtime = excluded.endtime, recommendedfood = excluded.recommendedfood`

	upsertAccommodation = `INSERT INTO accommodations
		(city, name, featurehoteltype, lat, lon, price, numbed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (city, name) DO UPDATE SET
			featurehoteltype = excluded.featurehoteltype, lat = excluded.lat, lon = excluded.lon,
			price = excluded.price, numbed = excluded.numbed`

	upsertIntercity = `INSERT INTO intercity
		(kind, code, train_type, from_city, to_city, begin_time, end_time, duration, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, code, from_city, to_city, begin_time) DO UPDATE SET
			train_type = excluded.train_type, end_time = excluded.end_time,
			duration = excluded.duration, cost = excluded.cost`
)

// Import upserts every row of t in one transaction. Rows are keyed by city
// and name; intercity options by kind, code, route and departure.
func Import(ctx context.Context, d *sql.DB, t *poi.Tables) error {
	if t.City == "" {
		return fmt.Errorf("tables have no city")
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, a := range t.Attractions {
		if _, err := tx.ExecContext(ctx, upsertAttraction, t.City, a.Name, a.Type, a.Latitude, a.Longitude,
			a.OpenTime, a.EndTime, a.Price, a.RecommendMinTime, a.RecommendMaxTime); err != nil {
			return fmt.Errorf("failed to import attraction %s: %w", a.Name, err)
		}
	}
	for _, r := range t.Restaurants {
		if _, err := tx.ExecContext(ctx, upsertRestaurant, t.City, r.Name, r.Cuisine, r.Latitude, r.Longitude,
			r.Price, r.OpenTime, r.EndTime, r.RecommendedFood); err != nil {
			return fmt.Errorf("failed to import restaurant %s: %w", r.Name, err)
		}
	}
	for _, a := range t.Accommodations {
		if _, err := tx.ExecContext(ctx, upsertAccommodation, t.City, a.Name, a.Feature, a.Latitude, a.Longitude,
			a.Price, a.NumBed); err != nil {
			return fmt.Errorf("failed to import accommodation %s: %w", a.Name, err)
		}
	}
	for _, o := range append(append([]poi.IntercityOption{}, t.Outbound...), t.Return...) {
		kind, code := poi.CategoryTrain, o.TrainID
		if code == "" {
			kind, code = poi.CategoryAirplane, o.FlightID
		}
		if code == "" {
			return fmt.Errorf("intercity option %s-%s at %s has no train or flight id", o.From, o.To, o.BeginTime)
		}
		if _, err := tx.ExecContext(ctx, upsertIntercity, string(kind), code, o.TrainType, o.From, o.To,
			o.BeginTime, o.EndTime, o.Duration, o.Cost); err != nil {
			return fmt.Errorf("failed to import %s %s: %w", kind, code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	log.Printf("Imported %s: %d attractions, %d restaurants, %d hotels, %d intercity options",
		t.City, len(t.Attractions), len(t.Restaurants), len(t.Accommodations), len(t.Outbound)+len(t.Return))
	return nil
}
