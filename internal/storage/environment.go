package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ai-travel-planner/internal/poi"
)

// Environment serves the POI tables stored in SQLite page by page.
type Environment struct {
	db       *sql.DB
	pageSize int
}

// NewEnvironment creates an Environment returning pageSize rows per page.
func NewEnvironment(d *sql.DB, pageSize int) *Environment {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Environment{db: d, pageSize: pageSize}
}

func (e *Environment) Attractions(f poi.Filter) poi.PageFunc[poi.Attraction] {
	return paged(e, `SELECT name, type, lat, lon, opentime, endtime, price, recommendmintime, recommendmaxtime
		FROM attractions WHERE city = ? ORDER BY id`, []any{f.City},
		func(rows *sql.Rows) (poi.Attraction, error) {
			var a poi.Attraction
			err := rows.Scan(&a.Name, &a.Type, &a.Latitude, &a.Longitude, &a.OpenTime, &a.EndTime,
				&a.Price, &a.RecommendMinTime, &a.RecommendMaxTime)
			return a, err
		})
}

func (e *Environment) Restaurants(f poi.Filter) poi.PageFunc[poi.Restaurant] {
	return paged(e, `SELECT name, cuisine, lat, lon, price, opentime, endtime, recommendedfood
		FROM restaurants WHERE city = ? ORDER BY id`, []any{f.City},
		func(rows *sql.Rows) (poi.Restaurant, error) {
			var r poi.Restaurant
			err := rows.Scan(&r.Name, &r.Cuisine, &r.Latitude, &r.Longitude, &r.Price,
				&r.OpenTime, &r.EndTime, &r.RecommendedFood)
			return r, err
		})
}

func (e *Environment) Accommodations(f poi.Filter) poi.PageFunc[poi.Accommodation] {
	return paged(e, `SELECT name, featurehoteltype, lat, lon, price, numbed
		FROM accommodations WHERE city = ? ORDER BY id`, []any{f.City},
		func(rows *sql.Rows) (poi.Accommodation, error) {
			var a poi.Accommodation
			err := rows.Scan(&a.Name, &a.Feature, &a.Latitude, &a.Longitude, &a.Price, &a.NumBed)
			return a, err
		})
}

func (e *Environment) Intercity(kind poi.Category, f poi.Filter) poi.PageFunc[poi.IntercityOption] {
	return paged(e, `SELECT code, train_type, from_city, to_city, begin_time, end_time, duration, cost
		FROM intercity WHERE kind = ? AND from_city = ? AND to_city = ? ORDER BY begin_time, id`,
		[]any{string(kind), f.From, f.To},
		func(rows *sql.Rows) (poi.IntercityOption, error) {
			var o poi.IntercityOption
			var code string
			err := rows.Scan(&code, &o.TrainType, &o.From, &o.To, &o.BeginTime, &o.EndTime, &o.Duration, &o.Cost)
			if kind == poi.CategoryTrain {
				o.TrainID = code
			} else {
				o.FlightID = code
			}
			return o, err
		})
}

func paged[T any](e *Environment, query string, args []any, scan func(*sql.Rows) (T, error)) poi.PageFunc[T] {
	return func(ctx context.Context, page int) ([]T, error) {
		params := make([]any, 0, len(args)+2)
		params = append(params, args...)
		params = append(params, e.pageSize, page*e.pageSize)

		rows, err := e.db.QueryContext(ctx, query+" LIMIT ? OFFSET ?", params...)
		if err != nil {
			return nil, fmt.Errorf("failed to query page %d: %w", page, err)
		}
		defer rows.Close()

		var out []T
		for rows.Next() {
			row, err := scan(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan row: %w", err)
			}
			out = append(out, row)
		}
		return out, rows.Err()
	}
}
