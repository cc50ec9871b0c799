package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ai-travel-planner/internal/geo"
)

// Locator looks POI coordinates up in the stored attraction, restaurant and
// hotel tables, in that order.
type Locator struct {
	db *sql.DB
}

// NewLocator creates a Locator.
func NewLocator(d *sql.DB) *Locator {
	return &Locator{db: d}
}

const locateQuery = `
SELECT lat, lon FROM (
	SELECT 1 AS rank, lat, lon FROM attractions WHERE city = ?1 AND name = ?2
	UNION ALL
	SELECT 2, lat, lon FROM restaurants WHERE city = ?1 AND name = ?2
	UNION ALL
	SELECT 3, lat, lon FROM accommodations WHERE city = ?1 AND name = ?2
) ORDER BY rank LIMIT 1`

func (l *Locator) Locate(ctx context.Context, city, name string) (geo.Point, error) {
	var p geo.Point
	err := l.db.QueryRowContext(ctx, locateQuery, city, name).Scan(&p.Lat, &p.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return geo.Point{}, geo.ErrNotFound
	}
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to locate %s in %s: %w", name, city, err)
	}
	return p, nil
}
