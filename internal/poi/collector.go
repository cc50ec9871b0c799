package poi

import (
	"context"
	"fmt"
	"log"
)

// PageFunc returns the rows of page n (0-based). An empty page ends the table.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Filter narrows an environment query.
type Filter struct {
	City string
	// From and To select intercity options.
	From string
	To   string
}

// Environment is the paged query interface of the travel environment.
type Environment interface {
	Attractions(f Filter) PageFunc[Attraction]
	Restaurants(f Filter) PageFunc[Restaurant]
	Accommodations(f Filter) PageFunc[Accommodation]
	Intercity(kind Category, f Filter) PageFunc[IntercityOption]
}

// maxPages guards against an environment that never returns an empty page.
const maxPages = 10000

// Collect keeps requesting pages until an empty one comes back and returns
// the concatenated rows.
func Collect[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var rows []T
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if len(batch) == 0 {
			return rows, nil
		}
		rows = append(rows, batch...)
	}
	return nil, fmt.Errorf("environment returned more than %d pages", maxPages)
}

// SlicePages serves rows in pages of size rows each.
func SlicePages[T any](rows []T, size int) PageFunc[T] {
	if size <= 0 {
		size = len(rows) + 1
	}
	return func(_ context.Context, page int) ([]T, error) {
		start := page * size
		if start >= len(rows) {
			return nil, nil
		}
		end := min(start+size, len(rows))
		return rows[start:end], nil
	}
}

// CollectTables pulls every table for a trip from origin to dest and back.
func CollectTables(ctx context.Context, env Environment, origin, dest string) (*Tables, error) {
	f := Filter{City: dest}
	t := &Tables{City: dest}

	var err error
	if t.Attractions, err = Collect(ctx, env.Attractions(f)); err != nil {
		return nil, fmt.Errorf("failed to collect attractions: %w", err)
	}
	if t.Restaurants, err = Collect(ctx, env.Restaurants(f)); err != nil {
		return nil, fmt.Errorf("failed to collect restaurants: %w", err)
	}
	if t.Accommodations, err = Collect(ctx, env.Accommodations(f)); err != nil {
		return nil, fmt.Errorf("failed to collect accommodations: %w", err)
	}

	for _, kind := range []Category{CategoryTrain, CategoryAirplane} {
		out, err := Collect(ctx, env.Intercity(kind, Filter{From: origin, To: dest}))
		if err != nil {
			return nil, fmt.Errorf("failed to collect outbound %s: %w", kind, err)
		}
		t.Outbound = append(t.Outbound, out...)

		back, err := Collect(ctx, env.Intercity(kind, Filter{From: dest, To: origin}))
		if err != nil {
			return nil, fmt.Errorf("failed to collect return %s: %w", kind, err)
		}
		t.Return = append(t.Return, back...)
	}

	log.Printf("Collected %s: %d attractions, %d restaurants, %d hotels, %d outbound, %d return",
		dest, len(t.Attractions), len(t.Restaurants), len(t.Accommodations), len(t.Outbound), len(t.Return))
	return t, nil
}
