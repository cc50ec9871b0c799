package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ai-travel-planner/internal/planner"
)

// SavedItinerary is a stored itinerary.
type SavedItinerary struct {
	ID        int64
	TripID    string
	Plan      planner.Itinerary
	CreatedAt time.Time
}

// ItineraryRepository is a database-backed repository for itineraries.
type ItineraryRepository struct {
	db *sql.DB
}

// NewItineraryRepository creates a new ItineraryRepository.
func NewItineraryRepository(d *sql.DB) *ItineraryRepository {
	return &ItineraryRepository{db: d}
}

// Save inserts a new itinerary for tripID and returns its id.
func (r *ItineraryRepository) Save(ctx context.Context, tripID string, plan planner.Itinerary) (int64, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal itinerary: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO itineraries (trip_id, plan_data, created_at) VALUES (?, ?, ?)`,
		tripID, data, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert itinerary: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns the limit most recent itineraries of tripID, newest first.
func (r *ItineraryRepository) ListRecent(ctx context.Context, tripID string, limit int) ([]SavedItinerary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, trip_id, plan_data, created_at FROM itineraries
		WHERE trip_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, tripID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	var out []SavedItinerary
	for rows.Next() {
		var s SavedItinerary
		var data []byte
		if err := rows.Scan(&s.ID, &s.TripID, &data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary: %w", err)
		}
		if err := json.Unmarshal(data, &s.Plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal itinerary %d: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
