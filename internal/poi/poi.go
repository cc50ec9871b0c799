package poi

import "ai-travel-planner/internal/constraint"

// Category names one environment table.
type Category string

const (
	CategoryAttraction    Category = "attractions"
	CategoryRestaurant    Category = "restaurants"
	CategoryAccommodation Category = "accommodations"
	CategoryTrain         Category = "train"
	CategoryAirplane      Category = "airplane"
)

// Attraction is one row of the attraction table.
type Attraction struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	OpenTime  string  `json:"opentime"`
	EndTime   string  `json:"endtime"`
	Price     float64 `json:"price"`
	// Recommended visit length in hours, as published by the environment.
	RecommendMinTime float64 `json:"recommendmintime"`
	RecommendMaxTime float64 `json:"recommendmaxtime"`
}

// Restaurant is one row of the restaurant table.
type Restaurant struct {
	Name            string  `json:"name"`
	Cuisine         string  `json:"cuisine"`
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	Price           float64 `json:"price"`
	OpenTime        string  `json:"opentime"`
	EndTime         string  `json:"endtime"`
	RecommendedFood string  `json:"recommendedfood"`
}

// Accommodation is one row of the hotel table. Price is per room per night.
type Accommodation struct {
	Name      string  `json:"name"`
	Feature   string  `json:"featurehoteltype"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Price     float64 `json:"price"`
	NumBed    int     `json:"numbed"`
}

// IntercityOption is a train or flight between two cities. Exactly one of
// TrainID and FlightID is set.
type IntercityOption struct {
	TrainID   string  `json:"TrainID,omitempty"`
	FlightID  string  `json:"FlightID,omitempty"`
	TrainType string  `json:"TrainType,omitempty"`
	From      string  `json:"From"`
	To        string  `json:"To"`
	BeginTime string  `json:"BeginTime"`
	EndTime   string  `json:"EndTime"`
	Duration  float64 `json:"Duration"`
	Cost      float64 `json:"Cost"`
}

// Tables holds the complete POI tables of one city plus the intercity
// options to and from it.
type Tables struct {
	City           string            `json:"city"`
	Attractions    []Attraction      `json:"attractions"`
	Restaurants    []Restaurant      `json:"restaurants"`
	Accommodations []Accommodation   `json:"accommodations"`
	Outbound       []IntercityOption `json:"outbound"`
	Return         []IntercityOption `json:"return"`
}

// Names returns the read-only name snapshot the constraint parser uses to
// classify time-window targets.
func (t Tables) Names(days, people int) constraint.QueryContext {
	attractions := make([]string, 0, len(t.Attractions))
	for _, a := range t.Attractions {
		attractions = append(attractions, a.Name)
	}
	restaurants := make([]string, 0, len(t.Restaurants))
	for _, r := range t.Restaurants {
		restaurants = append(restaurants, r.Name)
	}
	return constraint.QueryContext{
		Days:        days,
		People:      people,
		Attractions: constraint.NewNameSet(attractions...),
		Restaurants: constraint.NewNameSet(restaurants...),
	}
}
