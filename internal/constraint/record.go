package constraint

import (
	"reflect"
	"strings"
)

// LocationLimit requires the hotel to lie within MaxDistance km of POI.
type LocationLimit struct {
	POI         string  `json:"poi"`
	MaxDistance float64 `json:"max_distance"`
}

// DistanceRule restricts innercity transport modes for legs whose distance
// falls in [Min, Max]. A nil bound is open.
type DistanceRule struct {
	Min   *float64 `json:"min_distance"`
	Max   *float64 `json:"max_distance"`
	Modes []string `json:"transport_type"`
}

// Record is the sparse set of hard constraints recognised in DSL text.
// Unconstrained fields are omitted when the record is encoded.
type Record struct {
	MustSeeAttraction          Field[[]string]          `json:"must_see_attraction,omitzero"`
	MustSeeAttractionType      Field[[]string]          `json:"must_see_attraction_type,omitzero"`
	MustNotSeeAttraction       Field[[]string]          `json:"must_not_see_attraction,omitzero"`
	MustNotSeeAttractionType   Field[[]string]          `json:"must_not_see_attraction_type,omitzero"`
	OnlyFreeAttractions        Field[bool]              `json:"only_free_attractions,omitzero"`
	ActivitiesStayTime         Field[map[string]int]    `json:"activities_stay_time_dict,omitzero"`
	ActivitiesArriveTime       Field[map[string]string] `json:"activities_arrive_time_dict,omitzero"`
	ActivitiesLeaveTime        Field[map[string]string] `json:"activities_leave_time_dict,omitzero"`
	MustVisitRestaurant        Field[[]string]          `json:"must_visit_restaurant,omitzero"`
	MustVisitRestaurantType    Field[[]string]          `json:"must_visit_restaurant_type,omitzero"`
	MustNotVisitRestaurant     Field[[]string]          `json:"must_not_visit_restaurant,omitzero"`
	MustNotVisitRestaurantType Field[[]string]          `json:"must_not_visit_restaurant_type,omitzero"`
	MustLiveHotel              Field[[]string]          `json:"must_live_hotel,omitzero"`
	MustLiveHotelFeature       Field[[]string]          `json:"must_live_hotel_feature,omitzero"`
	MustNotLiveHotel           Field[[]string]          `json:"must_not_live_hotel,omitzero"`
	HotelLocationLimits        Field[[]LocationLimit]   `json:"must_live_hotel_location_limit,omitzero"`
	BedNumber                  Field[int]               `json:"bed_number,omitzero"`
	RoomNumber                 Field[int]               `json:"room_number,omitzero"`
	MustInnercityTransport     Field[[]string]          `json:"must_innercity_transport,omitzero"`
	MustNotInnercityTransport  Field[[]string]          `json:"must_not_innercity_transport,omitzero"`
	TransportRulesByDistance   Field[[]DistanceRule]    `json:"transport_rules_by_distance,omitzero"`
	MustDepartTransport        Field[[]string]          `json:"must_depart_transport,omitzero"`
	MustNotDepartTransport     Field[[]string]          `json:"must_not_depart_transport,omitzero"`
	MustReturnTransport        Field[[]string]          `json:"must_return_transport,omitzero"`
	MustNotReturnTransport     Field[[]string]          `json:"must_not_return_transport,omitzero"`
	AttractionBudget           Field[float64]           `json:"attraction_budget,omitzero"`
	RestaurantBudget           Field[float64]           `json:"restaurant_budget,omitzero"`
	HotelBudget                Field[float64]           `json:"hotel_budget,omitzero"`
	IntercityTransportBudget   Field[float64]           `json:"intercity_transport_budget,omitzero"`
	InnercityTransportBudget   Field[float64]           `json:"innercity_transport_budget,omitzero"`
	OverallBudget              Field[float64]           `json:"overall_budget,omitzero"`
	RestaurantBudgetPerMeal    Field[float64]           `json:"restaurant_budget_per_meal,omitzero"`
	AllSatisfy                 Field[bool]              `json:"all_satisfy,omitzero"`
}

type setter interface{ IsSet() bool }

// Keys lists the json names of the constrained fields in declaration order.
func (r Record) Keys() []string {
	var keys []string
	v := reflect.ValueOf(r)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f, ok := v.Field(i).Interface().(setter)
		if !ok || !f.IsSet() {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		keys = append(keys, name)
	}
	return keys
}

// NameSet is a read-only set of POI names.
type NameSet map[string]struct{}

// NewNameSet builds a NameSet from names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set contains nothing.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// QueryContext is the per-request snapshot the parser needs: trip length,
// party size and the known attraction and restaurant names of the target city.
type QueryContext struct {
	Days        int
	People      int
	Attractions NameSet
	Restaurants NameSet
}
