package planner

// ActivityType tags what an Activity is.
type ActivityType string

const (
	ActivityTrain         ActivityType = "train"
	ActivityAirplane      ActivityType = "airplane"
	ActivityAttraction    ActivityType = "attraction"
	ActivityBreakfast     ActivityType = "breakfast"
	ActivityLunch         ActivityType = "lunch"
	ActivityDinner        ActivityType = "dinner"
	ActivityAccommodation ActivityType = "accommodation"
)

// TransportLeg is one innercity hop taken to reach an activity. Legs are
// computed by the caller and stored as given.
type TransportLeg struct {
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Mode      string  `json:"mode"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Distance  float64 `json:"distance"`
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost"`
	Tickets   int     `json:"tickets,omitempty"`
	Cars      int     `json:"cars,omitempty"`
}

// Activity is one scheduled item of a day.
type Activity struct {
	Type       ActivityType   `json:"type"`
	Position   string         `json:"position,omitempty"`
	Start      string         `json:"start,omitempty"`
	End        string         `json:"end,omitempty"`
	TrainID    string         `json:"TrainID,omitempty"`
	FlightID   string         `json:"FlightID,omitempty"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Price      float64        `json:"price"`
	Cost       float64        `json:"cost"`
	Tickets    int            `json:"tickets,omitempty"`
	RoomType   int            `json:"room_type,omitempty"`
	Rooms      int            `json:"rooms,omitempty"`
	Transports []TransportLeg `json:"transports"`
}

// Day holds the activities of one trip day. Day numbers start at 1.
type Day struct {
	Day        int        `json:"day"`
	Activities []Activity `json:"activities"`
}

// Itinerary is the day-structured plan under construction.
type Itinerary struct {
	Days []Day `json:"itinerary"`
}

// Clone returns a deep copy that shares no slices with it.
func (it Itinerary) Clone() Itinerary {
	out := Itinerary{Days: make([]Day, len(it.Days))}
	for i, d := range it.Days {
		acts := make([]Activity, len(d.Activities))
		for j, a := range d.Activities {
			legs := make([]TransportLeg, len(a.Transports))
			copy(legs, a.Transports)
			a.Transports = legs
			acts[j] = a
		}
		out.Days[i] = Day{Day: d.Day, Activities: acts}
	}
	return out
}

// Cost sums the cost of every activity and its transport legs.
func (it Itinerary) Cost() float64 {
	var total float64
	for _, d := range it.Days {
		for _, a := range d.Activities {
			total += a.Cost
			for _, leg := range a.Transports {
				total += leg.Cost
			}
		}
	}
	return total
}

// day returns day n, appending empty days up to n first.
func (it *Itinerary) day(n int) *Day {
	for len(it.Days) < n {
		it.Days = append(it.Days, Day{Day: len(it.Days) + 1, Activities: []Activity{}})
	}
	return &it.Days[n-1]
}

func (it *Itinerary) add(n int, a Activity) {
	if a.Transports == nil {
		a.Transports = []TransportLeg{}
	}
	d := it.day(n)
	d.Activities = append(d.Activities, a)
}
