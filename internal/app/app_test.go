package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/planner"
	"ai-travel-planner/internal/poi"
	"ai-travel-planner/internal/ranking"
	"ai-travel-planner/internal/storage"
)

type fakeRemote struct {
	tables poi.Tables
}

func (f fakeRemote) Attractions(poi.Filter) poi.PageFunc[poi.Attraction] {
	return poi.SlicePages(f.tables.Attractions, 2)
}

func (f fakeRemote) Restaurants(poi.Filter) poi.PageFunc[poi.Restaurant] {
	return poi.SlicePages(f.tables.Restaurants, 2)
}

func (f fakeRemote) Accommodations(poi.Filter) poi.PageFunc[poi.Accommodation] {
	return poi.SlicePages(f.tables.Accommodations, 2)
}

func (f fakeRemote) Intercity(kind poi.Category, flt poi.Filter) poi.PageFunc[poi.IntercityOption] {
	var rows []poi.IntercityOption
	for _, o := range append(append([]poi.IntercityOption{}, f.tables.Outbound...), f.tables.Return...) {
		if (o.TrainID != "") == (kind == poi.CategoryTrain) && o.From == flt.From && o.To == flt.To {
			rows = append(rows, o)
		}
	}
	return poi.SlicePages(rows, 2)
}

func beijing() poi.Tables {
	return poi.Tables{
		City: "北京",
		Attractions: []poi.Attraction{
			{Name: "故宫", Type: "历史古迹", Latitude: 39.9163, Longitude: 116.3972, OpenTime: "08:30", EndTime: "16:30", Price: 60},
			{Name: "天坛", Type: "公园", Latitude: 39.8822, Longitude: 116.4066, OpenTime: "06:00", EndTime: "22:00", Price: 15},
		},
		Restaurants: []poi.Restaurant{
			{Name: "全聚德", Cuisine: "北京菜", Latitude: 39.8997, Longitude: 116.3976, Price: 200, OpenTime: "11:00", EndTime: "21:00"},
		},
		Accommodations: []poi.Accommodation{
			{Name: "北京饭店", Feature: "豪华酒店", Latitude: 39.9079, Longitude: 116.4077, Price: 1500, NumBed: 2},
			{Name: "如家", Feature: "快捷酒店", Latitude: 40.0500, Longitude: 116.3000, Price: 300, NumBed: 2},
			{Name: "汉庭", Feature: "快捷酒店", Latitude: 39.9100, Longitude: 116.4000, Price: 280, NumBed: 1},
		},
		Outbound: []poi.IntercityOption{
			{TrainID: "G5", From: "上海", To: "北京", BeginTime: "09:00", EndTime: "13:30", Cost: 553},
			{TrainID: "G1", From: "上海", To: "北京", BeginTime: "07:00", EndTime: "11:30", Cost: 700},
			{FlightID: "MU5101", From: "上海", To: "北京", BeginTime: "08:00", EndTime: "10:15", Cost: 900},
		},
		Return: []poi.IntercityOption{
			{TrainID: "G2", From: "北京", To: "上海", BeginTime: "14:00", EndTime: "18:30", Cost: 553},
			{TrainID: "G4", From: "北京", To: "上海", BeginTime: "19:00", EndTime: "23:30", Cost: 553},
		},
	}
}

func newTestApp(t *testing.T, remote poi.Environment, opts ...func(*config.Config)) (*App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		DBPath:           filepath.Join(dir, "travel.db"),
		PageSize:         2,
		LocatorCacheSize: 16,
		Ranking:          ranking.DefaultPolicy(),
		Placement:        planner.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	db, err := database.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	snapshots, err := storage.NewSnapshotStore(filepath.Join(dir, "snapshots"))
	require.NoError(t, err)

	var out bytes.Buffer
	a, err := NewApp(cfg, db, remote, snapshots, &out)
	require.NoError(t, err)
	return a, &out
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, fakeRemote{tables: beijing()})

	require.NoError(t, a.Collect(ctx, "上海", "北京"))
	assert.Contains(t, out.String(), "Collected 10 rows")
	assert.True(t, a.snapshots.Exists("上海", "北京"))

	tables, err := a.Tables(ctx, "上海", "北京")
	require.NoError(t, err)
	assert.Len(t, tables.Accommodations, 3)
	assert.Len(t, tables.Outbound, 3)

	runs, err := a.metricsStore.GetDailyRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "collect", runs[0].Command)
	assert.Equal(t, 10, runs[0].TotalRows)
}

func TestCollectWithoutRemote(t *testing.T) {
	a, _ := newTestApp(t, nil)
	assert.Error(t, a.Collect(context.Background(), "上海", "北京"))
}

func TestImportFileAndParse(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, nil)

	path := filepath.Join(t.TempDir(), "beijing.json")
	data, err := json.Marshal(beijing())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	require.NoError(t, a.ImportFile(ctx, path))
	assert.Contains(t, out.String(), "Imported 10 rows for 北京")

	out.Reset()
	req := TripRequest{
		Origin: "上海", Dest: "北京", Days: 2, People: 2,
		DSL: `attraction_name_set = set()
for activity in allactivities(plan):
    if activity_type(activity) == 'attraction':
        attraction_name_set.add(activity_position(activity))
result = ({'故宫'} <= attraction_name_set)`,
	}
	require.NoError(t, a.PrintParse(ctx, req))

	var decoded struct {
		Merged map[string]any `json:"merged"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, []any{"故宫"}, decoded.Merged["must_see_attraction"])
	assert.Equal(t, true, decoded.Merged["all_satisfy"])
}

func TestRankHotelsAndTransport(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, nil)
	tables := beijing()
	require.NoError(t, storage.Import(ctx, a.db.SQL, &tables))

	t.Run("hotels near a POI", func(t *testing.T) {
		out.Reset()
		req := TripRequest{Origin: "上海", Dest: "北京", Days: 2, People: 2, DSL: `result = accommodation_type_set >= {'快捷酒店'}
for activity in allactivities(plan):
    if activity_type(activity) == 'accommodation':
        if poi_distance(target_city(plan), activity_position(activity), '故宫')<=3: result=True`}
		hotels, err := a.RankHotels(ctx, req, 5)
		require.NoError(t, err)
		require.Len(t, hotels, 1)
		assert.Equal(t, "汉庭", hotels[0].Name)
		assert.Contains(t, out.String(), "汉庭")
	})

	t.Run("unknown must-live hotel", func(t *testing.T) {
		out.Reset()
		req := TripRequest{Origin: "上海", Dest: "北京", Days: 2, People: 2,
			DSL: `result = ({'不存在的酒店'} <= accommodation_name_set)`}
		hotels, err := a.RankHotels(ctx, req, 5)
		require.NoError(t, err)
		assert.Empty(t, hotels)
		assert.Contains(t, out.String(), "No hotel")
	})

	t.Run("transport", func(t *testing.T) {
		out.Reset()
		req := TripRequest{Origin: "上海", Dest: "北京", Days: 2, People: 2,
			DSL: `result = intercity_transport_cost <= 1000`}
		outbound, back, err := a.RankTransport(ctx, req, 0)
		require.NoError(t, err)

		require.Len(t, outbound, 1)
		assert.Equal(t, "G5", outbound[0].TrainID)
		require.Len(t, back, 2)
		assert.Equal(t, "G4", back[0].TrainID)
		assert.True(t, strings.Contains(out.String(), "Return 北京 -> 上海"))
	})
}

func TestSaveAndListPlans(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, nil)

	b, err := planner.NewBuilder(planner.DefaultPolicy())
	require.NoError(t, err)
	plan, err := b.PlaceAttraction(planner.Itinerary{}, 1, beijing().Attractions[0], "09:00", nil, 2)
	require.NoError(t, err)
	data, err := json.Marshal(plan)
	require.NoError(t, err)

	id, err := a.SavePlan(ctx, "trip-1", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Contains(t, out.String(), "cost 120.00")

	out.Reset()
	require.NoError(t, a.ListPlans(ctx, "trip-1", 10))
	assert.Contains(t, out.String(), "1 days")

	out.Reset()
	require.NoError(t, a.ListPlans(ctx, "trip-2", 10))
	assert.Contains(t, out.String(), "No itineraries")

	_, err = a.SavePlan(ctx, "trip-1", strings.NewReader("{"))
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, fakeRemote{tables: beijing()})
	require.NoError(t, a.Collect(ctx, "上海", "北京"))

	out.Reset()
	require.NoError(t, a.Status(ctx, 7))
	assert.Contains(t, out.String(), "collect")
	assert.Contains(t, out.String(), "snapshots: 1")

	removed, err := a.CleanupMetrics(ctx, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(0))
}

func TestRankHotelsFromSnapshot(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, nil)
	tables := beijing()
	require.NoError(t, a.snapshots.Save("上海", &tables))

	req := TripRequest{Origin: "上海", Dest: "北京", Days: 2, People: 2, DSL: `for activity in allactivities(plan):
    if activity_type(activity) == 'accommodation':
        if poi_distance(target_city(plan), activity_position(activity), '故宫')<=1: result=True`}
	hotels, err := a.RankHotels(ctx, req, 5)
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, "汉庭", hotels[0].Name)
	assert.Contains(t, out.String(), "汉庭")
}

func TestPlanFirstDay(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, nil, func(cfg *config.Config) {
		cfg.Placement.AttractionVisitMinutes = 120
	})
	tables := beijing()
	require.NoError(t, storage.Import(ctx, a.db.SQL, &tables))

	req := TripRequest{Origin: "上海", Dest: "北京", Days: 2, People: 2,
		DSL: `result = intercity_transport_cost <= 1000`}
	plan, id, err := a.PlanFirstDay(ctx, req, "trip-1")
	require.NoError(t, err)
	assert.Positive(t, id)

	require.Len(t, plan.Days, 2)
	day1 := plan.Days[0].Activities
	require.Len(t, day1, 4)

	assert.Equal(t, planner.ActivityTrain, day1[0].Type)
	assert.Equal(t, "G5", day1[0].TrainID)
	assert.Equal(t, 2, day1[0].Tickets)

	assert.Equal(t, planner.ActivityAttraction, day1[1].Type)
	assert.Equal(t, "天坛", day1[1].Position)
	assert.Equal(t, "13:30", day1[1].StartTime)
	assert.Equal(t, "15:30", day1[1].EndTime)
	assert.Empty(t, day1[1].Transports)

	// Too late for lunch, so the restaurant serves dinner.
	assert.Equal(t, planner.ActivityDinner, day1[2].Type)
	assert.Equal(t, "全聚德", day1[2].Position)
	assert.Equal(t, "17:00", day1[2].StartTime)
	require.Len(t, day1[2].Transports, 1)
	assert.Equal(t, "metro", day1[2].Transports[0].Mode)
	assert.InDelta(t, 2.1, day1[2].Transports[0].Distance, 0.2)

	assert.Equal(t, planner.ActivityAccommodation, day1[3].Type)
	assert.Equal(t, "汉庭", day1[3].Position)
	assert.Equal(t, 2, day1[3].Rooms)

	require.Len(t, plan.Days[1].Activities, 1)
	assert.Equal(t, "G4", plan.Days[1].Activities[0].TrainID)

	assert.Equal(t, 3202.0, plan.Cost())
	assert.Contains(t, out.String(), "Saved itinerary")

	saved, err := a.plans.ListRecent(ctx, "trip-1", 1)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, plan.Cost(), saved[0].Plan.Cost())
}

func TestPlanFirstDayWithoutOutbound(t *testing.T) {
	a, _ := newTestApp(t, nil)
	req := TripRequest{Origin: "上海", Dest: "北京", Days: 1, People: 1}
	_, _, err := a.PlanFirstDay(context.Background(), req, "trip-1")
	assert.Error(t, err)
}
