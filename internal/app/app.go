package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/constraint"
	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/geo"
	"ai-travel-planner/internal/metrics"
	"ai-travel-planner/internal/planner"
	"ai-travel-planner/internal/poi"
	"ai-travel-planner/internal/ranking"
	"ai-travel-planner/internal/storage"
)

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	db           *database.DB
	remote       poi.Environment
	local        *storage.Environment
	snapshots    *storage.SnapshotStore
	plans        *storage.ItineraryRepository
	metricsStore *metrics.Store
	ranker       *ranking.Ranker
	builder      *planner.Builder
	out          io.Writer
}

// NewApp creates and initializes a new App instance. remote may be nil when
// no travel environment is configured.
func NewApp(
	cfg *config.Config,
	db *database.DB,
	remote poi.Environment,
	snapshots *storage.SnapshotStore,
	out io.Writer,
) (*App, error) {
	locator, err := geo.NewCachedLocator(storage.NewLocator(db.SQL), cfg.LocatorCacheSize)
	if err != nil {
		return nil, err
	}
	builder, err := planner.NewBuilder(cfg.Placement)
	if err != nil {
		return nil, fmt.Errorf("invalid placement policy: %w", err)
	}
	return &App{
		cfg:          cfg,
		db:           db,
		remote:       remote,
		local:        storage.NewEnvironment(db.SQL, cfg.PageSize),
		snapshots:    snapshots,
		plans:        storage.NewItineraryRepository(db.SQL),
		metricsStore: metrics.NewStore(db.SQL),
		ranker:       ranking.NewRanker(locator, cfg.Ranking),
		builder:      builder,
		out:          out,
	}, nil
}

// TripRequest identifies the trip a DSL text was written for.
type TripRequest struct {
	Origin string
	Dest   string
	Days   int
	People int
	DSL    string
}

// Collect pulls the tables of a trip from the remote environment, keeps a
// JSON snapshot and mirrors them into the local store.
func (a *App) Collect(ctx context.Context, origin, dest string) error {
	if a.remote == nil {
		return fmt.Errorf("no remote travel environment configured")
	}
	start := time.Now()

	tables, err := poi.CollectTables(ctx, a.remote, origin, dest)
	if err != nil {
		return fmt.Errorf("failed to collect %s: %w", dest, err)
	}
	if err := a.snapshots.Save(origin, tables); err != nil {
		log.Printf("Warning: failed to save snapshot for %s: %v", dest, err)
	}
	if err := storage.Import(ctx, a.db.SQL, tables); err != nil {
		return err
	}

	a.record(ctx, metrics.Since("collect", dest, rowCount(tables), start))
	fmt.Fprintf(a.out, "Collected %d rows for %s -> %s.\n", rowCount(tables), origin, dest)
	return nil
}

// ImportFile loads a JSON tables file into the local store.
func (a *App) ImportFile(ctx context.Context, path string) error {
	start := time.Now()
	tables, err := storage.LoadTablesFile(path)
	if err != nil {
		return err
	}
	if err := storage.Import(ctx, a.db.SQL, tables); err != nil {
		return err
	}
	a.record(ctx, metrics.Since("import", tables.City, rowCount(tables), start))
	fmt.Fprintf(a.out, "Imported %d rows for %s from %s.\n", rowCount(tables), tables.City, filepath.Base(path))
	return nil
}

// Tables reads every table of a trip back from the local store.
func (a *App) Tables(ctx context.Context, origin, dest string) (*poi.Tables, error) {
	return poi.CollectTables(ctx, a.local, origin, dest)
}

// tripData is a trip's tables, its parsed constraints and the ranker whose
// locator can resolve the tables' POIs.
type tripData struct {
	res    constraint.Result
	tables *poi.Tables
	ranker *ranking.Ranker
}

// load reads the trip's tables and parses req.DSL against them. When the
// local store holds nothing for the trip but a snapshot does, the snapshot
// is used and POIs are located from it in memory.
func (a *App) load(ctx context.Context, req TripRequest) (*tripData, error) {
	tables, err := a.Tables(ctx, req.Origin, req.Dest)
	if err != nil {
		return nil, err
	}
	ranker := a.ranker
	if rowCount(tables) == 0 && a.snapshots.Exists(req.Origin, req.Dest) {
		if tables, err = a.snapshots.Load(req.Origin, req.Dest); err != nil {
			return nil, err
		}
		log.Printf("No stored rows for %s -> %s, using snapshot", req.Origin, req.Dest)
		ranker = ranking.NewRanker(tableLocator(tables), a.cfg.Ranking)
	}
	return &tripData{
		res:    constraint.Parse(req.DSL, tables.Names(req.Days, req.People)),
		tables: tables,
		ranker: ranker,
	}, nil
}

// Parse extracts the constraint record of req.
func (a *App) Parse(ctx context.Context, req TripRequest) (constraint.Result, *poi.Tables, error) {
	trip, err := a.load(ctx, req)
	if err != nil {
		return constraint.Result{}, nil, err
	}
	return trip.res, trip.tables, nil
}

// PrintParse prints the merged record and the groups of req.
func (a *App) PrintParse(ctx context.Context, req TripRequest) error {
	res, _, err := a.Parse(ctx, req)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal constraints: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

// RankHotels prints the hotels satisfying the hotel constraints of req,
// cheapest first, at most limit of them.
func (a *App) RankHotels(ctx context.Context, req TripRequest, limit int) ([]poi.Accommodation, error) {
	trip, err := a.load(ctx, req)
	if err != nil {
		return nil, err
	}
	tables := trip.tables
	idx := trip.ranker.RankHotels(ctx, tables.Accommodations, ranking.Query{City: req.Dest, People: req.People}, trip.res.Merged)
	if len(idx) == 0 {
		fmt.Fprintln(a.out, "No hotel satisfies the constraints.")
		return nil, nil
	}

	var hotels []poi.Accommodation
	for n, i := range idx {
		if limit > 0 && n == limit {
			break
		}
		h := tables.Accommodations[i]
		hotels = append(hotels, h)
		fmt.Fprintf(a.out, "%2d. %s  %.0f/night  %d bed(s)  %s\n", n+1, h.Name, h.Price, h.NumBed, h.Feature)
	}
	return hotels, nil
}

// RankTransport prints the outbound and return options of req in ranked order.
func (a *App) RankTransport(ctx context.Context, req TripRequest, limit int) (outbound, back []poi.IntercityOption, err error) {
	trip, err := a.load(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	rec, tables := trip.res.Merged, trip.tables

	outbound = pick(tables.Outbound, trip.ranker.RankOutbound(tables.Outbound, rec.IntercityTransportBudget, rec.OverallBudget), limit)
	back = pick(tables.Return, ranking.RankReturn(tables.Return), limit)

	fmt.Fprintf(a.out, "Outbound %s -> %s:\n", req.Origin, req.Dest)
	printOptions(a.out, outbound)
	fmt.Fprintf(a.out, "Return %s -> %s:\n", req.Dest, req.Origin)
	printOptions(a.out, back)
	return outbound, back, nil
}

// SavePlan stores an itinerary JSON file under tripID.
func (a *App) SavePlan(ctx context.Context, tripID string, r io.Reader) (int64, error) {
	var plan planner.Itinerary
	if err := json.NewDecoder(r).Decode(&plan); err != nil {
		return 0, fmt.Errorf("failed to decode itinerary: %w", err)
	}
	id, err := a.plans.Save(ctx, tripID, plan)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(a.out, "Saved itinerary %d for trip %s (%d days, cost %.2f).\n", id, tripID, len(plan.Days), plan.Cost())
	return id, nil
}

// ListPlans prints the most recent itineraries of tripID.
func (a *App) ListPlans(ctx context.Context, tripID string, limit int) error {
	saved, err := a.plans.ListRecent(ctx, tripID, limit)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		fmt.Fprintf(a.out, "No itineraries for trip %s.\n", tripID)
		return nil
	}
	for _, s := range saved {
		fmt.Fprintf(a.out, "#%d  %s  %d days  cost %.2f\n",
			s.ID, s.CreatedAt.Format(time.RFC3339), len(s.Plan.Days), s.Plan.Cost())
	}
	return nil
}

// Status prints process health and recent command runs.
func (a *App) Status(ctx context.Context, days int) error {
	h := metrics.GetSysHealth(a.cfg.DBPath, a.snapshots.Dir())
	fmt.Fprintf(a.out, "Memory: %d MB allocated, %d MB from OS, %d GCs, %d goroutines\n",
		h.AllocMB, h.SysMB, h.NumGC, h.Goroutines)
	fmt.Fprintf(a.out, "Database: %s, snapshots: %d (%s)\n", h.DBSize, h.Snapshots, h.SnapshotSize)

	runs, err := a.metricsStore.GetDailyRuns(ctx, days)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(a.out, "%s  %-8s %3d runs  %6d rows  %.0f ms avg\n", r.Date, r.Command, r.Runs, r.TotalRows, r.AvgMS)
	}
	return nil
}

// CleanupMetrics removes run metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}

func (a *App) record(ctx context.Context, m metrics.RunMetric) {
	if err := a.metricsStore.Record(ctx, m); err != nil {
		log.Printf("Warning: %v", err)
	}
}

// tableLocator indexes the POIs of t. Attractions are added last so they win
// a name clash, as in the SQL locator.
func tableLocator(t *poi.Tables) geo.TableLocator {
	loc := geo.TableLocator{}
	for _, p := range t.Accommodations {
		loc.Add(t.City, p.Name, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
	}
	for _, p := range t.Restaurants {
		loc.Add(t.City, p.Name, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
	}
	for _, p := range t.Attractions {
		loc.Add(t.City, p.Name, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
	}
	return loc
}

func rowCount(t *poi.Tables) int {
	return len(t.Attractions) + len(t.Restaurants) + len(t.Accommodations) + len(t.Outbound) + len(t.Return)
}

func pick(options []poi.IntercityOption, idx []int, limit int) []poi.IntercityOption {
	out := make([]poi.IntercityOption, 0, len(idx))
	for _, i := range idx {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, options[i])
	}
	return out
}

func printOptions(w io.Writer, options []poi.IntercityOption) {
	if len(options) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for n, o := range options {
		id := o.TrainID
		if id == "" {
			id = o.FlightID
		}
		fmt.Fprintf(w, "  %2d. %-8s %s-%s  %.2f\n", n+1, id, o.BeginTime, o.EndTime, o.Cost)
	}
}
