package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ai-travel-planner/internal/app"
	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/envclient"
	"ai-travel-planner/internal/poi"
	"ai-travel-planner/internal/storage"
)

func main() {
	ctx := context.Background()

	if err := config.LoadDotEnv(""); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Args[1] == "migrate" {
		version, err := database.RunMigrations(cfg.DBPath)
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Printf("Schema at version %d.\n", version)
		return
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	snapshots, err := storage.NewSnapshotStore(filepath.Join(filepath.Dir(cfg.DBPath), "snapshots"))
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	var remote poi.Environment
	if cfg.EnvURL != "" {
		remote = envclient.NewClient(cfg.EnvURL, cfg.EnvKey, cfg.PageSize)
	}

	application, err := app.NewApp(cfg, db, remote, snapshots, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	switch os.Args[1] {
	case "collect":
		cmd := flag.NewFlagSet("collect", flag.ExitOnError)
		from := cmd.String("from", "", "Origin city")
		to := cmd.String("to", "", "Destination city")
		cmd.Parse(os.Args[2:])
		requireFlags(cmd, *from, *to)

		if err := cfg.RequireEnv(); err != nil {
			log.Fatalf("Collect failed: %v", err)
		}
		if err := application.Collect(ctx, *from, *to); err != nil {
			log.Fatalf("Collect failed: %v", err)
		}
	case "import":
		cmd := flag.NewFlagSet("import", flag.ExitOnError)
		file := cmd.String("file", "", "JSON file with the POI tables of one city")
		cmd.Parse(os.Args[2:])
		requireFlags(cmd, *file)

		if err := application.ImportFile(ctx, *file); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	case "parse":
		req, _ := tripFlags("parse", nil)
		if err := application.PrintParse(ctx, req); err != nil {
			log.Fatalf("Parse failed: %v", err)
		}
	case "rank-hotels":
		req, limit := tripFlags("rank-hotels", nil)
		if _, err := application.RankHotels(ctx, req, limit); err != nil {
			log.Fatalf("Ranking failed: %v", err)
		}
	case "rank-transport":
		req, limit := tripFlags("rank-transport", nil)
		if _, _, err := application.RankTransport(ctx, req, limit); err != nil {
			log.Fatalf("Ranking failed: %v", err)
		}
	case "plan":
		var trip string
		req, _ := tripFlags("plan", func(cmd *flag.FlagSet) {
			cmd.StringVar(&trip, "trip", "", "Trip identifier to store the itinerary under")
		})
		if trip == "" {
			trip = req.Origin + "-" + req.Dest
		}
		if _, _, err := application.PlanFirstDay(ctx, req, trip); err != nil {
			log.Fatalf("Planning failed: %v", err)
		}
	case "save-plan":
		cmd := flag.NewFlagSet("save-plan", flag.ExitOnError)
		trip := cmd.String("trip", "", "Trip identifier")
		file := cmd.String("file", "-", "Itinerary JSON file, - for stdin")
		cmd.Parse(os.Args[2:])
		requireFlags(cmd, *trip)

		r, closeFn := openInput(*file)
		defer closeFn()
		if _, err := application.SavePlan(ctx, *trip, r); err != nil {
			log.Fatalf("Saving itinerary failed: %v", err)
		}
	case "plans":
		cmd := flag.NewFlagSet("plans", flag.ExitOnError)
		trip := cmd.String("trip", "", "Trip identifier")
		limit := cmd.Int("limit", 10, "Number of itineraries to show")
		cmd.Parse(os.Args[2:])
		requireFlags(cmd, *trip)

		if err := application.ListPlans(ctx, *trip, *limit); err != nil {
			log.Fatalf("Listing itineraries failed: %v", err)
		}
	case "status":
		cmd := flag.NewFlagSet("status", flag.ExitOnError)
		days := cmd.Int("days", 7, "Show runs of the last N days")
		cmd.Parse(os.Args[2:])

		if err := application.Status(ctx, *days); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
	case "metrics-cleanup":
		cmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cmd.Int("days", 30, "Keep records for the last N days")
		cmd.Parse(os.Args[2:])

		affected, err := application.CleanupMetrics(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// tripFlags parses the flags shared by the commands that read DSL text.
// extra may register command specific flags.
func tripFlags(name string, extra func(*flag.FlagSet)) (app.TripRequest, int) {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	from := cmd.String("from", "", "Origin city")
	to := cmd.String("to", "", "Destination city")
	days := cmd.Int("days", 1, "Trip length in days")
	people := cmd.Int("people", 1, "Party size")
	file := cmd.String("file", "-", "DSL file, - for stdin")
	limit := cmd.Int("limit", 10, "Maximum number of candidates to print")
	if extra != nil {
		extra(cmd)
	}
	cmd.Parse(os.Args[2:])
	requireFlags(cmd, *from, *to)

	r, closeFn := openInput(*file)
	defer closeFn()
	dsl, err := io.ReadAll(r)
	if err != nil {
		log.Fatalf("Failed to read DSL: %v", err)
	}

	return app.TripRequest{
		Origin: *from,
		Dest:   *to,
		Days:   *days,
		People: *people,
		DSL:    string(dsl),
	}, *limit
}

func openInput(path string) (io.Reader, func()) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	return f, func() { f.Close() }
}

func requireFlags(cmd *flag.FlagSet, values ...string) {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			fmt.Printf("Missing required flags for %s.\n", cmd.Name())
			cmd.Usage()
			os.Exit(2)
		}
	}
}

func printUsage() {
	fmt.Println("Usage: travel-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  migrate            Apply database migrations")
	fmt.Println("  collect            Fetch a trip's POI tables from the travel environment")
	fmt.Println("  import             Load POI tables from a JSON file")
	fmt.Println("  parse              Extract hard constraints from DSL text")
	fmt.Println("  rank-hotels        Rank hotels under the DSL constraints")
	fmt.Println("  rank-transport     Rank outbound and return trains and flights")
	fmt.Println("  plan               Build and store day 1 from the best ranked candidates")
	fmt.Println("  save-plan          Store an itinerary JSON file")
	fmt.Println("  plans              List stored itineraries of a trip")
	fmt.Println("  status             Show process health and recent runs")
	fmt.Println("  metrics-cleanup    Remove old run metrics")
}
