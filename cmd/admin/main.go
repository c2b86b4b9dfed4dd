package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/trailhead-backend/internal/app"
	"github.com/yungbote/trailhead-backend/internal/platform/shutdown"
)

func main() {
	seedPath := flag.String("seed", "", "catalog YAML to load before serving (default SEED_CATALOG_PATH)")
	seedOnly := flag.Bool("seed-only", false, "load the catalog and exit")
	flag.Parse()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx, "trailhead-admin")
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	res, err := a.Seed(ctx, *seedPath)
	if err != nil {
		a.Log.Error("catalog seed failed", "error", err)
		os.Exit(1)
	}
	if res != nil {
		a.Log.Info("catalog seeded", "tags", res.TagsCreated, "cities", res.CitiesCreated, "routes", res.RoutesCreated)
	}
	if *seedOnly {
		return
	}

	if err := a.Start(ctx); err != nil {
		a.Log.Error("failed to start background workers", "error", err)
		os.Exit(1)
	}
	if err := a.RunAdmin(ctx); err != nil {
		a.Log.Error("admin server exited", "error", err)
		os.Exit(1)
	}
}
