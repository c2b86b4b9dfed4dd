package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/trailhead-backend/internal/app"
	"github.com/yungbote/trailhead-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx, "trailhead-api")
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		a.Log.Error("failed to start background workers", "error", err)
		os.Exit(1)
	}
	if err := a.RunAPI(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
