// analytics-recompute runs a one-off analytics pass without the HTTP server.
// Useful after bulk imports or threshold changes.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/analytics-recompute --business-id <uuid> [--scope ALL|CATEGORY|STALE_ONLY] \
//     [--category-id N] [--window-days N] [--all-businesses]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/inventory_backend/analytics"
	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
)

func main() {
	businessID := flag.String("business-id", "", "Business id (uuid); required unless --all-businesses")
	scope := flag.String("scope", "ALL", "Refresh scope: ALL, CATEGORY or STALE_ONLY")
	categoryID := flag.Int("category-id", 0, "Category id (required for CATEGORY scope)")
	windowDays := flag.Int("window-days", 0, "Lookback window in days (0 = configured default)")
	allBusinesses := flag.Bool("all-businesses", false, "Run for every active business")
	flag.Parse()

	if !*allBusinesses && strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required (or pass --all-businesses)")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	ctx := context.Background()
	req := analytics.RefreshRequest{
		Scope:      analytics.RefreshScope(strings.ToUpper(strings.TrimSpace(*scope))),
		CategoryId: *categoryID,
		WindowDays: *windowDays,
	}

	var targets []string
	if *allBusinesses {
		ids, err := models.GetActiveBusinessIds(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list businesses: %v\n", err)
			os.Exit(1)
		}
		targets = ids
	} else {
		targets = []string{strings.TrimSpace(*businessID)}
	}

	failures := 0
	for _, id := range targets {
		bizCtx := utils.SetBusinessIdInContext(ctx, id)
		summary, err := analytics.RefreshAll(bizCtx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "business %s: refresh failed: %v\n", id, err)
			failures++
			continue
		}
		fmt.Printf("business %s: profiles=%d skipped=%d correlations=%d insufficient=%d zero-variance=%d errors=%d in %s\n",
			id, summary.ProfilesRefreshed, summary.ProfilesSkipped, summary.CorrelationsUpserted,
			summary.PairsInsufficient, summary.PairsZeroVariance, summary.Errors,
			summary.FinishedAt.Sub(summary.StartedAt).Round(1e6))
	}
	if failures > 0 {
		os.Exit(1)
	}
}
