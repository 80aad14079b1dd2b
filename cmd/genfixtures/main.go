// Command genfixtures snapshots the live EDF datasets into test fixtures.
// Each family is fetched with the production client, trimmed to the first
// -limit records, and written as a self-consistent records response.
//
// Usage:
//
//	go run ./cmd/genfixtures -out internal/pipeline/testdata -limit 5
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/edf-plant-map/internal/adapter/opendata"
	"github.com/couchcryptid/edf-plant-map/internal/config"
	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/couchcryptid/edf-plant-map/internal/observability"
	"github.com/goccy/go-json"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory receiving <family>.json fixtures")
	limit := flag.Int("limit", 5, "records kept per family (0 keeps all)")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := opendata.NewClient(*timeout, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	datasets := []domain.Dataset{
		{Family: domain.Hydraulic, URL: cfg.HydroURL},
		{Family: domain.Nuclear, URL: cfg.NuclearURL},
		{Family: domain.Thermal, URL: cfg.ThermalURL},
	}

	ctx := context.Background()
	for _, ds := range datasets {
		resp, err := client.Fetch(ctx, ds)
		if err != nil {
			return err
		}
		fixture := trim(resp, *limit)

		table, err := domain.Normalize(ds.Family, fixture)
		if err != nil {
			return err
		}
		printStats(ds.Family, resp.TotalCount, table)

		path := filepath.Join(*outDir, string(ds.Family)+".json")
		if err := writeJSON(path, fixture); err != nil {
			return fmt.Errorf("writing %s fixture: %w", ds.Family, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

// trim keeps the first limit results and rewrites total_count to match.
func trim(resp domain.Response, limit int) domain.Response {
	if resp.Results == nil {
		return resp
	}
	results := *resp.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return domain.Response{TotalCount: len(results), Results: &results}
}

func printStats(family domain.Family, live int, t domain.Table) {
	log.Printf("%s: %d live records, %d kept, %d georeferenced", family, live, t.Len(), t.Georeferenced())

	counts := t.CategoryCounts()
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		log.Printf("  %-30s %d", domain.CategoryLabel(c), counts[c])
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
