package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/geolit/geolit/config"
	"github.com/geolit/geolit/pkg/models"
)

// runResolve is the one-shot CLI path: geocode a document given by --url, or
// the toponyms passed as arguments.
func runResolve(args []string) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring geolit: %s", err)
	}
	config.SetLogLevel(cfg)

	if resolveURL == "" && len(args) == 0 {
		log.Fatal("provide toponyms as arguments or a document with --url")
	}

	appState := NewAppState(cfg)
	ctx := context.Background()

	occurrences := args
	if resolveURL != "" {
		text, err := appState.Fetcher.FetchText(ctx, resolveURL)
		if err != nil {
			log.Fatalf("Failed to fetch document: %v", err)
		}
		entities, err := appState.Extractor.Extract(ctx, text)
		if err != nil {
			log.Fatalf("Entity extraction failed: %v", err)
		}
		occurrences = nil
		for _, entity := range entities {
			if entity.Label != models.LocationLabel {
				continue
			}
			for range entity.Matches {
				occurrences = append(occurrences, entity.Name)
			}
		}
	}

	warmCache(ctx, appState, occurrences)

	rows, err := appState.Pipeline.Aggregate(ctx, occurrences)
	if err != nil {
		log.Fatalf("Aggregation failed: %v", err)
	}

	printTable(rows)
	fmt.Printf("%s mentions, %s resolved toponyms\n",
		humanize.Comma(int64(len(occurrences))), humanize.Comma(int64(len(rows))))
}

// warmCache resolves each distinct toponym once with a progress bar. The
// aggregation afterwards is served entirely from cache.
func warmCache(ctx context.Context, appState *models.AppState, occurrences []string) {
	seen := make(map[string]struct{}, len(occurrences))
	var distinct []string
	for _, toponym := range occurrences {
		if _, ok := seen[toponym]; ok {
			continue
		}
		seen[toponym] = struct{}{}
		distinct = append(distinct, toponym)
	}

	bar := progressbar.NewOptions(len(distinct),
		progressbar.OptionSetDescription("Resolving"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for _, toponym := range distinct {
		if _, err := appState.Resolver.Resolve(ctx, toponym); err != nil {
			log.Warnf("resolution of %q failed: %v", toponym, err)
		}
		_ = bar.Add(1)
	}
}

func printTable(rows []models.AggregateRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OCCS\tTOPONYM\tRESOURCE\tLAT\tLONG")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%f\t%f\n",
			row.Count, row.Toponym, row.Resource, row.Coordinate.Lat, row.Coordinate.Long)
	}
	_ = w.Flush()
}
