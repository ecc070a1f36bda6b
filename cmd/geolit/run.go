package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geolit/geolit/config"
	"github.com/geolit/geolit/pkg/cache"
	"github.com/geolit/geolit/pkg/extractors"
	"github.com/geolit/geolit/pkg/gallica"
	"github.com/geolit/geolit/pkg/httputil"
	"github.com/geolit/geolit/pkg/lookup"
	"github.com/geolit/geolit/pkg/models"
	"github.com/geolit/geolit/pkg/pipeline"
	"github.com/geolit/geolit/pkg/resolver"
	"github.com/geolit/geolit/pkg/server"
	"github.com/geolit/geolit/pkg/sparql"
)

const (
	CacheTypeMemory = "memory"
	CacheTypeSQLite = "sqlite"
)

// run is the entrypoint for the geolit server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring geolit: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting geolit server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState := NewAppState(cfg)

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState struct from the config file / ENV,
// wiring the lookup, SPARQL and NER clients behind the resolution cache.
func NewAppState(cfg *config.Config) *models.AppState {
	searcher := lookup.NewClient(
		cfg.Lookup.Endpoint,
		httputil.NewRetryableHTTPClient(cfg.Lookup.RetryMax, time.Duration(cfg.Lookup.Timeout)*time.Second),
	)
	geocoder := sparql.NewClient(
		cfg.Sparql.Endpoint,
		httputil.NewRetryableHTTPClient(cfg.Sparql.RetryMax, time.Duration(cfg.Sparql.Timeout)*time.Second),
	)

	resources, coords, store := initializeCaches(cfg)

	resolutionService := resolver.NewService(searcher, geocoder, resources, coords)

	appState := &models.AppState{
		Extractor: extractors.NewNERExtractor(
			cfg.NLP.ServerURL,
			cfg.NLP.Language,
			&http.Client{Timeout: time.Duration(cfg.Gallica.Timeout) * time.Second},
		),
		Resolver: resolutionService,
		Pipeline: pipeline.New(resolutionService, cfg.Pipeline.Workers),
		Fetcher: gallica.NewFetcher(
			httputil.NewRetryableHTTPClient(2, time.Duration(cfg.Gallica.Timeout)*time.Second),
		),
		Config: cfg,
	}

	setupSignalHandler(store)

	return appState
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		raw, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Println(string(raw))
		os.Exit(0)
	}
}

// initializeCaches builds the resolution caches based on the config file /
// ENV. The returned Store is non-nil only for the sqlite cache and must be
// closed on shutdown.
func initializeCaches(cfg *config.Config) (cache.Cache[string], cache.Cache[*models.Coordinate], *cache.Store) {
	switch cfg.Cache.Type {
	case CacheTypeSQLite:
		store, err := cache.OpenStore(cfg.Cache.Path)
		if err != nil {
			log.Fatalf("Failed to open cache store: %v", err)
		}
		log.Info("Using persistent resolution cache: ", cfg.Cache.Path)
		return cache.NewSQLite[string](store, "top1"),
			cache.NewSQLite[*models.Coordinate](store, "geocode"),
			store
	case CacheTypeMemory:
		return cache.NewMemory[string](), cache.NewMemory[*models.Coordinate](), nil
	default:
		log.Fatalf("cache.type (%s) is not supported", cfg.Cache.Type)
		return nil, nil, nil
	}
}

// setupSignalHandler closes the cache store on termination.
func setupSignalHandler(store *cache.Store) {
	if store == nil {
		return
	}
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if err := store.Close(); err != nil {
			log.Errorf("Error closing cache store: %v", err)
		}
		os.Exit(0)
	}()
}
