package models

import (
	"github.com/geolit/geolit/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	Extractor Extractor
	Resolver  Resolver
	Pipeline  PipelineRunner
	Fetcher   DocumentFetcher
	Config    *config.Config
}
