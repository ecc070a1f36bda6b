package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

const ReadHeaderTimeout = 5 * time.Second

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", appState.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/geocode", GeocodeTextHandler(appState))
		r.Post("/resolve", ResolveToponymHandler(appState))
	})

	return router
}
