package api

import (
	"time"

	"github.com/ronospace/flowiq/internal/db"
	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options carries the runtime knobs the handlers need beyond the database.
type Options struct {
	SecretKey        []byte
	Location         *time.Location
	Logger           *logrus.Logger
	StatisticsWindow int
	LutealPhaseDays  int
}

// New wires the full handler graph: repositories over the database, the
// intelligence engine, and the services the routes dispatch into.
func New(database *gorm.DB, options Options) *Handler {
	location := options.Location
	if location == nil {
		location = time.UTC
	}
	logger := options.Logger
	if logger == nil {
		logger = logrus.New()
	}

	repositories := db.NewRepositories(database)
	intelligence := engine.New(logger, engine.Options{
		StatisticsWindow: options.StatisticsWindow,
		LutealPhaseDays:  options.LutealPhaseDays,
	})
	insights := services.NewInsightsService(
		repositories.Users,
		repositories.Cycles,
		repositories.Entries,
		repositories.Wearables,
		intelligence,
	)

	return &Handler{
		db:           database,
		secretKey:    options.SecretKey,
		location:     location,
		logger:       logger,
		repositories: repositories,
		tracking: services.NewTrackingService(
			repositories.Cycles,
			repositories.Entries,
			repositories.Wearables,
			repositories.Users,
		),
		insights: insights,
		exports:  services.NewExportService(insights),
	}
}

// Insights exposes the report service for collaborators wired outside the
// HTTP layer, such as the consultation notifier.
func (handler *Handler) Insights() *services.InsightsService {
	return handler.insights
}

// Repositories exposes the repository bundle for the same collaborators.
func (handler *Handler) Repositories() *db.Repositories {
	return handler.repositories
}
