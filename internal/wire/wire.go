// internal/wire/wire.go
package wire

import (
	"context"
	"net/http"
	"time"

	"cinema-ledger/internal/adaptor"
	"cinema-ledger/internal/data/repository"
	"cinema-ledger/internal/usecase"
	"cinema-ledger/pkg/cache"
	"cinema-ledger/pkg/middleware"
	"cinema-ledger/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router over repo.
func Wiring(
	repo *repository.Repository,
	listings cache.Cache,
	clock utils.Clock,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, listings, clock, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, repo, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/health", health(repo.Health, logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if config != nil && config.App.RequestTimeout > 0 {
			r.Use(chimw.Timeout(config.App.RequestTimeout))
		}

		wireFilm(r, handler.Film)
		wireHall(r, handler.Hall)
		wireScreening(r, handler.Screening)
		wireBooking(r, handler.Booking)
	})

	return r
}

func health(checker repository.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseServiceUnavailable(w, "Database unavailable")
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
