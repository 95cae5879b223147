package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/universe/internal/api/handlers"
	"github.com/wonny/universe/pkg/logger"
)

// Handlers groups the endpoint handlers. Jobs and Metrics are optional.
type Handlers struct {
	Health   *handlers.HealthHandler
	Universe *handlers.UniverseHandler
	Jobs     *handlers.JobsHandler
	Metrics  http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Check).Methods(http.MethodGet)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	// Snapshot endpoints; /dates is registered before {date}
	api.HandleFunc("/universe", h.Universe.GetLatest).Methods(http.MethodGet)
	api.HandleFunc("/universe/dates", h.Universe.ListDates).Methods(http.MethodGet)
	api.HandleFunc("/universe/{date}", h.Universe.GetByDate).Methods(http.MethodGet)
	api.HandleFunc("/version", h.Universe.GetVersion).Methods(http.MethodGet)

	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.GetStats).Methods(http.MethodGet)
		api.HandleFunc("/jobs/{name}/run", h.Jobs.Run).Methods(http.MethodPost)
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// statusRecorder captures the response code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
