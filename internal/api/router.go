package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fxpulse/internal/api/handlers"
	"github.com/wonny/fxpulse/pkg/logger"
)

// RouterDeps are the handlers mounted by NewRouter.
// WS and Metrics are optional.
type RouterDeps struct {
	Market        *handlers.MarketHandler
	Notifications *handlers.NotificationHandler
	Pipeline      *handlers.PipelineHandler
	WS            http.HandlerFunc
	Metrics       http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes are registered in this function only
func NewRouter(deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics).Methods("GET")
	}
	if deps.WS != nil {
		r.HandleFunc("/ws", deps.WS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// a known path with the wrong method answers 405, on the subrouter too
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	// Market state
	api.HandleFunc("/instruments", deps.Market.ListInstruments).Methods("GET")
	api.HandleFunc("/signals", deps.Market.ListSignals).Methods("GET")
	api.HandleFunc("/signals/{symbol}", deps.Market.GetSignal).Methods("GET")

	// Notifications
	api.HandleFunc("/notifications", deps.Notifications.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", deps.Notifications.MarkRead).Methods("POST")

	// Pipeline
	api.HandleFunc("/refresh", deps.Pipeline.Refresh).Methods("POST")
	api.HandleFunc("/scheduler/jobs", deps.Pipeline.ListJobs).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "fxpulse",
	})
}

// methodNotAllowedHandler answers a method mismatch in the API error shape
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Method not allowed",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
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
