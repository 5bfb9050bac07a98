package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"flowinsight/internal/api/handlers"
	"flowinsight/pkg/logger"
)

// TokenVerifier validates an API token and returns the username it
// belongs to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewRouter wires all endpoints. Health and the auth endpoints are
// public; everything else requires a valid token.
func NewRouter(
	authHandler *handlers.AuthHandler,
	stockHandler *handlers.StockHandler,
	realtimeHandler *handlers.RealtimeHandler,
	recHandler *handlers.RecommendationHandler,
	syncHandler *handlers.SyncHandler,
	verifier TokenVerifier,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", healthCheckHandler).Methods("GET")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware(verifier))

	protected.HandleFunc("/auth/verify", authHandler.Verify).Methods("GET")

	protected.HandleFunc("/stocks", stockHandler.List).Methods("GET")
	protected.HandleFunc("/stocks/{secid}/health", stockHandler.Health).Methods("GET")
	protected.HandleFunc("/stocks/{secid}/history", stockHandler.History).Methods("GET")
	protected.HandleFunc("/stocks/{secid}/indicators", stockHandler.Indicators).Methods("GET")

	protected.HandleFunc("/realtime/capital-flow", realtimeHandler.CapitalFlow).Methods("GET")
	protected.HandleFunc("/realtime/index", realtimeHandler.Index).Methods("GET")

	protected.HandleFunc("/recommendations", recHandler.List).Methods("GET")

	protected.HandleFunc("/sync/stocks", syncHandler.Stocks).Methods("POST")
	protected.HandleFunc("/sync/flows", syncHandler.Flows).Methods("POST")
	protected.HandleFunc("/sync/indexes", syncHandler.Indexes).Methods("POST")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "flowinsight-api",
	})
}

// authMiddleware accepts the token from the Authorization header
// ("Bearer <token>") or, for dashboard convenience, a token query
// parameter.
func authMiddleware(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			} else {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				unauthorized(w, "missing token")
				return
			}

			username, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithUsername(r.Context(), username)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    -1,
		"message": message,
	})
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("http request")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"code":    -1,
						"message": "internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
