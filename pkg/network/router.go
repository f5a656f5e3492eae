package network

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"lumen/pkg/shared/ecs"
)

var ErrEntityNotFound = errors.New("entity not found")

// Admin is the debug surface of the world.
type Admin interface {
	// AdjustHp adds delta to the entity's hp and returns the result.
	AdjustHp(ctx context.Context, handle ecs.Entity, delta int32) (int32, error)
}

type RouterOptions struct {
	Sessions Handler
	Admin    Admin
	Metrics  http.Handler
	Logger   *slog.Logger
}

func NewRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPatch},
		Debug:          false,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	if opts.Sessions != nil {
		r.Get("/ws", ServeSessions(opts.Sessions, opts.Logger))
	}

	if opts.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequestLogger(opts.Logger))
			r.Patch("/entities/{handle}/hp", NewAdjustHpHandler(opts.Admin))
		})
	}

	return r
}

// RequestLogger logs each request once it has been served.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

type adjustHpRequest struct {
	Delta int32 `json:"delta"`
}

type adjustHpResponse struct {
	Handle uint32 `json:"handle"`
	Hp     int32  `json:"hp"`
}

func NewAdjustHpHandler(admin Admin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle, err := strconv.ParseUint(chi.URLParam(r, "handle"), 10, 32)
		if err != nil {
			http.Error(w, "invalid entity handle", http.StatusBadRequest)
			return
		}

		var req adjustHpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		hp, err := admin.AdjustHp(r.Context(), ecs.Entity(handle), req.Delta)
		if errors.Is(err, ErrEntityNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(adjustHpResponse{Handle: uint32(handle), Hp: hp})
	}
}
