/*
server.go - Router and HTTP middleware

PURPOSE:
  Wires the chi router: route table, CORS, panic recovery, and structured
  request logging. The handler owns the endpoints; this file owns
  everything around them.

ROUTES:
  GET  /api/attendance/{kind}                     day view + statistics
  POST /api/attendance/{kind}                     mark (create-or-merge)
  GET  /api/attendance/{kind}/roster              markable persons
  GET  /api/attendance/{kind}/report              per-person range report
  PUT  /api/attendance/{kind}/{recordID}          merge into existing record
  POST /api/attendance/{kind}/{recordID}/finalize lock the record
  POST /api/attendance/{kind}/{recordID}/reopen   unlock the record
  POST /api/admin/seed                            load demo data
  GET  /health                                    liveness probe
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter assembles the full HTTP surface.
func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", actorHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/attendance/{kind}", func(r chi.Router) {
			r.Get("/", h.GetAttendance)
			r.Post("/", h.MarkAttendance)
			r.Get("/roster", h.GetRoster)
			r.Get("/report", h.GetReport)
			r.Put("/{recordID}", h.UpdateAttendance)
			r.Post("/{recordID}/finalize", h.FinalizeRecord)
			r.Post("/{recordID}/reopen", h.ReopenRecord)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed", h.SeedDemo)
		})
	})

	return r
}

// requestLogger emits one structured log line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
