package router

import (
	"net/http"

	"restage-service/internal/http-server/handler/stage"
	"restage-service/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	StageHandler *stage.StageHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"success":false,"error":"Method not allowed"}`))
	})

	r.Post("/stage", h.StageHandler.CreateTask)
	r.Get("/status", h.StageHandler.TaskStatus)

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/restage", func(r chi.Router) {
			r.Post("/", h.StageHandler.Restage)
			r.Post("/batch", h.StageHandler.RestageBatch)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
