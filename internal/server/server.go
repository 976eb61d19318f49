package server

import (
	"fitscrape/internal/store"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server serves the stored exercise catalog as a read-only JSON API.
type Server struct {
	db     store.Store
	router chi.Router
}

// New creates a Server, `mcp` is mounted at /mcp when not nil.
func New(db store.Store, mcp http.Handler) *Server {
	s := &Server{
		db:     db,
		router: chi.NewRouter(),
	}
	s.routes(mcp)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(mcp http.Handler) {
	s.router.Use(RequestLogging)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{title}", s.handleGetExercise)
		r.Get("/search", s.handleSearch)
		r.Get("/exports/latest", s.handleLatestExport)
	})

	if mcp != nil {
		s.router.Handle("/mcp", mcp)
	}
}
