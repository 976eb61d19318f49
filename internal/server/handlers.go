package server

import (
	"encoding/json"
	"fitscrape/internal/catalog"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleListExercises lists every exercise, or only those working the
// `muscle` query parameter.
func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	c, err := s.db.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	muscle := r.URL.Query().Get("muscle")
	if muscle == "" {
		writeJSON(w, http.StatusOK, c.Exercises())
		return
	}

	titles, err := s.db.ExercisesWorking(r.Context(), muscle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	exercises := make([]catalog.Exercise, 0, len(titles))
	for _, title := range titles {
		e, ok := c.Get(title)
		if ok {
			exercises = append(exercises, e)
		}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid title"})
		return
	}

	c, err := s.db.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	e, ok := c.Get(title)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no exercise titled " + title})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type searchResult struct {
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Url        string  `json:"url"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q parameter required"})
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	c, err := s.db.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	matches := c.Search(query, limit)
	results := make([]searchResult, len(matches))
	for i, m := range matches {
		results[i] = searchResult{
			Title:      m.Exercise.Title,
			Similarity: m.Similarity,
			Url:        m.Exercise.Url,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleLatestExport(w http.ResponseWriter, r *http.Request) {
	run, ok, err := s.db.LastExport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "nothing exported yet"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}
