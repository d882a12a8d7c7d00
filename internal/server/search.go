package server

import (
	"net/http"
	"strconv"

	"github.com/meteoright00/diary-quest-sub001/internal/search"
)

// handleSearch answers semantic queries over the diary index. Deployments
// without an index (no embeddings provider, or a non-postgres backend)
// get a 404 so clients can distinguish "not configured" from "no matches".
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusNotFound, "search is not configured")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := search.DefaultLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	matches, err := s.index.Search(r.Context(), q, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if matches == nil {
		matches = []search.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}
