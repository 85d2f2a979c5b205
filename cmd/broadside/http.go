package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cfoust/broadside/pkg/ingress"
	"github.com/cfoust/broadside/pkg/ratings"
	"github.com/cfoust/broadside/pkg/version"

	"github.com/rs/zerolog/log"
)

const (
	DEFAULT_RATINGS_LIMIT = 10
	MAX_RATINGS_LIMIT     = 100
)

// NoStore is an http.Handler that disables the browser cache.
func NoStore(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		h.ServeHTTP(w, r)
	})
}

type API struct {
	ratings *ratings.Service
	clients *ingress.Manager
}

func NewAPI(ratings *ratings.Service, clients *ingress.Manager) *API {
	return &API{
		ratings: ratings,
		clients: clients,
	}
}

type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Clients int    `json:"clients"`
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/health":
		writeJSON(w, http.StatusOK, Health{
			Status:  "ok",
			Version: version.Version,
			Clients: a.clients.Count(),
		})
	case "/api/ratings":
		limit := DEFAULT_RATINGS_LIMIT
		if value := r.URL.Query().Get("limit"); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed < 1 || parsed > MAX_RATINGS_LIMIT {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		top, err := a.ratings.Top(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("failed to load ratings")
			http.Error(w, "could not load ratings", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, top)
	default:
		http.NotFound(w, r)
	}
}
