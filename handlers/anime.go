package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"anistream/internal/mediaresolve"
	"anistream/models"
	"anistream/services/catalog"
)

//go:generate mockgen -source=anime.go -destination=mock_catalog_test.go -package=handlers

type catalogService interface {
	FetchHome(ctx context.Context) (json.RawMessage, error)
	Search(ctx context.Context, query string, page int) (json.RawMessage, error)
	GetDetails(ctx context.Context, animeID string) (json.RawMessage, error)
	GetEpisodeList(ctx context.Context, animeID string) (json.RawMessage, error)
	GetOverview(ctx context.Context, animeID string) (*models.AnimeOverview, error)
	ResolveEpisodeSources(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error)
	Servers(ctx context.Context, episodeID string) (*models.EpisodeServers, error)
	GetCategoryPage(ctx context.Context, name string, page int) (json.RawMessage, error)
}

var _ catalogService = (*catalog.Service)(nil)

type AnimeHandler struct {
	Service catalogService
	Policy  mediaresolve.QualityPolicy
	now     func() time.Time
}

func NewAnimeHandler(s catalogService, policy mediaresolve.QualityPolicy) *AnimeHandler {
	return &AnimeHandler{Service: s, Policy: policy, now: time.Now}
}

func (h *AnimeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.FetchHome(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

func (h *AnimeHandler) Search(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

func (h *AnimeHandler) Details(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.GetDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

func (h *AnimeHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.GetEpisodeList(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

// Overview returns details and episodes in one response.
func (h *AnimeHandler) Overview(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.GetOverview(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

// Sources proxies the raw sources payload. The client-facing "id" is the
// upstream animeEpisodeId.
func (h *AnimeHandler) Sources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := h.Service.ResolveEpisodeSources(r.Context(), q.Get("id"), q.Get("server"), q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

func (h *AnimeHandler) Servers(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.Servers(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

// Playback resolves the sources server side. An episode without a playable
// source is not an HTTP error: the envelope succeeds and carries
// noPlayableSource so the client can offer another server or a retry.
func (h *AnimeHandler) Playback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	episodeID := strings.TrimSpace(q.Get("id"))
	server := strings.TrimSpace(q.Get("server"))
	category := strings.TrimSpace(q.Get("category"))

	resp, err := h.Service.ResolveEpisodeSources(r.Context(), episodeID, server, category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sel, err := mediaresolve.Resolve(resp, h.Policy)
	if errors.Is(err, mediaresolve.ErrNoPlayableSource) {
		writeData(w, models.NoPlayableSource{
			NoPlayableSource: true,
			Message:          fmt.Sprintf("No video available for episode %s; try another server or category.", episodeID),
			EpisodeID:        episodeID,
			Server:           server,
			Category:         category,
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, sel)
}

func (h *AnimeHandler) Category(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.GetCategoryPage(r.Context(), mux.Vars(r)["category"], pageParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, data)
}

func (h *AnimeHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	writeData(w, models.HealthStatus{
		Status:    "ok",
		Timestamp: now().UTC().Format(time.RFC3339Nano),
	})
}

// Banner describes the service at the root path.
func (h *AnimeHandler) Banner(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"message": "anistream API",
		"status":  "running",
		"routes": map[string]string{
			"home":     "/api/anime/home",
			"search":   "/api/anime/search?q=naruto",
			"details":  "/api/anime/{id}",
			"episodes": "/api/anime/{id}/episodes",
			"sources":  "/api/anime/episode/sources?id={episodeId}&server=hd-1&category=sub",
			"playback": "/api/anime/episode/playback?id={episodeId}",
			"category": "/api/anime/category/{category}?page=1",
			"health":   "/api/health",
		},
	})
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("page")))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
