package httpapi

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/assets"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/api"
)

const maxCoverBytes = 10 << 20

// parseCoverUpload extracts the optional "cover" file from a multipart form.
// Returns nil when the request carries no file.
func parseCoverUpload(r *http.Request) (*assets.Upload, error) {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(ct, "multipart/") {
		return nil, nil
	}
	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverBytes))
	if err != nil {
		return nil, err
	}
	return &assets.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func splitGenres(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ListAnime handles GET /v1/anime
func ListAnime(m *catalog.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		list, err := m.ListAnime(r.Context(), limit, offset)
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"anime": list})
	}
}

// GetAnime handles GET /v1/anime/{id} and returns the hydrated subtree.
func GetAnime(m *catalog.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := m.GetSubtree(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, tree)
	}
}

// CreateAnime handles POST /v1/anime (multipart, admin only).
func CreateAnime(m *catalog.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cover, err := parseCoverUpload(r)
		if err != nil {
			api.BadRequest(w, "INVALID_FORM", "could not parse upload", requestID(r), nil)
			return
		}
		created, err := m.CreateAnime(r.Context(), catalog.CreateAnimeInput{
			Title:       strings.TrimSpace(r.FormValue("title")),
			Description: strings.TrimSpace(r.FormValue("description")),
			Genres:      splitGenres(r.FormValue("genres")),
			ReleaseDate: parseDate(r.FormValue("release_date")),
			Status:      catalog.Status(strings.TrimSpace(r.FormValue("status"))),
			Cover:       cover,
		})
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateAnime handles PATCH /v1/anime/{id} (multipart, admin only).
func UpdateAnime(m *catalog.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cover, err := parseCoverUpload(r)
		if err != nil {
			api.BadRequest(w, "INVALID_FORM", "could not parse upload", requestID(r), nil)
			return
		}
		_ = r.ParseForm()
		var genres []string
		if _, ok := r.Form["genres"]; ok {
			genres = splitGenres(r.FormValue("genres"))
		}
		updated, err := m.UpdateAnime(r.Context(), chi.URLParam(r, "id"), catalog.UpdateAnimeInput{
			Title:       strings.TrimSpace(r.FormValue("title")),
			Description: strings.TrimSpace(r.FormValue("description")),
			Genres:      genres,
			ReleaseDate: parseDate(r.FormValue("release_date")),
			Status:      catalog.Status(strings.TrimSpace(r.FormValue("status"))),
			Cover:       cover,
		})
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// CreateSeason handles POST /v1/anime/{id}/seasons (multipart, admin only).
func CreateSeason(m *catalog.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cover, err := parseCoverUpload(r)
		if err != nil {
			api.BadRequest(w, "INVALID_FORM", "could not parse upload", requestID(r), nil)
			return
		}
		number, _ := strconv.Atoi(r.FormValue("number"))
		created, err := m.CreateSeason(r.Context(), catalog.CreateSeasonInput{
			AnimeID:     chi.URLParam(r, "id"),
			Number:      number,
			Title:       strings.TrimSpace(r.FormValue("title")),
			Description: strings.TrimSpace(r.FormValue("description")),
			ReleaseDate: parseDate(r.FormValue("release_date")),
			Cover:       cover,
		})
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

type createEpisodeRequest struct {
	Number          int    `json:"number"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	VideoURL        string `json:"video_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	DurationMinutes int    `json:"duration_minutes"`
	AirDate         string `json:"air_date"`
}

// CreateEpisode handles POST /v1/seasons/{id}/episodes (admin only).
func CreateEpisode(m *catalog.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEpisodeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		created, err := m.CreateEpisode(r.Context(), catalog.CreateEpisodeInput{
			SeasonID:        chi.URLParam(r, "id"),
			Number:          req.Number,
			Title:           strings.TrimSpace(req.Title),
			Description:     req.Description,
			VideoURL:        strings.TrimSpace(req.VideoURL),
			ThumbnailURL:    strings.TrimSpace(req.ThumbnailURL),
			DurationMinutes: req.DurationMinutes,
			AirDate:         parseDate(req.AirDate),
		})
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// DeleteNode handles DELETE for all three levels of the tree (admin only).
func DeleteNode(m *catalog.Manager, kind catalog.NodeKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.DeleteNode(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
	}
}
