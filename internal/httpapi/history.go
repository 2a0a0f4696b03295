package httpapi

import (
	"net/http"
	"strconv"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/history"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/api"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
)

type recordHistoryRequest struct {
	AnimeID   string `json:"anime_id"`
	EpisodeID string `json:"episode_id"`
}

// RecordHistory handles POST /v1/history.
func RecordHistory(svc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		var req recordHistoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		rec, err := svc.Record(r.Context(), userID, req.AnimeID, req.EpisodeID)
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusCreated, rec)
	}
}

// ListHistory handles GET /v1/history with opaque cursor pagination.
func ListHistory(svc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		cursor, err := history.DecodeCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			api.BadRequest(w, "INVALID_CURSOR", "invalid cursor", requestID(r), nil)
			return
		}

		records, err := svc.List(r.Context(), userID, limit, cursor)
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		resp := map[string]any{"records": records}
		if n := len(records); n > 0 {
			resp["next_cursor"] = history.EncodeCursor(records[n-1])
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
