package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/api"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/relations"
)

// Toggle handles POST /v1/relations/{kind}/{target_id}. The owner is always
// the authenticated user.
func Toggle(svc *relations.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		res, err := svc.Toggle(r.Context(),
			relations.EdgeKind(chi.URLParam(r, "kind")),
			userID,
			chi.URLParam(r, "target_id"))
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}

// FollowList handles GET /v1/users/{id}/followers and /following.
func FollowList(svc *relations.Service, followers bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")
		var (
			ids []string
			err error
		)
		if followers {
			ids, err = svc.Followers(r.Context(), userID)
		} else {
			ids, err = svc.Following(r.Context(), userID)
		}
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"user_ids": ids})
	}
}

// AnimeList handles GET /v1/users/{id}/favorites and /watchlist, hydrating
// the edge targets into catalog entries. Ids whose anime has been deleted are
// skipped; the reconciler prunes those edges.
func AnimeList(svc *relations.Service, store catalog.Store, kind relations.EdgeKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ids []string
			err error
		)
		switch kind {
		case relations.KindFavorite:
			ids, err = svc.Favorites(r.Context(), chi.URLParam(r, "id"))
		default:
			ids, err = svc.Watchlist(r.Context(), chi.URLParam(r, "id"))
		}
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"anime": hydrateAnime(r.Context(), store, ids)})
	}
}

func hydrateAnime(ctx context.Context, store catalog.Store, ids []string) []catalog.Anime {
	out := make([]catalog.Anime, 0, len(ids))
	for _, id := range ids {
		a, err := store.GetAnime(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
