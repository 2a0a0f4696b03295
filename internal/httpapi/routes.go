package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/engagement"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/history"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/api"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/reconciler"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/relations"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/users"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Catalog      *catalog.Manager
	CatalogStore catalog.Store
	Relations    *relations.Service
	Engagement   *engagement.Service
	Users        *users.Service
	History      *history.Service
	Reconciler   *reconciler.Reconciler
	Verifier     auth.JWTVerifier
}

// Mount registers the full /v1 route tree.
func Mount(r chi.Router, d Deps) {
	requireUser := auth.RequireUser(d.Verifier)

	r.Route("/v1", func(r chi.Router) {
		// Public reads and auth.
		r.Post("/auth/register", Register(d.Users))
		r.Post("/auth/login", Login(d.Users))

		r.Get("/anime", ListAnime(d.Catalog))
		r.Get("/anime/{id}", GetAnime(d.Catalog))
		r.Get("/anime/{id}/reviews", ListReviews(d.Engagement))
		r.Get("/episodes/{id}/comments", ListComments(d.Engagement))

		r.Get("/users/{id}", GetProfile(d.Users))
		r.Get("/users/{id}/followers", FollowList(d.Relations, true))
		r.Get("/users/{id}/following", FollowList(d.Relations, false))
		r.Get("/users/{id}/favorites", AnimeList(d.Relations, d.CatalogStore, relations.KindFavorite))
		r.Get("/users/{id}/watchlist", AnimeList(d.Relations, d.CatalogStore, relations.KindWatchlist))

		// Authenticated writes.
		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/users/me", Me(d.Users))
			r.Patch("/users/me", UpdateProfile(d.Users))
			r.Post("/users/me/password", ChangePassword(d.Users))

			r.Post("/relations/{kind}/{target_id}", Toggle(d.Relations))

			r.Post("/anime/{id}/reviews", SubmitReview(d.Engagement))
			r.Patch("/reviews/{id}", EditReview(d.Engagement))
			r.Delete("/reviews/{id}", DeleteReview(d.Engagement))
			r.Post("/episodes/{id}/comments", SubmitComment(d.Engagement))
			r.Delete("/comments/{id}", DeleteComment(d.Engagement))

			r.Post("/history", RecordHistory(d.History))
			r.Get("/history", ListHistory(d.History))
		})

		// Catalog writes and admin operations.
		r.Group(func(r chi.Router) {
			r.Use(requireUser, auth.RequireAdmin)

			r.Post("/anime", CreateAnime(d.Catalog))
			r.Patch("/anime/{id}", UpdateAnime(d.Catalog))
			r.Delete("/anime/{id}", DeleteNode(d.Catalog, catalog.KindAnime))
			r.Post("/anime/{id}/seasons", CreateSeason(d.Catalog))
			r.Delete("/seasons/{id}", DeleteNode(d.Catalog, catalog.KindSeason))
			r.Post("/seasons/{id}/episodes", CreateEpisode(d.Catalog))
			r.Delete("/episodes/{id}", DeleteNode(d.Catalog, catalog.KindEpisode))

			r.Post("/admin/reconcile", Reconcile(d.Reconciler))
		})
	})
}

// Reconcile handles POST /v1/admin/reconcile: one synchronous repair pass.
func Reconcile(rec *reconciler.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := rec.RunOnce(r.Context())
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, report)
	}
}
