package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/engagement"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/api"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
)

type reviewRequest struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// SubmitReview handles POST /v1/anime/{id}/reviews.
func SubmitReview(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		var req reviewRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		created, err := svc.SubmitReview(r.Context(), engagement.SubmitReviewInput{
			AnimeID: chi.URLParam(r, "id"),
			UserID:  userID,
			Rating:  req.Rating,
			Title:   req.Title,
			Body:    req.Body,
		})
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// ListReviews handles GET /v1/anime/{id}/reviews.
func ListReviews(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviews, err := svc.ReviewsForAnime(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
	}
}

// EditReview handles PATCH /v1/reviews/{id}.
func EditReview(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		var req reviewRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		updated, err := svc.EditReview(r.Context(), chi.URLParam(r, "id"), userID, req.Rating, req.Title, req.Body)
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteReview handles DELETE /v1/reviews/{id}.
func DeleteReview(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		if err := svc.DeleteReview(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
	}
}

type commentRequest struct {
	Body string `json:"body"`
}

// SubmitComment handles POST /v1/episodes/{id}/comments.
func SubmitComment(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		var req commentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		created, err := svc.SubmitComment(r.Context(), engagement.SubmitCommentInput{
			EpisodeID: chi.URLParam(r, "id"),
			UserID:    userID,
			Body:      req.Body,
		})
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// ListComments handles GET /v1/episodes/{id}/comments.
func ListComments(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := svc.CommentsForEpisode(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
	}
}

// DeleteComment handles DELETE /v1/comments/{id}.
func DeleteComment(svc *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		if err := svc.DeleteComment(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
			api.WriteDomainError(w, err, requestID(r))
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
	}
}
