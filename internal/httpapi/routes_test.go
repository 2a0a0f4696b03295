package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/assets"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/engagement"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/history"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/httpserver"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/reconciler"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/relations"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/users"
)

type testEnv struct {
	handler    http.Handler
	users      *users.InMemoryStore
	catalog    *catalog.InMemoryStore
	adminToken string
}

// storeDirectory and storeStats mirror the adapters the binary wires between
// the stores and the service-side interfaces.
type storeDirectory struct {
	users   users.Store
	catalog catalog.Store
}

func (d storeDirectory) UserExists(ctx context.Context, id string) (bool, error) {
	return d.users.Exists(ctx, id)
}

func (d storeDirectory) AnimeExists(ctx context.Context, id string) (bool, error) {
	_, err := d.catalog.GetAnime(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d storeDirectory) EpisodeExists(ctx context.Context, id string) (bool, error) {
	_, err := d.catalog.GetEpisode(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type storeStats struct {
	users users.Store
}

func (s storeStats) SetUserRelationCounts(ctx context.Context, userID string, followers, following, favorites, watchlist int) error {
	return s.users.SetRelationCounts(ctx, userID, followers, following, favorites, watchlist)
}

func (s storeStats) SetUserEngagementCounts(ctx context.Context, userID string, totalReviews, totalComments int) error {
	return s.users.SetEngagementCounts(ctx, userID, totalReviews, totalComments)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	secret := []byte("test-secret")

	catalogStore := catalog.NewInMemoryStore()
	userStore := users.NewInMemoryStore()
	edgeStore := relations.NewInMemoryEdgeStore()
	engStore := engagement.NewInMemoryStore()
	historyRepo := history.NewInMemoryRepository()
	assetStore := assets.NewInMemoryStore()

	dir := storeDirectory{users: userStore, catalog: catalogStore}
	stats := storeStats{users: userStore}
	tokens := auth.TokenService{Secret: secret}

	deps := Deps{
		Catalog:      catalog.NewManager(catalogStore, assetStore, nil, nil, log),
		CatalogStore: catalogStore,
		Relations:    relations.NewService(edgeStore, dir, stats, nil, log),
		Engagement: engagement.NewService(engStore,
			engagement.NewRecomputer(engStore, catalogStore, nil), dir, stats, nil, log),
		Users:   users.NewService(userStore, tokens, nil, log),
		History: history.NewService(historyRepo, nil, log),
		Reconciler: &reconciler.Reconciler{
			Catalog: catalogStore, Engagement: engStore, Edges: edgeStore, Users: userStore, Log: log,
		},
		Verifier: auth.JWTVerifier{Secret: secret},
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	Mount(r, deps)

	admin, err := userStore.Insert(context.Background(), users.User{
		Email: "admin@toondig.io", Username: "admin", Role: users.RoleAdmin, PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	adminToken, _, err := tokens.NewAccessToken(admin.ID, string(users.RoleAdmin), time.Time{})
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}

	return &testEnv{handler: r, users: userStore, catalog: catalogStore, adminToken: adminToken}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doForm(t *testing.T, method, path, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerUser(t *testing.T, username string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": username + "@toondig.io", "username": username, "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
	var sess struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess.User.ID, sess.AccessToken
}

func (e *testEnv) createAnime(t *testing.T, title string) string {
	t.Helper()
	rec := e.doForm(t, http.MethodPost, "/v1/anime", e.adminToken, map[string]string{
		"title": title, "description": "desc", "status": "ongoing", "genres": "action,drama",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create anime: status %d: %s", rec.Code, rec.Body.String())
	}
	var a struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode anime: %v", err)
	}
	return a.ID
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	_, token := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodGet, "/v1/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/v1/users/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: status %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"login": "alice", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
		t.Fatalf("missing error code in %s", rec.Body.String())
	}
}

func TestCatalogAdminGating(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.registerUser(t, "alice")

	rec := env.doForm(t, http.MethodPost, "/v1/anime", userToken, map[string]string{
		"title": "Bebop", "description": "d", "status": "ongoing",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin create: status %d, want 403", rec.Code)
	}

	id := env.createAnime(t, "Bebop")
	rec = env.do(t, http.MethodGet, "/v1/anime/"+id, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get anime: status %d", rec.Code)
	}
}

func TestCatalogValidationEnvelope(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doForm(t, http.MethodPost, "/v1/anime", env.adminToken, map[string]string{"title": "Solo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "VALIDATION") || !strings.Contains(body, "description") {
		t.Fatalf("unexpected envelope: %s", body)
	}
}

func TestSubtreeAndCascadeOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	animeID := env.createAnime(t, "Bebop")

	rec := env.doForm(t, http.MethodPost, "/v1/anime/"+animeID+"/seasons", env.adminToken,
		map[string]string{"number": "1", "title": "Session 1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create season: status %d: %s", rec.Code, rec.Body.String())
	}
	var season struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &season); err != nil {
		t.Fatalf("decode season: %v", err)
	}

	rec = env.do(t, http.MethodPost, "/v1/seasons/"+season.ID+"/episodes", env.adminToken,
		map[string]any{
			"number": 1, "title": "Asteroid Blues", "description": "Bounty on Asimov",
			"video_url": "https://v.local/1", "thumbnail_url": "https://v.local/1.jpg",
			"duration_minutes": 24, "air_date": "1998-04-03",
		})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create episode: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/anime/"+animeID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("subtree: status %d", rec.Code)
	}
	var tree catalog.Subtree
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode subtree: %v", err)
	}
	if len(tree.Seasons) != 1 || len(tree.Seasons[0].Episodes) != 1 {
		t.Fatalf("unexpected subtree shape: %+v", tree)
	}

	rec = env.do(t, http.MethodDelete, "/v1/anime/"+animeID, env.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/v1/anime/"+animeID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted anime fetch: status %d, want 404", rec.Code)
	}
}

func TestToggleAndListsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	animeID := env.createAnime(t, "Bebop")
	userID, token := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/v1/relations/favorite/"+animeID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d: %s", rec.Code, rec.Body.String())
	}
	var res relations.ToggleResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode toggle: %v", err)
	}
	if !res.Active || res.OwnerCount != 1 {
		t.Fatalf("unexpected toggle result: %+v", res)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%s/favorites", userID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("favorites: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Bebop") {
		t.Fatalf("favorites not hydrated: %s", rec.Body.String())
	}

	// Toggling an unknown kind is a conflict, not a route miss.
	rec = env.do(t, http.MethodPost, "/v1/relations/bookmark/"+animeID, token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unknown kind: status %d, want 409", rec.Code)
	}
}

func TestReviewLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	animeID := env.createAnime(t, "Bebop")
	_, token := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/v1/anime/"+animeID+"/reviews", token,
		map[string]any{"rating": 4, "body": "good"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("review: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/anime/"+animeID+"/reviews", token,
		map[string]any{"rating": 5, "body": "again"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate review: status %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_OPERATION") {
		t.Fatalf("missing error code: %s", rec.Body.String())
	}

	// Aggregate visible on the anime.
	rec = env.do(t, http.MethodGet, "/v1/anime/"+animeID, "", nil)
	var tree catalog.Subtree
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode subtree: %v", err)
	}
	if tree.Anime.ReviewCount != 1 || tree.Anime.AverageRating != 4 {
		t.Fatalf("aggregate = %v/%d, want 4/1", tree.Anime.AverageRating, tree.Anime.ReviewCount)
	}
}

func TestHistoryOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/v1/history", token,
			map[string]string{"anime_id": "a1", "episode_id": fmt.Sprintf("ep-%d", i)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("record %d: status %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/v1/history?limit=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var page struct {
		Records    []history.Record `json:"records"`
		NextCursor string           `json:"next_cursor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Records) != 2 || page.NextCursor == "" {
		t.Fatalf("unexpected page: %+v", page)
	}

	rec = env.do(t, http.MethodGet, "/v1/history?limit=2&cursor="+page.NextCursor, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("page 2: status %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page 2: %v", err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("page 2 size = %d, want 1", len(page.Records))
	}
}

func TestAdminReconcileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/v1/admin/reconcile", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin reconcile: status %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/admin/reconcile", env.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reconcile: status %d: %s", rec.Code, rec.Body.String())
	}
	var report reconciler.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
}
