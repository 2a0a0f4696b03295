package main

import (
	"context"
	"errors"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/users"
)

// directory adapts the user and catalog stores to the existence checks the
// relation and engagement services declare.
type directory struct {
	users   users.Store
	catalog catalog.Store
}

func (d directory) UserExists(ctx context.Context, id string) (bool, error) {
	return d.users.Exists(ctx, id)
}

func (d directory) AnimeExists(ctx context.Context, id string) (bool, error) {
	_, err := d.catalog.GetAnime(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d directory) EpisodeExists(ctx context.Context, id string) (bool, error) {
	_, err := d.catalog.GetEpisode(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// userStats adapts the user store to both counter sinks.
type userStats struct {
	users users.Store
}

func (s userStats) SetUserRelationCounts(ctx context.Context, userID string, followers, following, favorites, watchlist int) error {
	return s.users.SetRelationCounts(ctx, userID, followers, following, favorites, watchlist)
}

func (s userStats) SetUserEngagementCounts(ctx context.Context, userID string, totalReviews, totalComments int) error {
	return s.users.SetEngagementCounts(ctx, userID, totalReviews, totalComments)
}
