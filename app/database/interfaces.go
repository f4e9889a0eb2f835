package database

import (
	"context"
)

// Keys used by the application.
const (
	KeyFeedCache = "rssData"
	KeyFavorites = "favourites"
)

// Store is a string-valued key/value store that survives restarts.
type Store interface {
	// Get returns found=false with a nil error when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
