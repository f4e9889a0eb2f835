package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-desk/app/database"
	"github.com/lysyi3m/rss-desk/app/feed"
)

var ErrAlreadyStarted = errors.New("feed load already started")

type FetcherInterface interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type ParserInterface interface {
	Run(data []byte) (*feed.Feed, error)
}

var _ FetcherInterface = (*feed.Fetcher)(nil)
var _ ParserInterface = (*feed.Parser)(nil)

// Loader performs the one-time startup load of the feed into State.
type Loader struct {
	url     string
	fetcher FetcherInterface
	parser  ParserInterface
	kv      database.Store
	state   *State
	started atomic.Bool
}

func NewLoader(url string, fetcher FetcherInterface, parser ParserInterface, kv database.Store, state *State) *Loader {
	return &Loader{
		url:     url,
		fetcher: fetcher,
		parser:  parser,
		kv:      kv,
		state:   state,
	}
}

// Run fetches and parses the feed, caches it and marks the state loaded.
// A fetch or parse failure marks the state failed and is returned. Run may
// only be called once.
func (l *Loader) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	start := time.Now()
	slog.Info("Loading feed", "url", l.url)

	data, err := l.fetcher.Fetch(ctx, l.url)
	if err != nil {
		l.fail(err)
		return err
	}

	parsed, err := l.parser.Run(data)
	if err != nil {
		l.fail(err)
		return err
	}

	l.cache(ctx, parsed)

	l.state.SetFeed(parsed)

	slog.Info("Feed loaded",
		"title", parsed.Title,
		"articles", len(parsed.Articles),
		"sources", len(parsed.Sources),
		"duration", time.Since(start))

	return nil
}

func (l *Loader) fail(err error) {
	slog.Error("Failed to load feed", "url", l.url, "error", err)
	l.state.Fail(err)
}

func (l *Loader) cache(ctx context.Context, parsed *feed.Feed) {
	if l.kv == nil {
		return
	}

	data, err := feed.EncodeJSON(parsed)
	if err != nil {
		slog.Warn("Failed to encode feed cache", "error", err)
		return
	}

	if err := l.kv.Set(ctx, database.KeyFeedCache, string(data)); err != nil {
		slog.Warn("Failed to write feed cache", "error", err)
	}
}
