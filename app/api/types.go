package api

import (
	"context"
	"net/url"
	"time"

	"github.com/lysyi3m/rss-desk/app/feed"
	"github.com/lysyi3m/rss-desk/app/reader"
)

type GeneratorInterface interface {
	Run(feed *feed.Feed, articles []feed.Article) (string, error)
}

type FetcherInterface interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type ExtractorInterface interface {
	Run(data []byte, pageURL *url.URL) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)
var _ FetcherInterface = (*feed.Fetcher)(nil)
var _ ExtractorInterface = (*feed.ContentExtractor)(nil)

type Handler struct {
	state     *reader.State
	fetcher   FetcherInterface
	extractor ExtractorInterface
	generator GeneratorInterface
}

// ArticleResponse is an article as served to clients. Description is the
// feed's HTML, passed through unsanitized; clients rendering it trust the
// feed publisher.
type ArticleResponse struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	PubDate     string    `json:"pub_date"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source"`
	Favorite    bool      `json:"favorite"`
}

type ArticlesResponse struct {
	Articles  []ArticleResponse `json:"articles"`
	Total     int               `json:"total"`
	Selection SelectionPayload  `json:"selection"`
}

type FeedResponse struct {
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	LastBuildDate string   `json:"last_build_date"`
	Sources       []string `json:"sources"`
	ArticleCount  int      `json:"article_count"`
}

// SelectionPayload is the wire form of view.Selection. An empty Date means
// no date filter.
type SelectionPayload struct {
	Date          string `json:"date"`
	Sort          string `json:"sort"`
	OnlyFavorites bool   `json:"favorites"`
}

type FavoriteResponse struct {
	GUID     string `json:"guid"`
	Favorite bool   `json:"favorite"`
}

type ReadableResponse struct {
	GUID    string `json:"guid"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Content string `json:"content"`
}
