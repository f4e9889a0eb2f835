package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

var errNoChannel = errors.New("channel element not found")

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Run(data []byte) (*Feed, error) {
	if gofeed.DetectFeedType(bytes.NewReader(data)) != gofeed.FeedTypeRSS {
		return nil, &ParseError{Item: -1, Err: errNoChannel}
	}

	// rss.Parser keeps per-document state, so one is created per run.
	rssParser := &rss.Parser{}
	channel, err := rssParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Item: -1, Err: err}
	}

	if isEmptyChannel(channel) {
		return nil, &ParseError{Item: -1, Err: errNoChannel}
	}

	feed, err := p.normalizeChannel(data, channel)
	if err != nil {
		return nil, err
	}

	slog.Debug("Feed parsed", "title", feed.Title, "articles", len(feed.Articles), "sources", len(feed.Sources))

	return feed, nil
}

func (p *Parser) normalizeChannel(data []byte, channel *rss.Feed) (*Feed, error) {
	feed := &Feed{
		Title:         strings.TrimSpace(channel.Title),
		LastBuildDate: strings.TrimSpace(channel.LastBuildDate),
		Link:          strings.TrimSpace(channel.Link),
	}

	switch {
	case feed.Title == "":
		return nil, missingChannelField("title")
	case feed.LastBuildDate == "":
		return nil, missingChannelField("lastBuildDate")
	case feed.Link == "":
		return nil, missingChannelField("link")
	}

	// lastBuildDate is primarily a display string; an unparseable value is tolerated.
	if built, err := parseDate(feed.LastBuildDate); err == nil {
		feed.LastBuildDateParsed = &built
	}

	described := p.descriptionPresence(data, channel.Items)

	feed.Articles = make([]Article, 0, len(channel.Items))
	seen := make(map[string]int, len(channel.Items))
	for i, item := range channel.Items {
		article, err := p.normalizeItem(i, item, described[i])
		if err != nil {
			return nil, err
		}

		if first, ok := seen[article.GUID]; ok {
			return nil, &ParseError{Item: i, Field: "guid", Err: fmt.Errorf("duplicate of item %d", first)}
		}
		seen[article.GUID] = i

		feed.Articles = append(feed.Articles, article)
	}

	feed.Sources = collectSources(feed.Articles)

	return feed, nil
}

// normalizeItem checks required fields. The description may be empty but
// the element itself must be present.
func (p *Parser) normalizeItem(index int, item *rss.Item, hasDescription bool) (Article, error) {
	if item == nil {
		return Article{}, &ParseError{Item: index, Err: errors.New("empty item")}
	}

	article := Article{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		PubDate:     strings.TrimSpace(item.PubDate),
	}

	if item.GUID != nil {
		article.GUID = strings.TrimSpace(item.GUID.Value)
	}
	if item.Source != nil {
		article.Source = strings.TrimSpace(item.Source.Title)
	}

	switch {
	case article.Title == "":
		return Article{}, missingItemField(index, "title")
	case article.Link == "":
		return Article{}, missingItemField(index, "link")
	case article.GUID == "":
		return Article{}, missingItemField(index, "guid")
	case article.PubDate == "":
		return Article{}, missingItemField(index, "pubDate")
	case !hasDescription:
		return Article{}, missingItemField(index, "description")
	case article.Source == "":
		return Article{}, missingItemField(index, "source")
	}

	published, err := parseDate(article.PubDate)
	if err != nil {
		return Article{}, &ParseError{Item: index, Field: "pubDate", Err: err}
	}
	article.PublishedAt = published

	return article, nil
}

type itemElements struct {
	Description *string `xml:"description"`
}

// descriptionPresence reports per item whether a description element exists.
// gofeed yields "" for both an absent and an empty description, so the
// document is scanned again only when some description came back empty.
func (p *Parser) descriptionPresence(data []byte, items []*rss.Item) []bool {
	present := make([]bool, len(items))
	scan := false
	for i, item := range items {
		present[i] = item != nil && item.Description != ""
		if !present[i] {
			scan = true
		}
	}
	if !scan {
		return present
	}

	// RSS 2.0 nests items in the channel; RSS 1.0 keeps them at the root.
	var doc struct {
		ChannelItems []itemElements `xml:"channel>item"`
		RootItems    []itemElements `xml:"item"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		slog.Debug("Description scan failed", "error", err)
		return present
	}

	elements := append(doc.ChannelItems, doc.RootItems...)
	if len(elements) != len(items) {
		slog.Debug("Description scan item count mismatch", "scanned", len(elements), "parsed", len(items))
		return present
	}

	for i, element := range elements {
		if element.Description != nil {
			present[i] = true
		}
	}
	return present
}

func isEmptyChannel(channel *rss.Feed) bool {
	return channel == nil ||
		(channel.Title == "" && channel.Link == "" && channel.LastBuildDate == "" && len(channel.Items) == 0)
}

func collectSources(articles []Article) []string {
	sources := make([]string, 0)
	seen := make(map[string]struct{})
	for _, article := range articles {
		if _, ok := seen[article.Source]; ok {
			continue
		}
		seen[article.Source] = struct{}{}
		sources = append(sources, article.Source)
	}
	return sources
}

func parseDate(value string) (time.Time, error) {
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}
