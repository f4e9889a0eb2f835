package feed

import (
	"encoding/json"
	"fmt"
)

// EncodeJSON serializes a feed for the storage cache.
func EncodeJSON(feed *Feed) ([]byte, error) {
	data, err := json.Marshal(feed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed: %w", err)
	}
	return data, nil
}

// DecodeJSON restores a feed written by EncodeJSON. Parsed timestamps are
// rebuilt from the raw date strings with the same rules the parser applies.
func DecodeJSON(data []byte) (*Feed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	if built, err := parseDate(feed.LastBuildDate); err == nil {
		feed.LastBuildDateParsed = &built
	}

	for i := range feed.Articles {
		published, err := parseDate(feed.Articles[i].PubDate)
		if err != nil {
			return nil, &ParseError{Item: i, Field: "pubDate", Err: err}
		}
		feed.Articles[i].PublishedAt = published
	}

	if feed.Articles == nil {
		feed.Articles = []Article{}
	}
	if feed.Sources == nil {
		feed.Sources = []string{}
	}

	return &feed, nil
}
