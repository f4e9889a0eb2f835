package feed

import (
	"time"
)

// Feed is the normalized representation of a fetched RSS channel.
type Feed struct {
	Title               string     `json:"title"`
	LastBuildDate       string     `json:"lastBuildDate"`
	LastBuildDateParsed *time.Time `json:"-"`
	Link                string     `json:"link"`
	Articles            []Article  `json:"articles"`
	Sources             []string   `json:"sources"` // Distinct trimmed source names, first-seen order
}

// Article is a single feed item. GUID is unique within a Feed.
type Article struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"` // Raw HTML fragment, never sanitized
	PubDate     string    `json:"pubDate"`
	PublishedAt time.Time `json:"-"` // Parsed from PubDate
	Source      string    `json:"source"`
}

// Config is the optional YAML feed file.
type Config struct {
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Timeout   int    `yaml:"timeout"` // seconds
	UserAgent string `yaml:"user_agent"`
}
