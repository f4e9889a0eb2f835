// Package view derives the displayed article list from a feed, the favorite
// set and the current selection. Derivation never mutates its inputs.
package view

import (
	"fmt"
	"slices"
	"time"

	"github.com/lysyi3m/rss-desk/app/feed"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortNone       SortKey = ""
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortTitleAsc   SortKey = "title_asc"
	SortTitleDesc  SortKey = "title_desc"
	SortSourceAsc  SortKey = "source_asc"
	SortSourceDesc SortKey = "source_desc"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortNewest, SortOldest, SortTitleAsc, SortTitleDesc, SortSourceAsc, SortSourceDesc:
		return true
	}
	return false
}

func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(s)
	if !key.Valid() {
		return SortNone, fmt.Errorf("unknown sort key %q", s)
	}
	return key, nil
}

// Date is a calendar day without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Selection is the transient filter and sort state chosen by the user.
type Selection struct {
	SelectedDate      *Date
	SortKey           SortKey
	ShowOnlyFavorites bool
}

// Favorites reports favorite membership by GUID.
type Favorites interface {
	Has(guid string) bool
}

type Engine struct {
	location *time.Location
	locale   language.Tag
}

// NewEngine returns an engine comparing calendar days in location and
// collating text for locale. A nil location means time.Local.
func NewEngine(location *time.Location, locale language.Tag) *Engine {
	if location == nil {
		location = time.Local
	}
	return &Engine{location: location, locale: locale}
}

// Derive filters by date and favorites, then sorts by the selection's key.
// The result is a fresh slice; unrecognized sort keys keep source order.
func (e *Engine) Derive(f *feed.Feed, favorites Favorites, selection Selection) []feed.Article {
	if f == nil {
		return []feed.Article{}
	}

	result := make([]feed.Article, 0, len(f.Articles))
	for _, article := range f.Articles {
		if selection.SelectedDate != nil && DateOf(article.PublishedAt.In(e.location)) != *selection.SelectedDate {
			continue
		}
		if selection.ShowOnlyFavorites && (favorites == nil || !favorites.Has(article.GUID)) {
			continue
		}
		result = append(result, article)
	}

	if cmpFn := e.comparator(selection.SortKey); cmpFn != nil {
		slices.SortStableFunc(result, cmpFn)
	}

	return result
}

func (e *Engine) comparator(key SortKey) func(a, b feed.Article) int {
	switch key {
	case SortNewest:
		return func(a, b feed.Article) int { return b.PublishedAt.Compare(a.PublishedAt) }
	case SortOldest:
		return func(a, b feed.Article) int { return a.PublishedAt.Compare(b.PublishedAt) }
	}

	// Collators keep internal buffers and are not safe for concurrent use.
	collator := collate.New(e.locale)

	switch key {
	case SortTitleAsc:
		return func(a, b feed.Article) int { return collator.CompareString(a.Title, b.Title) }
	case SortTitleDesc:
		return func(a, b feed.Article) int { return collator.CompareString(b.Title, a.Title) }
	case SortSourceAsc:
		return func(a, b feed.Article) int { return collator.CompareString(a.Source, b.Source) }
	case SortSourceDesc:
		return func(a, b feed.Article) int { return collator.CompareString(b.Source, a.Source) }
	}

	return nil
}
