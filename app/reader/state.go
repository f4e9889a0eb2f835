// Package reader holds the application state shared by the HTTP handlers:
// the loaded feed, the favorites and the current view selection.
package reader

import (
	"context"
	"errors"
	"sync"

	"github.com/lysyi3m/rss-desk/app/favorites"
	"github.com/lysyi3m/rss-desk/app/feed"
	"github.com/lysyi3m/rss-desk/app/view"
)

var ErrNotFound = errors.New("article not found")

type Status string

const (
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

type State struct {
	engine    *view.Engine
	favorites *favorites.Store

	mu        sync.RWMutex
	status    Status
	feed      *feed.Feed
	loadErr   error
	selection view.Selection
}

func NewState(engine *view.Engine, favs *favorites.Store) *State {
	return &State{
		engine:    engine,
		favorites: favs,
		status:    StatusLoading,
	}
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) Feed() *feed.Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feed
}

func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// SetFeed moves the state to loaded. Loaded and failed are terminal, so
// calls after the first transition are ignored.
func (s *State) SetFeed(f *feed.Feed) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusLoading {
		return false
	}
	s.feed = f
	s.status = StatusLoaded
	return true
}

func (s *State) Fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusLoading {
		return false
	}
	s.loadErr = err
	s.status = StatusFailed
	return true
}

// Articles derives the visible list with the stored selection.
func (s *State) Articles() []feed.Article {
	return s.ArticlesWith(s.Selection())
}

// ArticlesWith derives the visible list with sel without storing it.
func (s *State) ArticlesWith(sel view.Selection) []feed.Article {
	f := s.Feed()
	if f == nil {
		return []feed.Article{}
	}
	return s.engine.Derive(f, s.favorites.Snapshot(), sel)
}

func (s *State) Sources() []string {
	f := s.Feed()
	if f == nil {
		return []string{}
	}
	return append([]string{}, f.Sources...)
}

// Article looks up an article of the loaded feed by GUID.
func (s *State) Article(guid string) (feed.Article, error) {
	f := s.Feed()
	if f == nil {
		return feed.Article{}, ErrNotFound
	}
	for _, article := range f.Articles {
		if article.GUID == guid {
			return article, nil
		}
	}
	return feed.Article{}, ErrNotFound
}

func (s *State) IsFavorite(guid string) bool {
	return s.favorites.Has(guid)
}

func (s *State) Favorites() []string {
	return s.favorites.List()
}

func (s *State) FavoriteCount() int {
	return s.favorites.Count()
}

func (s *State) ToggleFavorite(ctx context.Context, guid string) (bool, error) {
	return s.favorites.Toggle(ctx, guid)
}

func (s *State) Selection() view.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := s.selection
	if sel.SelectedDate != nil {
		date := *sel.SelectedDate
		sel.SelectedDate = &date
	}
	return sel
}

// SetSelection replaces the whole selection.
func (s *State) SetSelection(sel view.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel.SelectedDate != nil {
		date := *sel.SelectedDate
		sel.SelectedDate = &date
	}
	s.selection = sel
}

// SetSelectedDate sets the date filter; nil clears it.
func (s *State) SetSelectedDate(date *view.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == nil {
		s.selection.SelectedDate = nil
		return
	}
	d := *date
	s.selection.SelectedDate = &d
}

func (s *State) SetSortKey(key view.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SortKey = key
}

func (s *State) SetShowOnlyFavorites(only bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ShowOnlyFavorites = only
}
