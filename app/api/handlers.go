package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-desk/app/feed"
	"github.com/lysyi3m/rss-desk/app/reader"
	"github.com/lysyi3m/rss-desk/app/view"
)

const unavailableMessage = "Unable to load data. Please try again later."

func NewHandler(state *reader.State, fetcher FetcherInterface, extractor ExtractorInterface, generator GeneratorInterface) *Handler {
	return &Handler{
		state:     state,
		fetcher:   fetcher,
		extractor: extractor,
		generator: generator,
	}
}

// requireLoaded aborts with 503 until the startup load has succeeded.
func (h *Handler) requireLoaded(c *gin.Context) {
	switch h.state.Status() {
	case reader.StatusLoading:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": string(reader.StatusLoading)})
	case reader.StatusFailed:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"status": string(reader.StatusFailed),
			"error":  unavailableMessage,
		})
	default:
		c.Next()
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    string(h.state.Status()),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"favorites": h.state.FavoriteCount(),
	}

	if f := h.state.Feed(); f != nil {
		health["articles"] = len(f.Articles)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetFeed(c *gin.Context) {
	f := h.state.Feed()

	c.JSON(http.StatusOK, FeedResponse{
		Title:         f.Title,
		Link:          f.Link,
		LastBuildDate: f.LastBuildDate,
		Sources:       h.state.Sources(),
		ArticleCount:  len(f.Articles),
	})
}

func (h *Handler) GetArticles(c *gin.Context) {
	sel, err := selectionFromQuery(c, h.state.Selection())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	articles := h.state.ArticlesWith(sel)

	response := ArticlesResponse{
		Articles:  make([]ArticleResponse, 0, len(articles)),
		Total:     len(articles),
		Selection: toPayload(sel),
	}
	for _, article := range articles {
		response.Articles = append(response.Articles, h.toArticleResponse(article))
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, toPayload(h.state.Selection()))
}

func (h *Handler) PutSelection(c *gin.Context) {
	var payload SelectionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid selection body"})
		return
	}

	sel, err := fromPayload(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.state.SetSelection(sel)
	slog.Debug("Selection updated", "date", payload.Date, "sort", payload.Sort, "favorites", payload.OnlyFavorites)

	c.JSON(http.StatusOK, toPayload(h.state.Selection()))
}

func (h *Handler) GetFavorites(c *gin.Context) {
	favorites := h.state.Favorites()

	c.JSON(http.StatusOK, map[string]interface{}{
		"favorites": favorites,
		"total":     len(favorites),
	})
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	guid := c.Param("guid")

	if _, err := h.state.Article(guid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	favorite, err := h.state.ToggleFavorite(c.Request.Context(), guid)
	if err != nil {
		slog.Error("Failed to toggle favorite", "guid", guid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save favorites"})
		return
	}

	c.JSON(http.StatusOK, FavoriteResponse{GUID: guid, Favorite: favorite})
}

func (h *Handler) GetReadable(c *gin.Context) {
	guid := c.Param("guid")

	article, err := h.state.Article(guid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	pageURL, err := url.Parse(article.Link)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Article link is not a valid URL"})
		return
	}

	data, err := h.fetcher.Fetch(c.Request.Context(), article.Link)
	if err != nil {
		var fetchErr *feed.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			slog.Warn("Article page returned error status", "guid", guid, "status", fetchErr.StatusCode)
		} else {
			slog.Warn("Failed to fetch article page", "guid", guid, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch article"})
		return
	}

	content, err := h.extractor.Run(data, pageURL)
	if err != nil {
		slog.Warn("Failed to extract article content", "guid", guid, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No readable content found"})
		return
	}

	c.JSON(http.StatusOK, ReadableResponse{
		GUID:    article.GUID,
		Title:   article.Title,
		Link:    article.Link,
		Content: content,
	})
}

func (h *Handler) GetFeedXML(c *gin.Context) {
	sel, err := selectionFromQuery(c, h.state.Selection())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	articles := h.state.ArticlesWith(sel)

	rss, err := h.generator.Run(h.state.Feed(), articles)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) toArticleResponse(article feed.Article) ArticleResponse {
	return ArticleResponse{
		GUID:        article.GUID,
		Title:       article.Title,
		Link:        article.Link,
		Description: article.Description,
		PubDate:     article.PubDate,
		PublishedAt: article.PublishedAt,
		Source:      article.Source,
		Favorite:    h.state.IsFavorite(article.GUID),
	}
}

// selectionFromQuery applies the date, sort and favorites query parameters
// over base. Parameters that are absent leave base unchanged; an empty date
// clears the date filter.
func selectionFromQuery(c *gin.Context, base view.Selection) (view.Selection, error) {
	sel := base

	if raw, ok := c.GetQuery("date"); ok {
		if raw == "" {
			sel.SelectedDate = nil
		} else {
			date, err := view.ParseDate(raw)
			if err != nil {
				return sel, err
			}
			sel.SelectedDate = &date
		}
	}

	if raw, ok := c.GetQuery("sort"); ok {
		key, err := view.ParseSortKey(raw)
		if err != nil {
			return sel, err
		}
		sel.SortKey = key
	}

	if raw, ok := c.GetQuery("favorites"); ok {
		only, err := strconv.ParseBool(raw)
		if err != nil {
			return sel, errors.New("favorites must be a boolean")
		}
		sel.ShowOnlyFavorites = only
	}

	return sel, nil
}

func fromPayload(payload SelectionPayload) (view.Selection, error) {
	key, err := view.ParseSortKey(payload.Sort)
	if err != nil {
		return view.Selection{}, err
	}

	sel := view.Selection{SortKey: key, ShowOnlyFavorites: payload.OnlyFavorites}

	if payload.Date != "" {
		date, err := view.ParseDate(payload.Date)
		if err != nil {
			return view.Selection{}, err
		}
		sel.SelectedDate = &date
	}

	return sel, nil
}

func toPayload(sel view.Selection) SelectionPayload {
	payload := SelectionPayload{
		Sort:          string(sel.SortKey),
		OnlyFavorites: sel.ShowOnlyFavorites,
	}
	if sel.SelectedDate != nil {
		payload.Date = sel.SelectedDate.String()
	}
	return payload
}
