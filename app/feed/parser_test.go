package feed

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Daily Tech</title>
    <link>https://news.example.com</link>
    <description>Technology headlines</description>
    <lastBuildDate>Tue, 02 Jan 2024 18:00:00 GMT</lastBuildDate>
    <item>
      <title>Compilers are fun</title>
      <link>https://news.example.com/compilers</link>
      <guid>article-1</guid>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
      <description><![CDATA[<p>Why <b>compilers</b> matter</p>]]></description>
      <source url="https://a.example.com/rss">  Alpha Weekly  </source>
    </item>
    <item>
      <title>Databases at scale</title>
      <link>https://news.example.com/databases</link>
      <guid>article-2</guid>
      <pubDate>Tue, 02 Jan 2024 09:30:00 GMT</pubDate>
      <description>Storage engines explained</description>
      <source url="https://b.example.com/rss">Beta Daily</source>
    </item>
    <item>
      <title>Assembly revisited</title>
      <link>https://news.example.com/assembly</link>
      <guid>article-3</guid>
      <pubDate>Tue, 02 Jan 2024 07:15:00 GMT</pubDate>
      <description>Registers and you</description>
      <source url="https://a.example.com/rss">Alpha Weekly</source>
    </item>
  </channel>
</rss>`

type testItem struct {
	guid, title, link, pubDate, description, source string
}

func (i testItem) render(omit string) string {
	var b strings.Builder
	b.WriteString("<item>")
	fields := []struct{ name, value string }{
		{"title", i.title},
		{"link", i.link},
		{"guid", i.guid},
		{"pubDate", i.pubDate},
		{"description", i.description},
		{"source", i.source},
	}
	for _, f := range fields {
		if f.name == omit {
			continue
		}
		fmt.Fprintf(&b, "<%s>%s</%s>", f.name, f.value, f.name)
	}
	b.WriteString("</item>")
	return b.String()
}

func buildFeedXML(items []testItem, omitField string, omitAt int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel>`)
	b.WriteString(`<title>Generated</title><link>https://example.com</link>`)
	b.WriteString(`<lastBuildDate>Mon, 01 Jan 2024 00:00:00 GMT</lastBuildDate>`)
	for idx, item := range items {
		omit := ""
		if idx == omitAt {
			omit = omitField
		}
		b.WriteString(item.render(omit))
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func generatedItems(n int) []testItem {
	items := make([]testItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, testItem{
			guid:        fmt.Sprintf("guid-%d", i),
			title:       fmt.Sprintf("Title %d", i),
			link:        fmt.Sprintf("https://example.com/%d", i),
			pubDate:     time.Date(2024, 1, 1+i%28, 12, 0, 0, 0, time.UTC).Format(time.RFC1123Z),
			description: fmt.Sprintf("Description %d", i),
			source:      fmt.Sprintf("Source %d", i%3),
		})
	}
	return items
}

func TestParseRSS2(t *testing.T) {
	parser := NewParser()
	feed, err := parser.Run([]byte(testFeedXML))
	require.NoError(t, err)

	assert.Equal(t, "Daily Tech", feed.Title)
	assert.Equal(t, "https://news.example.com", feed.Link)
	assert.Equal(t, "Tue, 02 Jan 2024 18:00:00 GMT", feed.LastBuildDate)
	require.NotNil(t, feed.LastBuildDateParsed)
	assert.True(t, feed.LastBuildDateParsed.Equal(time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)))

	require.Len(t, feed.Articles, 3)

	first := feed.Articles[0]
	assert.Equal(t, "article-1", first.GUID)
	assert.Equal(t, "Compilers are fun", first.Title)
	assert.Equal(t, "https://news.example.com/compilers", first.Link)
	assert.Equal(t, "<p>Why <b>compilers</b> matter</p>", first.Description)
	assert.Equal(t, "Alpha Weekly", first.Source, "source should be trimmed")
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, []string{"article-1", "article-2", "article-3"}, guids(feed.Articles))
	assert.ElementsMatch(t, []string{"Alpha Weekly", "Beta Daily"}, feed.Sources)
}

func TestParsePreservesItemCountAndOrder(t *testing.T) {
	parser := NewParser()

	for _, n := range []int{0, 1, 7, 40} {
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			items := generatedItems(n)
			feed, err := parser.Run([]byte(buildFeedXML(items, "", -1)))
			require.NoError(t, err)
			require.Len(t, feed.Articles, n)

			for i, article := range feed.Articles {
				assert.Equal(t, items[i].guid, article.GUID)
			}
		})
	}
}

func TestParseMissingItemField(t *testing.T) {
	parser := NewParser()
	items := generatedItems(3)

	for _, field := range []string{"guid", "title", "link", "pubDate", "description", "source"} {
		t.Run(field, func(t *testing.T) {
			_, err := parser.Run([]byte(buildFeedXML(items, field, 1)))
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %T", err)
			assert.Equal(t, 1, parseErr.Item)
			assert.Equal(t, field, parseErr.Field)
			assert.ErrorIs(t, err, ErrMissingElement)
		})
	}
}

func TestParseEmptyDescription(t *testing.T) {
	parser := NewParser()

	for name, element := range map[string]string{
		"open and close": "<description></description>",
		"self closing":   "<description/>",
		"empty cdata":    "<description><![CDATA[]]></description>",
	} {
		t.Run(name, func(t *testing.T) {
			items := generatedItems(3)
			items[1].description = ""
			data := buildFeedXML(items, "", -1)
			data = strings.Replace(data, "<description></description>", element, 1)

			feed, err := parser.Run([]byte(data))
			require.NoError(t, err)
			require.Len(t, feed.Articles, 3)

			assert.Empty(t, feed.Articles[1].Description)
			assert.Equal(t, "Description 0", feed.Articles[0].Description)
			assert.Equal(t, "Description 2", feed.Articles[2].Description)
		})
	}
}

func TestParseDescriptionSurroundingWhitespace(t *testing.T) {
	items := generatedItems(1)
	items[0].description = "  &lt;b&gt;hi&lt;/b&gt;\n "

	feed, err := NewParser().Run([]byte(buildFeedXML(items, "", -1)))
	require.NoError(t, err)

	// Markup is kept unsanitized; only the surrounding whitespace is dropped.
	assert.Equal(t, "<b>hi</b>", feed.Articles[0].Description)
}

func TestParseMissingDescriptionAfterEmptyOne(t *testing.T) {
	items := generatedItems(3)
	items[0].description = ""

	_, err := NewParser().Run([]byte(buildFeedXML(items, "description", 2)))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
	assert.Equal(t, 2, parseErr.Item)
	assert.Equal(t, "description", parseErr.Field)
}

func TestParseMissingChannelField(t *testing.T) {
	parser := NewParser()

	tests := map[string]string{
		"title":         `<rss version="2.0"><channel><link>https://e.com</link><lastBuildDate>Mon, 01 Jan 2024 00:00:00 GMT</lastBuildDate></channel></rss>`,
		"link":          `<rss version="2.0"><channel><title>T</title><lastBuildDate>Mon, 01 Jan 2024 00:00:00 GMT</lastBuildDate></channel></rss>`,
		"lastBuildDate": `<rss version="2.0"><channel><title>T</title><link>https://e.com</link></channel></rss>`,
	}

	for field, data := range tests {
		t.Run(field, func(t *testing.T) {
			_, err := parser.Run([]byte(data))

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
			assert.Equal(t, -1, parseErr.Item)
			assert.Equal(t, field, parseErr.Field)
		})
	}
}

func TestParseWithoutChannel(t *testing.T) {
	parser := NewParser()

	for name, data := range map[string]string{
		"empty rss":   `<rss version="2.0"></rss>`,
		"html":        `<html><body>This is not a feed</body></html>`,
		"atom":        `<feed xmlns="http://www.w3.org/2005/Atom"><title>Atom</title></feed>`,
		"invalid xml": `invalid xml`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Run([]byte(data))

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
		})
	}
}

func TestParseUnparseablePubDate(t *testing.T) {
	items := generatedItems(2)
	items[1].pubDate = "sometime last week"

	_, err := NewParser().Run([]byte(buildFeedXML(items, "", -1)))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Item)
	assert.Equal(t, "pubDate", parseErr.Field)
}

func TestParseDuplicateGUID(t *testing.T) {
	items := generatedItems(3)
	items[2].guid = items[0].guid

	_, err := NewParser().Run([]byte(buildFeedXML(items, "", -1)))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Item)
	assert.Equal(t, "guid", parseErr.Field)
}

func TestParseSourcesAreDistinct(t *testing.T) {
	items := generatedItems(10)
	items[4].source = "  Source 1 "

	feed, err := NewParser().Run([]byte(buildFeedXML(items, "", -1)))
	require.NoError(t, err)

	distinct := map[string]struct{}{}
	for _, article := range feed.Articles {
		distinct[article.Source] = struct{}{}
	}

	assert.LessOrEqual(t, len(feed.Sources), len(feed.Articles))
	assert.Len(t, feed.Sources, len(distinct))
	assert.ElementsMatch(t, []string{"Source 0", "Source 1", "Source 2"}, feed.Sources)
}

func TestParseLastBuildDateIsOpaque(t *testing.T) {
	data := strings.Replace(testFeedXML, "Tue, 02 Jan 2024 18:00:00 GMT", "yesterday evening", 1)

	feed, err := NewParser().Run([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "yesterday evening", feed.LastBuildDate)
	assert.Nil(t, feed.LastBuildDateParsed)
}

func TestJSONRoundTrip(t *testing.T) {
	parser := NewParser()
	original, err := parser.Run([]byte(testFeedXML))
	require.NoError(t, err)

	data, err := EncodeJSON(original)
	require.NoError(t, err)

	restored, err := DecodeJSON(data)
	require.NoError(t, err)

	assertFeedsEqual(t, original, restored)
}

func TestDecodeJSONInvalid(t *testing.T) {
	_, err := DecodeJSON([]byte("{not json"))
	assert.Error(t, err)
}

func guids(articles []Article) []string {
	result := make([]string, 0, len(articles))
	for _, article := range articles {
		result = append(result, article.GUID)
	}
	return result
}

func assertFeedsEqual(t *testing.T, expected, actual *Feed) {
	t.Helper()

	assert.Equal(t, expected.Title, actual.Title)
	assert.Equal(t, expected.Link, actual.Link)
	assert.Equal(t, expected.LastBuildDate, actual.LastBuildDate)
	if expected.LastBuildDateParsed == nil {
		assert.Nil(t, actual.LastBuildDateParsed)
	} else {
		require.NotNil(t, actual.LastBuildDateParsed)
		assert.True(t, expected.LastBuildDateParsed.Equal(*actual.LastBuildDateParsed))
	}
	assert.Equal(t, expected.Sources, actual.Sources)

	require.Len(t, actual.Articles, len(expected.Articles))
	for i := range expected.Articles {
		e, a := expected.Articles[i], actual.Articles[i]
		assert.Equal(t, e.GUID, a.GUID)
		assert.Equal(t, e.Title, a.Title)
		assert.Equal(t, e.Link, a.Link)
		assert.Equal(t, e.Description, a.Description)
		assert.Equal(t, e.PubDate, a.PubDate)
		assert.Equal(t, e.Source, a.Source)
		assert.True(t, e.PublishedAt.Equal(a.PublishedAt), "article %d published time", i)
	}
}
