package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"time"
)

type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Run writes the feed channel with the given articles as RSS 2.0. Articles
// usually come from a derived view, so they may differ from feed.Articles.
func (g *Generator) Run(feed *Feed, articles []Article) (string, error) {
	if feed == nil {
		return "", fmt.Errorf("feed is nil")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", feed.Title, 4)
	g.writeElement(&buf, "link", feed.Link, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Articles from %s", feed.Title), 4)

	lastBuildDate := feed.LastBuildDate
	if lastBuildDate == "" {
		lastBuildDate = time.Now().In(time.Local).Format(time.RFC1123Z)
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate, 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Desk/%s", cmp.Or(g.version, "dev")), 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article Article) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(article.GUID)))
	xml.EscapeText(buf, []byte(article.GUID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", article.Link, 6)
	// Written even when empty; an absent description fails parsing.
	buf.WriteString("      <description>")
	xml.EscapeText(buf, []byte(article.Description))
	buf.WriteString("</description>\n")

	pubDate := article.PubDate
	if pubDate == "" && !article.PublishedAt.IsZero() {
		pubDate = article.PublishedAt.Format(time.RFC1123Z)
	}
	g.writeElement(buf, "pubDate", pubDate, 6)

	if article.Source != "" {
		buf.WriteString("      <source>")
		xml.EscapeText(buf, []byte(article.Source))
		buf.WriteString("</source>\n")
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
