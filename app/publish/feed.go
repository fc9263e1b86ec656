package publish

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

// FeedConfig is the channel-level podcast metadata.
type FeedConfig struct {
	Title       string
	Author      string
	Description string
	Language    string
	BaseURL     string
	Version     string
}

// Episode is one published digest as it appears in the feed.
type Episode struct {
	Date            string
	FileName        string
	SizeBytes       int64
	DurationSeconds float64
}

type Generator struct {
	config FeedConfig
}

func NewGenerator(config FeedConfig) *Generator {
	return &Generator{config: config}
}

// Run renders the podcast RSS document. Episodes are expected newest
// first.
func (g *Generator) Run(episodes []Episode) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.config.Title, 4)
	g.writeElement(&buf, "link", g.config.BaseURL, 4)
	g.writeElement(&buf, "description", cmp.Or(g.config.Description, "Daily news digest"), 4)
	g.writeElement(&buf, "language", cmp.Or(g.config.Language, "en-us"), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("DailyPodcaster/%s", g.config.Version), 4)
	g.writeElement(&buf, "lastBuildDate", time.Now().In(time.Local).Format(time.RFC1123Z), 4)

	if g.config.Author != "" {
		g.writeElement(&buf, "itunes:author", g.config.Author, 4)
	}
	g.writeElement(&buf, "itunes:explicit", "false", 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s/podcast.xml\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.config.BaseURL)))

	for _, episode := range episodes {
		g.writeEpisode(&buf, episode)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *Generator) writeEpisode(buf *bytes.Buffer, episode Episode) {
	audioURL := fmt.Sprintf("%s/audio/%s", g.config.BaseURL, episode.FileName)

	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", fmt.Sprintf("Daily Digest for %s", episode.Date), 6)
	g.writeElement(buf, "description", fmt.Sprintf("Your news digest for %s.", episode.Date), 6)

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(episode.FileName))
	buf.WriteString("</guid>\n")

	if t, err := time.Parse(timeutil.DateFormat, episode.Date); err == nil {
		g.writeElement(buf, "pubDate", t.Format(time.RFC1123Z), 6)
	}

	if episode.DurationSeconds > 0 {
		g.writeElement(buf, "itunes:duration", timeutil.FormatDuration(episode.DurationSeconds), 6)
	}

	buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"audio/mpeg\" />\n",
		html.EscapeString(audioURL), episode.SizeBytes))

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
