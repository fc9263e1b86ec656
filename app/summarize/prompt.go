package summarize

import (
	"fmt"
	"strings"

	"github.com/yourdaily/daily-podcaster/app/database"
	"github.com/yourdaily/daily-podcaster/app/topics"
)

// BuildPrompt composes one summarization prompt for a topic group. Every
// member article contributes its title, source, and clean text.
func BuildPrompt(topic string, articles []database.ArtifactWithTopic) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are writing a segment for a daily news podcast.\n")
	fmt.Fprintf(&b, "Below are %d article(s) about %q published today.\n\n", len(articles), topics.DisplayName(topic))

	for i, a := range articles {
		fmt.Fprintf(&b, "--- Article %d ---\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", a.Title)
		if a.SourceName != "" {
			fmt.Fprintf(&b, "Source: %s\n", a.SourceName)
		}
		fmt.Fprintf(&b, "Content:\n%s\n\n", a.CleanText)
	}

	b.WriteString("Write a concise spoken-word summary of the stories above ")
	b.WriteString("as 3 to 5 short paragraphs suitable for narration. ")
	b.WriteString("Merge overlapping coverage, attribute claims to their sources, ")
	b.WriteString("and avoid headlines, bullet characters, and markup of any kind.")

	return b.String()
}
