package scrape

import (
	"regexp"
	"strings"
)

// MinContentLength is the threshold below which extracted text is treated
// as noise rather than article content.
const MinContentLength = 100

var multiNewline = regexp.MustCompile(`\n{3,}`)

// PostProcess normalizes extracted article text: every line is trimmed,
// blank lines are dropped from the line content, and runs of 3 or more
// newlines collapse to exactly 2. The contract is exact; stored clean
// text round-trips through it unchanged.
func PostProcess(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return multiNewline.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
