package audiogen

import (
	"fmt"
	"time"

	"github.com/yourdaily/daily-podcaster/app/timeutil"
)

// gapSSML renders half a second of silence between segments.
const gapSSML = `<speak><break time="500ms"/></speak>`

// IntroScript returns the narrated opening for the digest of date.
func IntroScript(date string) string {
	spoken := date
	if t, err := time.Parse(timeutil.DateFormat, date); err == nil {
		spoken = t.Format("Monday, January 2, 2006")
	}
	return fmt.Sprintf("Welcome to your daily news digest for %s. Here are today's top stories.", spoken)
}

// TopicScript returns the narrated lead-in for one topic segment.
func TopicScript(topicDisplay, summary string) string {
	return fmt.Sprintf("Now, the latest on %s. %s", topicDisplay, summary)
}

// OutroScript returns the narrated closing.
func OutroScript() string {
	return "That's all for today's digest. Thanks for listening, and we'll see you tomorrow."
}
