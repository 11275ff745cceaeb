package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"
)

// UserAgentBot is sent on outbound API calls.
const UserAgentBot = "GoTravel/1.0"

// CleanAPIText unescapes HTML entities the YouTube Data API leaves in titles and
// descriptions (&#39;, &amp;, &quot;) and trims surrounding whitespace.
func CleanAPIText(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}

// TruncateAtWord truncates a string to maxLen runes at a word boundary.
func TruncateAtWord(s string, maxLen int) string {
	return strutil.TruncateAtWord(s, maxLen)
}
