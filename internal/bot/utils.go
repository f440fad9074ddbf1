package bot

import (
	"fmt"
	"html"

	"github.com/lueurxax/media-search-bot/internal/platform/htmlutils"
)

// SplitHTML splits an HTML string into multiple parts, each within the specified limit.
// The limit applies to the text length *after* HTML entities are parsed, consistent with Telegram's API.
// It tries to split at line breaks if possible, otherwise splits at any character.
// It ensures that all supported HTML tags are properly handled and closed/reopened across parts.
func SplitHTML(text string, limit int) []string {
	return htmlutils.SplitHTML(text, limit)
}

// FormatLink generates a Telegram message link for public or private channels.
func FormatLink(username string, peerID, msgID int64, label string) string {
	if username != "" {
		return fmt.Sprintf("<a href=\"https://t.me/%s/%d\">%s</a>", html.EscapeString(username), msgID, html.EscapeString(label))
	}
	// For private channels or channels without username
	return fmt.Sprintf("<a href=\"https://t.me/c/%d/%d\">%s</a>", peerID, msgID, html.EscapeString(label))
}

// formatChannelDisplay prefers @username, then title, then the raw identifier.
func formatChannelDisplay(username, title, identifier string) string {
	switch {
	case username != "":
		return "<code>@" + html.EscapeString(username) + "</code>"
	case title != "":
		return "<b>" + html.EscapeString(title) + "</b>"
	default:
		return "<code>" + html.EscapeString(identifier) + "</code>"
	}
}

// stripTags turns an HTML reply into plain text for callback alerts.
func stripTags(s string) string {
	return htmlutils.StripHTMLTags(s)
}
