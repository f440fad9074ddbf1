package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/process/search"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
)

func helpMessage(botUsername string, admin bool) string {
	var sb strings.Builder

	sb.WriteString("🎬 <b>Media Search</b>\n\n")
	sb.WriteString("Send me a movie or series title and I will find the files.\n\n")
	sb.WriteString("• <code>/search &lt;title&gt;</code> - Search the index\n")
	sb.WriteString("• Add a year or episode: <code>dune 2021</code>, <code>dark s01e03</code>\n")

	if botUsername != "" {
		sb.WriteString(fmt.Sprintf("• Inline: <code>@%s title</code> in any chat\n", html.EscapeString(botUsername)))
	}

	sb.WriteString(fmt.Sprintf("\n%s premium file  %s verified users only\n", markPremium, markVerification))

	if admin {
		sb.WriteString("\n<b>Admin</b>\n")
		sb.WriteString("• <code>/addchannel &lt;id&gt; [title]</code>\n")
		sb.WriteString("• <code>/channels</code>\n")
		sb.WriteString("• <code>/channel &lt;id&gt; &lt;setting&gt; &lt;value&gt;</code>\n")
		sb.WriteString("  settings: mode, min, max, kinds, include, exclude, premium, verify, autodelete, link, enable, status\n")
		sb.WriteString("• <code>/premium &lt;user&gt; &lt;plan|cancel|suspend&gt; [until]</code>\n")
		sb.WriteString("• <code>/verify &lt;user&gt; [off]</code>\n")
		sb.WriteString("• <code>/stats</code>\n")
	}

	return sb.String()
}

// formatSearchPage renders the header of a results message. The results
// themselves are the keyboard buttons.
func formatSearchPage(out *search.Outcome) string {
	page := out.Page

	var sb strings.Builder

	if out.Corrected {
		sb.WriteString(fmt.Sprintf("Did you mean <b>%s</b>?\n\n", html.EscapeString(out.Query)))
	}

	if page.Total == 0 {
		sb.WriteString(noResultsText(out.Query))

		if len(out.Suggestions) > 0 {
			sb.WriteString("\n\nTry:\n")

			for _, s := range out.Suggestions {
				sb.WriteString("• <code>" + html.EscapeString(s) + "</code>\n")
			}
		}

		return sb.String()
	}

	first := page.Offset + 1
	last := page.Offset + len(page.Results)

	if out.Query == "" {
		sb.WriteString(fmt.Sprintf("📂 Latest files %d-%d of %d", first, last, page.Total))
	} else {
		sb.WriteString(fmt.Sprintf("🔎 <b>%s</b>: %d-%d of %d", html.EscapeString(out.Query), first, last, page.Total))
	}

	return sb.String()
}

// resultsKeyboard builds one button per result plus a "more" button. It
// reports false when there is nothing to show.
func resultsKeyboard(out *search.Outcome) (tgbotapi.InlineKeyboardMarkup, bool) {
	page := out.Page
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(page.Results)+1)

	for _, r := range page.Results {
		label := resultLabel(r)
		if r.Item.FileSize > 0 {
			label += " · " + formatSize(r.Item.FileSize)
		}

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, CallbackPrefixGet+r.Item.ID),
		))
	}

	if page.HasNext {
		if data, ok := moreCallbackData(page.NextOffset(), out.Query); ok {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(buttonMore, data)))
		}
	}

	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// resultLabel is the short title of a result with its access mark.
func resultLabel(r domain.SearchResult) string {
	label := truncateRunes(r.Item.DisplayTitle(), maxButtonTitle)

	if r.Item.Quality != "" {
		label += " [" + string(r.Item.Quality) + "]"
	}

	switch r.Decision {
	case domain.AccessPremiumRequired:
		return markPremium + " " + label
	case domain.AccessVerificationRequired:
		return markVerification + " " + label
	default:
		return label
	}
}

// moreCallbackData encodes the next page request. Queries that do not fit
// into Telegram's callback data limit get no "more" button.
func moreCallbackData(offset int, query string) (string, bool) {
	data := CallbackPrefixMore + strconv.Itoa(offset) + ":" + query
	if len(data) > maxCallbackData {
		return "", false
	}

	return data, true
}

func parseMoreData(data string) (int, string, bool) {
	rest, ok := strings.CutPrefix(data, CallbackPrefixMore)
	if !ok {
		return 0, "", false
	}

	offsetStr, query, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, "", false
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, "", false
	}

	return offset, query, true
}

// itemSummary is a one-line description: quality, language, size, rating.
func itemSummary(item *domain.IndexedItem) string {
	parts := make([]string, 0, 5)

	if item.Quality != "" {
		parts = append(parts, string(item.Quality))
	}

	if item.Language != "" {
		parts = append(parts, string(item.Language))
	}

	if item.FileSize > 0 {
		parts = append(parts, formatSize(item.FileSize))
	}

	if item.Rating != nil {
		parts = append(parts, fmt.Sprintf("⭐ %.1f", *item.Rating))
	}

	if len(item.Genre) > 0 {
		parts = append(parts, strings.Join(item.Genre, ", "))
	}

	return strings.Join(parts, " · ")
}

// formatItemCard renders the message text of an inline result.
func formatItemCard(item *domain.IndexedItem) string {
	var sb strings.Builder

	sb.WriteString("🎬 <b>" + html.EscapeString(item.DisplayTitle()) + "</b>\n")

	if summary := itemSummary(item); summary != "" {
		sb.WriteString(html.EscapeString(summary) + "\n")
	}

	if item.Director != "" {
		sb.WriteString("Director: " + html.EscapeString(item.Director) + "\n")
	}

	if len(item.Cast) > 0 {
		sb.WriteString("Cast: " + html.EscapeString(strings.Join(item.Cast, ", ")) + "\n")
	}

	if item.FileName != "" {
		sb.WriteString("<code>" + html.EscapeString(item.FileName) + "</code>\n")
	}

	sb.WriteString(FormatLink("", item.ChannelID, item.MessageID, "Source"))

	return sb.String()
}

func formatSize(n int64) string {
	switch {
	case n >= gib:
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	case n >= mib:
		return fmt.Sprintf("%.0f MB", float64(n)/mib)
	case n >= kib:
		return fmt.Sprintf("%.0f KB", float64(n)/kib)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n-1]) + "…"
}
