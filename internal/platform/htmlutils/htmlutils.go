// Package htmlutils splits and strips Telegram HTML messages.
//
// Telegram limits messages by UTF-16 code units of the rendered text, so the
// splitter measures text outside of tags and closes and reopens formatting
// tags at every cut.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// utf16Len returns the number of UTF-16 code units needed to encode s.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// utf16Slice returns the longest prefix of s that fits into maxUnits UTF-16
// code units.
func utf16Slice(s string, maxUnits int) string {
	units := 0

	for i, r := range s {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2
		}

		if units+runeUnits > maxUnits {
			return s[:i]
		}

		units += runeUnits
	}

	return s
}

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)

// StripHTMLTags removes all tags and unescapes entities, e.g. for callback
// alerts that are shown as plain text.
func StripHTMLTags(text string) string {
	result := tagRegex.ReplaceAllString(text, "")
	result = html.UnescapeString(result)

	return strings.TrimSpace(result)
}

// splitAfter lists separators that stay at the end of the current part,
// in priority order.
var splitAfter = []string{
	"</blockquote>\n",
	"\n\n",
}

// splitBefore lists line prefixes that should start the next part.
var splitBefore = []string{
	"\n• ",
	"\n<b>",
}

// SplitHTML splits text into parts whose rendered length is within limit
// UTF-16 units. Paragraph and list boundaries are preferred over line and
// word breaks.
func SplitHTML(text string, limit int) []string {
	tokens := tokenizeHTML(text)

	if renderedLen(tokens) <= limit {
		return []string{text}
	}

	s := &htmlSplitter{limit: limit}
	s.processTokens(tokens)

	return s.parts
}

type htmlToken struct {
	val   string
	isTag bool
}

type htmlSplitter struct {
	parts      []string
	current    strings.Builder
	openTags   []string
	currentLen int
	limit      int
}

func tokenizeHTML(text string) []htmlToken {
	var tokens []htmlToken

	for remaining := text; remaining != ""; {
		loc := tagRegex.FindStringIndex(remaining)

		switch {
		case loc == nil:
			tokens = append(tokens, htmlToken{val: remaining})
			remaining = ""
		case loc[0] == 0:
			tokens = append(tokens, htmlToken{val: remaining[:loc[1]], isTag: true})
			remaining = remaining[loc[1]:]
		default:
			tokens = append(tokens, htmlToken{val: remaining[:loc[0]]})
			remaining = remaining[loc[0]:]
		}
	}

	return tokens
}

// renderedLen counts text outside tags. Entities are counted as written,
// which overestimates and so stays on the safe side of the limit.
func renderedLen(tokens []htmlToken) int {
	n := 0

	for _, t := range tokens {
		if !t.isTag {
			n += utf16Len(t.val)
		}
	}

	return n
}

func (s *htmlSplitter) processTokens(tokens []htmlToken) {
	for _, t := range tokens {
		if t.isTag {
			s.openTags = updateOpenTags(t.val, s.openTags)
			s.current.WriteString(t.val)

			continue
		}

		s.processText(t.val)
	}

	s.flush()
}

func (s *htmlSplitter) processText(text string) {
	remaining := text

	for remaining != "" {
		canTake := s.limit - s.currentLen
		if canTake <= 0 {
			s.flush()
			canTake = s.limit
		}

		if n := utf16Len(remaining); n <= canTake {
			s.current.WriteString(remaining)
			s.currentLen += n

			return
		}

		toWrite, rest, clean := findBestSplit(remaining, canTake)
		if !clean && s.currentLen > 0 {
			// Start a fresh part before cutting inside a word.
			s.flush()
			continue
		}

		s.current.WriteString(toWrite)
		s.currentLen += utf16Len(toWrite)
		remaining = strings.TrimLeft(rest, " \t\n\r")

		if remaining != "" {
			s.flush()
		}
	}
}

// flush closes the open tags, emits the part and reopens the tags in the
// next one.
func (s *htmlSplitter) flush() {
	if s.currentLen == 0 {
		return
	}

	content := strings.TrimRight(s.current.String(), " \t\n")

	for i := len(s.openTags) - 1; i >= 0; i-- {
		content += "</" + GetTagName(s.openTags[i]) + ">"
	}

	s.parts = append(s.parts, content)
	s.current.Reset()
	s.currentLen = 0

	for _, tag := range s.openTags {
		s.current.WriteString(tag)
	}
}

// findBestSplit cuts text to fit maxUnits. clean is false when no line or
// word boundary was found and the cut falls inside a word.
func findBestSplit(text string, maxUnits int) (string, string, bool) {
	window := utf16Slice(text, maxUnits)

	for _, sep := range splitAfter {
		if pos := strings.LastIndex(window, sep); pos > 0 {
			at := pos + len(sep)
			return text[:at], text[at:], true
		}
	}

	for _, sep := range splitBefore {
		if pos := strings.LastIndex(window, sep); pos > 0 {
			return text[:pos+1], text[pos+1:], true
		}
	}

	if pos := strings.LastIndex(window, "\n"); pos > 0 {
		return text[:pos+1], text[pos+1:], true
	}

	if pos := strings.LastIndex(window, " "); pos > 0 {
		return text[:pos+1], text[pos+1:], true
	}

	if window == "" {
		// A single rune wider than the remaining room.
		_, size := utf8.DecodeRuneInString(text)
		return text[:size], text[size:], false
	}

	return window, text[len(window):], false
}

// GetTagName returns the element name of an opening or closing tag.
func GetTagName(fullTag string) string {
	parts := strings.Fields(strings.Trim(fullTag, "<>"))
	if len(parts) == 0 {
		return ""
	}

	return strings.TrimPrefix(parts[0], "/")
}

func updateOpenTags(tag string, openTags []string) []string {
	m := tagRegex.FindStringSubmatch(tag)
	if m == nil {
		return openTags
	}

	name := strings.ToLower(m[2])

	if m[1] != "/" {
		return append(openTags, m[0])
	}

	for i := len(openTags) - 1; i >= 0; i-- {
		if strings.ToLower(GetTagName(openTags[i])) == name {
			return append(openTags[:i], openTags[i+1:]...)
		}
	}

	return openTags
}
