// Package titleparse extracts structured attributes from free-form media
// titles, file names and captions.
//
// Parsing never fails: a field that cannot be recognized is left at its zero
// value.
package titleparse

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
)

const (
	minYear              = 1900
	yearHeadroom         = 2
	minTitleLength       = 3
	maxDescriptionLength = 500
)

// Metadata is the best-effort result of parsing a title string.
type Metadata struct {
	Title       string
	Year        int
	Season      int
	Episode     int
	Quality     domain.Quality
	Language    domain.Language
	Codec       string
	IMDBID      string
	Tags        []string
	Keywords    []string
	Description string
}

// Source is the set of candidate strings carried by a channel message.
type Source struct {
	FileName string
	Caption  string
	Text     string
}

// Parser extracts Metadata. It is safe for concurrent use.
type Parser struct {
	now func() time.Time
}

// New returns a Parser using the wall clock for year plausibility.
func New() *Parser {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Parser with an injected clock.
func NewWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Extract parses a single raw title string.
func (p *Parser) Extract(raw string) Metadata {
	s := prepare(raw)

	var md Metadata

	md.Year = p.extractYear(s)
	md.Season, md.Episode = extractEpisode(s)
	md.Quality = extractQuality(s)
	md.Language = extractLanguage(s)
	md.Codec = extractCodec(s)
	md.Title = cleanTitle(s, md.Year)
	md.Keywords = Keywords(md.Title, nil, nil)

	return md
}

// ExtractMessage picks the title from the first candidate (file name, then
// caption, then text) whose cleaned form is longer than three characters.
// Attributes missing from that candidate are filled from the others in the
// same order. The external id and hashtags only come from caption and text.
func (p *Parser) ExtractMessage(src Source) Metadata {
	candidates := make([]string, 0, 3)
	for _, c := range []string{src.FileName, firstLine(src.Caption), firstLine(src.Text)} {
		if strings.TrimSpace(c) != "" {
			candidates = append(candidates, c)
		}
	}

	var md Metadata

	titleSource := ""

	for _, c := range candidates {
		parsed := p.Extract(c)
		if utf8.RuneCountInString(parsed.Title) > minTitleLength {
			md = parsed
			titleSource = c

			break
		}
	}

	for _, c := range []string{src.FileName, src.Caption, src.Text} {
		if c == "" {
			continue
		}

		md.fillFrom(p.Extract(c))
	}

	body := src.Caption
	if body == "" {
		body = src.Text
	}

	md.IMDBID = externalIDRe.FindString(src.Caption + "\n" + src.Text)
	md.Tags = hashtags(body)
	md.Keywords = Keywords(md.Title, nil, md.Tags)
	md.Description = describe(body, titleSource)

	return md
}

func (md *Metadata) fillFrom(other Metadata) {
	if md.Year == 0 {
		md.Year = other.Year
	}

	if md.Season == 0 && md.Episode == 0 {
		md.Season, md.Episode = other.Season, other.Episode
	}

	if md.Quality == "" {
		md.Quality = other.Quality
	}

	if md.Language == "" {
		md.Language = other.Language
	}

	if md.Codec == "" {
		md.Codec = other.Codec
	}
}

func prepare(raw string) string {
	s := strings.TrimSpace(raw)
	s = extensionPattern.ReplaceAllString(s, "")

	return strings.ReplaceAll(s, "_", " ")
}

func (p *Parser) plausibleYear(y int) bool {
	return y >= minYear && y <= p.now().Year()+yearHeadroom
}

func (p *Parser) extractYear(s string) int {
	for _, re := range yearPatterns {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			y, err := strconv.Atoi(m[1])
			if err == nil && p.plausibleYear(y) {
				return y
			}
		}
	}

	return 0
}

func extractEpisode(s string) (int, int) {
	for _, ep := range episodePatterns {
		m := ep.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		if !ep.hasSeason {
			e, _ := strconv.Atoi(m[1])
			return 0, e
		}

		season, _ := strconv.Atoi(m[1])
		episode, _ := strconv.Atoi(m[2])

		return season, episode
	}

	return 0, 0
}

func extractQuality(s string) domain.Quality {
	for _, qp := range qualityPatterns {
		if qp.re.MatchString(s) {
			return qp.quality
		}
	}

	return ""
}

func extractLanguage(s string) domain.Language {
	for _, l := range languageTable {
		if l.matches(s) {
			return l.code
		}
	}

	return ""
}

func (l languageEntry) matches(s string) bool {
	if l.names.MatchString(s) || l.codeRe.MatchString(s) {
		return true
	}

	for _, script := range l.scripts {
		if strings.Contains(s, script) {
			return true
		}
	}

	return false
}

func (l languageEntry) strip(s string) string {
	s = l.names.ReplaceAllString(s, " ")
	s = l.codeRe.ReplaceAllString(s, " ")

	for _, script := range l.scripts {
		s = strings.ReplaceAll(s, script, " ")
	}

	return s
}

func extractCodec(s string) string {
	m := codecPattern.FindString(s)
	if m == "" {
		return ""
	}

	return codecNames[strings.ToLower(m)]
}

// cleanTitle strips every recognized token from s and title-cases the rest.
// An episode marker ends the series name, so anything after it is dropped.
func cleanTitle(s string, year int) string {
	for _, ep := range episodePatterns {
		loc := ep.re.FindStringIndex(s)
		if loc == nil {
			continue
		}

		if head := strings.TrimSpace(separatorPattern.ReplaceAllString(s[:loc[0]], " ")); head != "" {
			s = s[:loc[0]]
		} else {
			s = s[loc[1]:]
		}

		break
	}

	if year > 0 {
		y := strconv.Itoa(year)
		s = strings.NewReplacer("("+y+")", " ", "["+y+"]", " ").Replace(s)
		s = yearPatterns[2].ReplaceAllStringFunc(s, func(m string) string {
			if m == y {
				return " "
			}

			return m
		})
	}

	for _, qp := range qualityPatterns {
		s = qp.re.ReplaceAllString(s, " ")
	}

	for _, l := range languageTable {
		s = l.strip(s)
	}

	s = codecPattern.ReplaceAllString(s, " ")
	s = releasePattern.ReplaceAllString(s, " ")
	s = delimiterPattern.ReplaceAllString(s, " ")
	s = separatorPattern.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -+,:;|")

	// Casers carry state, so one is built per call.
	return cases.Title(language.Und).String(s)
}

// Keywords tokenizes the title, alternate titles and tags into a lower-case,
// stop-word filtered, de-duplicated keyword list.
func Keywords(title string, altTitles, tags []string) []string {
	seen := make(map[string]struct{})

	var out []string

	add := func(s string) {
		for _, tok := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
			if utf8.RuneCountInString(tok) <= 1 || IsStopWord(tok) {
				continue
			}

			if _, ok := seen[tok]; ok {
				continue
			}

			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}

	add(title)

	for _, s := range altTitles {
		add(s)
	}

	for _, s := range tags {
		add(s)
	}

	return out
}

func hashtags(s string) []string {
	var tags []string

	for _, m := range hashtagPattern.FindAllStringSubmatch(s, -1) {
		tags = append(tags, strings.ToLower(m[1]))
	}

	return tags
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return ""
}

func describe(body, titleSource string) string {
	if body == "" {
		return ""
	}

	desc := body
	if titleSource != "" {
		desc = strings.Replace(desc, titleSource, "", 1)
	}

	desc = strings.TrimSpace(desc)

	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		desc = string([]rune(desc)[:maxDescriptionLength])
	}

	return desc
}
