package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var searchTokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {},
	"can": {}, "this": {}, "that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {},
	"she": {}, "it": {}, "we": {}, "they": {}, "me": {}, "him": {}, "her": {}, "us": {}, "them": {},
}

// IsStopWord reports whether the lower-cased word carries no search meaning.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// SearchTokens splits s into lower-cased letter/digit runs.
func SearchTokens(s string) []string {
	return searchTokenPattern.FindAllString(strings.ToLower(s), -1)
}

// QueryTerms returns the distinct tokens of a search query, any of which
// may match. Stop words are dropped unless the query has nothing else, so
// a title like "It" stays searchable.
func QueryTerms(query string) []string {
	tokens := SearchTokens(query)

	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	stops := make([]string, 0)

	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}

		if IsStopWord(t) {
			stops = append(stops, t)
			continue
		}

		terms = append(terms, t)
	}

	if len(terms) == 0 {
		return stops
	}

	return terms
}

var languageNames = map[Language]string{
	LangHindi:     "hindi",
	LangTamil:     "tamil",
	LangTelugu:    "telugu",
	LangMalayalam: "malayalam",
	LangKannada:   "kannada",
	LangBengali:   "bengali",
	LangMarathi:   "marathi",
	LangGujarati:  "gujarati",
	LangPunjabi:   "punjabi",
	LangEnglish:   "english",
}

// Name returns the lower-case English name of the language, or "".
func (l Language) Name() string {
	return languageNames[l]
}

var qualityAliases = map[Quality][]string{
	QualitySD:  {"sd", "480p"},
	QualityHD:  {"hd", "720p"},
	QualityFHD: {"fhd", "1080p"},
	QualityUHD: {"uhd", "4k", "2160p"},
	QualityHDR: {"hdr"},
}

// Aliases returns the tokens a user may type for the quality.
func (q Quality) Aliases() []string {
	return qualityAliases[q]
}

// SearchDocument is the text indexed for full-text search: the titles and
// keywords plus the year, quality and language the parser pulled out of
// the title.
func (i *IndexedItem) SearchDocument() string {
	parts := make([]string, 0, 6+len(i.AltTitles)+len(i.Keywords))
	parts = append(parts, i.Title)
	parts = append(parts, i.AltTitles...)
	parts = append(parts, i.Keywords...)

	if i.Year > 0 {
		parts = append(parts, strconv.Itoa(i.Year))
	}

	parts = append(parts, i.Quality.Aliases()...)

	if i.Language != "" {
		parts = append(parts, strings.ToLower(string(i.Language)), i.Language.Name())
	}

	return strings.ToLower(strings.Join(parts, " "))
}

// MatchedTerms counts how many of terms occur in the item's search document.
func (i *IndexedItem) MatchedTerms(terms []string) int {
	if len(terms) == 0 {
		return 0
	}

	vocab := make(map[string]struct{})
	for _, t := range SearchTokens(i.SearchDocument()) {
		vocab[t] = struct{}{}
	}

	n := 0

	for _, t := range terms {
		if _, ok := vocab[t]; ok {
			n++
		}
	}

	return n
}
