// Package query normalizes free-text search queries and corrects misspelled
// words against a vocabulary of known terms and previously seen titles.
package query

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/process/titleparse"
)

const (
	// CorrectionThreshold is the minimum similarity for a substitution.
	CorrectionThreshold = 80
	// SuggestionThreshold is the minimum similarity for a title suggestion.
	SuggestionThreshold = 70
	// MaxSuggestions caps Suggest results.
	MaxSuggestions = 5

	minWordLength = 2
)

var (
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases s, replaces everything except word characters,
// whitespace and hyphens with spaces and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = disallowedChars.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// Normalizer corrects queries against a Corpus.
type Normalizer struct {
	corpus *Corpus
	logger *zerolog.Logger
}

// New returns a Normalizer reading from corpus.
func New(corpus *Corpus, logger *zerolog.Logger) *Normalizer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Normalizer{corpus: corpus, logger: logger}
}

// Corpus returns the vocabulary the normalizer reads from.
func (n *Normalizer) Corpus() *Corpus {
	return n.corpus
}

// Normalize is the method form of the package function.
func (n *Normalizer) Normalize(s string) string {
	return Normalize(s)
}

// Correct replaces each unknown word with its closest vocabulary entry when
// the similarity reaches CorrectionThreshold. Words are corrected
// independently and keep their casing pattern. Any internal failure returns
// the query unchanged.
func (n *Normalizer) Correct(q string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().Interface("panic", r).Str("query", q).Msg("query correction failed")
			out = q
		}
	}()

	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return q
	}

	var vocab []string

	changed := false

	for i, tok := range tokens {
		word := stripPunctuation(strings.ToLower(tok))
		if !correctable(word) || n.corpus.Contains(word) {
			continue
		}

		if vocab == nil {
			vocab = n.corpus.snapshotWords()
		}

		best, score := bestMatch(word, vocab)
		if score < CorrectionThreshold {
			continue
		}

		tokens[i] = applyCasing(tok, best)
		changed = true
	}

	if !changed {
		return q
	}

	return strings.Join(tokens, " ")
}

// Suggest returns up to limit known titles similar to q, best first.
func (n *Normalizer) Suggest(q string, limit int) []string {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}

	norm := Normalize(q)
	if norm == "" {
		return nil
	}

	type scored struct {
		title string
		score int
	}

	var hits []scored

	for _, t := range n.corpus.snapshotTitles() {
		if s := Similarity(norm, t.norm); s >= SuggestionThreshold {
			hits = append(hits, scored{title: t.display, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.title
	}

	return out
}

// SearchTerms returns the normalized words of q without stop words.
func SearchTerms(q string) []string {
	var terms []string

	for _, w := range strings.Fields(Normalize(q)) {
		if utf8.RuneCountInString(w) < minWordLength || titleparse.IsStopWord(w) {
			continue
		}

		terms = append(terms, w)
	}

	return terms
}

// Similarity scores two strings on a 0-100 scale from their edit distance.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)

	longest := max(la, lb)
	if longest == 0 {
		return 100
	}

	d := levenshtein.ComputeDistance(a, b)

	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

func bestMatch(word string, vocab []string) (string, int) {
	best, bestScore := "", -1
	lw := utf8.RuneCountInString(word)

	for _, cand := range vocab {
		lc := utf8.RuneCountInString(cand)

		// The length gap alone bounds the score from above. Similarity rounds,
		// so the bound is rounded the same way.
		if ceiling := math.Round(100 * (1 - float64(absInt(lw-lc))/float64(max(lw, lc)))); ceiling < CorrectionThreshold {
			continue
		}

		if s := Similarity(word, cand); s > bestScore {
			best, bestScore = cand, s
		}
	}

	return best, bestScore
}

func correctable(word string) bool {
	if utf8.RuneCountInString(word) < minWordLength {
		return false
	}

	for _, r := range word {
		if !unicode.IsDigit(r) {
			return true
		}
	}

	return false
}

func stripPunctuation(s string) string {
	return strings.TrimSpace(disallowedChars.ReplaceAllString(s, ""))
}

// applyCasing renders replacement with the casing pattern of original.
func applyCasing(original, replacement string) string {
	hasLetter, allUpper := false, true

	for _, r := range original {
		if unicode.IsLetter(r) {
			hasLetter = true

			if !unicode.IsUpper(r) {
				allUpper = false
			}
		}
	}

	switch {
	case hasLetter && allUpper:
		return strings.ToUpper(replacement)
	case startsUpper(original):
		r, size := utf8.DecodeRuneInString(replacement)
		return string(unicode.ToUpper(r)) + replacement[size:]
	default:
		return replacement
	}
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
