package query

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lueurxax/media-search-bot/internal/platform/observability"
)

var commonWords = []string{
	"the", "and", "or", "of", "in", "on", "at", "to", "for", "with", "by", "from",
	"movie", "movies", "film", "films", "series", "season", "episode", "part", "chapter",
	"action", "adventure", "animation", "comedy", "crime", "documentary", "drama",
	"family", "fantasy", "horror", "mystery", "romance", "thriller", "war", "western",
	"avengers", "marvel", "spider", "man", "batman", "superman", "harry", "potter",
	"lord", "rings", "star", "wars", "trek", "fast", "furious", "mission", "impossible",
	"new", "old", "full", "complete", "collection", "trilogy", "remastered", "extended",
}

var qualityTerms = []string{
	"hd", "fhd", "uhd", "4k", "sd", "hdr", "high", "definition", "full", "standard",
	"ultra", "premium", "blue", "ray", "bluray", "dvd", "cam", "ts", "tc", "web", "dl",
	"webdl", "webrip", "hdrip", "brrip", "dvdrip", "1080p", "720p", "480p", "2160p",
}

var languageTerms = []string{
	"english", "hindi", "tamil", "telugu", "malayalam", "kannada", "bengali", "marathi",
	"gujarati", "punjabi", "urdu", "spanish", "french", "german", "italian", "japanese",
	"korean", "chinese", "russian", "arabic", "portuguese", "dubbed", "subtitled", "subs",
	"subtitles", "multi", "audio", "dual",
}

// Corpus is the in-process vocabulary used for fuzzy correction. It starts
// with the static word lists and grows with every extracted title. Nothing is
// persisted: a restarted process begins with a cold title corpus.
type Corpus struct {
	mu     sync.RWMutex
	words  map[string]struct{}
	titles map[string]string
}

// NewCorpus returns a corpus seeded with the static vocabularies.
func NewCorpus() *Corpus {
	c := &Corpus{
		words:  make(map[string]struct{}),
		titles: make(map[string]string),
	}

	for _, list := range [][]string{commonWords, qualityTerms, languageTerms} {
		for _, w := range list {
			c.words[w] = struct{}{}
		}
	}

	return c
}

// AddTitle records a title and each of its words.
func (c *Corpus) AddTitle(title string) {
	norm := Normalize(title)
	if norm == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.titles[norm] = title
	observability.CorpusTitles.Set(float64(len(c.titles)))

	for _, w := range strings.Fields(norm) {
		if utf8.RuneCountInString(w) >= minWordLength {
			c.words[w] = struct{}{}
		}
	}
}

// Seed adds titles in bulk, for example recent titles read from the store at startup.
func (c *Corpus) Seed(titles []string) {
	for _, t := range titles {
		c.AddTitle(t)
	}
}

// Contains reports whether w is a known word.
func (c *Corpus) Contains(w string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.words[w]

	return ok
}

// Len returns the number of known words.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.words)
}

// TitleCount returns the number of distinct titles seen.
func (c *Corpus) TitleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.titles)
}

// snapshotWords returns the words in sorted order so that equal scores
// resolve the same way on every call.
func (c *Corpus) snapshotWords() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.words))

	for w := range c.words {
		out = append(out, w)
	}
	c.mu.RUnlock()

	sort.Strings(out)

	return out
}

type titleEntry struct {
	norm    string
	display string
}

func (c *Corpus) snapshotTitles() []titleEntry {
	c.mu.RLock()
	out := make([]titleEntry, 0, len(c.titles))

	for norm, display := range c.titles {
		out = append(out, titleEntry{norm: norm, display: display})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].norm < out[j].norm })

	return out
}
