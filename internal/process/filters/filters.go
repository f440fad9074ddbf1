// Package filters implements the per-channel rules that decide whether a
// channel message is indexed.
//
// The rules are independent and ANDed together:
//   - Allowed media kinds
//   - Minimum and maximum file size
//   - Non-empty file name
//   - Exclude keywords (deny)
//   - Include keywords (allow, only when configured)
//
// The first failing rule short-circuits; the order only affects which reason
// is reported, never the boolean result.
package filters

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
)

const (
	ReasonMediaKind   = "filter_media_kind"
	ReasonMinSize     = "filter_min_size"
	ReasonMaxSize     = "filter_max_size"
	ReasonEmptyName   = "filter_empty_name"
	ReasonExclude     = "filter_exclude"
	ReasonIncludeMiss = "filter_include_miss"
)

// Filterer applies a channel's indexing rules.
type Filterer struct {
	caser cases.Caser
}

// New creates a Filterer. A Filterer must not be shared between goroutines.
func New() *Filterer {
	return &Filterer{caser: cases.Fold()}
}

// ShouldIndex reports whether msg passes every rule of ch.
func ShouldIndex(msg *domain.ChannelMessage, ch *domain.ChannelSource) bool {
	ok, _ := New().FilterReason(msg, ch)
	return ok
}

// FilterReason returns whether msg may be indexed and, if not, the reason code.
func (f *Filterer) FilterReason(msg *domain.ChannelMessage, ch *domain.ChannelSource) (bool, string) {
	media := msg.Media

	if !ch.AllowsKind(media.Kind) {
		return false, ReasonMediaKind
	}

	if ch.MinFileSize > 0 && media.Size < ch.MinFileSize {
		return false, ReasonMinSize
	}

	if ch.MaxFileSize > 0 && media.Size > ch.MaxFileSize {
		return false, ReasonMaxSize
	}

	if strings.TrimSpace(media.FileName) == "" {
		return false, ReasonEmptyName
	}

	folded := f.caser.String(msg.Body() + " " + media.FileName)

	if f.containsAny(folded, ch.ExcludeKeywords) {
		return false, ReasonExclude
	}

	if len(ch.IncludeKeywords) > 0 && !f.containsAny(folded, ch.IncludeKeywords) {
		return false, ReasonIncludeMiss
	}

	return true, ""
}

func (f *Filterer) containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		if strings.Contains(folded, f.caser.String(kw)) {
			return true
		}
	}

	return false
}
