package search

import (
	"context"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
	"github.com/lueurxax/media-search-bot/internal/process/query"
)

// Search sources, used as metric labels.
const (
	SourcePrivate = "private"
	SourceInline  = "inline"
)

const (
	outcomeResults   = "results"
	outcomeEmpty     = "empty"
	outcomeInvalid   = "invalid"
	outcomeFailed    = "failed"
	maxSuggestionsUI = 5
)

// Outcome is a search page plus what happened to the query on the way in.
type Outcome struct {
	Page        *domain.SearchResultPage
	Original    string
	Query       string
	Corrected   bool
	Suggestions []string
}

// Service normalizes and corrects a raw query before handing it to the Engine.
type Service struct {
	engine     *Engine
	normalizer *query.Normalizer
	spellCheck bool
}

// NewService wires the query pipeline.
func NewService(engine *Engine, normalizer *query.Normalizer, spellCheck bool) *Service {
	return &Service{engine: engine, normalizer: normalizer, spellCheck: spellCheck}
}

// Search runs raw through normalization, optional correction and the engine.
// Suggestions are only computed for empty result sets.
func (s *Service) Search(ctx context.Context, source, raw string, requesterID int64, offset, limit int) (*Outcome, error) {
	norm := query.Normalize(raw)
	out := &Outcome{Original: raw, Query: norm}

	if s.spellCheck && norm != "" {
		if corrected := s.normalizer.Correct(norm); corrected != norm {
			out.Query = corrected
			out.Corrected = true

			observability.QueryCorrections.Inc()
		}
	}

	page, err := s.engine.Search(ctx, out.Query, requesterID, offset, limit)
	if err != nil {
		label := outcomeFailed
		if errors.Is(err, errors.ErrInvalidArgument) {
			label = outcomeInvalid
		}

		observability.SearchRequests.WithLabelValues(source, label).Inc()

		return nil, err
	}

	out.Page = page

	if page.Total == 0 {
		observability.SearchRequests.WithLabelValues(source, outcomeEmpty).Inc()

		if norm != "" {
			out.Suggestions = s.normalizer.Suggest(norm, maxSuggestionsUI)
		}

		return out, nil
	}

	observability.SearchRequests.WithLabelValues(source, outcomeResults).Inc()

	return out, nil
}
