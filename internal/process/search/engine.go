// Package search executes queries against the item store and annotates each
// result with the requester's access decision.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/platform/observability"
	"github.com/lueurxax/media-search-bot/internal/process/access"
)

const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// Engine runs searches. The page cache is optional.
type Engine struct {
	items  ports.ItemReader
	policy *access.Policy
	cache  ports.PageCache
	now    func() time.Time
	logger *zerolog.Logger
}

// NewEngine creates a search engine.
func NewEngine(items ports.ItemReader, policy *access.Policy, cache ports.PageCache, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Engine{
		items:  items,
		policy: policy,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
}

// Search returns one window of the items matching query. An empty query
// browses all discoverable items. Gated items keep their slot and are
// annotated rather than dropped.
func (e *Engine) Search(ctx context.Context, query string, requesterID int64, offset, limit int) (*domain.SearchResultPage, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset %d is negative", errors.ErrInvalidArgument, offset)
	}

	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d must be positive", errors.ErrInvalidArgument, limit)
	}

	query = strings.TrimSpace(query)

	items, total, err := e.window(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}

	profile := e.policy.Profile(ctx, requesterID)

	results := make([]domain.SearchResult, 0, len(items))

	for i := range items {
		decision := e.policy.Decide(profile, &items[i])
		observability.AccessDecisions.WithLabelValues(string(decision)).Inc()

		results = append(results, domain.SearchResult{Item: items[i], Decision: decision})
	}

	return &domain.SearchResultPage{
		Query:   query,
		Results: results,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasNext: offset+limit < total,
	}, nil
}

func (e *Engine) window(ctx context.Context, query string, offset, limit int) ([]domain.IndexedItem, int, error) {
	key := pageKey(query, offset, limit)

	if items, total, ok := e.fromCache(ctx, key, query); ok {
		observability.SearchCache.WithLabelValues(cacheHit).Inc()
		return items, total, nil
	}

	if e.cache != nil {
		observability.SearchCache.WithLabelValues(cacheMiss).Inc()
	}

	start := time.Now()

	items, total, err := e.items.FindItemsByQuery(ctx, ports.ItemQuery{
		Text:   query,
		Offset: offset,
		Limit:  limit,
		Now:    e.now(),
	})

	observability.SearchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		e.logger.Error().Err(err).Str("query", query).Int("offset", offset).Msg("search failed")
		return nil, 0, fmt.Errorf("%w: %w", errors.ErrSearchUnavailable, err)
	}

	if e.cache != nil {
		ids := make([]string, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}

		e.cache.SetPage(ctx, key, ids, total)
	}

	return items, total, nil
}

// fromCache rebuilds a cached window. The entry is stale when the match count
// moved since it was stored or when any id no longer resolves to a
// discoverable item, so every page of a query reports the current total.
func (e *Engine) fromCache(ctx context.Context, key, query string) ([]domain.IndexedItem, int, bool) {
	if e.cache == nil {
		return nil, 0, false
	}

	ids, total, ok := e.cache.GetPage(ctx, key)
	if !ok {
		return nil, 0, false
	}

	now := e.now()

	current, err := e.items.CountItemsByQuery(ctx, ports.ItemQuery{Text: query, Now: now})
	if err != nil || current != total {
		return nil, 0, false
	}
	items := make([]domain.IndexedItem, 0, len(ids))

	for _, id := range ids {
		item, err := e.items.GetItem(ctx, id)
		if err != nil || !item.Discoverable(now) {
			return nil, 0, false
		}

		items = append(items, *item)
	}

	return items, total, true
}

func pageKey(query string, offset, limit int) string {
	return fmt.Sprintf("%s:%d:%d", strings.ToLower(query), offset, limit)
}
