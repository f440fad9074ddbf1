package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

type messageKey struct {
	channelID int64
	messageID int64
}

// Store is an in-memory implementation of the item, channel and user ports.
type Store struct {
	mu       sync.RWMutex
	seq      int
	items    map[string]*domain.IndexedItem
	byMsg    map[messageKey]string
	channels map[int64]*domain.ChannelSource
	profiles map[int64]domain.AccessProfile

	// Optional overrides. When set they replace the default behavior.
	CreateItemFn       func(ctx context.Context, item *domain.IndexedItem) (string, bool, error)
	FindItemsByQueryFn func(ctx context.Context, q ports.ItemQuery) ([]domain.IndexedItem, int, error)
	UpdateMetadataFn   func(ctx context.Context, id string, md domain.ExternalMetadata) error

	queryCalls int
	countCalls int
}

var (
	_ ports.ItemRepository    = (*Store)(nil)
	_ ports.ChannelRepository = (*Store)(nil)
	_ ports.UserRepository    = (*Store)(nil)
)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		items:    make(map[string]*domain.IndexedItem),
		byMsg:    make(map[messageKey]string),
		channels: make(map[int64]*domain.ChannelSource),
		profiles: make(map[int64]domain.AccessProfile),
	}
}

// PutChannel stores a channel.
func (s *Store) PutChannel(ch domain.ChannelSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := ch
	s.channels[ch.ID] = &c
}

// Channel returns a copy of a stored channel.
func (s *Store) Channel(id int64) (domain.ChannelSource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.channels[id]
	if !ok {
		return domain.ChannelSource{}, false
	}

	return *c, true
}

// PutProfile sets the access profile of a user.
func (s *Store) PutProfile(userID int64, p domain.AccessProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[userID] = p
}

// PutItem stores an item directly, bypassing cursor bookkeeping.
func (s *Store) PutItem(item domain.IndexedItem) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(item)
}

// Items returns copies of all stored items.
func (s *Store) Items() []domain.IndexedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IndexedItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}

	return out
}

// QueryCalls returns how many times FindItemsByQuery reached the store.
func (s *Store) QueryCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCalls
}

// CountCalls returns how many times CountItemsByQuery reached the store.
func (s *Store) CountCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countCalls
}

func (s *Store) insertLocked(item domain.IndexedItem) string {
	s.seq++

	if item.ID == "" {
		item.ID = fmt.Sprintf("item-%04d", s.seq)
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Unix(int64(s.seq), 0)
	}

	if item.Status == "" {
		item.Status = domain.ItemActive
	}

	it := item
	s.items[it.ID] = &it
	s.byMsg[messageKey{it.ChannelID, it.MessageID}] = it.ID

	return it.ID
}

// FindItem returns the item for a channel message.
func (s *Store) FindItem(_ context.Context, channelID, messageID int64) (*domain.IndexedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byMsg[messageKey{channelID, messageID}]
	if !ok {
		return nil, errors.ErrItemNotFound
	}

	it := *s.items[id]

	return &it, nil
}

// GetItem returns an item by id.
func (s *Store) GetItem(_ context.Context, id string) (*domain.IndexedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, errors.ErrItemNotFound
	}

	cp := *it

	return &cp, nil
}

// FindItemsByQuery matches items containing any query term, ordered by the
// number of matched terms and then newest first, like the Postgres store.
func (s *Store) FindItemsByQuery(ctx context.Context, q ports.ItemQuery) ([]domain.IndexedItem, int, error) {
	s.mu.Lock()
	s.queryCalls++
	s.mu.Unlock()

	if s.FindItemsByQueryFn != nil {
		return s.FindItemsByQueryFn(ctx, q)
	}

	matched := s.matching(q)
	total := len(matched)

	if q.Offset >= total {
		return nil, total, nil
	}

	end := min(q.Offset+q.Limit, total)

	return matched[q.Offset:end], total, nil
}

// CountItemsByQuery returns the FindItemsByQuery total without a window.
func (s *Store) CountItemsByQuery(ctx context.Context, q ports.ItemQuery) (int, error) {
	s.mu.Lock()
	s.countCalls++
	s.mu.Unlock()

	if s.FindItemsByQueryFn != nil {
		_, total, err := s.FindItemsByQueryFn(ctx, q)
		return total, err
	}

	return len(s.matching(q)), nil
}

func (s *Store) matching(q ports.ItemQuery) []domain.IndexedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	terms := domain.QueryTerms(q.Text)
	browse := strings.TrimSpace(q.Text) == ""

	type hit struct {
		item    domain.IndexedItem
		matched int
	}

	var hits []hit

	for _, it := range s.items {
		if !it.Discoverable(now) {
			continue
		}

		n := it.MatchedTerms(terms)
		if !browse && n == 0 {
			continue
		}

		hits = append(hits, hit{item: *it, matched: n})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].matched != hits[j].matched {
			return hits[i].matched > hits[j].matched
		}

		if !hits[i].item.CreatedAt.Equal(hits[j].item.CreatedAt) {
			return hits[i].item.CreatedAt.After(hits[j].item.CreatedAt)
		}

		return hits[i].item.ID > hits[j].item.ID
	})

	matched := make([]domain.IndexedItem, len(hits))
	for i := range hits {
		matched[i] = hits[i].item
	}

	return matched
}

// CreateItem inserts the item and advances the channel cursor atomically.
func (s *Store) CreateItem(ctx context.Context, item *domain.IndexedItem) (string, bool, error) {
	if s.CreateItemFn != nil {
		return s.CreateItemFn(ctx, item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byMsg[messageKey{item.ChannelID, item.MessageID}]; ok {
		return id, false, nil
	}

	ch, ok := s.channels[item.ChannelID]
	if !ok {
		return "", false, errors.ErrChannelNotFound
	}

	id := s.insertLocked(*item)

	ch.AdvanceCursor(item.MessageID, time.Now())
	ch.TotalFiles++

	return id, true, nil
}

// UpdateItemMetadata applies enrichment to a stored item.
func (s *Store) UpdateItemMetadata(ctx context.Context, id string, md domain.ExternalMetadata) error {
	if s.UpdateMetadataFn != nil {
		return s.UpdateMetadataFn(ctx, id, md)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return errors.ErrItemNotFound
	}

	it.Apply(md)

	return nil
}

// IncrementItemCounter bumps a counter on a stored item.
func (s *Store) IncrementItemCounter(_ context.Context, id string, counter domain.ItemCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return errors.ErrItemNotFound
	}

	switch counter {
	case domain.CounterViews:
		it.Views++
	case domain.CounterDownloads:
		it.Downloads++
	case domain.CounterClones:
		it.Clones++
	}

	return nil
}

// FindChannel returns a copy of a channel.
func (s *Store) FindChannel(_ context.Context, channelID int64) (*domain.ChannelSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return nil, errors.ErrChannelNotFound
	}

	c := *ch

	return &c, nil
}

// UpdateChannelCursor applies the monotonic cursor and error counter rules.
func (s *Store) UpdateChannelCursor(_ context.Context, channelID int64, update ports.CursorUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return errors.ErrChannelNotFound
	}

	if update.Failed {
		ch.RecordFailure(update.LastError)

		return nil
	}

	ch.AdvanceCursor(update.MessageID, time.Now())

	return nil
}

// GetAccessProfile returns the stored profile or ErrUserNotFound.
func (s *Store) GetAccessProfile(_ context.Context, userID int64) (domain.AccessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return domain.AccessProfile{}, errors.ErrUserNotFound
	}

	return p, nil
}

// DeleteExpiredItems removes items whose expiry is at or before now.
func (s *Store) DeleteExpiredItems(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for id, it := range s.items {
		if !it.IsExpired(now) {
			continue
		}

		delete(s.byMsg, messageKey{it.ChannelID, it.MessageID})
		delete(s.items, id)

		n++
	}

	return n, nil
}
