package reader

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports"
	"github.com/lueurxax/media-search-bot/internal/platform/config"
	"github.com/lueurxax/media-search-bot/internal/process/indexing"
)

type fakeAPI struct {
	mu      sync.Mutex
	history map[int64][]tg.MessageClass
	// paged serves the Limit oldest messages above MinID, newest first.
	paged        bool
	historyErr   error
	requests     []*tg.MessagesGetHistoryRequest
	resolved     *tg.ContactsResolvedPeer
	resolveCalls int
}

func (f *fakeAPI) MessagesGetHistory(_ context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	if f.historyErr != nil {
		return nil, f.historyErr
	}

	peer, ok := req.Peer.(*tg.InputPeerChannel)
	if !ok {
		return &tg.MessagesMessagesNotModified{}, nil
	}

	msgs := f.history[peer.ChannelID]
	if f.paged {
		msgs = page(msgs, req.MinID, req.Limit)
	}

	return &tg.MessagesChannelMessages{Messages: msgs}, nil
}

func page(msgs []tg.MessageClass, minID, limit int) []tg.MessageClass {
	out := make([]tg.MessageClass, 0, len(msgs))

	for _, m := range msgs {
		if m.GetID() > minID {
			out = append(out, m)
		}
	}

	slices.SortFunc(out, func(a, b tg.MessageClass) int { return cmp.Compare(a.GetID(), b.GetID()) })
	out = out[:min(limit, len(out))]
	slices.Reverse(out)

	return out
}

func (f *fakeAPI) ContactsResolveUsername(_ context.Context, _ *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resolveCalls++

	if f.resolved == nil {
		return &tg.ContactsResolvedPeer{}, nil
	}

	return f.resolved, nil
}

type accessUpdate struct {
	channelID  int64
	accessHash int64
}

type fakeRepo struct {
	mu       sync.Mutex
	channels []domain.ChannelSource
	listErr  error
	updates  []accessUpdate
	cursors  []int64
}

func (f *fakeRepo) ListIndexableChannels(context.Context) ([]domain.ChannelSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.channels), f.listErr
}

func (f *fakeRepo) UpdateChannelCursor(_ context.Context, channelID int64, update ports.CursorUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursors = append(f.cursors, update.MessageID)

	for i := range f.channels {
		if f.channels[i].ID == channelID {
			f.channels[i].LastIndexedMessageID = max(f.channels[i].LastIndexedMessageID, update.MessageID)
		}
	}

	return nil
}

func (f *fakeRepo) UpdateChannelAccess(_ context.Context, channelID, accessHash int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, accessUpdate{channelID: channelID, accessHash: accessHash})

	return nil
}

type fakeIndexer struct {
	mu    sync.Mutex
	seen  []int64
	calls int
	fn    func(msg domain.ChannelMessage, call int) error
}

func (f *fakeIndexer) Index(_ context.Context, msg domain.ChannelMessage) (indexing.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if f.fn != nil {
		if err := f.fn(msg, f.calls); err != nil {
			return indexing.Result{Outcome: indexing.OutcomeFailed}, err
		}
	}

	f.seen = append(f.seen, msg.MessageID)

	return indexing.Result{Outcome: indexing.OutcomeIndexed}, nil
}

func newTestReader(repo *fakeRepo, api *fakeAPI, idx *fakeIndexer) *Reader {
	cfg := &config.Config{RateLimitRPS: 2, ReaderFetchLimit: 100, IndexRetryAttempts: 3}

	r := New(cfg, repo, idx, nil)
	r.api = api
	r.pacer = rate.NewLimiter(rate.Inf, 1)
	r.retryDelay = time.Millisecond

	return r
}

func videoMessage(id int, name string) *tg.Message {
	return &tg.Message{
		ID:      id,
		Date:    1767225600,
		Message: name,
		Media: &tg.MessageMediaDocument{Document: &tg.Document{
			ID:       int64(id) * 10,
			Size:     1 << 30,
			MimeType: "video/mp4",
			Attributes: []tg.DocumentAttributeClass{
				&tg.DocumentAttributeVideo{W: 1920, H: 1080, Duration: 7200},
				&tg.DocumentAttributeFilename{FileName: name + ".mp4"},
			},
		}},
	}
}

func TestBackfill_IndexesOldestFirst(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{
		{ID: 100, AccessHash: 5, LastIndexedMessageID: 10, MaxMessagesPerBatch: 50},
	}}
	api := &fakeAPI{history: map[int64][]tg.MessageClass{
		100: {
			videoMessage(14, "Dune 2021"),
			&tg.MessageService{ID: 13},
			&tg.Message{ID: 12, Message: "new uploads tonight"},
			videoMessage(11, "Arrival 2016"),
			videoMessage(10, "Already indexed"),
		},
	}}
	idx := &fakeIndexer{}

	n, err := newTestReader(repo, api, idx).Backfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{11, 14}, idx.seen)
	assert.Equal(t, []int64{14}, repo.cursors)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, 50, req.Limit)
	assert.Equal(t, 10, req.OffsetID)
	assert.Equal(t, -50, req.AddOffset)
	assert.Equal(t, 10, req.MinID)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 100, AccessHash: 5}, req.Peer)
}

func TestBackfill_ResolvesAccessHash(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{{ID: 100, Username: "moviehub"}}}
	api := &fakeAPI{
		resolved: &tg.ContactsResolvedPeer{Chats: []tg.ChatClass{
			&tg.Channel{ID: 999, AccessHash: 1},
			&tg.Channel{ID: 100, AccessHash: 77, Username: "moviehub"},
		}},
		history: map[int64][]tg.MessageClass{100: {videoMessage(3, "Dune 2021")}},
	}
	idx := &fakeIndexer{}

	n, err := newTestReader(repo, api, idx).Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []accessUpdate{{channelID: 100, accessHash: 77}}, repo.updates)

	require.Len(t, api.requests, 1)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 100, AccessHash: 77}, api.requests[0].Peer)
	assert.Zero(t, api.requests[0].OffsetID)
	assert.Equal(t, 100, api.requests[0].Limit)
}

func TestBackfill_UnaddressableChannelDoesNotStopOthers(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{
		{ID: 100},
		{ID: 200, Username: "gone"},
		{ID: 300, AccessHash: 9},
	}}
	api := &fakeAPI{history: map[int64][]tg.MessageClass{300: {videoMessage(1, "Dune 2021")}}}
	idx := &fakeIndexer{}

	n, err := newTestReader(repo, api, idx).Backfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, api.resolveCalls)
	assert.Len(t, api.requests, 1)
}

func TestBackfill_HonorsFloodWait(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{{ID: 100, AccessHash: 5}}}
	api := &fakeAPI{historyErr: tgerr.New(420, "FLOOD_WAIT_30")}
	idx := &fakeIndexer{}

	r := newTestReader(repo, api, idx)

	var waited []time.Duration
	r.wait = func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	n, err := r.Backfill(context.Background())
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, []time.Duration{30 * time.Second}, waited)
	assert.Zero(t, idx.calls)
}

func TestBackfill_RetriesTransientIndexFailures(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{{ID: 100, AccessHash: 5}}}
	api := &fakeAPI{history: map[int64][]tg.MessageClass{100: {videoMessage(2, "Arrival 2016"), videoMessage(1, "Dune 2021")}}}
	idx := &fakeIndexer{fn: func(_ domain.ChannelMessage, call int) error {
		if call < 3 {
			return errors.ErrStoreUnavailable
		}

		return nil
	}}

	n, err := newTestReader(repo, api, idx).Backfill(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, 4, idx.calls)
	assert.Equal(t, []int64{1, 2}, idx.seen)
}

func TestBackfill_StopsChannelAtPermanentFailure(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{{ID: 100, AccessHash: 5}}}
	api := &fakeAPI{history: map[int64][]tg.MessageClass{100: {videoMessage(2, "Arrival 2016"), videoMessage(1, "Dune 2021")}}}
	idx := &fakeIndexer{fn: func(msg domain.ChannelMessage, _ int) error {
		if msg.MessageID == 1 {
			return errors.ErrInvalidArgument
		}

		return nil
	}}

	n, err := newTestReader(repo, api, idx).Backfill(context.Background())
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, 1, idx.calls)
	assert.Empty(t, idx.seen)
	assert.Empty(t, repo.cursors)
}

func TestBackfill_AdvancesPastMessagesWithoutMedia(t *testing.T) {
	repo := &fakeRepo{channels: []domain.ChannelSource{
		{ID: 100, AccessHash: 5, LastIndexedMessageID: 10, MaxMessagesPerBatch: 50},
	}}

	var history []tg.MessageClass
	for id := 11; id <= 60; id++ {
		history = append(history, &tg.Message{ID: id, Message: "chat"})
	}

	history = append(history, videoMessage(61, "Dune 2021"))

	api := &fakeAPI{paged: true, history: map[int64][]tg.MessageClass{100: history}}
	idx := &fakeIndexer{}
	r := newTestReader(repo, api, idx)

	n, err := r.Backfill(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, idx.calls)
	assert.Equal(t, int64(60), repo.channels[0].LastIndexedMessageID)

	n, err = r.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{61}, idx.seen)
	assert.Equal(t, int64(61), repo.channels[0].LastIndexedMessageID)

	require.Len(t, api.requests, 2)
	assert.Equal(t, 10, api.requests[0].MinID)
	assert.Equal(t, 60, api.requests[1].MinID)
}

func TestBackfill_ListFailure(t *testing.T) {
	repo := &fakeRepo{listErr: errors.ErrStoreUnavailable}

	_, err := newTestReader(repo, &fakeAPI{}, &fakeIndexer{}).Backfill(context.Background())
	require.ErrorIs(t, err, errors.ErrStoreUnavailable)
}

func TestBatchSize(t *testing.T) {
	r := newTestReader(&fakeRepo{}, &fakeAPI{}, &fakeIndexer{})

	assert.Equal(t, 100, r.batchSize(&domain.ChannelSource{}))
	assert.Equal(t, 30, r.batchSize(&domain.ChannelSource{MaxMessagesPerBatch: 30}))
	assert.Equal(t, maxHistoryBatch, r.batchSize(&domain.ChannelSource{MaxMessagesPerBatch: 1000}))
}

func TestFloodWait(t *testing.T) {
	d, ok := floodWait(tgerr.New(420, "FLOOD_WAIT_7"))
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, d)

	_, ok = floodWait(tgerr.New(400, "CHANNEL_INVALID"))
	assert.False(t, ok)

	_, ok = floodWait(errors.ErrStoreUnavailable)
	assert.False(t, ok)
}

func TestSanitizePhone(t *testing.T) {
	assert.Equal(t, "+14155550123", sanitizePhone(" +1 (415) 555-0123\n"))
	assert.Equal(t, "14155550123", sanitizePhone("1-415-555-0123"))
	assert.Equal(t, "+14****23", maskPhone("+14155550123"))
	assert.Equal(t, "****", maskPhone("123"))
}
