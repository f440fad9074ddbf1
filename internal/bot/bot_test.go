package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/platform/config"
	"github.com/lueurxax/media-search-bot/internal/process/indexing"
	"github.com/lueurxax/media-search-bot/internal/process/search"
	db "github.com/lueurxax/media-search-bot/internal/storage"
)

const (
	testAdminID   = int64(1)
	testUserID    = int64(42)
	testChannelID = int64(1234567890)
	testItemID    = "0b5f7d2e-4c3a-4f36-9d43-2f1a8e7c6b5a"
)

type apiCall struct {
	Method string
	Params url.Values
}

// fakeTelegram is a Bot API server that accepts every call.
type fakeTelegram struct {
	mu    sync.Mutex
	calls []apiCall
	srv   *httptest.Server
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()

	ft := &fakeTelegram{}
	ft.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		method := path.Base(r.URL.Path)

		ft.mu.Lock()
		ft.calls = append(ft.calls, apiCall{Method: method, Params: r.PostForm})
		ft.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if method == "getMe" {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Finder","username":"finder_bot"}}`))
			return
		}

		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":1,"type":"private"}}}`))
	}))
	t.Cleanup(ft.srv.Close)

	return ft
}

func (ft *fakeTelegram) callsTo(method string) []apiCall {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	var out []apiCall

	for _, c := range ft.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}

	return out
}

type fakeRepo struct {
	mu        sync.Mutex
	items     map[string]*domain.IndexedItem
	channels  map[int64]*domain.ChannelSource
	downloads map[string]int
	touched   map[int64]int
	verified  map[int64]bool
	premium   map[int64]domain.Premium
	statsRead bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		items:     make(map[string]*domain.IndexedItem),
		channels:  make(map[int64]*domain.ChannelSource),
		downloads: make(map[string]int),
		touched:   make(map[int64]int),
		verified:  make(map[int64]bool),
		premium:   make(map[int64]domain.Premium),
	}
}

func (r *fakeRepo) GetItem(_ context.Context, id string) (*domain.IndexedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, errors.ErrItemNotFound
	}

	cp := *item

	return &cp, nil
}

func (r *fakeRepo) IncrementItemCounter(_ context.Context, id string, counter domain.ItemCounter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if counter == domain.CounterDownloads {
		r.downloads[id]++
	}

	return nil
}

func (r *fakeRepo) TouchUser(_ context.Context, userID int64, _, _ string, searched bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if searched {
		r.touched[userID]++
	}

	return nil
}

func (r *fakeRepo) SetVerified(_ context.Context, userID int64, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.verified[userID] = verified

	return nil
}

func (r *fakeRepo) GrantPremium(_ context.Context, p domain.Premium) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.premium[p.UserID] = p

	return nil
}

func (r *fakeRepo) SetPremiumStatus(_ context.Context, userID int64, status domain.PremiumStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.premium[userID]
	if !ok {
		return errors.ErrUserNotFound
	}

	p.Status = status
	r.premium[userID] = p

	return nil
}

func (r *fakeRepo) AddChannel(_ context.Context, ch domain.ChannelSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels[ch.ID] = &ch

	return nil
}

func (r *fakeRepo) FindChannel(_ context.Context, channelID int64) (*domain.ChannelSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return nil, errors.ErrChannelNotFound
	}

	cp := *ch

	return &cp, nil
}

func (r *fakeRepo) ListChannels(_ context.Context) ([]domain.ChannelSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ChannelSource, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, *ch)
	}

	return out, nil
}

func (r *fakeRepo) SaveChannelSettings(_ context.Context, ch *domain.ChannelSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[ch.ID]; !ok {
		return errors.ErrChannelNotFound
	}

	cp := *ch
	r.channels[ch.ID] = &cp

	return nil
}

func (r *fakeRepo) GetStats(_ context.Context) (db.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statsRead = true

	return db.Stats{Items: int64(len(r.items))}, nil
}

type searchCall struct {
	Source string
	Query  string
	Offset int
	Limit  int
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []searchCall
	fn    func(query string, offset, limit int) (*search.Outcome, error)
}

func (s *fakeSearcher) Search(_ context.Context, source, raw string, _ int64, offset, limit int) (*search.Outcome, error) {
	s.mu.Lock()
	s.calls = append(s.calls, searchCall{Source: source, Query: raw, Offset: offset, Limit: limit})
	s.mu.Unlock()

	return s.fn(raw, offset, limit)
}

type indexerFunc func(ctx context.Context, msg domain.ChannelMessage) (indexing.Result, error)

func (f indexerFunc) Index(ctx context.Context, msg domain.ChannelMessage) (indexing.Result, error) {
	return f(ctx, msg)
}

type fakeAccess struct {
	decision domain.AccessDecision
}

func (a fakeAccess) Profile(context.Context, int64) domain.AccessProfile {
	return domain.AccessProfile{}
}

func (a fakeAccess) Decide(domain.AccessProfile, *domain.IndexedItem) domain.AccessDecision {
	if a.decision == "" {
		return domain.AccessAllow
	}

	return a.decision
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int64) bool { return false }

type testEnv struct {
	bot      *Bot
	tg       *fakeTelegram
	repo     *fakeRepo
	searcher *fakeSearcher
}

func newTestEnv(t *testing.T, deps Deps) *testEnv {
	t.Helper()

	tg := newFakeTelegram(t)

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint("TEST", tg.srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	cfg := &config.Config{
		AdminIDs:            []int64{testAdminID},
		BotUsername:         "finder_bot",
		PMSearchEnabled:     true,
		InlineSearchEnabled: true,
		SearchPageSize:      10,
		InlineRateLimit:     20,
		IndexRetryAttempts:  3,
	}

	searcher := &fakeSearcher{fn: func(q string, offset, limit int) (*search.Outcome, error) {
		return &search.Outcome{Query: q, Page: &domain.SearchResultPage{Query: q, Offset: offset, Limit: limit}}, nil
	}}

	if deps.Searcher == nil {
		deps.Searcher = searcher
	}

	if deps.Access == nil {
		deps.Access = fakeAccess{}
	}

	repo := newFakeRepo()
	b := newBot(cfg, repo, deps, api, nil)
	b.retryDelay = time.Millisecond
	b.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	return &testEnv{bot: b, tg: tg, repo: repo, searcher: searcher}
}

func privateUser(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, UserName: "neo", FirstName: "Neo"}
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		From:      privateUser(from),
		Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
		Text:      text,
	}
}

func commandMessage(from int64, text string) *tgbotapi.Message {
	msg := textMessage(from, text)

	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}

	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}

	return msg
}

func activeItem() *domain.IndexedItem {
	return &domain.IndexedItem{
		ID:        testItemID,
		ChannelID: testChannelID,
		MessageID: 55,
		Kind:      domain.MediaVideo,
		Title:     "Interstellar",
		Year:      2014,
		Quality:   domain.QualityFHD,
		FileSize:  2 * gib,
		Status:    domain.ItemActive,
	}
}

func TestPrivateSearch_RendersResults(t *testing.T) {
	env := newTestEnv(t, Deps{})

	premium := *activeItem()
	premium.ID = "11111111-1111-4111-8111-111111111111"
	premium.IsPremium = true

	env.searcher.fn = func(q string, offset, limit int) (*search.Outcome, error) {
		return &search.Outcome{
			Original:  "interstelar",
			Query:     "interstellar",
			Corrected: true,
			Page: &domain.SearchResultPage{
				Query:  "interstellar",
				Offset: offset,
				Limit:  limit,
				Total:  25,
				Results: []domain.SearchResult{
					{Item: *activeItem(), Decision: domain.AccessAllow},
					{Item: premium, Decision: domain.AccessPremiumRequired},
				},
				HasNext: true,
			},
		}, nil
	}

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(testUserID, "interstelar")})

	sent := env.tg.callsTo("sendMessage")
	require.Len(t, sent, 1)

	text := sent[0].Params.Get("text")
	assert.Contains(t, text, "Did you mean <b>interstellar</b>?")
	assert.Contains(t, text, "1-2 of 25")

	markup := sent[0].Params.Get("reply_markup")
	assert.Contains(t, markup, CallbackPrefixGet+testItemID)
	assert.Contains(t, markup, markPremium+" Interstellar (2014)")
	assert.Contains(t, markup, "more:10:interstellar")

	assert.Equal(t, 1, env.repo.touched[testUserID])
	require.Len(t, env.searcher.calls, 1)
	assert.Equal(t, search.SourcePrivate, env.searcher.calls[0].Source)
}

func TestPrivateSearch_NoResultsShowsSuggestions(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.searcher.fn = func(q string, offset, limit int) (*search.Outcome, error) {
		return &search.Outcome{
			Query:       q,
			Suggestions: []string{"Dune"},
			Page:        &domain.SearchResultPage{Query: q, Offset: offset, Limit: limit},
		}, nil
	}

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(testUserID, "/search doon")})

	sent := env.tg.callsTo("sendMessage")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Params.Get("text"), "No files found for <b>doon</b>")
	assert.Contains(t, sent[0].Params.Get("text"), "<code>Dune</code>")
	assert.Empty(t, sent[0].Params.Get("reply_markup"))
}

func TestPrivateSearch_StoreFailure(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.searcher.fn = func(string, int, int) (*search.Outcome, error) {
		return nil, errors.ErrSearchUnavailable
	}

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(testUserID, "dune")})

	sent := env.tg.callsTo("sendMessage")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Params.Get("text"), "temporarily unavailable")
}

func TestGroupMessagesIgnored(t *testing.T) {
	env := newTestEnv(t, Deps{})

	msg := textMessage(testUserID, "dune")
	msg.Chat = &tgbotapi.Chat{ID: -100, Type: "group"}

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: msg})

	assert.Empty(t, env.searcher.calls)
	assert.Empty(t, env.tg.callsTo("sendMessage"))
}

func TestGetCallback_DeliversFile(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.repo.items[testItemID] = activeItem()

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: privateUser(testUserID),
		Data: CallbackPrefixGet + testItemID,
	}})

	copies := env.tg.callsTo("copyMessage")
	require.Len(t, copies, 1)
	assert.Equal(t, "42", copies[0].Params.Get("chat_id"))
	assert.Equal(t, "-1001234567890", copies[0].Params.Get("from_chat_id"))
	assert.Equal(t, "55", copies[0].Params.Get("message_id"))

	assert.Equal(t, 1, env.repo.downloads[testItemID])

	answers := env.tg.callsTo("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, msgSending, answers[0].Params.Get("text"))
}

func TestGetCallback_Gated(t *testing.T) {
	tests := []struct {
		name     string
		decision domain.AccessDecision
		want     string
	}{
		{name: "premium", decision: domain.AccessPremiumRequired, want: "premium subscription"},
		{name: "verification", decision: domain.AccessVerificationRequired, want: "verified account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Deps{Access: fakeAccess{decision: tt.decision}})
			env.repo.items[testItemID] = activeItem()

			env.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:   "cb1",
				From: privateUser(testUserID),
				Data: CallbackPrefixGet + testItemID,
			}})

			assert.Empty(t, env.tg.callsTo("copyMessage"))
			assert.Zero(t, env.repo.downloads[testItemID])

			answers := env.tg.callsTo("answerCallbackQuery")
			require.Len(t, answers, 1)
			assert.Equal(t, "true", answers[0].Params.Get("show_alert"))
			assert.Contains(t, answers[0].Params.Get("text"), tt.want)
		})
	}
}

func TestGetCallback_ExpiredOrMissing(t *testing.T) {
	env := newTestEnv(t, Deps{})

	expired := activeItem()
	expired.ExpiresAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	env.repo.items[testItemID] = expired

	for _, id := range []string{testItemID, "22222222-2222-4222-8222-222222222222"} {
		env.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: privateUser(testUserID),
			Data: CallbackPrefixGet + id,
		}})
	}

	assert.Empty(t, env.tg.callsTo("copyMessage"))

	answers := env.tg.callsTo("answerCallbackQuery")
	require.Len(t, answers, 2)

	for _, a := range answers {
		assert.Contains(t, a.Params.Get("text"), "no longer available")
	}
}

func TestStartDeepLink_DeliversFile(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.repo.items[testItemID] = activeItem()

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{
		Message: commandMessage(testUserID, "/start "+startPayloadGet+testItemID),
	})

	require.Len(t, env.tg.callsTo("copyMessage"), 1)
	assert.Empty(t, env.tg.callsTo("sendMessage"))
}

func TestMoreCallback_EditsPage(t *testing.T) {
	env := newTestEnv(t, Deps{})

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    privateUser(testUserID),
		Data:    "more:10:dune",
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: testUserID, Type: "private"}},
	}})

	require.Len(t, env.searcher.calls, 1)
	assert.Equal(t, searchCall{Source: search.SourcePrivate, Query: "dune", Offset: 10, Limit: 10}, env.searcher.calls[0])

	edits := env.tg.callsTo("editMessageText")
	require.Len(t, edits, 1)
	assert.Equal(t, "99", edits[0].Params.Get("message_id"))
}

func TestInlineQuery(t *testing.T) {
	env := newTestEnv(t, Deps{})
	env.searcher.fn = func(q string, offset, limit int) (*search.Outcome, error) {
		return &search.Outcome{
			Query: q,
			Page: &domain.SearchResultPage{
				Query:   q,
				Offset:  offset,
				Limit:   limit,
				Total:   45,
				Results: []domain.SearchResult{{Item: *activeItem(), Decision: domain.AccessAllow}},
				HasNext: true,
			},
		}, nil
	}

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:     "iq1",
		From:   privateUser(testUserID),
		Query:  "interstellar",
		Offset: "20",
	}})

	require.Len(t, env.searcher.calls, 1)
	assert.Equal(t, searchCall{Source: search.SourceInline, Query: "interstellar", Offset: 20, Limit: inlinePageSize}, env.searcher.calls[0])

	answers := env.tg.callsTo("answerInlineQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, "40", answers[0].Params.Get("next_offset"))
	assert.Contains(t, answers[0].Params.Get("results"), testItemID)
	assert.Contains(t, answers[0].Params.Get("results"), "start=get_"+testItemID)
}

func TestInlineQuery_EmptyShowsHelp(t *testing.T) {
	env := newTestEnv(t, Deps{})

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:   "iq1",
		From: privateUser(testUserID),
	}})

	assert.Empty(t, env.searcher.calls)

	answers := env.tg.callsTo("answerInlineQuery")
	require.Len(t, answers, 1)
	assert.Contains(t, answers[0].Params.Get("results"), inlineHelpID)
}

func TestInlineQuery_RateLimited(t *testing.T) {
	env := newTestEnv(t, Deps{Limiter: denyLimiter{}})

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:    "iq1",
		From:  privateUser(testUserID),
		Query: "dune",
	}})

	assert.Empty(t, env.searcher.calls)

	answers := env.tg.callsTo("answerInlineQuery")
	require.Len(t, answers, 1)
	assert.Contains(t, answers[0].Params.Get("results"), inlineRateLimitedID)
}

func channelPost() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 56,
		Chat:      &tgbotapi.Chat{ID: domain.BotAPIChatID(testChannelID), Type: "channel"},
		Date:      1767225600,
		Caption:   "Interstellar 2014 1080p",
		Video:     &tgbotapi.Video{FileID: "vid", FileUniqueID: "uniq", Width: 1920, Height: 1080, Duration: 10140, FileName: "Interstellar.2014.1080p.mkv", FileSize: 1 << 30},
	}
}

func TestChannelPost_RetriesTransientFailures(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
		seen  domain.ChannelMessage
	)

	indexer := indexerFunc(func(_ context.Context, msg domain.ChannelMessage) (indexing.Result, error) {
		mu.Lock()
		defer mu.Unlock()

		calls++
		seen = msg

		if calls < 3 {
			return indexing.Result{Outcome: indexing.OutcomeFailed}, errors.ErrStoreUnavailable
		}

		return indexing.Result{Outcome: indexing.OutcomeIndexed, ItemID: testItemID}, nil
	})

	env := newTestEnv(t, Deps{Indexer: indexer})
	env.bot.handleUpdate(context.Background(), tgbotapi.Update{ChannelPost: channelPost()})

	assert.Equal(t, 3, calls)
	assert.Equal(t, testChannelID, seen.ChannelID)
	assert.Equal(t, int64(56), seen.MessageID)
	assert.Equal(t, domain.MediaVideo, seen.Media.Kind)
}

func TestChannelPost_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	indexer := indexerFunc(func(context.Context, domain.ChannelMessage) (indexing.Result, error) {
		calls++
		return indexing.Result{}, errors.ErrChannelNotFound
	})

	env := newTestEnv(t, Deps{Indexer: indexer})
	env.bot.handleUpdate(context.Background(), tgbotapi.Update{ChannelPost: channelPost()})

	assert.Equal(t, 1, calls)
}

func TestChannelPost_WithoutMediaIgnored(t *testing.T) {
	calls := 0
	indexer := indexerFunc(func(context.Context, domain.ChannelMessage) (indexing.Result, error) {
		calls++
		return indexing.Result{}, nil
	})

	post := channelPost()
	post.Video = nil

	env := newTestEnv(t, Deps{Indexer: indexer})
	env.bot.handleUpdate(context.Background(), tgbotapi.Update{ChannelPost: post})

	assert.Zero(t, calls)
}

func TestAdminCommands_RejectOthers(t *testing.T) {
	env := newTestEnv(t, Deps{})

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(testUserID, "/stats")})

	assert.False(t, env.repo.statsRead)

	sent := env.tg.callsTo("sendMessage")
	require.Len(t, sent, 1)
	assert.Equal(t, msgNotAdmin, sent[0].Params.Get("text"))
}

func TestAdminCommands(t *testing.T) {
	env := newTestEnv(t, Deps{})
	ctx := context.Background()

	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/addchannel -1001234567890 Movie Hub")})

	ch, ok := env.repo.channels[testChannelID]
	require.True(t, ok)
	assert.Equal(t, "Movie Hub", ch.Title)
	assert.True(t, ch.CanIndex())

	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/channel 1234567890 kinds video, document")})
	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/channel 1234567890 premium on")})

	ch = env.repo.channels[testChannelID]
	assert.Equal(t, []domain.MediaKind{domain.MediaVideo, domain.MediaDocument}, ch.AllowedKinds)
	assert.True(t, ch.IsPremiumOnly)

	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/premium 42 vip 2026-12-31")})

	p, ok := env.repo.premium[testUserID]
	require.True(t, ok)
	assert.Equal(t, domain.PlanVIP, p.Plan)
	assert.Equal(t, testAdminID, p.GrantedBy)
	assert.Equal(t, 2026, p.ExpiresAt.Year())

	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/premium 42 cancel")})
	assert.Equal(t, domain.PremiumCancelled, env.repo.premium[testUserID].Status)

	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/verify 42")})
	assert.True(t, env.repo.verified[testUserID])

	env.bot.handleUpdate(ctx, tgbotapi.Update{Message: commandMessage(testAdminID, "/stats")})
	assert.True(t, env.repo.statsRead)
}

func TestChannelSetting_UnknownChannel(t *testing.T) {
	env := newTestEnv(t, Deps{})

	env.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(testAdminID, "/channel 777 premium on")})

	sent := env.tg.callsTo("sendMessage")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Params.Get("text"), "Channel <code>777</code> not found.")
}
