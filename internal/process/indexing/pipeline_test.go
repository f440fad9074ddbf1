package indexing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
	"github.com/lueurxax/media-search-bot/internal/core/ports/mocks"
	"github.com/lueurxax/media-search-bot/internal/process/filters"
	"github.com/lueurxax/media-search-bot/internal/process/query"
	"github.com/lueurxax/media-search-bot/internal/process/titleparse"
)

const channelID = int64(100)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type lookupFunc func(ctx context.Context, title string, year int) (*domain.ExternalMetadata, error)

func (f lookupFunc) LookupByTitle(ctx context.Context, title string, year int) (*domain.ExternalMetadata, error) {
	return f(ctx, title, year)
}

type fixture struct {
	store    *mocks.Store
	corpus   *query.Corpus
	pipeline *Pipeline
}

func newFixture(t *testing.T, mutate func(*domain.ChannelSource), lookup lookupFunc) *fixture {
	t.Helper()

	store := mocks.NewStore()

	ch := domain.NewChannelSource(channelID, "movies")
	ch.LastIndexedMessageID = 50

	if mutate != nil {
		mutate(&ch)
	}

	store.PutChannel(ch)

	corpus := query.NewCorpus()
	parser := titleparse.NewWithClock(func() time.Time { return fixedNow })

	var p *Pipeline
	if lookup != nil {
		p = New(store, store, parser, corpus, lookup, nil)
	} else {
		p = New(store, store, parser, corpus, nil, nil)
	}

	p.now = func() time.Time { return fixedNow }

	return &fixture{store: store, corpus: corpus, pipeline: p}
}

func (f *fixture) channel(t *testing.T) domain.ChannelSource {
	t.Helper()

	ch, ok := f.store.Channel(channelID)
	require.True(t, ok)

	return ch
}

func videoMessage(id int64, name string) domain.ChannelMessage {
	return domain.ChannelMessage{
		ChannelID: channelID,
		MessageID: id,
		Media: domain.MediaFile{
			Kind:     domain.MediaVideo,
			FileID:   fmt.Sprintf("file-%d", id),
			FileName: name,
			Size:     1 << 30,
			Video:    &domain.VideoInfo{Width: 1920, Height: 1080, Duration: 7200},
		},
	}
}

func TestIndex_CreatesItemAndAdvancesCursor(t *testing.T) {
	f := newFixture(t, nil, nil)

	msg := videoMessage(55, "Interstellar.2014.1080p.mkv")
	msg.Caption = "Interstellar 2014\nA team travels through a wormhole. tt0816692 #scifi"

	res, err := f.pipeline.Index(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndexed, res.Outcome)

	items := f.store.Items()
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, res.ItemID, it.ID)
	assert.Equal(t, "Interstellar", it.Title)
	assert.Equal(t, 2014, it.Year)
	assert.Equal(t, domain.QualityFHD, it.Quality)
	assert.Equal(t, "tt0816692", it.IMDBID)
	assert.Equal(t, "1920x1080", it.Resolution)
	assert.Equal(t, 7200, it.Duration)
	assert.Contains(t, it.Keywords, "interstellar")
	assert.Contains(t, it.Keywords, "scifi")
	assert.True(t, it.ExpiresAt.IsZero())

	ch := f.channel(t)
	assert.Equal(t, int64(55), ch.LastIndexedMessageID)
	assert.Equal(t, int64(1), ch.TotalFiles)
	assert.Zero(t, ch.ErrorCount)

	assert.True(t, f.corpus.Contains("interstellar"))
}

func TestIndex_RedeliveryIsNoOp(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	msg := videoMessage(55, "Interstellar.2014.mkv")

	first, err := f.pipeline.Index(ctx, msg)
	require.NoError(t, err)
	require.Equal(t, OutcomeIndexed, first.Outcome)

	second, err := f.pipeline.Index(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Equal(t, first.ItemID, second.ItemID)

	assert.Len(t, f.store.Items(), 1)

	ch := f.channel(t)
	assert.Equal(t, int64(55), ch.LastIndexedMessageID)
	assert.Equal(t, int64(1), ch.TotalFiles)
}

func TestIndex_ConcurrentRedelivery(t *testing.T) {
	f := newFixture(t, nil, nil)
	msg := videoMessage(55, "Interstellar.2014.mkv")

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.pipeline.Index(context.Background(), msg)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Len(t, f.store.Items(), 1)
	assert.Equal(t, int64(1), f.channel(t).TotalFiles)
}

func TestIndex_CursorIsMonotonic(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.pipeline.Index(ctx, videoMessage(60, "Dune.2021.mkv"))
	require.NoError(t, err)

	_, err = f.pipeline.Index(ctx, videoMessage(55, "Arrival.2016.mkv"))
	require.NoError(t, err)

	assert.Len(t, f.store.Items(), 2)
	assert.Equal(t, int64(60), f.channel(t).LastIndexedMessageID)
}

func TestIndex_RejectedMessageAdvancesCursor(t *testing.T) {
	f := newFixture(t, nil, nil)

	msg := domain.ChannelMessage{
		ChannelID: channelID,
		MessageID: 55,
		Media:     domain.MediaFile{Kind: domain.MediaAudio, FileName: "song.mp3"},
	}

	res, err := f.pipeline.Index(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, filters.ReasonMediaKind, res.Reason)

	assert.Empty(t, f.store.Items())
	assert.Equal(t, int64(55), f.channel(t).LastIndexedMessageID)
}

func TestIndex_StoreFailureKeepsCursor(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.store.CreateItemFn = func(context.Context, *domain.IndexedItem) (string, bool, error) {
		return "", false, fmt.Errorf("connection reset")
	}

	res, err := f.pipeline.Index(ctx, videoMessage(55, "Dune.2021.mkv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
	assert.Equal(t, OutcomeFailed, res.Outcome)

	ch := f.channel(t)
	assert.Equal(t, int64(50), ch.LastIndexedMessageID)
	assert.Equal(t, 1, ch.ErrorCount)
	assert.Contains(t, ch.LastError, "connection reset")

	_, err = f.pipeline.Index(ctx, videoMessage(56, "Dune.2021.mkv"))
	require.Error(t, err)
	assert.Equal(t, 2, f.channel(t).ErrorCount)

	f.store.CreateItemFn = nil

	_, err = f.pipeline.Index(ctx, videoMessage(55, "Dune.2021.mkv"))
	require.NoError(t, err)

	ch = f.channel(t)
	assert.Equal(t, int64(55), ch.LastIndexedMessageID)
	assert.Zero(t, ch.ErrorCount)
	assert.Empty(t, ch.LastError)
}

func TestIndex_UnknownChannel(t *testing.T) {
	f := newFixture(t, nil, nil)

	msg := videoMessage(1, "Dune.mkv")
	msg.ChannelID = 999

	_, err := f.pipeline.Index(context.Background(), msg)
	assert.ErrorIs(t, err, errors.ErrChannelNotFound)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestIndex_DisabledChannelIsSkipped(t *testing.T) {
	f := newFixture(t, func(c *domain.ChannelSource) { c.IndexingEnabled = false }, nil)

	res, err := f.pipeline.Index(context.Background(), videoMessage(55, "Dune.mkv"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, f.store.Items())
	assert.Equal(t, int64(50), f.channel(t).LastIndexedMessageID)
}

func TestIndex_AppliesChannelDefaults(t *testing.T) {
	f := newFixture(t, func(c *domain.ChannelSource) {
		c.IsPremiumOnly = true
		c.VerificationRequired = true
		c.AutoDelete = true
		c.AutoDeleteAfter = 3600
	}, nil)

	_, err := f.pipeline.Index(context.Background(), videoMessage(55, "Dune.2021.mkv"))
	require.NoError(t, err)

	it := f.store.Items()[0]
	assert.True(t, it.IsPremium)
	assert.True(t, it.VerificationRequired)
	assert.True(t, it.AutoDelete)
	assert.Equal(t, fixedNow.Add(time.Hour), it.ExpiresAt)
}

func TestIndex_EpisodeWithoutSeasonIsDropped(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.pipeline.Index(context.Background(), videoMessage(55, "Mirzapur Ep 05.mkv"))
	require.NoError(t, err)

	it := f.store.Items()[0]
	assert.Zero(t, it.Season)
	assert.Zero(t, it.Episode)
}

func TestIndex_SeriesEpisode(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.pipeline.Index(context.Background(), videoMessage(55, "Mirzapur.S02E05.720p.mkv"))
	require.NoError(t, err)

	it := f.store.Items()[0]
	assert.Equal(t, 2, it.Season)
	assert.Equal(t, 5, it.Episode)
	assert.Equal(t, domain.QualityHD, it.Quality)
}

func TestIndex_QualityFallsBackToResolution(t *testing.T) {
	f := newFixture(t, nil, nil)

	msg := videoMessage(55, "Arrival.2016.mkv")
	msg.Media.Video = &domain.VideoInfo{Width: 3840, Height: 2160}

	_, err := f.pipeline.Index(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, domain.QualityUHD, f.store.Items()[0].Quality)
}

func TestIndex_Enrichment(t *testing.T) {
	rating := 8.6

	var gotTitle string

	var gotYear int

	f := newFixture(t, nil, func(_ context.Context, title string, year int) (*domain.ExternalMetadata, error) {
		gotTitle, gotYear = title, year

		return &domain.ExternalMetadata{
			IMDBID:   "tt0816692",
			Rating:   &rating,
			Genre:    []string{"Sci-Fi"},
			Director: "Christopher Nolan",
		}, nil
	})

	_, err := f.pipeline.Index(context.Background(), videoMessage(55, "Interstellar.2014.mkv"))
	require.NoError(t, err)

	assert.Equal(t, "Interstellar", gotTitle)
	assert.Equal(t, 2014, gotYear)

	it := f.store.Items()[0]
	require.NotNil(t, it.Rating)
	assert.InDelta(t, 8.6, *it.Rating, 0.001)
	assert.Equal(t, "tt0816692", it.IMDBID)
	assert.Equal(t, "Christopher Nolan", it.Director)
}

func TestIndex_EnrichmentFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil, func(context.Context, string, int) (*domain.ExternalMetadata, error) {
		return nil, errors.ErrLookupFailed
	})

	res, err := f.pipeline.Index(context.Background(), videoMessage(55, "Interstellar.2014.mkv"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndexed, res.Outcome)
	assert.Nil(t, f.store.Items()[0].Rating)
}
