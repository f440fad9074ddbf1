package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/ports/mocks"
	"github.com/lueurxax/media-search-bot/internal/process/indexing"
	"github.com/lueurxax/media-search-bot/internal/process/query"
	"github.com/lueurxax/media-search-bot/internal/process/titleparse"
)

func indexFiles(t *testing.T, names ...string) (*mocks.Store, *query.Corpus) {
	t.Helper()

	store := mocks.NewStore()
	store.PutChannel(domain.NewChannelSource(100, "movies"))

	corpus := query.NewCorpus()
	pipeline := indexing.New(store, store, titleparse.New(), corpus, nil, nil)

	for i, name := range names {
		res, err := pipeline.Index(context.Background(), domain.ChannelMessage{
			ChannelID: 100,
			MessageID: int64(i + 1),
			Media: domain.MediaFile{
				Kind:         domain.MediaVideo,
				FileID:       "file",
				FileUniqueID: name,
				FileName:     name,
				Size:         2 << 30,
				Video:        &domain.VideoInfo{Width: 1920, Height: 1080},
			},
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.ItemID, name)
	}

	return store, corpus
}

func TestService_MatchesAnyQueryTerm(t *testing.T) {
	store, corpus := indexFiles(t,
		"Avengers.Endgame.2019.1080p.Hindi.mkv",
		"Dune.2019.720p.mkv",
	)

	svc := NewService(newEngine(store, nil), query.New(corpus, nil), true)

	tests := []struct {
		raw       string
		query     string
		total     int
		firstHead string
	}{
		{raw: "avenjers 2019", query: "avengers 2019", total: 2, firstHead: "Avengers Endgame"},
		{raw: "avengers hindi", query: "avengers hindi", total: 1, firstHead: "Avengers Endgame"},
		{raw: "avengers 1080p", query: "avengers 1080p", total: 1, firstHead: "Avengers Endgame"},
		{raw: "dune 720p", query: "dune 720p", total: 1, firstHead: "Dune"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			out, err := svc.Search(context.Background(), SourcePrivate, tt.raw, requester, 0, 10)
			require.NoError(t, err)

			assert.Equal(t, tt.query, out.Query)
			require.Equal(t, tt.total, out.Page.Total)
			assert.Equal(t, tt.firstHead, out.Page.Results[0].Item.Title)
		})
	}
}

func TestService_NoTermMatches(t *testing.T) {
	store, corpus := indexFiles(t, "Avengers.Endgame.2019.1080p.Hindi.mkv")

	svc := NewService(newEngine(store, nil), query.New(corpus, nil), false)

	out, err := svc.Search(context.Background(), SourcePrivate, "zzzz qqqq", requester, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, out.Page.Total)
}
