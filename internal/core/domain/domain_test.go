package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

func TestPremiumIsActive(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		premium *Premium
		want    bool
	}{
		{"nil record", nil, false},
		{"active with future expiry", &Premium{Status: PremiumActive, ExpiresAt: future}, true},
		{"active with past expiry", &Premium{Status: PremiumActive, ExpiresAt: past}, false},
		{"active without expiry", &Premium{Status: PremiumActive}, false},
		{"lifetime ignores expiry", &Premium{Status: PremiumActive, IsLifetime: true, ExpiresAt: past}, true},
		{"lifetime with expired status", &Premium{Status: PremiumExpired, IsLifetime: true}, true},
		{"cancelled lifetime", &Premium{Status: PremiumCancelled, IsLifetime: true}, false},
		{"suspended lifetime", &Premium{Status: PremiumSuspended, IsLifetime: true}, false},
		{"pending with future expiry", &Premium{Status: PremiumPending, ExpiresAt: future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.premium.IsActive(now))
		})
	}
}

func TestChannelCanIndex(t *testing.T) {
	base := NewChannelSource(-1001, "movies")
	assert.True(t, base.CanIndex())

	tests := []struct {
		name   string
		mutate func(c *ChannelSource)
	}{
		{"inactive", func(c *ChannelSource) { c.Status = ChannelInactive }},
		{"unlinked", func(c *ChannelSource) { c.Linked = false }},
		{"indexing off", func(c *ChannelSource) { c.IndexingEnabled = false }},
		{"mode disabled", func(c *ChannelSource) { c.Mode = IndexDisabled }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChannelSource(-1001, "movies")
			tt.mutate(&c)
			assert.False(t, c.CanIndex())
		})
	}
}

func TestItemValidate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bad := 11.0
	good := 7.5

	tests := []struct {
		name    string
		item    IndexedItem
		wantErr bool
	}{
		{"valid", IndexedItem{Kind: MediaVideo, Year: 2019, Rating: &good, IMDBID: "tt4154796"}, false},
		{"season without episode", IndexedItem{Kind: MediaVideo, Season: 1}, true},
		{"rating out of range", IndexedItem{Kind: MediaVideo, Rating: &bad}, true},
		{"bad external id", IndexedItem{Kind: MediaVideo, IMDBID: "tt12"}, true},
		{"year too far ahead", IndexedItem{Kind: MediaVideo, Year: 2040}, true},
		{"negative size", IndexedItem{Kind: MediaVideo, FileSize: -1}, true},
		{"unknown kind", IndexedItem{Kind: "sticker"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate(now)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestItemDiscoverable(t *testing.T) {
	now := time.Now()

	item := IndexedItem{Status: ItemActive}
	assert.True(t, item.Discoverable(now))

	item.ExpiresAt = now.Add(-time.Minute)
	assert.False(t, item.Discoverable(now))

	item.ExpiresAt = time.Time{}
	item.Status = ItemHidden
	assert.False(t, item.Discoverable(now))
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Dark S01E02", (&IndexedItem{Title: "Dark", Season: 1, Episode: 2}).DisplayTitle())
	assert.Equal(t, "Avengers Endgame (2019)", (&IndexedItem{Title: "Avengers Endgame", Year: 2019}).DisplayTitle())
	assert.Equal(t, "Home Video", (&IndexedItem{Title: "Home Video"}).DisplayTitle())
}

func TestMediaFileResolution(t *testing.T) {
	video := MediaFile{Kind: MediaVideo, Video: &VideoInfo{Width: 1920, Height: 1080, Duration: 7200}}
	assert.Equal(t, "1920x1080", video.Resolution())
	assert.Equal(t, 7200, video.Duration())

	doc := MediaFile{Kind: MediaDocument}
	assert.Equal(t, "", doc.Resolution())
	assert.Equal(t, 0, doc.Duration())
}

func TestBotAPIChatID(t *testing.T) {
	assert.Equal(t, int64(-1001234567890), BotAPIChatID(1234567890))
	assert.Equal(t, int64(1234567890), ChannelIDFromChat(-1001234567890))
	assert.Equal(t, int64(42), ChannelIDFromChat(42))
}

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"avengers 2019", []string{"avengers", "2019"}},
		{"The Dark Knight", []string{"dark", "knight"}},
		{"spider-man: no way home", []string{"spider", "man", "no", "way", "home"}},
		{"dune dune", []string{"dune"}},
		{"It", []string{"it"}},
		{"  !! ", []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QueryTerms(tt.query), tt.query)
	}
}

func TestSearchDocument_IncludesParsedAttributes(t *testing.T) {
	item := IndexedItem{
		Title:    "Avengers Endgame",
		Keywords: []string{"avengers", "endgame"},
		Year:     2019,
		Quality:  QualityFHD,
		Language: LangHindi,
	}

	assert.Equal(t, "avengers endgame avengers endgame 2019 fhd 1080p hi hindi", item.SearchDocument())
	assert.Equal(t, 2, item.MatchedTerms([]string{"avengers", "2019", "tamil"}))
	assert.Equal(t, 2, item.MatchedTerms([]string{"hindi", "1080p"}))
	assert.Zero(t, item.MatchedTerms(nil))
}
