package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
)

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "", SanitizeUTF8(""))
	assert.Equal(t, "Dune", SanitizeUTF8("Dune"))
	assert.Equal(t, "Dune", SanitizeUTF8("Du\xffne"))
}

func TestSanitizeAll_NeverNil(t *testing.T) {
	out := sanitizeAll(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	assert.Equal(t, []string{"a", "b"}, sanitizeAll([]string{"a", "", "b"}))
}

func TestSearchText(t *testing.T) {
	item := &domain.IndexedItem{
		Title:     "Avengers Endgame",
		AltTitles: []string{"Avengers 4"},
		Keywords:  []string{"avengers", "endgame", "marvel"},
		Year:      2019,
		Quality:   domain.QualityFHD,
		Language:  domain.LangHindi,
	}

	assert.Equal(t, "avengers endgame avengers 4 avengers endgame marvel 2019 fhd 1080p hi hindi", searchText(item))
}

func TestAnyTermQuery(t *testing.T) {
	assert.Equal(t, "avengers | 2019", anyTermQuery(domain.QueryTerms("Avengers: 2019!")))
	assert.Equal(t, "dark | knight", anyTermQuery(domain.QueryTerms("the dark knight")))
	assert.Equal(t, "it", anyTermQuery(domain.QueryTerms("It")))
	assert.Empty(t, anyTermQuery(domain.QueryTerms("")))
}

func TestNullableInts(t *testing.T) {
	assert.False(t, toInt4(0).Valid)
	assert.True(t, toInt4(2019).Valid)
	assert.Equal(t, 2019, fromInt4(toInt4(2019)))
	assert.Equal(t, 0, fromInt4(toInt4(0)))
}

func TestFloatRoundTrip(t *testing.T) {
	assert.Nil(t, fromFloat8Ptr(toFloat8Ptr(nil)))

	r := 7.5
	got := fromFloat8Ptr(toFloat8Ptr(&r))
	assert.NotNil(t, got)
	assert.InDelta(t, 7.5, *got, 0.0001)
}

func TestUUIDRoundTrip(t *testing.T) {
	id := "0b5f7d2e-4c3a-4f36-9d43-2f1a8e7c6b5a"
	assert.Equal(t, id, fromUUID(toUUID(id)))
	assert.False(t, toUUID("not-a-uuid").Valid)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 4))
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "moviehub", normalizeUsername("@MovieHub"))
}
