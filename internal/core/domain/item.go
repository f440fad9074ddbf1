// Package domain holds the entities shared by the indexing, search and
// presentation layers.
package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

// MediaKind is the Telegram media category of an indexed file.
type MediaKind string

const (
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaPhoto    MediaKind = "photo"
	MediaAudio    MediaKind = "audio"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaVideo, MediaDocument, MediaPhoto, MediaAudio:
		return true
	default:
		return false
	}
}

// Quality is the normalized video quality tag.
type Quality string

const (
	QualitySD  Quality = "SD"
	QualityHD  Quality = "HD"
	QualityFHD Quality = "FHD"
	QualityUHD Quality = "UHD"
	QualityHDR Quality = "HDR"
)

// Language is a supported audio language code.
type Language string

const (
	LangHindi     Language = "HI"
	LangTamil     Language = "TA"
	LangTelugu    Language = "TE"
	LangMalayalam Language = "ML"
	LangKannada   Language = "KN"
	LangBengali   Language = "BN"
	LangMarathi   Language = "MR"
	LangGujarati  Language = "GJ"
	LangPunjabi   Language = "PB"
	LangEnglish   Language = "EN"
)

// ItemStatus is the lifecycle state of an indexed item.
type ItemStatus string

const (
	ItemActive     ItemStatus = "active"
	ItemProcessing ItemStatus = "processing"
	ItemDeleted    ItemStatus = "deleted"
	ItemHidden     ItemStatus = "hidden"
	ItemRestricted ItemStatus = "restricted"
)

// ItemSource records how an item entered the index.
type ItemSource string

const (
	SourceChannel     ItemSource = "channel"
	SourceUserUpload  ItemSource = "user_upload"
	SourceAdminUpload ItemSource = "admin_upload"
	SourceImport      ItemSource = "import"
)

// MaxRating is the upper bound of an external rating.
const MaxRating = 10.0

// yearHeadroom is how far into the future a stored release year may point.
const yearHeadroom = 5

var externalIDPattern = regexp.MustCompile(`^tt\d{7,8}$`)

// ValidExternalID reports whether id looks like an IMDb title id.
func ValidExternalID(id string) bool {
	return externalIDPattern.MatchString(id)
}

// IndexedItem is a media file discovered in a channel together with the
// metadata extracted from its name and caption.
//
// Zero values mean "unset" for Year, Season, Episode and Duration. Rating is a
// pointer because zero is a legitimate score.
type IndexedItem struct {
	ID           string
	ChannelID    int64
	MessageID    int64
	Kind         MediaKind
	FileID       string
	FileUniqueID string
	FileName     string
	FileSize     int64
	MimeType     string
	ThumbnailID  string
	Source       ItemSource

	Title       string
	AltTitles   []string
	Description string
	IMDBID      string
	Year        int
	Season      int
	Episode     int
	Quality     Quality
	Language    Language
	Duration    int
	Resolution  string
	Codec       string
	Width       int
	Height      int
	Keywords    []string

	Genre     []string
	Cast      []string
	Director  string
	Rating    *float64
	PosterURL string

	IsPremium            bool
	VerificationRequired bool
	AutoDelete           bool
	AutoDeleteAfter      int
	ExpiresAt            time.Time

	Downloads int64
	Views     int64
	Clones    int64
	Status    ItemStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSeriesEpisode reports whether the item carries both season and episode.
func (i *IndexedItem) IsSeriesEpisode() bool {
	return i.Season > 0 && i.Episode > 0
}

// DisplayTitle renders the title with its episode marker or release year.
func (i *IndexedItem) DisplayTitle() string {
	if i.IsSeriesEpisode() {
		return fmt.Sprintf("%s S%02dE%02d", i.Title, i.Season, i.Episode)
	}

	if i.Year > 0 {
		return fmt.Sprintf("%s (%d)", i.Title, i.Year)
	}

	return i.Title
}

// IsExpired reports whether the item's expiry has passed.
func (i *IndexedItem) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now)
}

// Discoverable reports whether search may return the item.
func (i *IndexedItem) Discoverable(now time.Time) bool {
	return i.Status == ItemActive && !i.IsExpired(now)
}

// Validate checks the structural invariants of an item.
func (i *IndexedItem) Validate(now time.Time) error {
	if (i.Season > 0) != (i.Episode > 0) {
		return fmt.Errorf("%w: season and episode must be set together", errors.ErrInvalidArgument)
	}

	if i.Rating != nil && (*i.Rating < 0 || *i.Rating > MaxRating) {
		return fmt.Errorf("%w: rating %.1f out of range", errors.ErrInvalidArgument, *i.Rating)
	}

	if i.IMDBID != "" && !ValidExternalID(i.IMDBID) {
		return fmt.Errorf("%w: external id %q", errors.ErrInvalidArgument, i.IMDBID)
	}

	if i.Year != 0 && (i.Year < 1900 || i.Year > now.Year()+yearHeadroom) {
		return fmt.Errorf("%w: year %d", errors.ErrInvalidArgument, i.Year)
	}

	if i.FileSize < 0 {
		return fmt.Errorf("%w: negative file size", errors.ErrInvalidArgument)
	}

	if !i.Kind.Valid() {
		return fmt.Errorf("%w: media kind %q", errors.ErrInvalidArgument, i.Kind)
	}

	return nil
}

// ItemCounter names a per-item access counter.
type ItemCounter string

const (
	CounterViews     ItemCounter = "views"
	CounterDownloads ItemCounter = "downloads"
	CounterClones    ItemCounter = "clones"
)

// ExternalMetadata is the enrichment returned by the metadata service.
type ExternalMetadata struct {
	IMDBID    string
	Title     string
	Year      int
	Rating    *float64
	Genre     []string
	Cast      []string
	Director  string
	PosterURL string
}

// Apply copies the enrichment onto the item, keeping values that the
// enrichment does not provide or that would violate item invariants.
func (i *IndexedItem) Apply(md ExternalMetadata) {
	if i.IMDBID == "" && ValidExternalID(md.IMDBID) {
		i.IMDBID = md.IMDBID
	}

	if md.Rating != nil && *md.Rating >= 0 && *md.Rating <= MaxRating {
		r := *md.Rating
		i.Rating = &r
	}

	if len(md.Genre) > 0 {
		i.Genre = md.Genre
	}

	if len(md.Cast) > 0 {
		i.Cast = md.Cast
	}

	if md.Director != "" {
		i.Director = md.Director
	}

	if md.PosterURL != "" {
		i.PosterURL = md.PosterURL
	}
}
