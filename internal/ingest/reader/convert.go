package reader

import (
	"strconv"
	"time"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
)

// MTProto has no Bot API file ids; the document and photo ids are stable per
// file and serve as the unique id.
const (
	documentIDPrefix = "doc:"
	photoIDPrefix    = "photo:"
	photoMimeType    = "image/jpeg"
)

// messageFromTG converts a history message into an indexing candidate.
// Messages without a document or photo are not indexable.
func messageFromTG(channelID int64, m *tg.Message) (domain.ChannelMessage, bool) {
	if m == nil || m.Media == nil {
		return domain.ChannelMessage{}, false
	}

	var (
		media domain.MediaFile
		ok    bool
	)

	switch v := m.Media.(type) {
	case *tg.MessageMediaDocument:
		media, ok = mediaFromDocument(v.Document)
	case *tg.MessageMediaPhoto:
		media, ok = mediaFromPhoto(v.Photo)
	}

	if !ok {
		return domain.ChannelMessage{}, false
	}

	return domain.ChannelMessage{
		ChannelID: channelID,
		MessageID: int64(m.ID),
		Media:     media,
		Caption:   m.Message,
		Date:      time.Unix(int64(m.Date), 0).UTC(),
	}, true
}

func mediaFromDocument(d tg.DocumentClass) (domain.MediaFile, bool) {
	doc, ok := d.(*tg.Document)
	if !ok {
		return domain.MediaFile{}, false
	}

	media := domain.MediaFile{
		Kind:         domain.MediaDocument,
		FileUniqueID: documentIDPrefix + strconv.FormatInt(doc.ID, 10),
		Size:         doc.Size,
		MimeType:     doc.MimeType,
	}

	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeFilename:
			media.FileName = a.FileName
		case *tg.DocumentAttributeVideo:
			if a.RoundMessage {
				return domain.MediaFile{}, false
			}

			media.Kind = domain.MediaVideo
			media.Video = &domain.VideoInfo{Width: a.W, Height: a.H, Duration: int(a.Duration)}
		case *tg.DocumentAttributeAudio:
			if a.Voice {
				return domain.MediaFile{}, false
			}

			media.Kind = domain.MediaAudio
			media.Audio = &domain.AudioInfo{Duration: a.Duration, Performer: a.Performer, Title: a.Title}
		case *tg.DocumentAttributeSticker, *tg.DocumentAttributeAnimated:
			return domain.MediaFile{}, false
		}
	}

	return media, true
}

func mediaFromPhoto(p tg.PhotoClass) (domain.MediaFile, bool) {
	photo, ok := p.(*tg.Photo)
	if !ok {
		return domain.MediaFile{}, false
	}

	var w, h, size int

	for _, s := range photo.Sizes {
		var sw, sh, ss int

		switch v := s.(type) {
		case *tg.PhotoSize:
			sw, sh, ss = v.W, v.H, v.Size
		case *tg.PhotoSizeProgressive:
			sw, sh = v.W, v.H
			if n := len(v.Sizes); n > 0 {
				ss = v.Sizes[n-1]
			}
		default:
			continue
		}

		if sw*sh > w*h {
			w, h, size = sw, sh, ss
		}
	}

	if w == 0 || h == 0 {
		return domain.MediaFile{}, false
	}

	return domain.MediaFile{
		Kind:         domain.MediaPhoto,
		FileUniqueID: photoIDPrefix + strconv.FormatInt(photo.ID, 10),
		Size:         int64(size),
		MimeType:     photoMimeType,
		Photo:        &domain.PhotoInfo{Width: w, Height: h},
	}, true
}
