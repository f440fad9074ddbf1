package domain

import (
	"fmt"
	"time"
)

// VideoInfo is the payload of a video file.
type VideoInfo struct {
	Width    int
	Height   int
	Duration int
}

// AudioInfo is the payload of an audio file.
type AudioInfo struct {
	Duration  int
	Performer string
	Title     string
}

// PhotoInfo is the payload of a photo.
type PhotoInfo struct {
	Width  int
	Height int
}

// MediaFile is the media attached to a channel message. The envelope is
// shared by all kinds; exactly one payload pointer matching Kind is set
// (documents carry none).
type MediaFile struct {
	Kind         MediaKind
	FileID       string
	FileUniqueID string
	FileName     string
	Size         int64
	MimeType     string
	ThumbnailID  string

	Video *VideoInfo
	Audio *AudioInfo
	Photo *PhotoInfo
}

// Duration returns the playback length in seconds, or zero.
func (m MediaFile) Duration() int {
	switch m.Kind {
	case MediaVideo:
		if m.Video != nil {
			return m.Video.Duration
		}
	case MediaAudio:
		if m.Audio != nil {
			return m.Audio.Duration
		}
	}

	return 0
}

// Dimensions returns width and height for visual media.
func (m MediaFile) Dimensions() (int, int) {
	switch m.Kind {
	case MediaVideo:
		if m.Video != nil {
			return m.Video.Width, m.Video.Height
		}
	case MediaPhoto:
		if m.Photo != nil {
			return m.Photo.Width, m.Photo.Height
		}
	}

	return 0, 0
}

// Resolution renders the dimensions as WxH, or "" when unknown.
func (m MediaFile) Resolution() string {
	w, h := m.Dimensions()
	if w == 0 || h == 0 {
		return ""
	}

	return fmt.Sprintf("%dx%d", w, h)
}

// ChannelMessage is an inbound channel post carrying media, as delivered by
// either the Bot API or the MTProto reader.
type ChannelMessage struct {
	ChannelID int64
	MessageID int64
	Media     MediaFile
	Caption   string
	Text      string
	Date      time.Time
}

// Body returns caption and text joined for keyword matching.
func (m *ChannelMessage) Body() string {
	switch {
	case m.Caption == "":
		return m.Text
	case m.Text == "":
		return m.Caption
	default:
		return m.Caption + "\n" + m.Text
	}
}
