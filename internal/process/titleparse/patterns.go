package titleparse

import (
	"regexp"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
)

// Year candidates in priority order: parenthesized and bracketed forms are
// scanned before bare digits so resolution numbers are not read as years.
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\d{4})\)`),
	regexp.MustCompile(`\[(\d{4})\]`),
	regexp.MustCompile(`\b(\d{4})\b`),
}

type episodePattern struct {
	re        *regexp.Regexp
	hasSeason bool
}

var episodePatterns = []episodePattern{
	{regexp.MustCompile(`(?i)\bS(\d{1,2})\s*E(\d{1,2})`), true},
	{regexp.MustCompile(`(?i)\bSeason\s*(\d{1,2})\s*Episode\s*(\d{1,2})`), true},
	{regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,2})\b`), true},
	{regexp.MustCompile(`(?i)\bEp(?:isode)?\s*(\d{1,2})\b`), false},
}

type qualityPattern struct {
	quality domain.Quality
	re      *regexp.Regexp
}

// Checked in order; higher resolutions first so "1080p HD" is FHD.
var qualityPatterns = []qualityPattern{
	{domain.QualityUHD, regexp.MustCompile(`(?i)\b(4K|2160p|UHD)\b`)},
	{domain.QualityFHD, regexp.MustCompile(`(?i)\b(1080p|Full[\s.]?HD|FHD)\b`)},
	{domain.QualityHDR, regexp.MustCompile(`(?i)\b(HDR|High[\s.]Dynamic[\s.]Range)\b`)},
	{domain.QualityHD, regexp.MustCompile(`(?i)\b(720p|HD)\b`)},
	{domain.QualitySD, regexp.MustCompile(`(?i)\b(480p|360p|SD)\b`)},
}

type languageEntry struct {
	code    domain.Language
	names   *regexp.Regexp
	codeRe  *regexp.Regexp
	scripts []string
}

// Two-letter codes only match in upper case; lower-case "mr" or "te" are
// ordinary words far more often than language tags.
var languageTable = []languageEntry{
	lang(domain.LangHindi, `Hindi|Hin`, "हिंदी", "हिन्दी"),
	lang(domain.LangTamil, `Tamil|Tam`, "தமிழ்"),
	lang(domain.LangTelugu, `Telugu|Tel`, "తెలుగు"),
	lang(domain.LangMalayalam, `Malayalam|Mal`, "മലയാളം"),
	lang(domain.LangKannada, `Kannada|Kan`, "ಕನ್ನಡ"),
	lang(domain.LangBengali, `Bengali|Bangla`, "বাংলা"),
	lang(domain.LangMarathi, `Marathi`, "मराठी"),
	lang(domain.LangGujarati, `Gujarati`, "ગુજરાતી"),
	lang(domain.LangPunjabi, `Punjabi`, "ਪੰਜਾਬੀ"),
	lang(domain.LangEnglish, `English|Eng`),
}

func lang(code domain.Language, names string, scripts ...string) languageEntry {
	return languageEntry{
		code:    code,
		names:   regexp.MustCompile(`(?i)\b(` + names + `)\b`),
		codeRe:  regexp.MustCompile(`\b` + string(code) + `\b`),
		scripts: scripts,
	}
}

var (
	extensionPattern = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpg|mpeg|m4v|mp3|flac|m4a|zip|rar|pdf|srt)$`)
	codecPattern     = regexp.MustCompile(`(?i)\b(x264|x265|h\.?264|h\.?265|hevc|avc|av1|vp9|xvid|divx)\b`)
	releasePattern   = regexp.MustCompile(`(?i)\b(blu-?ray|web-?dl|web-?rip|hdrip|dvdrip|brrip|hdtv|hdcam|dvdscr|10bit|aac|dd5\.1|esubs?)\b`)
	delimiterPattern = regexp.MustCompile(`[\[\]\(\)\{\}]`)
	separatorPattern = regexp.MustCompile(`[\s._]+`)
	externalIDRe     = regexp.MustCompile(`tt\d{7,8}`)
	hashtagPattern   = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	tokenPattern     = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

var codecNames = map[string]string{
	"x264": "H.264", "h264": "H.264", "h.264": "H.264", "avc": "H.264",
	"x265": "H.265", "h265": "H.265", "h.265": "H.265", "hevc": "H.265",
	"av1": "AV1", "vp9": "VP9", "xvid": "XviD", "divx": "DivX",
}

// IsStopWord reports whether w is filtered out of keyword sets.
func IsStopWord(w string) bool {
	return domain.IsStopWord(w)
}
