package mediaresolve

import (
	"strings"

	"github.com/samber/lo"

	"anistream/models"
)

// QualityPolicy is the ordered list of quality labels preferred when
// picking the initial source. Labels are compared case-insensitively.
type QualityPolicy []string

// DefaultQualityPolicy mirrors what the catalog servers are observed to
// label their streams with. It is not a documented upstream contract.
var DefaultQualityPolicy = QualityPolicy{"1080p", "720p", "default", "auto"}

// NewQualityPolicy trims and drops blank labels. An empty result falls back
// to DefaultQualityPolicy.
func NewQualityPolicy(labels []string) QualityPolicy {
	cleaned := lo.FilterMap(labels, func(l string, _ int) (string, bool) {
		l = strings.TrimSpace(l)
		return l, l != ""
	})
	if len(cleaned) == 0 {
		return append(QualityPolicy(nil), DefaultQualityPolicy...)
	}
	return QualityPolicy(cleaned)
}

// SelectInitialSource returns the index of the source to start playback
// with. For each label in policy order, the first source carrying that
// quality wins; when nothing matches, the first usable source is returned.
// Sources with a blank URL are never selected. ok is false when no source
// is usable.
func SelectInitialSource(sources []models.Source, policy QualityPolicy) (int, bool) {
	if len(policy) == 0 {
		policy = DefaultQualityPolicy
	}
	for _, want := range policy {
		want = strings.TrimSpace(want)
		for idx, src := range sources {
			if !playable(src) {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(src.Quality), want) {
				return idx, true
			}
		}
	}
	for idx, src := range sources {
		if playable(src) {
			return idx, true
		}
	}
	return -1, false
}

// ClassifyMediaType decides the container family for a source URL:
// ".m3u8" is HLS, ".mp4" is MP4, anything else is treated as HLS.
func ClassifyMediaType(url string) models.MediaType {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, ".m3u8"):
		return models.MediaTypeHLS
	case strings.Contains(lower, ".mp4"):
		return models.MediaTypeMP4
	default:
		return models.MediaTypeHLS
	}
}

// classifySource prefers the explicit flags some servers send over the URL.
func classifySource(src models.Source) models.MediaType {
	if src.IsM3U8 != nil && *src.IsM3U8 {
		return models.MediaTypeHLS
	}
	switch strings.ToLower(strings.TrimSpace(src.Type)) {
	case "hls", "m3u8":
		return models.MediaTypeHLS
	case "mp4", "video/mp4":
		return models.MediaTypeMP4
	}
	return ClassifyMediaType(src.URL)
}

func playable(src models.Source) bool {
	return strings.TrimSpace(src.URL) != ""
}
