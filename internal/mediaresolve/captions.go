package mediaresolve

import (
	"strings"

	"github.com/samber/lo"

	"anistream/models"
)

// Track kinds that are not captions. Some servers list thumbnail sprites
// alongside subtitles, tagged by kind or, in the {url, lang} shape, by lang.
var nonCaptionKinds = []string{"thumbnails", "chapters", "metadata"}

// NormalizeCaptions merges both upstream caption shapes into one ordered
// list: subtitles first, then tracks, input order preserved. Entries without
// an address are dropped. Exactly one entry is marked default when the list
// is non-empty: the first one flagged upstream, else the first entry.
func NormalizeCaptions(subtitles []models.Subtitle, tracks []models.Track) []models.CaptionTrack {
	out := make([]models.CaptionTrack, 0, len(subtitles)+len(tracks))

	for _, s := range subtitles {
		url := firstNonEmpty(s.File, s.URL)
		if url == "" || isNonCaption(s.Kind, s.Lang, s.Label) {
			continue
		}
		out = append(out, models.CaptionTrack{
			URL:       url,
			Language:  firstNonEmpty(s.Lang, s.Label),
			Label:     firstNonEmpty(s.Label, s.Lang),
			IsDefault: s.Default || s.IsDefault,
			Origin:    models.CaptionOriginSubtitles,
		})
	}

	for _, t := range tracks {
		url := firstNonEmpty(t.File, t.URL)
		if url == "" || isNonCaption(t.Kind, t.Lang, t.Label) {
			continue
		}
		out = append(out, models.CaptionTrack{
			URL:       url,
			Language:  firstNonEmpty(t.Lang, t.Label),
			Label:     firstNonEmpty(t.Label, t.Lang),
			IsDefault: t.Default || t.IsDefault,
			Origin:    models.CaptionOriginTracks,
		})
	}

	if len(out) == 0 {
		return out
	}

	_, explicit, found := lo.FindIndexOf(out, func(c models.CaptionTrack) bool { return c.IsDefault })
	if !found {
		explicit = 0
	}
	for i := range out {
		out[i].IsDefault = i == explicit
	}
	return out
}

func isNonCaption(tags ...string) bool {
	return lo.SomeBy(tags, func(tag string) bool {
		return lo.Contains(nonCaptionKinds, strings.ToLower(strings.TrimSpace(tag)))
	})
}

func firstNonEmpty(values ...string) string {
	v, _ := lo.Find(values, func(s string) bool { return strings.TrimSpace(s) != "" })
	return strings.TrimSpace(v)
}
