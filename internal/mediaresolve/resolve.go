package mediaresolve

import (
	"errors"
	"fmt"
	"maps"

	"anistream/models"
)

// ErrNoPlayableSource means the payload contains nothing a player can open.
// It is a terminal value, not a transient failure.
var ErrNoPlayableSource = errors.New("no playable source")

// Resolve turns a fetched sources payload into the initial playback
// selection. The returned selection always carries a non-empty URL.
func Resolve(resp *models.EpisodeSources, policy QualityPolicy) (*models.PlaybackSelection, error) {
	if resp == nil {
		return nil, ErrNoPlayableSource
	}
	idx, ok := SelectInitialSource(resp.Sources, policy)
	if !ok {
		return nil, ErrNoPlayableSource
	}
	return build(resp, idx), nil
}

// SelectByIndex builds the selection for an explicit source pick, as used
// when switching quality within an already fetched payload.
func SelectByIndex(resp *models.EpisodeSources, idx int) (*models.PlaybackSelection, error) {
	if resp == nil || len(resp.Sources) == 0 {
		return nil, ErrNoPlayableSource
	}
	if idx < 0 || idx >= len(resp.Sources) {
		return nil, fmt.Errorf("source index %d out of range [0,%d)", idx, len(resp.Sources))
	}
	if !playable(resp.Sources[idx]) {
		return nil, fmt.Errorf("source %d: %w", idx, ErrNoPlayableSource)
	}
	return build(resp, idx), nil
}

func build(resp *models.EpisodeSources, idx int) *models.PlaybackSelection {
	src := resp.Sources[idx]
	mediaType := classifySource(src)
	return &models.PlaybackSelection{
		Source:      src,
		SourceIndex: idx,
		MediaType:   mediaType,
		MIMEType:    mediaType.MIMEType(),
		Captions:    NormalizeCaptions(resp.Subtitles, resp.Tracks),
		Intro:       resp.Intro,
		Outro:       resp.Outro,
		Headers:     maps.Clone(resp.Headers),
	}
}
