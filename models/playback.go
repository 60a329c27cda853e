package models

// Episode source payloads returned by the upstream catalog and the playback
// selection derived from them.

// Source is one candidate stream for an episode. Quality is a loose upstream
// vocabulary ("1080p", "720p", "default", "auto", server specific strings or empty).
type Source struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
	IsM3U8  *bool  `json:"isM3U8,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Subtitle is the "subtitles" caption shape.
type Subtitle struct {
	URL       string `json:"url,omitempty"`
	File      string `json:"file,omitempty"`
	Lang      string `json:"lang,omitempty"`
	Label     string `json:"label,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Default   bool   `json:"default,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// Track is the "tracks" caption shape. Some servers put the address in File,
// others in URL.
type Track struct {
	File      string `json:"file,omitempty"`
	URL       string `json:"url,omitempty"`
	Lang      string `json:"lang,omitempty"`
	Label     string `json:"label,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Default   bool   `json:"default,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// TimeRange marks an intro or outro in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// EpisodeSources is the request-scoped sources payload for one
// (episode, server, category) triple.
type EpisodeSources struct {
	Sources   []Source          `json:"sources"`
	Subtitles []Subtitle        `json:"subtitles,omitempty"`
	Tracks    []Track           `json:"tracks,omitempty"`
	Intro     *TimeRange        `json:"intro,omitempty"`
	Outro     *TimeRange        `json:"outro,omitempty"`
	Servers   []string          `json:"servers,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	AnilistID int               `json:"anilistID,omitempty"`
	MalID     int               `json:"malID,omitempty"`
}

// MediaType is the container family the player must be configured for.
type MediaType string

const (
	MediaTypeHLS MediaType = "hls"
	MediaTypeMP4 MediaType = "mp4"
)

// MIMEType returns the content type handed to media backends.
func (m MediaType) MIMEType() string {
	if m == MediaTypeMP4 {
		return "video/mp4"
	}
	return "application/x-mpegURL"
}

// CaptionOrigin records which upstream shape a caption track came from.
type CaptionOrigin string

const (
	CaptionOriginSubtitles CaptionOrigin = "subtitles"
	CaptionOriginTracks    CaptionOrigin = "tracks"
)

// CaptionTrack is the normalized caption representation.
type CaptionTrack struct {
	URL       string        `json:"url"`
	Language  string        `json:"language,omitempty"`
	Label     string        `json:"label,omitempty"`
	IsDefault bool          `json:"isDefault"`
	Origin    CaptionOrigin `json:"origin"`
}

// PlaybackSelection is the resolved state that drives a player.
type PlaybackSelection struct {
	Source      Source            `json:"source"`
	SourceIndex int               `json:"sourceIndex"`
	MediaType   MediaType         `json:"mediaType"`
	MIMEType    string            `json:"mimeType"`
	ResumeTime  *float64          `json:"resumeTime,omitempty"`
	Captions    []CaptionTrack    `json:"captions"`
	Intro       *TimeRange        `json:"intro,omitempty"`
	Outro       *TimeRange        `json:"outro,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// NoPlayableSource is the payload returned in a successful envelope when an
// episode resolved to nothing the player can use.
type NoPlayableSource struct {
	NoPlayableSource bool   `json:"noPlayableSource"`
	Message          string `json:"message"`
	EpisodeID        string `json:"episodeId"`
	Server           string `json:"server"`
	Category         string `json:"category"`
}
