package player

import (
	"context"

	"anistream/models"
)

// Media describes what a backend is asked to open.
type Media struct {
	Generation uint64
	URL        string
	MediaType  models.MediaType
	MIMEType   string
	Headers    map[string]string
	Captions   []models.CaptionTrack
	Title      string
}

type MediaEventKind int

const (
	// MediaReady means the backend accepted the source and can seek.
	MediaReady MediaEventKind = iota + 1
	// MediaError means the backend rejected the source or failed mid-stream.
	MediaError
	// MediaEnded means playback reached the end of the stream.
	MediaEnded
)

func (k MediaEventKind) String() string {
	switch k {
	case MediaReady:
		return "ready"
	case MediaError:
		return "error"
	case MediaEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type MediaEvent struct {
	Kind MediaEventKind
	Err  error
}

// Handle is one live media resource. A session holds at most one.
type Handle interface {
	CurrentTime() float64
	Paused() bool
	Seek(seconds float64) error
	Play() error
	Pause() error
	Dispose() error
}

// Backend creates media resources. notify may be called from any goroutine,
// including synchronously from within Create.
type Backend interface {
	Create(media Media, notify func(MediaEvent)) (Handle, error)
}

// Fetcher resolves the sources payload for one request.
type Fetcher interface {
	ResolveEpisodeSources(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error)
}
