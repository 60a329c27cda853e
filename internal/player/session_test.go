package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anistream/models"
)

type fetchFunc func(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error)

func (f fetchFunc) ResolveEpisodeSources(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
	return f(ctx, episodeID, server, category)
}

// recordingBackend tracks every create/dispose and the number of live handles.
type recordingBackend struct {
	mu        sync.Mutex
	autoReady bool
	createErr error
	events    []string
	handles   []*fakeHandle
	live      int
	maxLive   int
}

func (b *recordingBackend) Create(media Media, notify func(MediaEvent)) (Handle, error) {
	b.mu.Lock()
	if b.createErr != nil {
		b.mu.Unlock()
		return nil, b.createErr
	}
	b.live++
	if b.live > b.maxLive {
		b.maxLive = b.live
	}
	b.events = append(b.events, "create:"+media.URL)
	h := &fakeHandle{backend: b, media: media, notify: notify, paused: true}
	b.handles = append(b.handles, h)
	auto := b.autoReady
	b.mu.Unlock()

	if auto {
		notify(MediaEvent{Kind: MediaReady})
	}
	return h, nil
}

func (b *recordingBackend) snapshot() (events []string, live, maxLive int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...), b.live, b.maxLive
}

func (b *recordingBackend) handle(i int) *fakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= len(b.handles) {
		return nil
	}
	return b.handles[i]
}

type fakeHandle struct {
	backend *recordingBackend
	media   Media
	notify  func(MediaEvent)

	mu       sync.Mutex
	position float64
	paused   bool
	seeks    []float64
	disposed bool
}

func (h *fakeHandle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *fakeHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *fakeHandle) Seek(seconds float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position = seconds
	h.seeks = append(h.seeks, seconds)
	return nil
}

func (h *fakeHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
	return nil
}

func (h *fakeHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
	return nil
}

func (h *fakeHandle) Dispose() error {
	h.mu.Lock()
	h.disposed = true
	h.mu.Unlock()

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	h.backend.live--
	h.backend.events = append(h.backend.events, "dispose:"+h.media.URL)
	return nil
}

func (h *fakeHandle) setPosition(p float64) {
	h.mu.Lock()
	h.position = p
	h.mu.Unlock()
}

func (h *fakeHandle) state() (seeks []float64, paused, disposed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.seeks...), h.paused, h.disposed
}

func payload(prefix string, qualities ...string) *models.EpisodeSources {
	out := &models.EpisodeSources{}
	for _, q := range qualities {
		out.Sources = append(out.Sources, models.Source{URL: fmt.Sprintf("https://%s.example/%s.m3u8", prefix, q), Quality: q})
	}
	return out
}

// staticFetcher serves payload(server-category, qualities...) for every request.
func staticFetcher(qualities ...string) fetchFunc {
	return func(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
		return payload(episodeID+"-"+server+"-"+category, qualities...), nil
	}
}

func waitForState(t *testing.T, s *Session, want State) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = s.Snapshot()
		return snap.State == want
	}, 2*time.Second, 5*time.Millisecond, "waiting for state %s", want)
	return snap
}

func TestLoadReachesReadyAfterMediaReady(t *testing.T) {
	backend := &recordingBackend{}
	s := New(staticFetcher("720p", "1080p"), backend, nil)
	defer s.Dispose()

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-1", Server: "hd-1", Category: "sub"}))

	snap := s.Snapshot()
	assert.Equal(t, Loading, snap.State, "ready only after the backend confirms")
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "https://ep-1-hd-1-sub.example/1080p.m3u8", snap.Selection.Source.URL)
	assert.Equal(t, models.MediaTypeHLS, snap.Selection.MediaType)

	h := backend.handle(0)
	require.NotNil(t, h)
	h.notify(MediaEvent{Kind: MediaReady})
	waitForState(t, s, Ready)

	require.NoError(t, s.Play())
	assert.Equal(t, Playing, s.Snapshot().State)
	require.NoError(t, s.Pause())
	assert.Equal(t, Paused, s.Snapshot().State)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan context.Context, 1)

	fetch := fetchFunc(func(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
		if episodeID == "slow" {
			started <- ctx
			<-release
			return payload("slow", "1080p"), nil
		}
		return payload("fast", "1080p"), nil
	})
	backend := &recordingBackend{autoReady: true}
	s := New(fetch, backend, nil)
	defer s.Dispose()

	slowErr := make(chan error, 1)
	go func() { slowErr <- s.Load(context.Background(), Request{EpisodeID: "slow"}) }()
	slowCtx := <-started

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "fast"}))
	snap := waitForState(t, s, Ready)
	assert.Error(t, slowCtx.Err(), "superseded fetch is cancelled")

	close(release)
	assert.ErrorIs(t, <-slowErr, ErrSuperseded)

	after := s.Snapshot()
	assert.Equal(t, Ready, after.State)
	assert.Equal(t, snap.Generation, after.Generation)
	assert.Equal(t, "https://fast.example/1080p.m3u8", after.Selection.Source.URL)
	assert.Equal(t, "fast", after.Request.EpisodeID)

	events, live, _ := backend.snapshot()
	assert.Equal(t, []string{"create:https://fast.example/1080p.m3u8"}, events)
	assert.Equal(t, 1, live)
}

func TestDisposeBeforeCreateAcrossTransitions(t *testing.T) {
	backend := &recordingBackend{autoReady: true}
	s := New(staticFetcher("auto"), backend, nil)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, Request{EpisodeID: "ep-1", Server: "hd-1", Category: "sub"}))
	waitForState(t, s, Ready)
	require.NoError(t, s.SwitchServer(ctx, "hd-2"))
	waitForState(t, s, Ready)
	require.NoError(t, s.SwitchCategory(ctx, "dub"))
	waitForState(t, s, Ready)
	require.NoError(t, s.Load(ctx, Request{EpisodeID: "ep-2", Server: "hd-2", Category: "dub"}))
	waitForState(t, s, Ready)
	require.NoError(t, s.Dispose())

	events, live, maxLive := backend.snapshot()
	assert.Equal(t, []string{
		"create:https://ep-1-hd-1-sub.example/auto.m3u8",
		"dispose:https://ep-1-hd-1-sub.example/auto.m3u8",
		"create:https://ep-1-hd-2-sub.example/auto.m3u8",
		"dispose:https://ep-1-hd-2-sub.example/auto.m3u8",
		"create:https://ep-1-hd-2-dub.example/auto.m3u8",
		"dispose:https://ep-1-hd-2-dub.example/auto.m3u8",
		"create:https://ep-2-hd-2-dub.example/auto.m3u8",
		"dispose:https://ep-2-hd-2-dub.example/auto.m3u8",
	}, events)
	assert.Equal(t, 0, live)
	assert.Equal(t, 1, maxLive)
}

func TestSwitchQualityPreservesPlayhead(t *testing.T) {
	backend := &recordingBackend{}
	s := New(staticFetcher("1080p", "720p"), backend, nil)
	defer s.Dispose()

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-7"}))
	first := backend.handle(0)
	first.notify(MediaEvent{Kind: MediaReady})
	waitForState(t, s, Ready)
	require.NoError(t, s.Play())
	first.setPosition(42.0)

	require.NoError(t, s.SwitchQuality(1))

	second := backend.handle(1)
	require.NotNil(t, second)
	_, _, firstDisposed := first.state()
	assert.True(t, firstDisposed, "old resource released before the new one")

	seeks, _, _ := second.state()
	assert.Empty(t, seeks, "no seek before the new resource is ready")
	snap := s.Snapshot()
	assert.Equal(t, Loading, snap.State)
	require.NotNil(t, snap.Selection.ResumeTime)
	assert.Equal(t, 42.0, *snap.Selection.ResumeTime)
	assert.Equal(t, "720p", snap.Selection.Source.Quality)

	// late events from the old resource are ignored
	first.notify(MediaEvent{Kind: MediaError, Err: errors.New("decoder gone")})
	first.notify(MediaEvent{Kind: MediaReady})

	second.notify(MediaEvent{Kind: MediaReady})
	waitForState(t, s, Playing)

	seeks, paused, _ := second.state()
	assert.Equal(t, []float64{42.0}, seeks)
	assert.False(t, paused)

	_, _, maxLive := backend.snapshot()
	assert.Equal(t, 1, maxLive)
}

func TestSwitchQualityWhilePausedStaysPaused(t *testing.T) {
	backend := &recordingBackend{autoReady: true}
	s := New(staticFetcher("1080p", "720p"), backend, nil)
	defer s.Dispose()

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-3"}))
	waitForState(t, s, Ready)
	require.NoError(t, s.Pause())
	backend.handle(0).setPosition(13.5)

	require.NoError(t, s.SwitchQuality(1))
	waitForState(t, s, Paused)

	seeks, paused, _ := backend.handle(1).state()
	assert.Equal(t, []float64{13.5}, seeks)
	assert.True(t, paused)
}

func TestSwitchQualityBeforeFirstReadyLandsInReady(t *testing.T) {
	backend := &recordingBackend{}
	s := New(staticFetcher("1080p", "720p"), backend, nil)
	defer s.Dispose()

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-5"}))
	assert.Equal(t, Loading, s.Snapshot().State)

	require.NoError(t, s.SwitchQuality(1))
	snap := s.Snapshot()
	assert.Nil(t, snap.Selection.ResumeTime)

	backend.handle(0).notify(MediaEvent{Kind: MediaReady})
	backend.handle(1).notify(MediaEvent{Kind: MediaReady})
	waitForState(t, s, Ready)

	seeks, _, _ := backend.handle(1).state()
	assert.Empty(t, seeks)
	assert.Equal(t, Ready, s.Snapshot().State)
	assert.Equal(t, "720p", s.Snapshot().Selection.Source.Quality)
}

func TestSwitchQualityRejectsBadIndex(t *testing.T) {
	backend := &recordingBackend{autoReady: true}
	s := New(staticFetcher("1080p"), backend, nil)
	defer s.Dispose()

	assert.ErrorIs(t, s.SwitchQuality(0), ErrNotReady)

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-1"}))
	waitForState(t, s, Ready)
	assert.Error(t, s.SwitchQuality(3))
	assert.Equal(t, Ready, s.Snapshot().State)
}

func TestEmptySourcesEndInError(t *testing.T) {
	backend := &recordingBackend{autoReady: true}
	s := New(fetchFunc(func(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
		return &models.EpisodeSources{}, nil
	}), backend, nil)
	defer s.Dispose()

	err := s.Load(context.Background(), Request{EpisodeID: "ep-404", Server: "hd-2", Category: "dub"})
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, Error, snap.State)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, "ep-404", snap.Failure.Key)
	assert.Contains(t, snap.Failure.Message, "hd-2")
	assert.Nil(t, snap.Selection)

	events, _, _ := backend.snapshot()
	assert.Empty(t, events, "nothing is mounted without a playable source")
}

func TestBackendRejectionEndsInError(t *testing.T) {
	backend := &recordingBackend{}
	s := New(staticFetcher("1080p"), backend, nil)
	defer s.Dispose()

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-5"}))
	backend.handle(0).notify(MediaEvent{Kind: MediaError, Err: errors.New("unsupported codec")})

	snap := waitForState(t, s, Error)
	assert.Equal(t, "ep-5", snap.Failure.Key)
	assert.Contains(t, snap.Failure.Message, "unsupported codec")
	_, live, _ := backend.snapshot()
	assert.Zero(t, live)

	backend.mu.Lock()
	backend.createErr = errors.New("no display")
	backend.mu.Unlock()
	require.Error(t, s.Retry(context.Background()))
	assert.Equal(t, Error, s.Snapshot().State)
}

func TestRetryReissuesSameRequest(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []Request
	)
	fetch := fetchFunc(func(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, Request{EpisodeID: episodeID, Server: server, Category: category})
		if len(calls) == 1 {
			return nil, errors.New("upstream returned 500: server overloaded")
		}
		return payload("ok", "auto"), nil
	})
	backend := &recordingBackend{autoReady: true}
	s := New(fetch, backend, nil)
	defer s.Dispose()

	assert.ErrorIs(t, s.Retry(context.Background()), ErrNoRequest)

	req := Request{EpisodeID: "ep-9", Server: "hd-1", Category: "sub"}
	require.Error(t, s.Load(context.Background(), req))
	snap := s.Snapshot()
	assert.Equal(t, Error, snap.State)
	assert.Equal(t, "upstream returned 500: server overloaded", snap.Failure.Message)

	require.NoError(t, s.Retry(context.Background()))
	snap = waitForState(t, s, Ready)
	assert.Nil(t, snap.Failure)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Request{req, req}, calls)
}

func TestDispose(t *testing.T) {
	backend := &recordingBackend{autoReady: true}
	s := New(staticFetcher("1080p"), backend, nil)

	var (
		mu          sync.Mutex
		transitions []string
	)
	s.Subscribe(func(tr Transition) {
		mu.Lock()
		transitions = append(transitions, tr.From.String()+">"+tr.To.String())
		mu.Unlock()
	})

	require.NoError(t, s.Load(context.Background(), Request{EpisodeID: "ep-1"}))
	waitForState(t, s, Ready)
	require.NoError(t, s.Dispose())

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session loop did not stop")
	}

	assert.Equal(t, Disposed, s.Snapshot().State)
	assert.ErrorIs(t, s.Load(context.Background(), Request{EpisodeID: "ep-2"}), ErrDisposed)
	assert.ErrorIs(t, s.Play(), ErrDisposed)
	assert.ErrorIs(t, s.Dispose(), ErrDisposed)

	_, live, _ := backend.snapshot()
	assert.Zero(t, live)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"idle>loading", "loading>ready", "ready>disposed"}, transitions)
}

func TestPlayBeforeReady(t *testing.T) {
	s := New(staticFetcher("1080p"), &recordingBackend{}, nil)
	defer s.Dispose()
	assert.ErrorIs(t, s.Play(), ErrNotReady)
	assert.Equal(t, Idle, s.Snapshot().State)
}
