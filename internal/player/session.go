package player

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"anistream/internal/mediaresolve"
	"anistream/models"
)

type resumePoint struct {
	at   float64
	play bool
}

// Session owns one player instance. All state lives on a single goroutine
// that drains a mailbox of closures; public methods post to it and wait.
// Every resolution cycle and every media resource carries a generation
// number, and anything tagged with an older generation is dropped.
type Session struct {
	id      string
	fetcher Fetcher
	backend Backend
	policy  mediaresolve.QualityPolicy

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}

	// Owned by the loop goroutine.
	state     State
	gen       uint64
	req       Request
	resp      *models.EpisodeSources
	sel       *models.PlaybackSelection
	failure   *Failure
	handle    Handle
	cancel    context.CancelFunc
	resume    *resumePoint
	observers map[int]func(Transition)
	nextObs   int
}

// New starts a session. Call Dispose to stop it.
func New(fetcher Fetcher, backend Backend, policy mediaresolve.QualityPolicy) *Session {
	if len(policy) == 0 {
		policy = mediaresolve.DefaultQualityPolicy
	}
	s := &Session{
		id:        uuid.NewString(),
		fetcher:   fetcher,
		backend:   backend,
		policy:    policy,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		observers: make(map[int]func(Transition)),
	}
	go s.run()
	return s
}

func (s *Session) ID() string { return s.id }

// Done is closed once the session has been disposed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) run() {
	for range s.wake {
		for {
			s.mu.Lock()
			batch := s.queue
			s.queue = nil
			s.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				fn()
				if s.state == Disposed {
					s.stop()
					return
				}
			}
		}
	}
}

func (s *Session) stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.mu.Unlock()
	close(s.done)
}

func (s *Session) post(fn func()) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// do runs fn on the loop and waits for it. It must not be called from the
// loop goroutine itself.
func (s *Session) do(fn func()) error {
	reply := make(chan struct{})
	if !s.post(func() { fn(); close(reply) }) {
		return ErrDisposed
	}
	select {
	case <-reply:
		return nil
	case <-s.done:
		select {
		case <-reply:
			return nil
		default:
			return ErrDisposed
		}
	}
}

// Load starts a new resolution cycle. Any in-flight fetch is cancelled and
// the live media resource is released before the new one is created. The
// session stays Loading until the backend reports the media ready.
func (s *Session) Load(ctx context.Context, req Request) error {
	var (
		gen      uint64
		fetchCtx context.Context
	)
	if err := s.do(func() { gen, fetchCtx = s.beginCycle(ctx, req) }); err != nil {
		return err
	}

	resp, fetchErr := s.fetcher.ResolveEpisodeSources(fetchCtx, req.EpisodeID, req.Server, req.Category)

	var result error
	if err := s.do(func() { result = s.completeCycle(gen, resp, fetchErr) }); err != nil {
		return err
	}
	return result
}

// SwitchServer reloads the current episode from another server.
func (s *Session) SwitchServer(ctx context.Context, server string) error {
	req, err := s.currentRequest()
	if err != nil {
		return err
	}
	req.Server = server
	return s.Load(ctx, req)
}

// SwitchCategory reloads the current episode in another category (sub, dub, raw).
func (s *Session) SwitchCategory(ctx context.Context, category string) error {
	req, err := s.currentRequest()
	if err != nil {
		return err
	}
	req.Category = category
	return s.Load(ctx, req)
}

// Retry re-issues the current request. Nothing retries on its own.
func (s *Session) Retry(ctx context.Context) error {
	req, err := s.currentRequest()
	if err != nil {
		return err
	}
	return s.Load(ctx, req)
}

// SwitchQuality swaps to another source of the fetched payload without a new
// fetch. Playhead and play state are captured from the old resource and
// restored once the new one is ready.
func (s *Session) SwitchQuality(idx int) error {
	var result error
	err := s.do(func() {
		if s.resp == nil || (s.state != Ready && s.state != Playing && s.state != Paused && s.state != Loading) {
			result = ErrNotReady
			return
		}
		sel, err := mediaresolve.SelectByIndex(s.resp, idx)
		if err != nil {
			result = err
			return
		}

		var resume *resumePoint
		switch {
		case s.resume != nil:
			// previous switch has not finished; keep its target
			resume = s.resume
		case s.state == Loading:
			// first load never became ready; nothing to restore
		default:
			resume = &resumePoint{play: s.state == Playing}
			if s.handle != nil {
				resume.at = s.handle.CurrentTime()
			}
		}
		if resume != nil {
			at := resume.at
			sel.ResumeTime = &at
		}

		s.gen++
		s.releaseHandle()
		s.transition(Loading)
		result = s.mount(sel, resume)
	})
	if err != nil {
		return err
	}
	return result
}

func (s *Session) Play() error {
	return s.userControl(Playing, func(h Handle) error { return h.Play() })
}

func (s *Session) Pause() error {
	return s.userControl(Paused, func(h Handle) error { return h.Pause() })
}

func (s *Session) userControl(to State, apply func(Handle) error) error {
	var result error
	err := s.do(func() {
		switch s.state {
		case Ready, Playing, Paused:
		default:
			result = fmt.Errorf("%w: state %s", ErrNotReady, s.state)
			return
		}
		if err := apply(s.handle); err != nil {
			result = errors.Wrapf(err, "%s", to)
			return
		}
		s.transition(to)
	})
	if err != nil {
		return err
	}
	return result
}

// Dispose releases the live media resource and stops the session. Every
// later call returns ErrDisposed.
func (s *Session) Dispose() error {
	return s.do(func() {
		s.gen++
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.releaseHandle()
		s.resume = nil
		s.transition(Disposed)
	})
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	if err := s.do(func() {
		snap = Snapshot{
			ID:         s.id,
			State:      s.state,
			Generation: s.gen,
			Request:    s.req,
			Sources:    s.resp,
			Selection:  s.sel,
		}
		if s.failure != nil {
			f := *s.failure
			snap.Failure = &f
		}
	}); err != nil {
		return Snapshot{ID: s.id, State: Disposed}
	}
	return snap
}

// Subscribe registers fn for state transitions. fn runs on the session
// goroutine and must not call back into the session.
func (s *Session) Subscribe(fn func(Transition)) (unsubscribe func()) {
	var id int
	if err := s.do(func() {
		id = s.nextObs
		s.nextObs++
		s.observers[id] = fn
	}); err != nil {
		return func() {}
	}
	return func() {
		s.post(func() { delete(s.observers, id) })
	}
}

func (s *Session) currentRequest() (Request, error) {
	var req Request
	if err := s.do(func() { req = s.req }); err != nil {
		return Request{}, err
	}
	if req.EpisodeID == "" {
		return Request{}, ErrNoRequest
	}
	return req, nil
}

func (s *Session) beginCycle(parent context.Context, req Request) (uint64, context.Context) {
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.releaseHandle()
	s.req = req
	s.resp = nil
	s.sel = nil
	s.failure = nil
	s.resume = nil
	s.transition(Loading)
	return s.gen, ctx
}

func (s *Session) completeCycle(gen uint64, resp *models.EpisodeSources, fetchErr error) error {
	if gen != s.gen {
		log.Printf("[player] %s: dropping result of generation %d (current %d)", s.short(), gen, s.gen)
		return ErrSuperseded
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if fetchErr != nil {
		s.fail(fetchErr.Error())
		return fetchErr
	}

	sel, err := mediaresolve.Resolve(resp, s.policy)
	if err != nil {
		s.resp = resp
		s.fail(fmt.Sprintf("no playable source on server %s (%s); try another server or category",
			orDefault(s.req.Server, "default"), orDefault(s.req.Category, "default")))
		return err
	}
	s.resp = resp
	return s.mount(sel, nil)
}

// mount creates the media resource for sel under the current generation.
// The previous resource, if any, is released first.
func (s *Session) mount(sel *models.PlaybackSelection, resume *resumePoint) error {
	s.releaseHandle()
	s.sel = sel
	s.resume = resume

	gen := s.gen
	media := Media{
		Generation: gen,
		URL:        sel.Source.URL,
		MediaType:  sel.MediaType,
		MIMEType:   sel.MIMEType,
		Headers:    sel.Headers,
		Captions:   sel.Captions,
		Title:      s.req.EpisodeID,
	}
	h, err := s.backend.Create(media, func(ev MediaEvent) {
		s.post(func() { s.onMediaEvent(gen, ev) })
	})
	if err != nil {
		s.fail("media backend rejected source: " + err.Error())
		return err
	}
	s.handle = h
	return nil
}

func (s *Session) onMediaEvent(gen uint64, ev MediaEvent) {
	if gen != s.gen || s.handle == nil {
		log.Printf("[player] %s: ignoring %s from generation %d (current %d)", s.short(), ev.Kind, gen, s.gen)
		return
	}

	switch ev.Kind {
	case MediaReady:
		if s.state != Loading {
			return
		}
		s.transition(Ready)
		r := s.resume
		s.resume = nil
		if r == nil {
			return
		}
		if err := s.handle.Seek(r.at); err != nil {
			log.Printf("[player] %s: seek to %.1fs failed: %v", s.short(), r.at, err)
		}
		if r.play {
			if err := s.handle.Play(); err != nil {
				log.Printf("[player] %s: resume failed: %v", s.short(), err)
				return
			}
			s.transition(Playing)
		} else {
			if err := s.handle.Pause(); err != nil {
				log.Printf("[player] %s: pause after seek failed: %v", s.short(), err)
			}
			s.transition(Paused)
		}
	case MediaError:
		msg := "media backend rejected source"
		if ev.Err != nil {
			msg += ": " + ev.Err.Error()
		}
		s.fail(msg)
	case MediaEnded:
		if s.state == Playing {
			s.transition(Paused)
		}
	}
}

func (s *Session) fail(msg string) {
	s.releaseHandle()
	s.resume = nil
	s.failure = &Failure{Key: s.req.EpisodeID, Message: msg}
	log.Printf("[player] %s: %s failed: %s", s.short(), s.req.EpisodeID, msg)
	s.transition(Error)
}

func (s *Session) releaseHandle() {
	if s.handle == nil {
		return
	}
	h := s.handle
	s.handle = nil
	if err := h.Dispose(); err != nil {
		log.Printf("[player] %s: dispose failed: %v", s.short(), err)
	}
}

func (s *Session) transition(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	t := Transition{From: from, To: to, Generation: s.gen, Failure: s.failure}
	for _, fn := range s.observers {
		fn(t)
	}
}

func (s *Session) short() string {
	if len(s.id) > 8 {
		return s.id[:8]
	}
	return s.id
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
