package mpv

import (
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"anistream/internal/player"
)

// Handle is one mpv process playing one source.
type Handle struct {
	ipc    *ipc
	proc   *process
	socket string
	media  player.Media
	notify func(player.MediaEvent)

	mu       sync.Mutex
	lastPos  float64
	disposed bool
}

var _ player.Handle = (*Handle)(nil)

func newHandle(conn net.Conn, proc *process, socket string, media player.Media, timeout time.Duration, notify func(player.MediaEvent)) *Handle {
	h := &Handle{proc: proc, socket: socket, media: media, notify: notify}
	h.ipc = newIPC(conn, timeout, h.onEvent)
	return h
}

func (h *Handle) load() error {
	if _, err := h.ipc.command("loadfile", h.media.URL, "replace"); err != nil {
		return errors.Wrap(err, "loadfile")
	}
	return nil
}

func (h *Handle) onEvent(m message) {
	if h.isDisposed() {
		return
	}
	switch m.Event {
	case "file-loaded":
		// sub-add needs the reply loop, which is the goroutine we are on
		go func() {
			h.addCaptions()
			h.emit(player.MediaEvent{Kind: player.MediaReady})
		}()
	case "end-file":
		switch m.Reason {
		case "error":
			msg := m.FileError
			if msg == "" {
				msg = "playback failed"
			}
			h.emit(player.MediaEvent{Kind: player.MediaError, Err: errors.New(msg)})
		case "eof":
			h.emit(player.MediaEvent{Kind: player.MediaEnded})
		}
	}
}

func (h *Handle) emit(ev player.MediaEvent) {
	if h.isDisposed() || h.notify == nil {
		return
	}
	h.notify(ev)
}

func (h *Handle) addCaptions() {
	for _, c := range h.media.Captions {
		flag := "auto"
		if c.IsDefault {
			flag = "select"
		}
		if _, err := h.ipc.command("sub-add", c.URL, flag, c.Label, c.Language); err != nil {
			log.Printf("[mpv] sub-add %s: %v", c.URL, err)
		}
	}
}

// CurrentTime returns the playhead; the last known value when mpv does not answer.
func (h *Handle) CurrentTime() float64 {
	raw, err := h.ipc.command("get_property", "time-pos")
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		var pos float64
		if json.Unmarshal(raw, &pos) == nil {
			h.lastPos = pos
		}
	}
	return h.lastPos
}

func (h *Handle) Paused() bool {
	raw, err := h.ipc.command("get_property", "pause")
	if err != nil {
		return true
	}
	var paused bool
	if err := json.Unmarshal(raw, &paused); err != nil {
		return true
	}
	return paused
}

func (h *Handle) Seek(seconds float64) error {
	_, err := h.ipc.command("seek", seconds, "absolute")
	return err
}

func (h *Handle) Play() error {
	_, err := h.ipc.command("set_property", "pause", false)
	return err
}

func (h *Handle) Pause() error {
	_, err := h.ipc.command("set_property", "pause", true)
	return err
}

// Dispose quits mpv and waits for the process to exit.
func (h *Handle) Dispose() error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return nil
	}
	h.disposed = true
	h.mu.Unlock()

	_, quitErr := h.ipc.command("quit")
	h.ipc.close()

	if h.proc != nil {
		h.proc.stop(3 * time.Second)
	}
	if h.socket != "" {
		removeSocket(h.socket)
	}
	if quitErr != nil && !errors.Is(quitErr, errClosed) {
		return quitErr
	}
	return nil
}

func (h *Handle) isDisposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}
