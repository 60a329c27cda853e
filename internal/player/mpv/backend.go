// Package mpv is a player backend that drives an mpv process over its JSON
// IPC socket. Every Create starts a fresh process, so disposing a handle
// really tears the media resource down.
package mpv

import (
	"bytes"
	"log"
	"net"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"anistream/internal/player"
)

type Backend struct {
	// Binary defaults to "mpv" from PATH.
	Binary string
	// Args are appended to the generated command line.
	Args []string
	// SocketDir defaults to os.TempDir(). Ignored on Windows, where mpv
	// listens on a named pipe.
	SocketDir string
	// StartTimeout bounds the wait for the IPC socket. Defaults to 3s.
	StartTimeout time.Duration
	// CommandTimeout bounds each IPC round trip. Defaults to 2s.
	CommandTimeout time.Duration
}

var _ player.Backend = (*Backend)(nil)

func (b *Backend) Create(media player.Media, notify func(player.MediaEvent)) (player.Handle, error) {
	bin := b.Binary
	if bin == "" {
		bin = "mpv"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.Wrapf(err, "%s not found in PATH", bin)
	}

	socket := socketPath(b.SocketDir, uuid.NewString()[:8])

	cmd := exec.Command(path, commandArgs(media, socket, b.Args)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	proc, err := startProcess(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "start mpv")
	}

	conn, err := waitForSocket(socket, orDuration(b.StartTimeout, 3*time.Second), proc)
	if err != nil {
		proc.stop(0)
		return nil, errors.Wrapf(err, "mpv ipc (stderr: %s)", strings.TrimSpace(stderr.String()))
	}

	h := newHandle(conn, proc, socket, media, orDuration(b.CommandTimeout, 2*time.Second), notify)
	if err := h.load(); err != nil {
		_ = h.Dispose()
		return nil, err
	}
	return h, nil
}

func commandArgs(media player.Media, socket string, extra []string) []string {
	args := []string{
		"--idle=yes",
		"--pause",
		"--no-terminal",
		"--quiet",
		"--input-ipc-server=" + socket,
	}
	if media.Title != "" {
		args = append(args, "--force-media-title="+media.Title)
	}
	if len(media.Headers) > 0 {
		keys := make([]string, 0, len(media.Headers))
		for k := range media.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]string, 0, len(keys))
		for _, k := range keys {
			// mpv splits the list on commas
			fields = append(fields, k+": "+strings.ReplaceAll(media.Headers[k], ",", `\,`))
		}
		args = append(args, "--http-header-fields="+strings.Join(fields, ","))
	}
	return append(args, extra...)
}

// waitForSocket dials socket until mpv has created it, the process exits or
// timeout passes.
func waitForSocket(socket string, timeout time.Duration, proc *process) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := dialSocket(socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-proc.exited:
			return nil, errors.Errorf("mpv exited before opening %s", socket)
		default:
		}
		if time.Now().After(deadline) {
			return nil, errors.Wrapf(err, "timeout waiting for %s", socket)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// process reaps an mpv child exactly once.
type process struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

func startProcess(cmd *exec.Cmd) (*process, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &process{cmd: cmd, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()
	return p, nil
}

// stop waits up to grace for a clean exit, then kills.
func (p *process) stop(grace time.Duration) {
	select {
	case <-p.exited:
		return
	case <-time.After(grace):
	}
	log.Printf("[mpv] process %d did not quit, killing", p.cmd.Process.Pid)
	_ = p.cmd.Process.Kill()
	<-p.exited
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
