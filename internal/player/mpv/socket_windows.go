//go:build windows

package mpv

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

const pipeDialTimeout = 250 * time.Millisecond

// socketPath names a per-process named pipe; dir has no meaning for pipes.
func socketPath(_ string, id string) string {
	return `\\.\pipe\anistream-mpv-` + id
}

func dialSocket(path string) (net.Conn, error) {
	timeout := pipeDialTimeout
	return winio.DialPipe(path, &timeout)
}

// Named pipes vanish with the process.
func removeSocket(string) {}
