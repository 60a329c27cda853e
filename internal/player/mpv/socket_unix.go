//go:build !windows

package mpv

import (
	"net"
	"os"
	"path/filepath"
)

func socketPath(dir, id string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "anistream-mpv-"+id+".sock")
}

func dialSocket(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}

func removeSocket(path string) {
	_ = os.Remove(path)
}
