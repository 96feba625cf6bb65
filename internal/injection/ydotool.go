package injection

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const ydotoolProbeTimeout = 500 * time.Millisecond

type ydotoolBackend struct {
	run runner
	// sockets overrides the candidate daemon socket paths in tests
	sockets []string
}

func (y *ydotoolBackend) Name() string { return "ydotool" }

// Available needs the ydotool client and, when ydotoold is installed, a
// daemon answering on its socket.
func (y *ydotoolBackend) Available() error {
	if err := y.run.LookPath("ydotool"); err != nil {
		return fmt.Errorf("ydotool not found: %w (install ydotool package)", err)
	}
	if y.run.LookPath("ydotoold") != nil {
		return nil
	}

	sock := firstExisting(y.socketCandidates())
	if sock == "" {
		return fmt.Errorf("ydotoold socket not found, start ydotoold")
	}
	return probeSocket(sock)
}

func (y *ydotoolBackend) socketCandidates() []string {
	if y.sockets != nil {
		return y.sockets
	}
	var paths []string
	if sock := os.Getenv("YDOTOOL_SOCKET"); sock != "" {
		paths = append(paths, sock)
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ".ydotool_socket"))
	}
	return append(paths,
		filepath.Join("/run/user", strconv.Itoa(os.Getuid()), ".ydotool_socket"),
		"/tmp/.ydotool_socket",
	)
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// probeSocket dials the daemon. ydotoold 1.0.4 and later listen on a
// datagram socket, older releases on a stream socket.
func probeSocket(path string) error {
	conn, err := net.DialTimeout("unixgram", path, ydotoolProbeTimeout)
	if err != nil {
		conn, err = net.DialTimeout("unix", path, ydotoolProbeTimeout)
	}
	if err != nil {
		return fmt.Errorf("ydotoold not responding at %s: %w", path, err)
	}
	return conn.Close()
}

func (y *ydotoolBackend) Inject(ctx context.Context, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := y.run.Run(ctx, "", "ydotool", "type", "--", text); err != nil {
		return fmt.Errorf("ydotool type: %w", err)
	}
	return nil
}
