package channel

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// FIFO is the out-of-band input channel: a named pipe read non-blockingly
// once per loop iteration. Lines injected here take priority over
// interactive input.
type FIFO struct {
	path    string
	fd      int
	pending bytes.Buffer // partial line carried between polls
}

// OpenFIFO creates the named pipe if needed and opens it read-only,
// non-blocking. Writers come and go; the descriptor stays open.
func OpenFIFO(path string) (*FIFO, error) {
	if err := unix.Mkfifo(path, 0o622); err != nil && err != unix.EEXIST {
		return nil, fmt.Errorf("cannot create fifo %s: %w", path, err)
	}

	// Verify we are not opening a regular file someone left at the path.
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat fifo %s: %w", path, err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return nil, fmt.Errorf("%s exists and is not a fifo", path)
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open fifo %s: %w", path, err)
	}

	return &FIFO{path: path, fd: fd}, nil
}

// Poll reads whatever is available without blocking and returns the next
// complete line. ok is false when no full line is ready.
func (f *FIFO) Poll() (line string, ok bool) {
	var buf [4096]byte
	for {
		n, err := unix.Read(f.fd, buf[:])
		if n > 0 {
			f.pending.Write(buf[:n])
		}
		if err != nil || n <= 0 {
			// EAGAIN (no writer / no data) and EOF both end the poll.
			break
		}
	}

	data := f.pending.String()
	idx := strings.IndexByte(data, '\n')
	if idx < 0 {
		return "", false
	}
	line = strings.TrimSpace(data[:idx])
	f.pending.Reset()
	f.pending.WriteString(data[idx+1:])
	if line == "" {
		return f.Poll()
	}
	return line, true
}

// Close closes the descriptor. The pipe itself is left in place for the
// next session.
func (f *FIFO) Close() error {
	return unix.Close(f.fd)
}

func (f *FIFO) Path() string { return f.path }
