package channel

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// StartReaper collects exited child processes so detached viewer spawns
// never linger as zombies. One reaper per process, started at startup.
func StartReaper(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	sigs := make(chan os.Signal, 16)
	signal.Notify(sigs, unix.SIGCHLD)

	go func() {
		defer signal.Stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				for {
					pid, err := unix.Wait4(-1, nil, unix.WNOHANG, nil)
					if pid <= 0 || err != nil {
						break
					}
					logger.Debug("reaped child", "pid", pid)
				}
			}
		}
	}()
}
