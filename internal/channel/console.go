// Package channel reads session input: the interactive or piped console
// and the out-of-band named pipe.
package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

const fifoPollInterval = 200 * time.Millisecond

// InputHandler processes one input unit and returns the text to show.
// Implemented by the agent session.
type InputHandler interface {
	HandleInput(ctx context.Context, input string) (string, error)
}

// Console is the interactive session loop. One input unit is processed
// fully, including all nested tool turns, before the next is accepted.
// The FIFO is drained ahead of console input on every iteration.
type Console struct {
	session InputHandler
	fifo    *FIFO // optional
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
}

type ConsoleConfig struct {
	Session InputHandler
	FIFO    *FIFO
	In      io.Reader
	Out     io.Writer
	Logger  *slog.Logger
}

func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Console{
		session: cfg.Session,
		fifo:    cfg.FIFO,
		in:      cfg.In,
		out:     cfg.Out,
		logger:  cfg.Logger,
	}
}

// Run blocks until the input stream ends or the context is cancelled.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(fifoPollInterval)
	defer ticker.Stop()

	fmt.Fprint(c.out, "> ")
	for {
		c.drainFIFO(ctx)

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c.handle(ctx, line)
			fmt.Fprint(c.out, "> ")
		case <-ticker.C:
			// Loop around to poll the FIFO again.
		}
	}
}

func (c *Console) drainFIFO(ctx context.Context) {
	if c.fifo == nil {
		return
	}
	for {
		line, ok := c.fifo.Poll()
		if !ok {
			return
		}
		c.logger.Info("injected input", "source", "fifo")
		c.handle(ctx, line)
	}
}

func (c *Console) handle(ctx context.Context, input string) {
	reply, err := c.session.HandleInput(ctx, input)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if reply != "" {
		fmt.Fprintln(c.out, reply)
	}
}
