package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeTitler resolves page titles with a short-lived headless Chrome.
// Strictly best effort: any failure yields an empty title and the
// history entry is written without one.
type ChromeTitler struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewChromeTitler(timeout time.Duration, logger *slog.Logger) *ChromeTitler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeTitler{timeout: timeout, logger: logger}
}

func (t *ChromeTitler) Title(url string) string {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var title string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
	)
	if err != nil {
		t.logger.Debug("title resolution failed", "url", url, "err", err)
		return ""
	}
	return title
}
