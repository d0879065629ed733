package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	llamaDefaultURL     = "http://127.0.0.1:8080/completion"
	llamaDefaultTimeout = 120 * time.Second
)

// LlamaCpp talks to a llama.cpp server's /completion endpoint. The
// response body is mined for the "content" field with an escape-aware
// scan rather than a full JSON decode; local servers emit malformed
// bodies under load, and a missing field degrades to raw passthrough.
type LlamaCpp struct {
	url         string
	maxTokens   int
	temperature float64
	stop        []string
	client      *http.Client
	logger      *slog.Logger
}

type LlamaCppConfig struct {
	URL         string
	MaxTokens   int
	Temperature float64
	Stop        []string
	Timeout     time.Duration
	Logger      *slog.Logger
}

func NewLlamaCpp(cfg LlamaCppConfig) *LlamaCpp {
	if cfg.URL == "" {
		cfg.URL = llamaDefaultURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = llamaDefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LlamaCpp{
		url:         cfg.URL,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		stop:        cfg.Stop,
		client:      SharedHTTPClient(cfg.Timeout),
		logger:      cfg.Logger,
	}
}

func (l *LlamaCpp) Name() string { return "llamacpp" }

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

// Complete sends prompt to the completion endpoint and returns the
// generated text with HTML entities decoded.
func (l *LlamaCpp) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		NPredict:    l.maxTokens,
		Temperature: l.temperature,
		Stop:        l.stop,
	})
	if err != nil {
		return "", fmt.Errorf("llamacpp: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llamacpp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llamacpp: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llamacpp: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llamacpp: status %d: %s", resp.StatusCode, truncateForLog(string(raw)))
	}

	content, found := extractContent(string(raw))
	if !found {
		// Missing content field: pass the body through untouched so the
		// caller at least sees what the server said.
		l.logger.Warn("llamacpp: no content field in response", "bytes", len(raw))
		return string(raw), nil
	}
	return decodeEntities(content), nil
}

// Healthy probes the server's /health endpoint.
func (l *LlamaCpp) Healthy(ctx context.Context) error {
	u, err := url.Parse(l.url)
	if err != nil {
		return fmt.Errorf("llamacpp: bad url: %w", err)
	}
	u.Path = "/health"
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("llamacpp: health check failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llamacpp: health status %d", resp.StatusCode)
	}
	return nil
}

// extractContent scans body for the first "content":" field and decodes
// its string value, handling the \n \t \r \" \\ escapes. It stops at the
// first unescaped quote. Not a JSON parser on purpose.
func extractContent(body string) (string, bool) {
	marker := `"content":"`
	start := strings.Index(body, marker)
	if start < 0 {
		return "", false
	}
	i := start + len(marker)

	var b strings.Builder
	for i < len(body) {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(body[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			return b.String(), true
		}
		b.WriteByte(c)
		i++
	}
	// Unterminated string: return what was collected.
	return b.String(), true
}

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&apos;", "'",
	"&amp;", "&",
)

// decodeEntities undoes the HTML entity escaping some model servers
// apply to generated text. The replacer works in a single pass, so a
// decoded &amp; never re-forms another entity.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReplacer.Replace(s)
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
