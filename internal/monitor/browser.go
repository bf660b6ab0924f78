// Package monitor implements the health-check engine: isolated browser
// sessions, the per-website check executor, the bounded-concurrency cycle
// orchestrator, and the rolling stats aggregator.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// DefaultRenderTimeout bounds a single page navigation inside a session.
const DefaultRenderTimeout = 30 * time.Second

// Session is an isolated, non-persistent rendering session used for exactly
// one check. Callers must Close the session on every exit path.
type Session interface {
	// Navigate loads the given URL, bounded by the session's render timeout.
	// A context.DeadlineExceeded error means the timeout was hit.
	Navigate(url string) error

	// Title returns the title of the currently loaded page.
	Title() (string, error)

	// Location returns the current page URL after redirects.
	Location() (string, error)

	// Close tears the session down. Safe to call exactly once.
	Close() error
}

// SessionFactory creates rendering sessions. Implementations hold no shared
// mutable state across sessions.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// ChromeFactory launches a fresh headless Chrome for every session. Sessions
// share no profile, cookies, or cache, and carry flags that suppress
// automation-detection signals and non-essential resource loading.
type ChromeFactory struct {
	renderTimeout time.Duration
	logger        zerolog.Logger
}

// NewChromeFactory creates a factory whose sessions enforce the given render
// timeout. A zero timeout falls back to DefaultRenderTimeout.
func NewChromeFactory(renderTimeout time.Duration, logger zerolog.Logger) *ChromeFactory {
	if renderTimeout <= 0 {
		renderTimeout = DefaultRenderTimeout
	}
	return &ChromeFactory{renderTimeout: renderTimeout, logger: logger}
}

// NewSession starts a new isolated browser. The browser process is started
// eagerly so that engine startup failures (missing binary, resource
// exhaustion) surface here rather than mid-check.
func (f *ChromeFactory) NewSession(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("incognito", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		// Images and scripted content are not needed to judge whether a page
		// rendered; skipping them keeps checks fast and deterministic.
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	f.logger.Debug().Msg("browser session started")
	return &chromeSession{
		ctx:           browserCtx,
		renderTimeout: f.renderTimeout,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeSession struct {
	ctx           context.Context
	cancel        context.CancelFunc
	renderTimeout time.Duration
}

func (s *chromeSession) Navigate(url string) error {
	navCtx, cancel := context.WithTimeout(s.ctx, s.renderTimeout)
	defer cancel()
	return chromedp.Run(navCtx, chromedp.Navigate(url))
}

func (s *chromeSession) Title() (string, error) {
	var title string
	if err := chromedp.Run(s.ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (s *chromeSession) Location() (string, error) {
	var location string
	if err := chromedp.Run(s.ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	return nil
}

// Ensure ChromeFactory implements SessionFactory.
var _ SessionFactory = (*ChromeFactory)(nil)
