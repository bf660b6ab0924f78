package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/website"
)

// Default probe bounds.
const (
	DefaultProbeTimeout = 10 * time.Second
	DefaultSettleDelay  = 2 * time.Second
)

// ExecutorConfig holds configuration for the check executor.
type ExecutorConfig struct {
	// Factory creates one isolated rendering session per check.
	Factory SessionFactory

	// HTTPClient performs the network probe. If nil, a client with
	// ProbeTimeout is used.
	HTTPClient *http.Client

	// ProbeTimeout bounds the network probe. Default: 10 seconds.
	ProbeTimeout time.Duration

	// RenderTimeout is the bound the session factory enforces on navigation.
	// It is recorded as the load-time ceiling on timeout outcomes.
	// Default: 30 seconds.
	RenderTimeout time.Duration

	// SettleDelay is the fixed wait after navigation, covering async page
	// completion. Default: 2 seconds.
	SettleDelay time.Duration

	Logger zerolog.Logger
}

// Executor runs one website's check: a best-effort network probe followed by
// an authoritative rendered-page probe. It is the boundary that converts
// arbitrary failures into classified outcome data; Execute never returns an
// error.
type Executor struct {
	factory       SessionFactory
	client        *http.Client
	renderTimeout time.Duration
	settle        time.Duration
	logger        zerolog.Logger
}

// NewExecutor creates a check executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.ProbeTimeout}
	}

	return &Executor{
		factory:       cfg.Factory,
		client:        client,
		renderTimeout: cfg.RenderTimeout,
		settle:        cfg.SettleDelay,
		logger:        cfg.Logger,
	}
}

// Execute checks a single website and returns a classified outcome. Every
// failure path maps to one of the four classifications; nothing propagates.
func (e *Executor) Execute(ctx context.Context, site website.Website) website.CheckOutcome {
	outcome := website.CheckOutcome{
		ID:        uuid.NewString(),
		WebsiteID: site.ID,
	}

	sess, err := e.factory.NewSession(ctx)
	if err != nil {
		e.logger.Error().Err(err).Str("url", site.URL).Msg("browser session unavailable")
		outcome.Status = website.StatusConnectionError
		outcome.ErrorMessage = fmt.Sprintf("browser session unavailable: %v", err)
		outcome.Timestamp = time.Now().UTC()
		return outcome
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			e.logger.Error().Err(cerr).Str("url", site.URL).Msg("failed to close browser session")
		}
	}()

	e.networkProbe(ctx, site.URL, &outcome)
	e.renderProbe(sess, site.URL, &outcome)

	outcome.Timestamp = time.Now().UTC()
	return outcome
}

// networkProbe issues a timed GET against the website. It is best-effort:
// the render probe is authoritative for reachability, so a failure here only
// loses the status code and response time.
func (e *Executor) networkProbe(ctx context.Context, url string, outcome *website.CheckOutcome) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", url).Msg("network probe request invalid")
		return
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", url).Msg("network probe failed")
		return
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	outcome.StatusCode = &code
	outcome.ResponseTime = time.Since(start).Seconds()
}

func (e *Executor) renderProbe(sess Session, url string, outcome *website.CheckOutcome) {
	start := time.Now()

	switch err := sess.Navigate(url); {
	case errors.Is(err, context.DeadlineExceeded):
		outcome.Status = website.StatusTimeout
		outcome.ErrorMessage = fmt.Sprintf("page load timed out after %s", e.renderTimeout)
		outcome.LoadTime = e.renderTimeout.Seconds()
		return
	case err != nil:
		outcome.Status = website.StatusError
		outcome.ErrorMessage = fmt.Sprintf("render failed: %v", err)
		return
	}

	time.Sleep(e.settle)
	outcome.LoadTime = time.Since(start).Seconds()

	title, terr := sess.Title()
	location, lerr := sess.Location()
	if err := errors.Join(terr, lerr); err != nil {
		outcome.Status = website.StatusError
		outcome.ErrorMessage = fmt.Sprintf("page inspection failed: %v", err)
		return
	}

	if !strings.Contains(strings.ToLower(title), "error") && location != "" {
		outcome.Status = website.StatusSuccess
		return
	}
	outcome.Status = website.StatusError
	outcome.ErrorMessage = fmt.Sprintf("page load error: %s", title)
}
