package submit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/monitoring"
	"github.com/five82/pixgrab/internal/state"
)

// Controller runs submissions against the collaborator and records every
// transition in a state.Store. It is safe for concurrent use.
type Controller struct {
	proc    backend.Processor
	links   backend.Links
	store   *state.Store
	timeout time.Duration
	metrics *monitoring.Metrics
	log     *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	active uint64
	cancel context.CancelFunc
}

// Option customizes a Controller.
type Option func(*Controller)

// WithTimeout bounds each outbound call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithMetrics records submission outcomes.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController returns a Controller that builds resource links with links.
// A nil store gets a fresh one.
func NewController(proc backend.Processor, links backend.Links, store *state.Store, opts ...Option) *Controller {
	if store == nil {
		store = &state.Store{}
	}
	c := &Controller{
		proc:  proc,
		links: links,
		store: store,
		log:   logger.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *state.Store { return c.store }

// Pending is a submission that has entered Loading and awaits Run.
type Pending struct {
	Token  uint64
	URL    string
	Locale string

	ctx    context.Context
	cancel context.CancelFunc
}

// Begin moves the session to Loading for a new submission and cancels any
// submission still in flight. The returned Pending must be passed to Run.
func (c *Controller) Begin(ctx context.Context, pageURL, locale string) Pending {
	pageURL = strings.TrimSpace(pageURL)

	callCtx, cancel := context.WithCancel(ctx)
	if c.timeout > 0 {
		callCtx, cancel = withTimeout(callCtx, cancel, c.timeout)
	}

	// The newest token owns both the live cancel func and the Loading state.
	c.mu.Lock()
	token := c.store.NextToken()
	if c.cancel != nil {
		c.cancel()
	}
	c.active = token
	c.cancel = cancel
	c.store.Dispatch(state.Started{Token: token, URL: pageURL, Locale: locale, At: c.now()})
	c.mu.Unlock()

	c.log.Info().Uint64("token", token).Str("url", pageURL).Str("locale", locale).Msg("submission started")

	return Pending{Token: token, URL: pageURL, Locale: locale, ctx: callCtx, cancel: cancel}
}

// Run performs the single outbound call for p and resolves it. It returns
// the session's submission afterwards, which is unchanged by p when p was
// superseded or cancelled meanwhile.
func (c *Controller) Run(p Pending) state.Submission {
	if p.ctx == nil {
		return c.store.Submission()
	}
	defer c.release(p)

	started := c.now()
	resp, err := c.proc.Process(p.ctx, p.URL, p.Locale)
	elapsed := c.now().Sub(started)
	c.metrics.ObserveSubmission(backend.Kind(err), elapsed)

	var (
		event state.Event
		ev    = c.log.Info()
	)
	switch {
	case err == nil:
		event = c.success(p.Token, resp)
	case errors.Is(err, context.Canceled):
		event = state.Cancelled{Token: p.Token}
		ev = c.log.Debug()
	default:
		event = state.Failed{Token: p.Token, Message: backend.UserMessage(err), At: c.now()}
		ev = c.log.Warn().Err(err)
	}

	sub, applied := c.store.Dispatch(event)
	ev.Uint64("token", p.Token).
		Str("kind", backend.Kind(err)).
		Str("status", sub.Status.String()).
		Bool("applied", applied).
		Dur("elapsed", elapsed).
		Msg("submission resolved")
	return sub
}

// Submit is Begin followed by Run.
func (c *Controller) Submit(ctx context.Context, pageURL, locale string) state.Submission {
	return c.Run(c.Begin(ctx, pageURL, locale))
}

// Cancel abandons the in-flight submission, if any, and returns the session
// to Idle. It reports whether anything was cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	token, cancel := c.active, c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	_, applied := c.store.Dispatch(state.Cancelled{Token: token})
	if applied {
		c.log.Info().Uint64("token", token).Msg("submission cancelled")
	}
	return applied
}

func (c *Controller) success(token uint64, resp *backend.ProcessResponse) state.Event {
	if resp == nil {
		resp = &backend.ProcessResponse{}
	}
	images := make([]string, 0, len(resp.Images))
	for _, id := range resp.Images {
		images = append(images, c.links.ImageURL(id))
	}
	archive := ""
	if resp.ZipFile != "" {
		archive = c.links.ArchiveURL(resp.ZipFile)
	}
	return state.Succeeded{
		Token:      token,
		Message:    resp.Message,
		Images:     images,
		ArchiveURL: archive,
		At:         c.now(),
	}
}

func (c *Controller) release(p Pending) {
	p.cancel()
	c.mu.Lock()
	if c.active == p.Token {
		c.cancel = nil
	}
	c.mu.Unlock()
}

func withTimeout(ctx context.Context, parent context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	timed, cancel := context.WithTimeout(ctx, d)
	return timed, func() {
		cancel()
		parent()
	}
}
