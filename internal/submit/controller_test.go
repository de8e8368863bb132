package submit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/monitoring"
	"github.com/five82/pixgrab/internal/state"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type call struct {
	url, locale string
	ctx         context.Context
	reply       chan result
}

type result struct {
	resp *backend.ProcessResponse
	err  error
}

// fakeProcessor hands each call to the test through calls and blocks until
// the test replies or the call's context ends.
type fakeProcessor struct {
	calls chan call
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{calls: make(chan call, 8)}
}

func (f *fakeProcessor) Process(ctx context.Context, pageURL, locale string) (*backend.ProcessResponse, error) {
	c := call{url: pageURL, locale: locale, ctx: ctx, reply: make(chan result, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeProcessor) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("no outbound call observed")
		return call{}
	}
}

// staticProcessor answers every call immediately.
type staticProcessor struct {
	mu    sync.Mutex
	resp  *backend.ProcessResponse
	err   error
	calls int
}

func (s *staticProcessor) Process(context.Context, string, string) (*backend.ProcessResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, s.err
}

func TestSubmit_SuccessBuildsLinks(t *testing.T) {
	proc := &staticProcessor{resp: &backend.ProcessResponse{
		Message: "Found 3 images",
		Images:  []string{"a.jpg", "b.jpg", "c.jpg"},
		ZipFile: "bundle.zip",
	}}
	c := NewController(proc, backend.NewLinks("http://shop.local/api"), nil)

	sub := c.Submit(context.Background(), "  https://example.com/item/1  ", "en-US")
	if sub.Status != state.Success {
		t.Fatalf("Status = %v, want success", sub.Status)
	}
	if sub.Message != "Found 3 images" {
		t.Fatalf("Message = %q, want Found 3 images", sub.Message)
	}
	if sub.URL != "https://example.com/item/1" {
		t.Fatalf("URL = %q, want trimmed input", sub.URL)
	}
	want := []string{
		"http://shop.local/api/images/a.jpg",
		"http://shop.local/api/images/b.jpg",
		"http://shop.local/api/images/c.jpg",
	}
	if strings.Join(sub.Images, ",") != strings.Join(want, ",") {
		t.Fatalf("Images = %v, want %v", sub.Images, want)
	}
	if !strings.HasSuffix(sub.ArchiveURL, "/zip/bundle.zip") {
		t.Fatalf("ArchiveURL = %q, want .../zip/bundle.zip", sub.ArchiveURL)
	}
	if proc.calls != 1 {
		t.Fatalf("outbound calls = %d, want 1", proc.calls)
	}
}

func TestSubmit_ErrorsCollapseToMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"collaborator text", &backend.APIError{StatusCode: 400, Message: "Invalid URL"}, "Invalid URL"},
		{"no body", &backend.APIError{StatusCode: 500}, backend.FallbackMessage},
		{"transport", &backend.TransportError{Op: "execute request", Err: errors.New("connection refused")}, backend.FallbackMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &state.Store{}
			// Seed a previous success so the error must clear it.
			store.Dispatch(state.Started{Token: 1})
			store.Dispatch(state.Succeeded{Token: 1, Images: []string{"old"}, ArchiveURL: "old.zip"})

			c := NewController(&staticProcessor{err: tc.err}, backend.NewLinks("/api"), store)
			sub := c.Submit(context.Background(), "https://example.com", "en-US")
			if sub.Status != state.Error {
				t.Fatalf("Status = %v, want error", sub.Status)
			}
			if sub.Message != tc.want {
				t.Fatalf("Message = %q, want %q", sub.Message, tc.want)
			}
			if len(sub.Images) != 0 || sub.ArchiveURL != "" {
				t.Fatalf("error kept results: %#v", sub)
			}
		})
	}
}

func TestController_LoadingOnlyWhileCallPending(t *testing.T) {
	proc := newFakeProcessor()
	c := NewController(proc, backend.NewLinks("/api"), nil)

	if c.Store().Submission().IsLoading() {
		t.Fatalf("loading before submit")
	}

	done := make(chan state.Submission, 1)
	go func() { done <- c.Submit(context.Background(), "u", "en-US") }()

	call := proc.next(t)
	if !c.Store().Submission().IsLoading() {
		t.Fatalf("not loading while call pending")
	}
	call.reply <- result{resp: &backend.ProcessResponse{Message: "ok"}}

	sub := <-done
	if sub.IsLoading() || c.Store().Submission().IsLoading() {
		t.Fatalf("still loading after resolution")
	}
}

func TestController_NewSubmissionSupersedesPending(t *testing.T) {
	proc := newFakeProcessor()
	c := NewController(proc, backend.NewLinks("/api"), nil)

	first := c.Begin(context.Background(), "first", "en-US")
	firstDone := make(chan state.Submission, 1)
	go func() { firstDone <- c.Run(first) }()
	firstCall := proc.next(t)

	second := c.Begin(context.Background(), "second", "en-US")
	select {
	case <-firstCall.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("first call was not cancelled by the second submission")
	}
	<-firstDone

	secondDone := make(chan state.Submission, 1)
	go func() { secondDone <- c.Run(second) }()
	secondCall := proc.next(t)
	secondCall.reply <- result{resp: &backend.ProcessResponse{Message: "second", Images: []string{"b"}}}

	sub := <-secondDone
	if sub.Status != state.Success || sub.Message != "second" || sub.URL != "second" {
		t.Fatalf("final submission = %#v, want second success", sub)
	}
}

func TestController_ConcurrentBeginKeepsNewestLive(t *testing.T) {
	c := NewController(&staticProcessor{}, backend.NewLinks("/api"), nil)

	const n = 64
	pendings := make([]Pending, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pendings[i] = c.Begin(context.Background(), "u", "en-US")
		}()
	}
	wg.Wait()

	newest := pendings[0]
	for _, p := range pendings[1:] {
		if p.Token > newest.Token {
			newest = p
		}
	}
	sub := c.Store().Submission()
	if sub.Token != newest.Token || !sub.IsLoading() {
		t.Fatalf("session token = %d status = %v, want %d loading", sub.Token, sub.Status, newest.Token)
	}
	for _, p := range pendings {
		live := p.ctx.Err() == nil
		if live != (p.Token == newest.Token) {
			t.Fatalf("token %d live = %v, newest = %d", p.Token, live, newest.Token)
		}
	}
	for _, p := range pendings {
		p.cancel()
	}
}

func TestController_StaleResponseIgnored(t *testing.T) {
	// A processor that ignores cancellation still cannot overwrite newer state.
	release := make(chan struct{})
	proc := processorFunc(func(ctx context.Context, pageURL, _ string) (*backend.ProcessResponse, error) {
		if pageURL == "slow" {
			<-release
			return &backend.ProcessResponse{Message: "stale", Images: []string{"x"}}, nil
		}
		return &backend.ProcessResponse{Message: "fresh"}, nil
	})
	c := NewController(proc, backend.NewLinks("/api"), nil)

	slow := c.Begin(context.Background(), "slow", "en-US")
	slowDone := make(chan state.Submission, 1)
	go func() { slowDone <- c.Run(slow) }()

	fresh := c.Submit(context.Background(), "fast", "en-US")
	if fresh.Message != "fresh" {
		t.Fatalf("fresh Message = %q", fresh.Message)
	}

	close(release)
	<-slowDone
	sub := c.Store().Submission()
	if sub.Message != "fresh" || len(sub.Images) != 0 {
		t.Fatalf("stale response changed state: %#v", sub)
	}
}

func TestController_CancelReturnsToIdle(t *testing.T) {
	proc := newFakeProcessor()
	c := NewController(proc, backend.NewLinks("/api"), nil)

	if c.Cancel() {
		t.Fatalf("Cancel() with nothing pending = true")
	}

	p := c.Begin(context.Background(), "u", "en-US")
	done := make(chan state.Submission, 1)
	go func() { done <- c.Run(p) }()
	proc.next(t)

	if !c.Cancel() {
		t.Fatalf("Cancel() = false, want true")
	}
	sub := <-done
	if sub.Status != state.Idle {
		t.Fatalf("Status after cancel = %v, want idle", sub.Status)
	}
}

func TestController_TimeoutFails(t *testing.T) {
	proc := newFakeProcessor()
	c := NewController(proc, backend.NewLinks("/api"), nil, WithTimeout(20*time.Millisecond))

	done := make(chan state.Submission, 1)
	go func() { done <- c.Submit(context.Background(), "u", "en-US") }()
	proc.next(t)

	sub := <-done
	if sub.Status != state.Error || sub.Message != backend.FallbackMessage {
		t.Fatalf("timed out submission = %#v, want fallback error", sub)
	}
}

func TestController_RecordsMetrics(t *testing.T) {
	m := monitoring.New()
	ok := NewController(&staticProcessor{resp: &backend.ProcessResponse{}}, backend.NewLinks("/api"), nil, WithMetrics(m))
	ok.Submit(context.Background(), "u", "en-US")
	bad := NewController(&staticProcessor{err: &backend.APIError{StatusCode: 500}}, backend.NewLinks("/api"), nil, WithMetrics(m))
	bad.Submit(context.Background(), "u", "en-US")

	out, err := testutil.GatherAndCount(m.Registry(), "pixgrab_submissions_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if out != 2 {
		t.Fatalf("submissions_total series = %d, want 2 (ok and application)", out)
	}
}

type processorFunc func(ctx context.Context, pageURL, locale string) (*backend.ProcessResponse, error)

func (f processorFunc) Process(ctx context.Context, pageURL, locale string) (*backend.ProcessResponse, error) {
	return f(ctx, pageURL, locale)
}
