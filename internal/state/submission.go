package state

import (
	"slices"
	"time"
)

// Status is the phase of a submission.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Submission is one request/response cycle as seen by the UI.
// Images and ArchiveURL are only populated when Status is Success.
type Submission struct {
	URL        string
	Locale     string
	Status     Status
	Message    string
	Images     []string
	ArchiveURL string
	Token      uint64
	StartedAt  time.Time
	FinishedAt time.Time
}

// IsLoading reports whether the outbound call is still pending.
func (s Submission) IsLoading() bool { return s.Status == Loading }

// Elapsed returns how long the submission ran, or has been running.
func (s Submission) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if !s.FinishedAt.IsZero() {
		return s.FinishedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

func (s Submission) clone() Submission {
	s.Images = slices.Clone(s.Images)
	return s
}

// Event moves a submission between statuses. Every event carries the token of
// the submission it belongs to.
type Event interface {
	token() uint64
}

// Started begins a new submission and supersedes any pending one.
type Started struct {
	Token  uint64
	URL    string
	Locale string
	At     time.Time
}

// Succeeded resolves a submission with the collaborator's results.
type Succeeded struct {
	Token      uint64
	Message    string
	Images     []string
	ArchiveURL string
	At         time.Time
}

// Failed resolves a submission with a user-facing message.
type Failed struct {
	Token   uint64
	Message string
	At      time.Time
}

// Cancelled abandons a pending submission and returns to Idle.
type Cancelled struct {
	Token uint64
}

func (e Started) token() uint64   { return e.Token }
func (e Succeeded) token() uint64 { return e.Token }
func (e Failed) token() uint64    { return e.Token }
func (e Cancelled) token() uint64 { return e.Token }

// Reduce applies e to s. Events for a token other than the current one, and
// resolutions of a submission that is no longer loading, leave s unchanged.
func Reduce(s Submission, e Event) Submission {
	next, _ := reduce(s, e)
	return next
}

func reduce(s Submission, e Event) (Submission, bool) {
	if started, ok := e.(Started); ok {
		if started.Token <= s.Token {
			return s, false
		}
		return Submission{
			URL:       started.URL,
			Locale:    started.Locale,
			Status:    Loading,
			Token:     started.Token,
			StartedAt: started.At,
		}, true
	}

	if e == nil || e.token() != s.Token || s.Status != Loading {
		return s, false
	}

	switch ev := e.(type) {
	case Succeeded:
		s.Status = Success
		s.Message = ev.Message
		s.Images = slices.Clone(ev.Images)
		s.ArchiveURL = ev.ArchiveURL
		s.FinishedAt = ev.At
	case Failed:
		s.Status = Error
		s.Message = ev.Message
		s.Images = nil
		s.ArchiveURL = ""
		s.FinishedAt = ev.At
	case Cancelled:
		s.Status = Idle
		s.Message = ""
		s.Images = nil
		s.ArchiveURL = ""
		s.StartedAt = time.Time{}
	default:
		return s, false
	}
	return s, true
}
