package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// DefaultDebounce is the quiet period after the last keystroke before the
// geocoding provider is queried.
const DefaultDebounce = 300 * time.Millisecond

// State is a point-in-time view of a session.
type State struct {
	Query   string
	Records []domain.UnifiedBeachRecord
	Loading bool
	Notice  error
}

// Session tracks the search of one interactive caller. Local matches are
// published immediately; the external lookup runs after a debounce and only
// its latest request may update the state.
type Session struct {
	svc      *Service
	clock    clockwork.Clock
	debounce time.Duration
	onChange func(State)

	// notifyMu serializes callbacks; delivered is the version of the last
	// state handed to onChange.
	notifyMu  sync.Mutex
	delivered uint64

	mu      sync.Mutex
	state   State
	seq     uint64
	version uint64
	timer   clockwork.Timer
	cancel  context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock sets the clock used for debouncing.
func WithClock(c clockwork.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) { s.debounce = d }
}

// WithOnChange registers a callback invoked after every published update.
// Superseded updates are not delivered. The callback must not call back into
// the session's mutating methods.
func WithOnChange(fn func(State)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates a session backed by svc.
func NewSession(svc *Service, opts ...SessionOption) *Session {
	s := &Session{
		svc:      svc,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search publishes local matches for query right away and schedules the
// external lookup. Any earlier pending or in-flight lookup is superseded.
func (s *Session) Search(query string) {
	s.mu.Lock()
	seq := s.supersedeLocked()

	if strings.TrimSpace(query) == "" {
		s.state = State{Query: query}
		ver, st := s.stageLocked()
		s.mu.Unlock()
		s.publish(seq, ver, st)
		return
	}

	local := s.svc.Local(query)
	external := s.svc.ExternalEnabled()
	s.state = State{Query: query, Records: local.Records, Loading: external}
	if external {
		s.timer = s.clock.AfterFunc(s.debounce, func() { s.dispatch(seq, query) })
	}
	ver, st := s.stageLocked()
	s.mu.Unlock()
	s.publish(seq, ver, st)
}

// Clear resets the session and discards any pending or in-flight lookup.
func (s *Session) Clear() {
	s.mu.Lock()
	seq := s.supersedeLocked()
	s.state = State{}
	ver, st := s.stageLocked()
	s.mu.Unlock()
	s.publish(seq, ver, st)
}

// SortNearby returns the indexed beaches ordered by distance from origin.
func (s *Session) SortNearby(origin *domain.Coordinates) []domain.BeachRecord {
	return s.svc.Nearby(origin)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops any pending or in-flight lookup.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
}

func (s *Session) dispatch(seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	res := s.svc.Search(ctx, query)
	cancel()

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.state = State{Query: query, Records: res.Records, Notice: res.Notice}
	ver, st := s.stageLocked()
	s.mu.Unlock()
	s.publish(seq, ver, st)
}

// supersedeLocked invalidates outstanding work and returns the new sequence
// token.
func (s *Session) supersedeLocked() uint64 {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.seq
}

func (s *Session) snapshotLocked() State {
	st := s.state
	if st.Records != nil {
		st.Records = append([]domain.UnifiedBeachRecord(nil), st.Records...)
	}
	return st
}

// stageLocked stamps the current state with a new version for publishing.
func (s *Session) stageLocked() (uint64, State) {
	s.version++
	return s.version, s.snapshotLocked()
}

// publish hands st to onChange unless its search was superseded or a newer
// state already went out.
func (s *Session) publish(seq, version uint64, st State) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if version <= s.delivered {
		return
	}
	s.mu.Lock()
	current := seq == s.seq
	s.mu.Unlock()
	if current {
		s.delivered = version
		s.onChange(st)
	}
}
