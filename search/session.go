// Package search drives one live-search box over a data provider.
//
// A Session remembers the current criteria, the results loaded so far and
// the identity of the newest request. Responses to superseded requests are
// dropped with ErrStale, so a slow first query can never overwrite the
// results of a later one.
package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
)

// ErrStale is returned for a response whose request was superseded by a
// later Query, LoadMore or Reset.
var ErrStale = errors.New("search: response superseded by a newer request")

// Elements is an ordered element mapping keyed by IRI.
type Elements = model.Dict[*model.Element]

// Searcher runs one page of a filtered search. provider.Provider
// implements it.
type Searcher interface {
	FilterExtended(ctx context.Context, req model.FilterRequest) (*Elements, error)
}

// Result is a snapshot of a session after a request completed.
type Result struct {
	RequestID          uuid.UUID
	Criteria           model.FilterRequest
	Items              *Elements
	MoreItemsAvailable bool
}

// Session is safe for concurrent use. Only the newest request can change
// its state.
type Session struct {
	searcher Searcher
	pageSize int
	logger   *slog.Logger

	mu       sync.Mutex
	current  uuid.UUID
	criteria model.FilterRequest
	items    *Elements
	more     bool
}

// Option configures a Session.
type Option func(*Session)

// WithPageSize sets the limit used when criteria carry none.
func WithPageSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession returns an empty session over searcher.
func NewSession(searcher Searcher, opts ...Option) *Session {
	s := &Session{
		searcher: searcher,
		pageSize: model.DefaultPageSize,
		logger:   slog.Default(),
		items:    model.NewDict[*model.Element](0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "search")
	return s
}

// Query replaces the criteria and loads the first page. Empty criteria
// clear the results without calling the searcher.
func (s *Session) Query(ctx context.Context, criteria model.FilterRequest) (Result, error) {
	criteria.Offset = 0
	if criteria.Limit == 0 {
		criteria.Limit = s.pageSize
	}

	s.mu.Lock()
	id := s.begin()
	s.criteria = criteria
	s.items = model.NewDict[*model.Element](0)
	s.more = false
	if criteria.Empty() {
		res := s.snapshot()
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	page, err := s.searcher.FilterExtended(ctx, criteria)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != id {
		s.logger.Debug("discarding stale response", "request_id", id)
		return Result{}, ErrStale
	}
	if err != nil {
		return Result{}, err
	}
	s.items = page
	if s.items == nil {
		s.items = model.NewDict[*model.Element](0)
	}
	s.more = criteria.MoreAvailable(page.Len())
	return s.snapshot(), nil
}

// LoadMore fetches the page after the last one loaded and appends it. It
// returns the unchanged snapshot when no more items are available.
func (s *Session) LoadMore(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if !s.more || s.criteria.Empty() {
		res := s.snapshot()
		s.mu.Unlock()
		return res, nil
	}
	id := s.begin()
	next := s.criteria.Next()
	s.mu.Unlock()

	page, err := s.searcher.FilterExtended(ctx, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != id {
		s.logger.Debug("discarding stale page", "request_id", id, "offset", next.Offset)
		return Result{}, ErrStale
	}
	if err != nil {
		return Result{}, err
	}
	page.Range(func(key string, el *model.Element) bool {
		s.items.Set(key, el)
		return true
	})
	s.criteria = next
	s.more = next.MoreAvailable(page.Len())
	return s.snapshot(), nil
}

// Reset clears the session and invalidates any request in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin()
	s.criteria = model.FilterRequest{}
	s.items = model.NewDict[*model.Element](0)
	s.more = false
}

// Current returns a snapshot of the session state.
func (s *Session) Current() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// begin makes a new request current. Callers hold mu.
func (s *Session) begin() uuid.UUID {
	s.current = uuid.New()
	return s.current
}

// snapshot copies the session state. Callers hold mu.
func (s *Session) snapshot() Result {
	items := model.NewDict[*model.Element](s.items.Len())
	s.items.Range(func(key string, el *model.Element) bool {
		items.Set(key, el)
		return true
	})
	return Result{
		RequestID:          s.current,
		Criteria:           s.criteria,
		Items:              items,
		MoreItemsAvailable: s.more,
	}
}
