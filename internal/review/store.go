package review

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/resort-storefront/internal/apiclient"
	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/session"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrMissingToken  = errors.New("verification token is required")
)

const (
	msgFetchFailed  = "Failed to fetch reviews"
	msgAddFailed    = "Failed to submit review"
	msgAdded        = "Review submitted successfully"
	msgVerifyFailed = "Failed to verify review link"
)

// Service is the remote review service.
type Service interface {
	GetReviews(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error)
	AddReview(ctx context.Context, authToken string, sub model.ReviewSubmission) error
	VerifyReview(ctx context.Context, token string) (*model.ReviewVerification, error)
}

// State is a snapshot of the store. AlreadyExists is kept apart from Error
// so a page can tell "this booking was already reviewed" from a generic
// failure.
type State struct {
	Reviews       []model.Review
	Loading       bool
	Error         string
	Success       string
	AlreadyExists string
	Verification  *model.ReviewVerification
}

// Store holds fetched reviews and the outcome of submissions. Methods never
// return errors; failures land in State.
type Store struct {
	svc Service
	log logger.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	subs  map[int]func(State)
	next  int
}

func NewStore(svc Service, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop{}
	}
	return &Store{svc: svc, log: log, subs: map[int]func(State){}}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to receive every state change. The returned func
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Fetch replaces the review list with the reviews matching filter. On
// failure the previous list is kept. A response that arrives after a newer
// Fetch was issued is dropped.
func (s *Store) Fetch(ctx context.Context, filter model.ReviewFilter) {
	gen := s.update(func(st *State) uint64 {
		s.gen++
		st.Loading = true
		st.Error = ""
		return s.gen
	})

	reviews, err := s.svc.GetReviews(ctx, filter)

	s.mu.Lock()
	if gen != s.gen {
		cur := s.gen
		s.mu.Unlock()
		s.log.Debug("review fetch %d superseded by %d; dropping response", gen, cur)
		return
	}
	s.state.Loading = false
	if err != nil {
		s.state.Error = messageOr(err, msgFetchFailed)
		s.log.Error("fetch reviews %+v: %v", filter, err)
	} else {
		if reviews == nil {
			reviews = []model.Review{}
		}
		s.state.Reviews = reviews
	}
	s.commitLocked()
}

// Add submits a review. The local list is left alone; callers re-fetch.
func (s *Store) Add(ctx context.Context, id session.Identity, sub model.ReviewSubmission) {
	if err := validateSubmission(sub); err != nil {
		s.update(func(st *State) uint64 {
			st.Error = err.Error()
			st.Success = ""
			return 0
		})
		return
	}

	s.update(func(st *State) uint64 {
		st.Loading = true
		st.Error = ""
		st.Success = ""
		return 0
	})

	err := s.svc.AddReview(ctx, id.Token, sub)

	s.update(func(st *State) uint64 {
		st.Loading = false
		if err != nil {
			st.Error = messageOr(err, msgAddFailed)
			s.log.Error("add review for booking %s: %v", sub.BookingID, err)
			return 0
		}
		st.Success = msgAdded
		return 0
	})
}

// Verify exchanges a verification token for the identity needed to prefill
// the review form.
func (s *Store) Verify(ctx context.Context, token string) {
	if token == "" {
		s.update(func(st *State) uint64 {
			st.Error = ErrMissingToken.Error()
			return 0
		})
		return
	}

	s.update(func(st *State) uint64 {
		st.Loading = true
		st.Error = ""
		st.AlreadyExists = ""
		st.Verification = nil
		return 0
	})

	v, err := s.svc.VerifyReview(ctx, token)

	s.update(func(st *State) uint64 {
		st.Loading = false
		if err == nil {
			st.Verification = v
			return 0
		}
		if msg, ok := apiclient.MessageOf(err); ok {
			st.AlreadyExists = msg
		} else {
			st.Error = msgVerifyFailed
		}
		s.log.Error("verify review token: %v", err)
		return 0
	})
}

func validateSubmission(sub model.ReviewSubmission) error {
	if sub.Rating < 1 || sub.Rating > 5 {
		return ErrInvalidRating
	}
	if sub.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func messageOr(err error, fallback string) string {
	if msg, ok := apiclient.MessageOf(err); ok {
		return msg
	}
	return fallback
}

// update mutates state under the lock and then notifies subscribers.
func (s *Store) update(fn func(*State) uint64) uint64 {
	s.mu.Lock()
	v := fn(&s.state)
	s.commitLocked()
	return v
}

// commitLocked must be called with s.mu held; it releases the lock.
func (s *Store) commitLocked() {
	snap := s.snapshot()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) snapshot() State {
	st := s.state
	if s.state.Reviews != nil {
		st.Reviews = append([]model.Review(nil), s.state.Reviews...)
	}
	return st
}
