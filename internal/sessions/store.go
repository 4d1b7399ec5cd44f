// Package sessions holds the booking workflows the gateway serves, one per
// patient screen, and expires idle ones.
package sessions

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/patient-booking/internal/doctors"
	"github.com/wolfman30/patient-booking/internal/observability/metrics"
	"github.com/wolfman30/patient-booking/internal/workflow"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("sessions: not found")

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * time.Minute

// Session is one patient's booking screen.
type Session struct {
	ID         string
	DoctorID   doctors.ID
	Guest      bool
	Controller *workflow.Controller
	CreatedAt  time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Summary is the admin listing row.
type Summary struct {
	ID         string                    `json:"id"`
	DoctorID   doctors.ID                `json:"doctor_id"`
	Guest      bool                      `json:"guest"`
	CreatedAt  time.Time                 `json:"created_at"`
	LastSeen   time.Time                 `json:"last_seen"`
	Submission workflow.SubmissionStatus `json:"submission"`
}

// Store keeps sessions in memory.
type Store struct {
	ttl     time.Duration
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.BookingMetrics

	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics reports the active session count.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store. Call Start to run the janitor.
func NewStore(ttl time.Duration, logger *logging.Logger, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a controller under a new id.
func (s *Store) Create(doctorID doctors.ID, guest bool, ctrl *workflow.Controller) *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		DoctorID:   doctorID,
		Guest:      guest,
		Controller: ctrl,
		CreatedAt:  now,
		lastSeen:   now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
	return sess
}

// Get returns a live session and marks it used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if now.Sub(sess.LastSeen()) > s.ttl {
		s.remove(id)
		return nil, ErrNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Delete ends a session.
func (s *Store) Delete(id string) error {
	if !s.remove(id) {
		return ErrNotFound
	}
	return nil
}

func (s *Store) remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.Controller.Close()
	s.metrics.SetActiveSessions(n)
	return true
}

// List returns summaries ordered by creation time.
func (s *Store) List() []Summary {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, Summary{
			ID:         sess.ID,
			DoctorID:   sess.DoctorID,
			Guest:      sess.Guest,
			CreatedAt:  sess.CreatedAt,
			LastSeen:   sess.LastSeen(),
			Submission: sess.Controller.Snapshot().Submission.Status,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of held sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns how many.
func (s *Store) Sweep(now time.Time) int {
	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen()) > s.ttl {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		if s.remove(id) {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("sessions: expired idle sessions", "count", removed)
	}
	return removed
}

// Start runs Sweep every interval until Close.
func (s *Store) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Sweep(s.now())
			}
		}
	}()
}

// Close stops the janitor and ends every session.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	s.mu.Lock()
	held := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range held {
		sess.Controller.Close()
	}
	s.metrics.SetActiveSessions(0)
}
