package compare

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tablediff/internal/table"
)

// Service owns the current session and keeps at most one comparison
// running. Starting a comparison cancels the one in flight and waits for
// it to stop; its result is discarded.
type Service struct {
	mu      sync.Mutex
	current *Session
	cancel  context.CancelFunc
	gen     uint64

	// done is closed when the most recently started run returns.
	done chan struct{}
}

// NewService returns an empty service.
func NewService() *Service {
	return &Service{}
}

// Load replaces the current session with a new, uncompared one and
// abandons any comparison in flight.
func (s *Service) Load(a, b *table.Table) *Session {
	sess := NewSession(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked()
	s.current = sess
	return sess
}

// Compare runs a comparison and makes it the current session. It returns
// ErrSuperseded if another Compare, Load or Reset arrived first, and the
// context error if ctx ends while the previous run is still stopping.
func (s *Service) Compare(ctx context.Context, a, b *table.Table, opts Options) (*Session, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	defer close(done)

	s.mu.Lock()
	prev := s.done
	s.abandonLocked()
	s.cancel, s.done = cancel, done
	gen := s.gen
	s.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "compare: wait for previous run")
		}
	}

	sess, err := Run(runCtx, a, b, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		if sess != nil {
			zap.L().Debug("compare: discarding superseded result", zap.String("session", sess.ID))
		}
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return nil, err
	}
	s.current = sess
	return sess, nil
}

// Current returns the current session, or nil before anything was loaded.
func (s *Service) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset drops the current session and abandons any comparison in flight.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked()
	s.current = nil
}

func (s *Service) abandonLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = nil
	s.gen++
}
