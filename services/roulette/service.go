package roulette

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"nido/models"
)

var (
	ErrEmptyPool      = errors.New("no eligible candidates for this filter")
	ErrSpinInProgress = errors.New("a spin is already running")
)

type planSource interface {
	Plans() []models.Plan
}

type watchSource interface {
	Items() []models.WatchItem
}

// State is the observable spin state: the pool, the currently highlighted
// candidate and, once the reveal finishes, the winner.
type State struct {
	Spinning  bool               `json:"spinning"`
	Filter    Filter             `json:"filter"`
	Pool      []models.Candidate `json:"pool"`
	Highlight int                `json:"highlight"` // -1 when idle
	Winner    *models.Candidate  `json:"winner,omitempty"`
}

// Service runs the reveal server-side: a spin precomputes the whole step
// sequence and timers advance the highlight until the winner locks in.
type Service struct {
	plans planSource
	watch watchSource
	rng   *rand.Rand

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
	state State
}

// NewService builds a spinner over the two candidate sources.
func NewService(plans planSource, watch watchSource) *Service {
	return &Service{
		plans: plans,
		watch: watch,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		state: State{Highlight: -1},
	}
}

// Close cancels any running reveal.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// State returns a copy of the current spin state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Spin starts a new reveal over the filtered pool. While a reveal is running
// further spins are rejected and the running one is left untouched. An empty
// pool is rejected without mutating state.
func (s *Service) Spin(f Filter) (State, error) {
	if f.Source == "" {
		f.Source = SourceBoth
	}

	pool := BuildPool(s.plans.Plans(), s.watch.Items(), f)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Spinning {
		return s.state, ErrSpinInProgress
	}
	if len(pool) == 0 {
		return s.state, ErrEmptyPool
	}

	draw := NewDraw(pool, s.rng)

	s.gen++
	s.state = State{
		Spinning:  true,
		Filter:    f,
		Pool:      draw.Pool,
		Highlight: draw.Steps[0].Index,
	}
	s.scheduleLocked(s.gen, draw, 1)

	return s.state, nil
}

// scheduleLocked arms the timer for step next of draw. Called with mu held.
func (s *Service) scheduleLocked(gen uint64, draw Draw, next int) {
	delay := draw.Confirm
	if next < len(draw.Steps) {
		delay = draw.Steps[next-1].Delay
	}
	s.timer = time.AfterFunc(delay, func() { s.advance(gen, draw, next) })
}

func (s *Service) advance(gen uint64, draw Draw, next int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer spin or Close superseded this reveal.
	if gen != s.gen {
		return
	}

	if next < len(draw.Steps) {
		s.state.Highlight = draw.Steps[next].Index
		s.scheduleLocked(gen, draw, next+1)
		return
	}

	winner := draw.Pool[draw.Winner]
	s.state.Spinning = false
	s.state.Highlight = draw.Winner
	s.state.Winner = &winner
	s.timer = nil
}

// Reset clears the last result so the wheel shows idle again.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = State{Highlight: -1}
}

func (s *Service) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
