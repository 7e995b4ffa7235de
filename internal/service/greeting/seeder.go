// Package greeting precomputes the chat page's opening message in the
// background and hands it out through a bounded wait.
package greeting

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// ReservedSessionID labels the seeding call; it never names a user session.
	ReservedSessionID = "__greeting__"

	// Fallback is published when seeding fails or produces nothing.
	Fallback = "Welcome, seeker. How may I help you find peace today?"

	// DefaultTimeout bounds how long a page waits for the greeting.
	DefaultTimeout = 12 * time.Second
)

var errEmptyGreeting = errors.New("model returned an empty greeting")

// Source streams a greeting from the system prompt alone.
type Source interface {
	Prime(ctx context.Context) iter.Seq2[string, error]
}

// Seeder computes the greeting exactly once. The value is written once and
// then stable, so readers only wait on done rather than take a lock.
type Seeder struct {
	source   Source
	fallback string
	timeout  time.Duration

	once  sync.Once
	done  chan struct{}
	value atomic.Pointer[string]
}

// NewSeeder prepares a seeder; nothing runs until Start or Run.
func NewSeeder(source Source, fallback string, timeout time.Duration) *Seeder {
	if fallback == "" {
		fallback = Fallback
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Seeder{
		source:   source,
		fallback: fallback,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Start runs the seeder in its own goroutine.
func (s *Seeder) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run computes and publishes the greeting. Only the first call does any work;
// later calls return immediately.
func (s *Seeder) Run(ctx context.Context) {
	s.once.Do(func() {
		defer close(s.done)

		logger := log.With().Str("component", "seed").Str("session", ReservedSessionID).Logger()
		start := time.Now()

		greeting, err := s.assemble(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("greeting seeding failed, using fallback")
			greeting = s.fallback
		} else {
			logger.Info().Dur("elapsed", time.Since(start)).Int("bytes", len(greeting)).Msg("greeting ready")
		}
		s.value.Store(&greeting)
	})
}

func (s *Seeder) assemble(ctx context.Context) (greeting string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("greeting source panicked: %v", r)
		}
	}()

	var builder strings.Builder
	for text, err := range s.source.Prime(ctx) {
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", errEmptyGreeting
	}
	return builder.String(), nil
}

// Ready reports whether the greeting has been published.
func (s *Seeder) Ready() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Greeting returns the published greeting, or "" while seeding is running.
func (s *Seeder) Greeting() string {
	if value := s.value.Load(); value != nil {
		return *value
	}
	return ""
}

// Wait blocks until the greeting is ready, the timeout passes, or ctx ends,
// then returns whatever is currently published.
func (s *Seeder) Wait(ctx context.Context) string {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		log.Warn().Str("component", "seed").Dur("timeout", s.timeout).Msg("greeting not ready in time")
	case <-ctx.Done():
	}
	return s.Greeting()
}
