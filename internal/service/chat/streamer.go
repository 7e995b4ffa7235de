package chat

import (
	"context"
	"iter"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
)

// Completer produces a reply to message given the earlier turns of the
// same conversation.
type Completer interface {
	Complete(ctx context.Context, history []chat.Turn, message string) iter.Seq2[string, error]
}

// Strategy names the completer a Streamer was built with.
type Strategy string

const (
	StrategyLive Strategy = "live"
	StrategyMock Strategy = "mock"
)

// Streamer runs completions for a session and records finished exchanges.
type Streamer struct {
	strategy  Strategy
	completer Completer
	store     *Store
}

// NewStreamer binds completer to store.
func NewStreamer(strategy Strategy, completer Completer, store *Store) *Streamer {
	return &Streamer{
		strategy:  strategy,
		completer: completer,
		store:     store,
	}
}

// NewLiveStreamer streams from a remote model.
func NewLiveStreamer(live Completer, store *Store) *Streamer {
	return NewStreamer(StrategyLive, live, store)
}

// NewMockStreamer echoes input back without contacting a model.
func NewMockStreamer(mock *Echo, store *Store) *Streamer {
	return NewStreamer(StrategyMock, mock, store)
}

// Strategy reports which completer is active.
func (s *Streamer) Strategy() Strategy {
	return s.strategy
}

// Stream yields the reply to message in the session sessionID.
//
// Completion errors never escape: they are rendered as a single error
// fragment and the sequence ends. The human message and the full reply are
// appended to the session together once the completer finishes; failed or
// abandoned exchanges leave the history untouched. Concurrent streams on the
// same session may interleave their exchanges.
func (s *Streamer) Stream(ctx context.Context, sessionID, message string) iter.Seq[chat.Fragment] {
	return func(yield func(chat.Fragment) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		logger := log.With().Str("component", "stream").Str("session", sessionID).Str("strategy", string(s.strategy)).Logger()

		history := s.store.GetOrCreate(sessionID)
		prior := history.Turns()

		var reply strings.Builder
		for text, err := range s.completer.Complete(ctx, prior, message) {
			if err != nil {
				logger.Warn().Err(err).Msg("completion failed")
				yield(chat.ErrorFragment(err))
				return
			}
			if text == "" {
				continue
			}

			reply.WriteString(text)
			if !yield(chat.Fragment{Content: text}) {
				logger.Info().Int("bytes", reply.Len()).Msg("consumer stopped before completion finished")
				return
			}
		}

		history.Append(chat.HumanTurn(message), chat.AssistantTurn(reply.String()))
		logger.Info().Int("turns", history.Len()).Int("bytes", reply.Len()).Msg("completed response")
	}
}
