package chat

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
)

// DefaultMockDelay is the pause between echoed characters.
const DefaultMockDelay = 10 * time.Millisecond

// Echo replies deterministically, one character at a time, so the whole
// pipeline can run without a model.
type Echo struct {
	Delay    time.Duration
	Greeting string
}

// NewEcho returns an Echo that primes with greeting.
func NewEcho(delay time.Duration, greeting string) *Echo {
	return &Echo{Delay: delay, Greeting: greeting}
}

// MockReply is the text Echo streams back for message.
func MockReply(message string) string {
	return fmt.Sprintf("You said: %s\nThis is a mock streamed reply.", message)
}

// Complete streams MockReply(message). History is ignored.
func (e *Echo) Complete(ctx context.Context, _ []chat.Turn, message string) iter.Seq2[string, error] {
	return e.spell(ctx, MockReply(message))
}

// Prime streams the configured greeting.
func (e *Echo) Prime(ctx context.Context) iter.Seq2[string, error] {
	return e.spell(ctx, e.Greeting)
}

func (e *Echo) spell(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, r := range text {
			if !yield(string(r), nil) {
				return
			}
			if e.Delay <= 0 {
				continue
			}

			timer := time.NewTimer(e.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				yield("", ctx.Err())
				return
			case <-timer.C:
			}
		}
	}
}
