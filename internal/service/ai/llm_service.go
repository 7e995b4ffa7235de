package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/saint-chat/backend/internal/config"
	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
)

// Options tunes how conversations are handed to the model.
type Options struct {
	SystemPrompt string
	// HistoryLimit caps the turns forwarded per request; zero forwards all.
	HistoryLimit int
}

// Service streams completions from the configured chat model.
type Service struct {
	chatModel model.ChatModel
	opts      Options
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the ark chat model from cfg and wraps it.
func NewService(ctx context.Context, cfg config.AIConfig, opts Options) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewServiceWithModel(ctx, chatModel, opts)
}

// NewServiceWithModel wraps an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, opts Options) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		opts:      opts,
		chain:     runnable,
	}, nil
}

// Complete streams the model's reply to message, given the prior turns of
// the conversation. The system prompt always leads the context.
func (s *Service) Complete(ctx context.Context, history []chat.Turn, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := s.chain.Stream(ctx, s.buildChainInput(history, message))
		if err != nil {
			yield("", fmt.Errorf("failed to stream AI chain output: %w", err))
			return
		}
		drain(stream, yield)
	}
}

// Prime streams the model's answer to the system prompt alone, sent as the
// user turn.
func (s *Service) Prime(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := s.chatModel.Stream(ctx, []*schema.Message{schema.UserMessage(s.opts.SystemPrompt)})
		if err != nil {
			yield("", fmt.Errorf("failed to stream greeting: %w", err))
			return
		}
		drain(stream, yield)
	}
}

// drain relays non-empty chunks until EOF, the first error, or the consumer stops.
func drain(stream *schema.StreamReader[*schema.Message], yield func(string, error) bool) {
	defer stream.Close()

	chunks := 0
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			log.Debug().Str("component", "ai").Int("chunks", chunks).Msg("stream finished")
			return
		}
		if err != nil {
			yield("", err)
			return
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		chunks++
		if !yield(chunk.Content, nil) {
			return
		}
	}
}

func (s *Service) buildChainInput(history []chat.Turn, message string) map[string]any {
	return map[string]any{
		"system":  s.opts.SystemPrompt,
		"history": s.buildHistoryMessages(history),
		"query":   message,
	}
}

func (s *Service) buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if limit := s.opts.HistoryLimit; limit > 0 && len(turns) > limit {
		startIdx = len(turns) - limit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case chat.RoleHuman:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return history
}

// Unavailable answers every request with the error that kept the chat
// model from being built, so the process keeps serving pages.
type Unavailable struct {
	Err error
}

// Complete yields u.Err.
func (u Unavailable) Complete(_ context.Context, _ []chat.Turn, _ string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", u.Err)
	}
}

// Prime yields u.Err.
func (u Unavailable) Prime(_ context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", u.Err)
	}
}
