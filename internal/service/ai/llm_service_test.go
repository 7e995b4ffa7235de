package ai

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
	"github.com/zhouzirui/saint-chat/backend/internal/model/persona"
)

type fakeChatModel struct {
	mu      sync.Mutex
	inputs  [][]*schema.Message
	replies []string
	err     error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.record(input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(strings.Join(f.replies, ""), nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.record(input)
	if f.err != nil {
		return nil, f.err
	}

	chunks := make([]*schema.Message, 0, len(f.replies))
	for _, reply := range f.replies {
		chunks = append(chunks, schema.AssistantMessage(reply, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (f *fakeChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

func (f *fakeChatModel) record(input []*schema.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
}

func (f *fakeChatModel) lastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

func collect(t *testing.T, seq iter.Seq2[string, error]) (string, error) {
	t.Helper()
	var builder strings.Builder
	for text, err := range seq {
		if err != nil {
			return builder.String(), err
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

func TestCompletePrefixesSystemPromptAndHistory(t *testing.T) {
	fake := &fakeChatModel{replies: []string{"Be ", "", "calm."}}
	svc, err := NewServiceWithModel(context.Background(), fake, Options{SystemPrompt: "you are a saint {not a placeholder}"})
	require.NoError(t, err)

	history := []chat.Turn{chat.HumanTurn("hello"), chat.AssistantTurn("namaste")}
	reply, err := collect(t, svc.Complete(context.Background(), history, "how do I forgive?"))
	require.NoError(t, err)
	require.Equal(t, "Be calm.", reply)

	input := fake.lastInput()
	require.Len(t, input, 4)
	require.Equal(t, schema.System, input[0].Role)
	require.Equal(t, "you are a saint {not a placeholder}", input[0].Content)
	require.Equal(t, schema.User, input[1].Role)
	require.Equal(t, "hello", input[1].Content)
	require.Equal(t, schema.Assistant, input[2].Role)
	require.Equal(t, "namaste", input[2].Content)
	require.Equal(t, schema.User, input[3].Role)
	require.Equal(t, "how do I forgive?", input[3].Content)
}

func TestCompleteHonoursHistoryLimit(t *testing.T) {
	fake := &fakeChatModel{replies: []string{"ok"}}
	svc, err := NewServiceWithModel(context.Background(), fake, Options{SystemPrompt: "sys", HistoryLimit: 2})
	require.NoError(t, err)

	history := []chat.Turn{
		chat.HumanTurn("one"), chat.AssistantTurn("uno"),
		chat.HumanTurn("two"), chat.AssistantTurn("dos"),
	}
	_, err = collect(t, svc.Complete(context.Background(), history, "three"))
	require.NoError(t, err)

	input := fake.lastInput()
	require.Len(t, input, 4)
	require.Equal(t, "two", input[1].Content)
	require.Equal(t, "dos", input[2].Content)
}

func TestCompleteSurfacesProviderError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	svc, err := NewServiceWithModel(context.Background(), fake, Options{SystemPrompt: "sys"})
	require.NoError(t, err)

	_, err = collect(t, svc.Complete(context.Background(), nil, "hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestPrimeSendsOnlySystemPrompt(t *testing.T) {
	fake := &fakeChatModel{replies: []string{"Wel", "come"}}
	svc, err := NewServiceWithModel(context.Background(), fake, Options{SystemPrompt: "sys"})
	require.NoError(t, err)

	greeting, err := collect(t, svc.Prime(context.Background()))
	require.NoError(t, err)
	require.Equal(t, "Welcome", greeting)

	input := fake.lastInput()
	require.Len(t, input, 1)
	require.Equal(t, schema.User, input[0].Role)
	require.Equal(t, "sys", input[0].Content)
}

func TestUnavailableYieldsConfigurationError(t *testing.T) {
	u := Unavailable{Err: errors.New("missing key")}

	_, err := collect(t, u.Complete(context.Background(), nil, "hi"))
	require.EqualError(t, err, "missing key")

	_, err = collect(t, u.Prime(context.Background()))
	require.EqualError(t, err, "missing key")
}

func TestBuildSystemPromptIncludesKnowledgeBase(t *testing.T) {
	p := persona.Default()
	prompt := BuildSystemPrompt(DefaultTemplate(), p)

	require.True(t, strings.HasPrefix(prompt, DefaultTemplate().SystemPrompt))
	require.Contains(t, prompt, p.KnowledgeBase)
	require.Contains(t, prompt, p.PromptHint)
	require.Contains(t, prompt, "Ahimsa")
}
