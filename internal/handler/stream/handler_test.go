package stream

import (
	"context"
	"iter"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/go-sse"

	"github.com/zhouzirui/saint-chat/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/saint-chat/backend/internal/service/chat"
)

type fakeStreamer struct {
	mu        sync.Mutex
	calls     int
	sessions  []string
	messages  []string
	fragments []string
}

func (f *fakeStreamer) Stream(_ context.Context, sessionID, message string) iter.Seq[chat.Fragment] {
	f.mu.Lock()
	f.calls++
	f.sessions = append(f.sessions, sessionID)
	f.messages = append(f.messages, message)
	f.mu.Unlock()

	return func(yield func(chat.Fragment) bool) {
		for _, text := range f.fragments {
			if !yield(chat.Fragment{Content: text}) {
				return
			}
		}
	}
}

func setupRouter(streamer ChatStreamer) *chi.Mux {
	r := chi.NewRouter()
	New(streamer).RegisterRoutes(r)
	return r
}

func doStream(t *testing.T, r http.Handler, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/stream?"+query.Encode(), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func readEvents(t *testing.T, body string) []sse.Event {
	t.Helper()
	var events []sse.Event
	for ev, err := range sse.Read(strings.NewReader(body), nil) {
		require.NoError(t, err)
		events = append(events, ev)
	}
	return events
}

func TestStreamEmitsFragmentsThenSingleDone(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"Peace ", "", "be ", "with you."}}
	resp := doStream(t, setupRouter(streamer), url.Values{"message": {"hello"}, "session_id": {"s1"}})

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", resp.Header().Get("Cache-Control"))
	require.Equal(t, "no", resp.Header().Get("X-Accel-Buffering"))

	events := readEvents(t, resp.Body.String())
	require.Len(t, events, 4)

	var text strings.Builder
	done := 0
	for i, ev := range events {
		if ev.Type == doneEvent {
			done++
			require.Equal(t, len(events)-1, i, "done must be the final event")
			require.Equal(t, donePayload, ev.Data)
			continue
		}
		text.WriteString(ev.Data)
	}
	require.Equal(t, 1, done)
	require.Equal(t, "Peace be with you.", text.String())
	require.Equal(t, []string{"s1"}, streamer.sessions)
}

func TestStreamBlankMessageOnlySendsDone(t *testing.T) {
	for _, message := range []string{"", "   ", "\t\n"} {
		streamer := &fakeStreamer{fragments: []string{"unused"}}
		resp := doStream(t, setupRouter(streamer), url.Values{"message": {message}})

		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, "event: done\ndata:\n\n", resp.Body.String())
		require.Equal(t, 0, streamer.calls)
	}
}

func TestStreamDefaultsSessionAndTrimsMessage(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"ok"}}
	doStream(t, setupRouter(streamer), url.Values{"message": {"  hi  "}})

	require.Equal(t, []string{chat.DefaultSessionID}, streamer.sessions)
	require.Equal(t, []string{"hi"}, streamer.messages)
}

func TestStreamWithMockStrategy(t *testing.T) {
	streamer := chatservice.NewMockStreamer(chatservice.NewEcho(0, ""), chatservice.NewStore())
	resp := doStream(t, setupRouter(streamer), url.Values{"message": {"hi"}, "session_id": {"mock"}})

	body := resp.Body.String()
	require.True(t, strings.HasPrefix(body, "data: Y\n\ndata: o\n\ndata: u\n\n"))
	require.Contains(t, body, "data:\ndata:\n\n")
	require.True(t, strings.HasSuffix(body, "data: .\n\nevent: done\ndata: [DONE]\n\n"))
	require.Equal(t, 1, strings.Count(body, "event: done"))
}
