package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendSSEDataSingleLine(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SendSSEData(rec, rec, "namaste"))
	require.Equal(t, "data: namaste\n\n", rec.Body.String())
	require.True(t, rec.Flushed)
}

func TestSendSSEDataSplitsLines(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SendSSEData(rec, rec, "one\ntwo\r\nthree"))
	require.Equal(t, "data: one\ndata: two\ndata: three\n\n", rec.Body.String())
}

func TestSendSSEDataNewlineOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SendSSEData(rec, rec, "\n"))
	require.Equal(t, "data:\ndata:\n\n", rec.Body.String())
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SendSSEEvent(rec, rec, "done", "[DONE]"))
	require.NoError(t, SendSSEEvent(rec, rec, "done", ""))
	require.Equal(t, "event: done\ndata: [DONE]\n\nevent: done\ndata:\n\n", rec.Body.String())
}

func TestSetupSSEHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	require.Empty(t, rec.Header().Values("Access-Control-Allow-Origin"))
}
