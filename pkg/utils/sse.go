package utils

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SetupSSEHeaders 设置Server-Sent Events响应头
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// SendSSEData 发送一个只含数据的SSE消息，多行文本拆成多个 data 字段，客户端可按原样还原换行。
func SendSSEData(w io.Writer, flusher http.Flusher, data string) error {
	if err := writeSSEData(w, data); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write sse terminator: %w", err)
	}
	flusher.Flush()
	return nil
}

// SendSSEEvent 发送带事件类型的SSE消息
func SendSSEEvent(w io.Writer, flusher http.Flusher, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return fmt.Errorf("failed to write sse event: %w", err)
	}
	return SendSSEData(w, flusher, data)
}

func writeSSEData(w io.Writer, data string) error {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")

	for _, line := range strings.Split(data, "\n") {
		field := "data:\n"
		if line != "" {
			field = "data: " + line + "\n"
		}
		if _, err := io.WriteString(w, field); err != nil {
			return fmt.Errorf("failed to write sse payload: %w", err)
		}
	}
	return nil
}
