package chat

// Transcript is the read-only view of a session returned by the API.
type Transcript struct {
	SessionID string `json:"sessionId"`
	Turns     []Turn `json:"turns"`
}
