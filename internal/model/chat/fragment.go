package chat

import "fmt"

// Fragment is a single incremental piece of generated text.
type Fragment struct {
	Content string `json:"content"`
}

// ErrorFragment renders err as an inline marker shown in place of a reply.
func ErrorFragment(err error) Fragment {
	return Fragment{Content: fmt.Sprintf("[Error: %v]", err)}
}
