package persona

import (
	_ "embed"
	"strings"
)

//go:embed knowledge.txt
var knowledgeText string

// KnowledgeBase returns the static domain text shared by every session.
func KnowledgeBase() string {
	return strings.TrimSpace(knowledgeText)
}
