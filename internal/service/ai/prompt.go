package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/saint-chat/backend/internal/model/persona"
)

// PromptTemplate holds the instructions layered on top of a persona.
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// DefaultTemplate returns the spiritual-guide instructions.
func DefaultTemplate() PromptTemplate {
	return PromptTemplate{
		SystemPrompt: "You are a Hindu Jain spiritual saint. Follow all concepts of Jainism and act as a spiritual guide, helping people with your knowledge and wisdom.",
		PersonalityHints: []string{
			"Answer like a human saint would, in calm paragraphs",
			"Use gentle stories and examples from the scriptures when they help",
			"Never judge the seeker; meet anger and doubt with compassion",
		},
		ContextRules: []string{
			"Answer in English by default",
			"If the question is asked in Hindi, answer in Hindi",
			"Stay within the teachings below; say so when a question is outside them",
		},
	}
}

// BuildSystemPrompt assembles the system prompt once from the template and
// the persona's knowledge base.
func BuildSystemPrompt(tmpl PromptTemplate, p persona.Persona) string {
	return fmt.Sprintf(`%s

Persona:
- Name: %s
- Title: %s
- Tone: %s

Guidance:
- %s

Rules:
- %s

Some more knowledge is here:
%s`,
		tmpl.SystemPrompt,
		p.Name,
		p.Title,
		p.Tone,
		strings.Join(append(append([]string(nil), tmpl.PersonalityHints...), p.PromptHint), "\n- "),
		strings.Join(tmpl.ContextRules, "\n- "),
		p.KnowledgeBase,
	)
}
