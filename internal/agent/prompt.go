package agent

import "strings"

// defaultSystemPrompt teaches the model the directive vocabulary. Kept
// deliberately short: small local models follow terse instructions better.
const defaultSystemPrompt = `You are a coding assistant with tool access. You may use these tags:
<list>dir</list> - list a directory
<read>path</read> - load a file into context
<read path="p"/> - show a file's content inline
<run>command</run> - run a shell command
<create path="p">content</create> - create or overwrite a file
<edit path="p"><old>text</old><new>text</new></edit> - replace text in a file
<change file="p"><description>what</description><old>text</old><new>text</new></change> - apply a patch
<delete path="p"/> - delete a file (asks for confirmation)
<gui>html</gui> - show an HTML page
<url>address</url> - open a URL
Use tags only when an action is needed. Otherwise answer in plain text.`

// PromptBuilder assembles the outbound prompt from the system prompt,
// the capped context and history, and the new user message.
type PromptBuilder struct {
	system string
}

func NewPromptBuilder(system string) *PromptBuilder {
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}
	return &PromptBuilder{system: system}
}

func (p *PromptBuilder) System() string { return p.system }

// Build prefixes context and history to the user message. Empty
// sections are omitted entirely.
func (p *PromptBuilder) Build(state *State, input string) string {
	var b strings.Builder
	b.WriteString(p.system)
	b.WriteString("\n\n")

	if ctx := state.Context(); ctx != "" {
		b.WriteString("Context:\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}
	if hist := state.History(); hist != "" {
		b.WriteString("History:\n")
		b.WriteString(hist)
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(input)
	b.WriteString("\nAssistant:")
	return b.String()
}
