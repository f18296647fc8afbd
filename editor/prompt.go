package editor

import "sync"

// Prompter asks the user for a line of text, pre-filled with def. It blocks
// until the user answers; ok is false when the prompt was cancelled.
type Prompter interface {
	Prompt(message, def string) (answer string, ok bool)
}

// PromptFunc adapts a function to Prompter
type PromptFunc func(message, def string) (string, bool)

// Prompt calls f
func (f PromptFunc) Prompt(message, def string) (string, bool) { return f(message, def) }

// CancelPrompter cancels every prompt. Sessions without a prompter use it,
// so gestures that need input are inert.
type CancelPrompter struct{}

// Prompt always cancels
func (CancelPrompter) Prompt(string, string) (string, bool) { return "", false }

// Question is a prompt a ScriptedPrompter was asked
type Question struct {
	Message string
	Default string
}

// ScriptedPrompter replays queued replies in order. Once the queue is empty
// every prompt is cancelled.
type ScriptedPrompter struct {
	mu      sync.Mutex
	replies []reply
	asked   []Question
}

type reply struct {
	text   string
	cancel bool
}

// NewScriptedPrompter queues answers in order
func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	p := &ScriptedPrompter{}
	for _, a := range answers {
		p.Answer(a)
	}
	return p
}

// Answer queues a reply
func (p *ScriptedPrompter) Answer(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply{text: text})
}

// Cancel queues a cancellation
func (p *ScriptedPrompter) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply{cancel: true})
}

// Prompt pops the next reply
func (p *ScriptedPrompter) Prompt(message, def string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, Question{Message: message, Default: def})
	if len(p.replies) == 0 {
		return "", false
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	if r.cancel {
		return "", false
	}
	return r.text, true
}

// Asked returns every prompt seen so far
func (p *ScriptedPrompter) Asked() []Question {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Question(nil), p.asked...)
}

// Pending returns how many queued replies are unused
func (p *ScriptedPrompter) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.replies)
}

// Drain discards unused replies and returns how many there were
func (p *ScriptedPrompter) Drain() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.replies)
	p.replies = nil
	return n
}
