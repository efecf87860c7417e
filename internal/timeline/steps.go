// Package timeline turns one completed task outcome into a paced, ordered
// sequence of conversation log appends.
package timeline

import (
	"fmt"
	"time"

	"taskdesk/internal/convo"
	"taskdesk/internal/task"
)

const (
	DefaultThinkingDelay = 2 * time.Second
	DefaultSubtaskDelay  = 1500 * time.Millisecond

	ThinkingText     = "🤔 Breaking down your request..."
	completedText    = "Completed"
	successMarker    = "✅"
	failureMarker    = "❌"
	errorTextPattern = "❌ Sorry, I encountered an error processing your request. Make sure the backend is running on %s."
)

// Pacing holds the two perceptibility delays. Zero values are valid and only
// remove the waiting; ordering is unaffected.
type Pacing struct {
	Thinking time.Duration
	Subtask  time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{Thinking: DefaultThinkingDelay, Subtask: DefaultSubtaskDelay}
}

func (p Pacing) normalized() Pacing {
	if p.Thinking < 0 {
		p.Thinking = 0
	}
	if p.Subtask < 0 {
		p.Subtask = 0
	}
	return p
}

// Step is one scheduled append: wait Delay, then append Message.
type Step struct {
	Delay   time.Duration
	Message convo.Message
}

// Expand plans the append sequence for a successful outcome:
// thinking, then a start/result pair per subtask in service order, then the
// final message. Subtasks are never reordered, filtered or deduplicated.
func Expand(outcome *task.Outcome, pacing Pacing) []Step {
	pacing = pacing.normalized()
	steps := make([]Step, 0, 2*len(outcome.Subtasks)+2)
	steps = append(steps, Step{Message: narration(convo.KindThinking, ThinkingText)})

	wait := pacing.Thinking
	for _, sub := range outcome.Subtasks {
		steps = append(steps,
			Step{Delay: wait, Message: narration(convo.KindSubtaskStart, StartText(sub))},
			Step{Delay: pacing.Subtask, Message: narration(convo.KindSubtaskResult, ResultText(sub))},
		)
		wait = 0
	}

	final := narration(convo.KindPlain, outcome.FinalText)
	final.Origin = outcome
	steps = append(steps, Step{Delay: wait, Message: final})
	return steps
}

// Failure plans the single error append used when dispatch fails.
func Failure(text string) []Step {
	return []Step{{Message: narration(convo.KindError, text)}}
}

// ErrorText is the fixed explanation shown when the service cannot be reached.
func ErrorText(serviceURL string) string {
	return fmt.Sprintf(errorTextPattern, serviceURL)
}

func StartText(sub task.Subtask) string {
	return fmt.Sprintf("🔄 Executing %s agent: %s...", sub.Agent, sub.Action)
}

// ResultText renders a subtask outcome. A missing result is shown as a
// generic success.
func ResultText(sub task.Subtask) string {
	marker := successMarker
	message := ""
	if sub.Result != nil {
		if !sub.Result.Succeeded() {
			marker = failureMarker
		}
		message = sub.Result.Message
	}
	if message == "" {
		message = completedText
	}
	return fmt.Sprintf("%s %s: %s", marker, sub.Agent, message)
}

func narration(kind convo.Kind, text string) convo.Message {
	return convo.Message{Role: convo.RoleSystem, Kind: kind, Text: text}
}
