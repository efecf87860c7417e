package timeline

import (
	"testing"
	"time"

	"taskdesk/internal/convo"
	"taskdesk/internal/task"
)

func delays(steps []Step) []time.Duration {
	out := make([]time.Duration, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Delay)
	}
	return out
}

func TestExpandPacingPlan(t *testing.T) {
	outcome := task.Outcome{
		Subtasks: []task.Subtask{
			{Agent: "hubspot", Action: "get_leads"},
			{Agent: "gmail", Action: "send_email"},
		},
		FinalText: "done",
	}
	pacing := Pacing{Thinking: 2 * time.Second, Subtask: 1500 * time.Millisecond}
	got := delays(Expand(&outcome, pacing))
	want := []time.Duration{0, 2 * time.Second, 1500 * time.Millisecond, 0, 1500 * time.Millisecond, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: expected delay %s, got %s (plan %v)", i, want[i], got[i], got)
		}
	}
}

func TestExpandZeroPacingKeepsOrder(t *testing.T) {
	outcome := task.Outcome{
		Subtasks: []task.Subtask{
			{Agent: "a", Action: "one"},
			{Agent: "b", Action: "two"},
		},
		FinalText: "fin",
	}
	for _, pacing := range []Pacing{{}, {Thinking: -time.Second, Subtask: -time.Second}} {
		steps := Expand(&outcome, pacing)
		texts := make([]string, 0, len(steps))
		for _, s := range steps {
			if s.Delay != 0 {
				t.Fatalf("expected zero delays, got %s", s.Delay)
			}
			texts = append(texts, s.Message.Text)
		}
		want := []string{
			ThinkingText,
			"🔄 Executing a agent: one...",
			"✅ a: Completed",
			"🔄 Executing b agent: two...",
			"✅ b: Completed",
			"fin",
		}
		for i := range want {
			if texts[i] != want[i] {
				t.Fatalf("step %d: expected %q, got %q", i, want[i], texts[i])
			}
		}
	}
}

func TestExpandKeepsServiceOrderAndDuplicates(t *testing.T) {
	outcome := task.Outcome{
		Subtasks: []task.Subtask{
			{Agent: "gmail", Action: "send_email"},
			{Agent: "hubspot", Action: "get_leads"},
			{Agent: "gmail", Action: "send_email"},
		},
	}
	steps := Expand(&outcome, Pacing{})
	if len(steps) != 2*3+2 {
		t.Fatalf("expected 8 steps, got %d", len(steps))
	}
	agents := []string{"gmail", "hubspot", "gmail"}
	for i, agent := range agents {
		start := steps[1+2*i].Message
		if start.Kind != convo.KindSubtaskStart || start.Text != StartText(task.Subtask{Agent: agent, Action: outcome.Subtasks[i].Action}) {
			t.Fatalf("subtask %d out of order: %q", i, start.Text)
		}
	}
}

func TestExpandFinalCarriesOrigin(t *testing.T) {
	outcome := task.Outcome{TaskID: "abc", FinalText: "done"}
	steps := Expand(&outcome, DefaultPacing())
	final := steps[len(steps)-1].Message
	if final.Origin != &outcome {
		t.Fatalf("expected final message to reference the outcome")
	}
	if final.Kind != convo.KindPlain || final.Role != convo.RoleSystem {
		t.Fatalf("unexpected final message shape: %+v", final)
	}
}

func TestResultText(t *testing.T) {
	cases := []struct {
		name string
		sub  task.Subtask
		want string
	}{
		{"success", task.Subtask{Agent: "hubspot", Result: &task.Result{Status: task.StatusSuccess, Message: "Retrieved 2 leads"}}, "✅ hubspot: Retrieved 2 leads"},
		{"failure", task.Subtask{Agent: "gmail", Result: &task.Result{Status: task.StatusFailure, Message: "No leads found"}}, "❌ gmail: No leads found"},
		{"failure without message", task.Subtask{Agent: "gmail", Result: &task.Result{Status: task.StatusFailure}}, "❌ gmail: Completed"},
		{"absent", task.Subtask{Agent: "notion"}, "✅ notion: Completed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResultText(tc.sub); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFailurePlan(t *testing.T) {
	steps := Failure(ErrorText("http://svc:9000"))
	if len(steps) != 1 || steps[0].Delay != 0 || steps[0].Message.Kind != convo.KindError {
		t.Fatalf("unexpected failure plan: %+v", steps)
	}
}
