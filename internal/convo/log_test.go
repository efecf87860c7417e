package convo

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendStampsIDAndTime(t *testing.T) {
	fixed := time.Date(2025, 7, 26, 9, 30, 0, 0, time.UTC)
	log := NewLog()
	log.now = func() time.Time { return fixed }

	got := log.Append(Message{Role: RoleUser, Kind: KindPlain, Text: "hello"})
	if got.ID == "" {
		t.Fatalf("expected append to assign an id")
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("expected createdAt=%s, got %s", fixed, got.CreatedAt)
	}
	snap := log.Snapshot()
	if len(snap) != 1 || snap[0].ID != got.ID {
		t.Fatalf("expected snapshot to hold the appended message, got %+v", snap)
	}
}

func TestAppendOverridesCallerIDAndTime(t *testing.T) {
	log := NewLog()
	got := log.Append(Message{ID: "forged", CreatedAt: time.Unix(1, 0), Text: "x"})
	if got.ID == "forged" {
		t.Fatalf("expected id to be assigned by the log")
	}
	if got.CreatedAt.Equal(time.Unix(1, 0)) {
		t.Fatalf("expected createdAt to be assigned at append time")
	}
}

func TestSnapshotIsAppendOnly(t *testing.T) {
	log := NewLog()
	var previous []Message
	for i := 0; i < 20; i++ {
		log.Append(Message{Role: RoleSystem, Kind: Kind(i % 5), Text: fmt.Sprintf("entry %d", i)})
		snap := log.Snapshot()
		if len(snap) < len(previous) {
			t.Fatalf("snapshot shrank from %d to %d", len(previous), len(snap))
		}
		for j := range previous {
			if snap[j] != previous[j] {
				t.Fatalf("entry %d changed: %+v -> %+v", j, previous[j], snap[j])
			}
		}
		previous = snap
	}
	if log.Len() != 20 {
		t.Fatalf("expected 20 entries, got %d", log.Len())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	log := NewLog()
	log.Append(Message{Text: "original"})
	snap := log.Snapshot()
	snap[0].Text = "mutated"
	if log.Snapshot()[0].Text != "original" {
		t.Fatalf("mutating a snapshot must not change the log")
	}
}

func TestUniqueIDs(t *testing.T) {
	log := NewLog()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		msg := log.Append(Message{Text: "x"})
		if seen[msg.ID] {
			t.Fatalf("duplicate id %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestObserversSeeEveryAppendInOrder(t *testing.T) {
	log := NewLog()
	var got []string
	log.Observe(func(m Message) {
		got = append(got, m.Text)
		if log.Len() == 0 {
			t.Errorf("observer ran before the message was visible")
		}
	})
	log.Observe(nil)
	for _, text := range []string{"a", "b", "c"} {
		log.Append(Message{Text: text})
	}
	if fmt.Sprint(got) != "[a b c]" {
		t.Fatalf("unexpected observed order: %v", got)
	}
}

func TestConcurrentReadersNeverSeePartialMessages(t *testing.T) {
	log := NewLog()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, m := range log.Snapshot() {
					if m.ID == "" || m.CreatedAt.IsZero() {
						t.Errorf("reader observed an unstamped message: %+v", m)
						return
					}
				}
			}
		}()
	}
	for i := 0; i < 500; i++ {
		log.Append(Message{Text: "w"})
	}
	close(stop)
	wg.Wait()
}

func TestKindAndRoleNames(t *testing.T) {
	cases := map[Kind]string{
		KindPlain:         "plain",
		KindThinking:      "thinking",
		KindSubtaskStart:  "subtask-start",
		KindSubtaskResult: "subtask-result",
		KindError:         "error",
		Kind(42):          "unknown",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Fatalf("kind %d: expected %q, got %q", int(kind), want, kind.String())
		}
	}
	if RoleUser.String() != "user" || RoleSystem.String() != "system" {
		t.Fatalf("unexpected role names: %s %s", RoleUser, RoleSystem)
	}
}
