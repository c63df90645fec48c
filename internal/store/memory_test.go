package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestAppendOrdersByInsertion(t *testing.T) {
	s := NewMemoryStore()
	// Every message gets the same timestamp; order must still be stable.
	s.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		s.Append(Message{Origin: OriginUser, Text: fmt.Sprintf("m%d", i)})
	}
	st := s.State()
	var texts []string
	for i, m := range st.Messages {
		texts = append(texts, m.Text)
		if m.Seq != int64(i+1) {
			t.Fatalf("message %d has seq %d", i, m.Seq)
		}
		if m.ID == "" {
			t.Fatalf("message %d has no id", i)
		}
	}
	if diff := cmp.Diff([]string{"m0", "m1", "m2", "m3", "m4"}, texts); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendKeepsExplicitFields(t *testing.T) {
	s := NewMemoryStore()
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	got := s.Append(Message{ID: "fixed", Origin: OriginAssistant, Text: "hi", CreatedAt: at, Failed: true})
	if got.ID != "fixed" || !got.CreatedAt.Equal(at) || !got.Failed || got.Seq != 1 {
		t.Fatalf("unexpected stored message %+v", got)
	}
}

func TestStateIsACopy(t *testing.T) {
	s := NewMemoryStore()
	s.Append(Message{Origin: OriginUser, Text: "original"})

	st := s.State()
	st.Messages[0].Text = "mutated"
	st.Messages = append(st.Messages, Message{Text: "extra"})

	again := s.State()
	if len(again.Messages) != 1 || again.Messages[0].Text != "original" {
		t.Fatalf("store was mutated through a snapshot: %+v", again.Messages)
	}
}

func TestSetAwaitingNotifiesOnChangeOnly(t *testing.T) {
	s := NewMemoryStore()
	var seen []bool
	cancel := s.Subscribe(func(st ConversationState) { seen = append(seen, st.AwaitingResponse) })

	s.SetAwaiting(true)
	s.SetAwaiting(true)
	s.SetAwaiting(false)
	cancel()
	s.SetAwaiting(true)

	if diff := cmp.Diff([]bool{true, false}, seen); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
	if !s.Awaiting() {
		t.Fatalf("expected awaiting after last call")
	}
}

func TestClearKeepsSequenceIncreasing(t *testing.T) {
	s := NewMemoryStore()
	s.Append(Message{Text: "a"})
	s.Append(Message{Text: "b"})
	s.Clear()
	if n := len(s.State().Messages); n != 0 {
		t.Fatalf("expected empty log, got %d", n)
	}
	m := s.Append(Message{Text: "c"})
	if m.Seq != 3 {
		t.Fatalf("expected seq 3 after clear, got %d", m.Seq)
	}
	last, ok := s.State().Last()
	if !ok || last.Text != "c" {
		t.Fatalf("unexpected last message %+v", last)
	}
}

func TestConcurrentAppendsKeepUniqueSeq(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(Message{Origin: OriginUser, Text: "x"})
		}()
	}
	wg.Wait()

	st := s.State()
	if len(st.Messages) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(st.Messages))
	}
	for i, m := range st.Messages {
		if m.Seq != int64(i+1) {
			t.Fatalf("position %d holds seq %d", i, m.Seq)
		}
	}
}
