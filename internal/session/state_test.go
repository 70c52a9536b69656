package session

import (
	"strings"
	"testing"
)

func TestState_InstallIndexResetsHistory(t *testing.T) {
	m := NewManager(3000)
	state := m.Get(1)

	state.AppendExchange("pertanyaan lama", "jawaban lama")
	if len(state.History()) != 2 {
		t.Fatalf("expected 2 turns before install, got %d", len(state.History()))
	}

	state.InstallIndex(nil)
	if len(state.History()) != 0 {
		t.Fatalf("installing a knowledge base must reset the conversation, got %d turns", len(state.History()))
	}
}

func TestState_ClearIndexKeepsHistory(t *testing.T) {
	state := NewManager(3000).Get(1)
	state.AppendExchange("pertanyaan", "jawaban")

	state.ClearIndex()
	if state.Index() != nil {
		t.Fatalf("index should be nil after clear")
	}
	if len(state.History()) != 2 {
		t.Fatalf("clearing the index must keep the conversation, got %d turns", len(state.History()))
	}
}

func TestState_EvictsOldestWhenOverBudget(t *testing.T) {
	// ~25 tokens per turn at 4 runes/token; a budget of 120 holds two
	// exchanges but not three.
	state := NewManager(120).Get(1)
	long := strings.Repeat("abcd ", 20)

	state.AppendExchange("q1 "+long, "a1 "+long)
	state.AppendExchange("q2 "+long, "a2 "+long)
	state.AppendExchange("q3 "+long, "a3 "+long)

	history := state.History()
	if len(history) == 0 {
		t.Fatalf("history should not be fully evicted")
	}
	for _, turn := range history {
		if strings.HasPrefix(turn.Content, "q1") || strings.HasPrefix(turn.Content, "a1") {
			t.Fatalf("oldest exchange should have been evicted, found %q", turn.Content[:2])
		}
	}
	last := history[len(history)-1]
	if !strings.HasPrefix(last.Content, "a3") {
		t.Fatalf("newest turn must survive eviction, last = %q", last.Content[:2])
	}
}

func TestState_HistoryReturnsCopy(t *testing.T) {
	state := NewManager(3000).Get(1)
	state.AppendExchange("pertanyaan", "jawaban")

	got := state.History()
	got[0].Content = "dimodifikasi"

	if state.History()[0].Content != "pertanyaan" {
		t.Fatalf("mutating the returned slice must not touch internal state")
	}
}

func TestManager_StatesAreIsolatedAndStable(t *testing.T) {
	m := NewManager(3000)

	a := m.Get(1)
	b := m.Get(2)
	if a == b {
		t.Fatalf("distinct sessions must get distinct states")
	}
	if m.Get(1) != a {
		t.Fatalf("repeated Get must return the same state")
	}

	a.AppendExchange("pertanyaan", "jawaban")
	if len(b.History()) != 0 {
		t.Fatalf("session 2 history leaked from session 1")
	}
}

func TestManager_DropForgetsState(t *testing.T) {
	m := NewManager(3000)
	state := m.Get(5)
	state.AppendExchange("pertanyaan", "jawaban")

	m.Drop(5)
	if len(m.Get(5).History()) != 0 {
		t.Fatalf("dropped session must come back empty")
	}
}
