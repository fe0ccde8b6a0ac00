package agentstate

import (
	"testing"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
)

func newTestMachine() *Machine {
	return NewMachine("agent", nil, DefaultConfig(), 1)
}

func TestAdjacencyTable(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateTrading, true},
		{StateIdle, StateSleeping, true},
		{StateCrafting, StateFighting, false},
		{StateTrading, StateFleeing, false},
		{StateFighting, StateFleeing, true},
		{StateSleeping, StateFighting, true}, // woken by attack
		{StateTalking, StateFighting, true},
		{StateDead, StateIdle, false},
		{StateFighting, StateDead, true},
		{StateCrafting, StateDead, true},
	}
	for _, tc := range cases {
		if got := Legal(tc.from, tc.to); got != tc.want {
			t.Errorf("Legal(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIllegalTransitionDenied(t *testing.T) {
	m := newTestMachine()
	m.TransitionTo(StateCrafting, "work", false)

	if m.TransitionTo(StateFighting, "rage quit", false) {
		t.Fatal("crafting cannot jump straight to fighting")
	}
	if m.State() != StateCrafting {
		t.Fatalf("denied transition must not change state, got %s", m.State())
	}
}

func TestForceBypassesAdjacency(t *testing.T) {
	m := newTestMachine()
	m.TransitionTo(StateCrafting, "work", false)

	if !m.TransitionTo(StateTrading, "scripted", true) {
		t.Fatal("force should bypass the adjacency table")
	}
	if m.State() != StateTrading {
		t.Fatalf("expected trading, got %s", m.State())
	}
}

func TestDeadIsTerminal(t *testing.T) {
	m := newTestMachine()
	if !m.TransitionTo(StateDead, "killed", false) {
		t.Fatal("dying should always be legal")
	}
	if m.TransitionTo(StateIdle, "respawn", false) {
		t.Fatal("nothing leaves dead")
	}
	if m.TransitionTo(StateIdle, "respawn", true) {
		t.Fatal("not even force leaves dead")
	}
}

func TestTimedReversionFromFleeing(t *testing.T) {
	m := newTestMachine()
	m.TransitionTo(StateFleeing, "scared", true)

	m.Tick(time.Now().Add(5*time.Second), false)
	if m.State() != StateFleeing {
		t.Fatal("reversion fired before its window")
	}

	m.Tick(time.Now().Add(31*time.Second), false)
	if m.State() != StateIdle {
		t.Fatalf("expected calm-down to idle, got %s", m.State())
	}
	hist := m.History()
	last := hist[len(hist)-1]
	if last.Reason != "calmed down" {
		t.Fatalf("expected reason 'calmed down', got %q", last.Reason)
	}
}

func TestReversionClearedOnExit(t *testing.T) {
	m := newTestMachine()
	m.TransitionTo(StateFleeing, "scared", true)
	m.TransitionTo(StateFighting, "cornered", false)

	m.Tick(time.Now().Add(time.Hour), true)
	if m.State() != StateFighting {
		t.Fatalf("stale flee timer fired after leaving fleeing, got %s", m.State())
	}
}

func TestIdleDwellHeuristic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdleDwell = time.Second
	cfg.IdleActChance = 1
	m := NewMachine("agent", nil, cfg, 1)

	// Stimuli suppress the heuristic.
	m.Tick(time.Now().Add(2*time.Second), true)
	if m.State() != StateIdle {
		t.Fatalf("dwell heuristic should not fire with stimuli, got %s", m.State())
	}

	m.Tick(time.Now().Add(2*time.Second), false)
	if m.State() != StatePatrolling {
		t.Fatalf("bored idle agent should patrol, got %s", m.State())
	}
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryCap = 4
	m := NewMachine("agent", nil, cfg, 1)

	for i := 0; i < 10; i++ {
		m.TransitionTo(StateActive, "busy", false)
		m.TransitionTo(StateIdle, "done", false)
	}
	if got := len(m.History()); got > 4 {
		t.Fatalf("history exceeded cap: %d", got)
	}
}

func TestListenerPanicDoesNotAbortTransition(t *testing.T) {
	m := newTestMachine()
	m.OnAny(func(Transition) { panic("bad listener") })
	entered := 0
	m.OnState(StateActive, func(Transition) { entered++ })

	if !m.TransitionTo(StateActive, "busy", false) {
		t.Fatal("transition should survive a panicking listener")
	}
	if m.State() != StateActive {
		t.Fatalf("expected active, got %s", m.State())
	}
	if entered != 1 {
		t.Fatalf("per-state listener should still run, got %d", entered)
	}
}

func TestHandleEventRespectsAdjacency(t *testing.T) {
	m := newTestMachine()

	m.HandleEvent(events.Attacked{AgentID: "agent", By: "thug"})
	if m.State() != StateFighting {
		t.Fatalf("attack should provoke fighting, got %s", m.State())
	}

	// Mid-fight trade offers are ignored.
	m.HandleEvent(events.TradeStarted{AgentID: "agent", With: "merchant"})
	if m.State() != StateFighting {
		t.Fatalf("trade during a fight should be denied, got %s", m.State())
	}

	m.TransitionTo(StateIdle, "fight over", false)
	m.HandleEvent(events.SpokenTo{AgentID: "agent", By: "friend"})
	if m.State() != StateTalking {
		t.Fatalf("greeting should start talking, got %s", m.State())
	}
}
