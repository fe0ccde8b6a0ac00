package interrupt

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// fakePreemptor records preemption calls.
type fakePreemptor struct {
	saves      int
	cancelAll  int
	cancelLow  int
	cancelMin  int
	restored   []SavedState
	restoreErr error
}

func (f *fakePreemptor) SaveState() SavedState {
	f.saves++
	return SavedState{
		Plans:   []PlanSnapshot{{PlanID: "p1", CurrentStep: 1}},
		Context: map[string]any{},
		SavedAt: time.Now(),
	}
}
func (f *fakePreemptor) CancelAllWork(string)            { f.cancelAll++ }
func (f *fakePreemptor) CancelLowPriorityWork(string)    { f.cancelLow++ }
func (f *fakePreemptor) CancelLowestPriorityWork(string) { f.cancelMin++ }
func (f *fakePreemptor) Restore(s SavedState) error {
	f.restored = append(f.restored, s)
	return f.restoreErr
}

func newTestSystem(p Preemptor) *System {
	return NewSystem("agent", nil, p, DefaultConfig())
}

func threat(prio Priority, at time.Time) Interrupt {
	return Interrupt{Category: CategoryThreat, Reason: "THREAT_DETECTED", Priority: prio, At: at}
}

func TestOneActivePerCategory(t *testing.T) {
	s := newTestSystem(nil)
	now := time.Now()

	if _, ok := s.Raise(threat(PriorityHigh, now)); !ok {
		t.Fatal("first raise should be accepted")
	}
	if _, ok := s.Raise(threat(PriorityHigh, now)); ok {
		t.Fatal("equal priority should not replace the active interrupt")
	}
	if _, ok := s.Raise(threat(PriorityNormal, now)); ok {
		t.Fatal("lower priority should not replace the active interrupt")
	}
	if got := len(s.Active()); got != 1 {
		t.Fatalf("expected 1 active, got %d", got)
	}
}

func TestStrictlyHigherPrioritySupersedes(t *testing.T) {
	s := newTestSystem(nil)
	now := time.Now()

	firstID, _ := s.Raise(threat(PriorityNormal, now))
	secondID, ok := s.Raise(threat(PriorityCritical, now))
	if !ok {
		t.Fatal("critical should supersede normal")
	}
	if firstID == secondID {
		t.Fatal("superseding interrupt should get a fresh id")
	}

	actives := s.Active()
	if len(actives) != 1 {
		t.Fatalf("expected 1 active after supersession, got %d", len(actives))
	}
	if actives[0].Priority != PriorityCritical {
		t.Fatalf("expected the critical one to survive, got %s", actives[0].Priority)
	}
}

func TestBurstLimitPerCategory(t *testing.T) {
	s := newTestSystem(nil)
	now := time.Now()

	// Escalating priorities dodge the active-dedup; the burst limit still
	// caps raises at 3 per 10 seconds.
	if _, ok := s.Raise(threat(PriorityLow, now)); !ok {
		t.Fatal("raise 1 should pass")
	}
	if _, ok := s.Raise(threat(PriorityNormal, now.Add(time.Second))); !ok {
		t.Fatal("raise 2 should pass")
	}
	if _, ok := s.Raise(threat(PriorityHigh, now.Add(2*time.Second))); !ok {
		t.Fatal("raise 3 should pass")
	}
	if _, ok := s.Raise(threat(PriorityCritical, now.Add(3*time.Second))); ok {
		t.Fatal("raise 4 inside the window should be dropped")
	}
	// Outside the window the category may fire again.
	if _, ok := s.Raise(threat(PriorityCritical, now.Add(15*time.Second))); !ok {
		t.Fatal("raise after the window should pass")
	}
}

func TestPreemptionLadder(t *testing.T) {
	cases := []struct {
		prio                         Priority
		wantAll, wantLow, wantLowest int
	}{
		{PriorityLow, 0, 0, 0},
		{PriorityNormal, 0, 0, 1},
		{PriorityHigh, 0, 1, 0},
		{PriorityCritical, 1, 0, 0},
	}
	for _, tc := range cases {
		p := &fakePreemptor{}
		s := newTestSystem(p)
		s.Raise(Interrupt{Category: CategoryCustom, Reason: "x", Priority: tc.prio})
		if p.cancelAll != tc.wantAll || p.cancelLow != tc.wantLow || p.cancelMin != tc.wantLowest {
			t.Fatalf("%s: got all=%d low=%d lowest=%d", tc.prio, p.cancelAll, p.cancelLow, p.cancelMin)
		}
	}
}

func TestStateSavedForHighAndAbove(t *testing.T) {
	p := &fakePreemptor{}
	s := newTestSystem(p)

	s.Raise(Interrupt{Category: CategorySocial, Reason: "x", Priority: PriorityNormal})
	if p.saves != 0 {
		t.Fatal("NORMAL should not save state under the default policy")
	}

	s.Raise(Interrupt{Category: CategoryThreat, Reason: "x", Priority: PriorityHigh})
	if p.saves != 1 {
		t.Fatalf("HIGH should save state, saves=%d", p.saves)
	}
}

func TestRestoreOnCompletedInterrupt(t *testing.T) {
	p := &fakePreemptor{}
	s := newTestSystem(p)

	id, ok := s.Raise(threat(PriorityCritical, time.Now()))
	if !ok {
		t.Fatal("raise failed")
	}
	if !s.Complete(id) {
		t.Fatal("complete failed")
	}
	if len(p.restored) != 1 {
		t.Fatalf("expected saved state handed back once, got %d", len(p.restored))
	}
	if len(s.Active()) != 0 {
		t.Fatal("interrupt should be gone after completion")
	}
}

func TestCancelDoesNotRestore(t *testing.T) {
	p := &fakePreemptor{}
	s := newTestSystem(p)

	id, _ := s.Raise(threat(PriorityCritical, time.Now()))
	s.Cancel(id)
	if len(p.restored) != 0 {
		t.Fatal("cancelled interrupts must not replay saved state")
	}
}

func TestConcurrentRaisesSameCategory(t *testing.T) {
	p := &fakePreemptor{}
	s := newTestSystem(p)
	s.RegisterHandler(CategoryThreat, Handler{
		Name: "slow",
		Handle: func(Interrupt) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		},
	})

	var wg sync.WaitGroup
	accepted := make([]bool, 2)
	for i := range accepted {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, accepted[i] = s.Raise(threat(PriorityHigh, time.Now()))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range accepted {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one accepted raise, got %d", wins)
	}
	if got := len(s.Active()); got != 1 {
		t.Fatalf("expected 1 active, got %d", got)
	}
	st := s.Stats()
	if st.Raised != 1 || st.Dropped != 1 {
		t.Fatalf("expected raised=1 dropped=1, got %+v", st)
	}

	// Ending the survivor must leave no saved state behind.
	for _, ai := range s.Active() {
		s.Complete(ai.ID)
	}
	if len(p.restored) != 1 {
		t.Fatalf("expected one restore, got %d", len(p.restored))
	}
	s.mu.Lock()
	leaked := len(s.saved)
	s.mu.Unlock()
	if leaked != 0 {
		t.Fatalf("%d saved states left behind", leaked)
	}
}

func TestHandlerFailureIsContained(t *testing.T) {
	s := newTestSystem(nil)
	s.RegisterHandler(CategoryHealth, Handler{
		Name:   "flaky",
		Handle: func(Interrupt) error { return errors.New("boom") },
	})

	_, ok := s.Raise(Interrupt{Category: CategoryHealth, Reason: "LOW_HEALTH", Priority: PriorityHigh})
	if ok {
		t.Fatal("failed handling should not produce an active interrupt")
	}
	if got := s.Stats().Failed; got != 1 {
		t.Fatalf("expected 1 failed, got %d", got)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	s := newTestSystem(nil)
	s.RegisterHandler(CategoryHealth, Handler{
		Name:   "panicky",
		Handle: func(Interrupt) error { panic("boom") },
	})

	if _, ok := s.Raise(Interrupt{Category: CategoryHealth, Reason: "x", Priority: PriorityHigh}); ok {
		t.Fatal("panicking handler should not produce an active interrupt")
	}
}

func TestUnhealthyAboveCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxActive = 2
	cfg.BurstLimit = 100
	s := NewSystem("agent", nil, nil, cfg)

	cats := []Category{CategoryThreat, CategoryHealth, CategorySocial}
	for _, c := range cats {
		s.Raise(Interrupt{Category: c, Reason: "x", Priority: PriorityNormal})
	}
	if s.Healthy() {
		t.Fatalf("expected unhealthy with %d actives over ceiling 2", len(s.Active()))
	}
}

func TestTTLExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultTTL = time.Second
	s := NewSystem("agent", nil, nil, cfg)

	now := time.Now()
	s.Raise(threat(PriorityHigh, now))
	s.Tick(now.Add(2*time.Second), MonitorView{})

	if got := len(s.Active()); got != 0 {
		t.Fatalf("expected TTL expiry, got %d actives", got)
	}
}

func TestShutdownClearsEverything(t *testing.T) {
	p := &fakePreemptor{}
	s := newTestSystem(p)

	s.Raise(threat(PriorityCritical, time.Now()))
	s.Raise(Interrupt{Category: CategoryHealth, Reason: "x", Priority: PriorityHigh})
	s.Shutdown()
	s.Shutdown() // idempotent

	if len(s.Active()) != 0 {
		t.Fatal("active interrupts should be gone after shutdown")
	}
	if len(p.restored) != 0 {
		t.Fatal("shutdown must not replay saved state")
	}
}

func TestMonitorPanicDoesNotKillTick(t *testing.T) {
	s := newTestSystem(nil)
	s.AddMonitor(panicMonitor{})
	s.AddMonitor(NewHealthMonitor())

	view := MonitorView{Health: 2, MaxHealth: 20, Weather: world.WeatherClear}
	s.Tick(time.Now(), view)

	if got := len(s.Active()); got != 1 {
		t.Fatalf("health monitor should still fire, got %d actives", got)
	}
}

type panicMonitor struct{}

func (panicMonitor) Name() string { return "panic" }
func (panicMonitor) Check(time.Time, MonitorView) *Interrupt {
	panic(fmt.Errorf("broken monitor"))
}
