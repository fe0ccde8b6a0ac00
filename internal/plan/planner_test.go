package plan

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region fakes

// fakeExec is an in-memory action executor. Actions run until a test
// completes or cancels them.
type fakeExec struct {
	mu      sync.Mutex
	nextID  int
	running map[string]submitted
	log     []string
}

type submitted struct {
	agentID string
	action  world.Action
	prio    world.ActionPriority
}

func newFakeExec() *fakeExec {
	return &fakeExec{running: make(map[string]submitted)}
}

func (e *fakeExec) Submit(agentID string, a world.Action, p world.ActionPriority) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := fmt.Sprintf("act-%d", e.nextID)
	e.running[id] = submitted{agentID: agentID, action: a, prio: p}
	e.log = append(e.log, "submit "+a.Type)
	return id, nil
}

func (e *fakeExec) Cancel(actionID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, actionID)
	e.log = append(e.log, "cancel "+actionID)
}

func (e *fakeExec) CancelLowPriority(agentID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, s := range e.running {
		if s.agentID == agentID && s.prio == world.ActionLow {
			delete(e.running, id)
		}
	}
}

func (e *fakeExec) CancelAll(agentID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, s := range e.running {
		if s.agentID == agentID {
			delete(e.running, id)
		}
	}
}

func (e *fakeExec) IsRunning(actionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[actionID]
	return ok
}

func (e *fakeExec) ActiveActions(agentID string) []world.ActionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []world.ActionInfo
	for id, s := range e.running {
		if s.agentID == agentID {
			out = append(out, world.ActionInfo{ID: id, Action: s.action, Priority: s.prio})
		}
	}
	return out
}

// complete finishes one running action, as the world would.
func (e *fakeExec) complete(actionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, actionID)
}

func (e *fakeExec) runningCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.running)
}

// stepGen yields n actions for any goal.
type stepGen struct {
	n    int
	prio int
}

func (g stepGen) Name() string  { return "steps" }
func (g stepGen) Priority() int { return g.prio }
func (g stepGen) Generate(goal Goal) ([]world.Action, error) {
	out := make([]world.Action, g.n)
	for i := range out {
		out[i] = world.Action{Type: fmt.Sprintf("%s-%d", goal.Type, i)}
	}
	return out, nil
}

type panicGen struct{}

func (panicGen) Name() string                        { return "panics" }
func (panicGen) Priority() int                       { return 100 }
func (panicGen) Generate(Goal) ([]world.Action, error) { panic("bad generator") }

type emptyGen struct{}

func (emptyGen) Name() string                        { return "empty" }
func (emptyGen) Priority() int                       { return 0 }
func (emptyGen) Generate(Goal) ([]world.Action, error) { return nil, nil }

func newTestPlanner() (*Planner, *fakeExec) {
	exec := newFakeExec()
	return NewPlanner("agent", exec, nil, DefaultConfig()), exec
}

func seqPlan(n int, prio Priority) Plan {
	actions := make([]world.Action, n)
	for i := range actions {
		actions[i] = world.Action{Type: fmt.Sprintf("step-%d", i)}
	}
	return Plan{
		Goal:     Goal{Type: "test", Priority: 5},
		Actions:  actions,
		Mode:     ModeSequential,
		Priority: prio,
	}
}

// #endregion fakes

// #region create

func TestCreatePlanWithoutActionsFails(t *testing.T) {
	p, _ := newTestPlanner()
	p.RegisterGenerator(emptyGen{})

	_, err := p.CreatePlan(Goal{Type: "nothing"}, PriorityNormal, ModeSequential)
	if !errors.Is(err, ErrNoActions) {
		t.Fatalf("expected ErrNoActions, got %v", err)
	}
}

func TestCreatePlanSurvivesPanickingGenerator(t *testing.T) {
	p, _ := newTestPlanner()
	p.RegisterGenerator(panicGen{})
	p.RegisterGenerator(stepGen{n: 2, prio: 1})

	id, err := p.CreatePlan(Goal{Type: "walk"}, PriorityNormal, ModeSequential)
	if err != nil {
		t.Fatalf("fallback generator should serve the goal: %v", err)
	}
	ap, _ := p.Plan(id)
	if len(ap.Actions) != 2 {
		t.Fatalf("expected 2 actions from the surviving generator, got %d", len(ap.Actions))
	}
}

// #endregion create

// #region sequential

func TestSequentialAdvancesOneStepAtATime(t *testing.T) {
	p, exec := newTestPlanner()
	id, _ := p.AddPlan(seqPlan(3, PriorityNormal))

	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.runningCount() != 1 {
		t.Fatalf("sequential should submit one action, got %d", exec.runningCount())
	}

	now := time.Now()
	for step := 0; step < 3; step++ {
		ap, _ := p.Plan(id)
		exec.complete(ap.ActionIDs[0])
		now = now.Add(time.Second)
		p.Tick(now)
	}

	hist := p.History()
	if len(hist) != 1 || hist[0].Status != StatusCompleted {
		t.Fatalf("expected one completed plan in history, got %+v", hist)
	}
	if hist[0].CompletedSteps != 3 {
		t.Fatalf("expected 3 completed steps, got %d", hist[0].CompletedSteps)
	}
}

func TestCancelMidPlanKeepsProgressCount(t *testing.T) {
	p, exec := newTestPlanner()
	id, _ := p.AddPlan(seqPlan(3, PriorityNormal))
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// First step finishes, second goes in flight.
	ap, _ := p.Plan(id)
	exec.complete(ap.ActionIDs[0])
	p.Tick(time.Now())

	ap, _ = p.Plan(id)
	if ap.CompletedSteps != 1 || ap.CurrentStep != 1 {
		t.Fatalf("expected progress 1/1, got %d/%d", ap.CompletedSteps, ap.CurrentStep)
	}

	// A critical interrupt lands while step two is in flight.
	p.CancelAllWork("interrupted: THREAT_DETECTED")
	if exec.runningCount() != 0 {
		t.Fatalf("expected no actions left, got %d", exec.runningCount())
	}

	p.Tick(time.Now())
	hist := p.History()
	if len(hist) != 1 || hist[0].Status != StatusCancelled {
		t.Fatalf("expected a cancelled plan in history, got %+v", hist)
	}
	if hist[0].CompletedSteps != 1 {
		t.Fatalf("completed steps should survive cancellation, got %d", hist[0].CompletedSteps)
	}
}

// #endregion sequential

// #region parallel

func TestParallelSubmitsAllAndCompletesTogether(t *testing.T) {
	p, exec := newTestPlanner()
	pl := seqPlan(3, PriorityNormal)
	pl.Mode = ModeParallel
	id, _ := p.AddPlan(pl)
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.runningCount() != 3 {
		t.Fatalf("parallel should submit all actions, got %d", exec.runningCount())
	}

	ap, _ := p.Plan(id)
	exec.complete(ap.ActionIDs[0])
	exec.complete(ap.ActionIDs[1])
	p.Tick(time.Now())

	ap, ok := p.Plan(id)
	if !ok || ap.Status != StatusExecuting || ap.CompletedSteps != 2 {
		t.Fatalf("expected still executing at 2 steps, got %+v", ap)
	}

	exec.complete(ap.ActionIDs[0])
	p.Tick(time.Now())
	hist := p.History()
	if len(hist) != 1 || hist[0].Status != StatusCompleted {
		t.Fatalf("expected completion once all actions finish, got %+v", hist)
	}
}

// #endregion parallel

// #region blocking

func TestPreconditionsBlockThenUnblock(t *testing.T) {
	p, exec := newTestPlanner()
	doorOpen := false
	pl := seqPlan(1, PriorityNormal)
	pl.Preconditions = []Predicate{{Name: "door open", Holds: func() bool { return doorOpen }}}
	id, _ := p.AddPlan(pl)

	if err := p.ExecutePlan(id); !errors.Is(err, ErrPreconditionsNotMet) {
		t.Fatalf("expected ErrPreconditionsNotMet, got %v", err)
	}
	ap, _ := p.Plan(id)
	if ap.Status != StatusBlocked {
		t.Fatalf("expected blocked, got %s", ap.Status)
	}
	if exec.runningCount() != 0 {
		t.Fatal("blocked plan must not submit actions")
	}

	doorOpen = true
	p.Tick(time.Now())
	ap, _ = p.Plan(id)
	if ap.Status != StatusExecuting {
		t.Fatalf("expected executing after unblock, got %s", ap.Status)
	}
}

func TestReactivePlanWaitsForTrigger(t *testing.T) {
	p, exec := newTestPlanner()
	armed := false
	pl := seqPlan(1, PriorityHigh)
	pl.Mode = ModeReactive
	pl.Trigger = func() bool { return armed }
	id, _ := p.AddPlan(pl)

	p.Tick(time.Now())
	ap, _ := p.Plan(id)
	if ap.Status != StatusCreated {
		t.Fatalf("reactive plan should stay created, got %s", ap.Status)
	}

	armed = true
	p.Tick(time.Now())
	ap, _ = p.Plan(id)
	if ap.Status != StatusExecuting || exec.runningCount() != 1 {
		t.Fatalf("reactive plan should fire on trigger, got %s with %d actions", ap.Status, exec.runningCount())
	}
}

// #endregion blocking

// #region priority

func TestHigherPriorityPausesLower(t *testing.T) {
	p, exec := newTestPlanner()
	lowID, _ := p.AddPlan(seqPlan(2, PriorityLow))
	if err := p.ExecutePlan(lowID); err != nil {
		t.Fatalf("execute low: %v", err)
	}

	highID, _ := p.AddPlan(seqPlan(1, PriorityHigh))
	if err := p.ExecutePlan(highID); err != nil {
		t.Fatalf("execute high: %v", err)
	}

	low, _ := p.Plan(lowID)
	if low.Status != StatusPaused {
		t.Fatalf("expected low plan paused, got %s", low.Status)
	}
	if len(low.ActionIDs) != 0 {
		t.Fatal("paused plan should hold no in-flight actions")
	}
	if exec.runningCount() != 1 {
		t.Fatalf("only the high plan's action should run, got %d", exec.runningCount())
	}
}

func TestResumeContinuesFromCurrentStep(t *testing.T) {
	p, exec := newTestPlanner()
	id, _ := p.AddPlan(seqPlan(3, PriorityNormal))
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	ap, _ := p.Plan(id)
	exec.complete(ap.ActionIDs[0])
	p.Tick(time.Now())

	if err := p.PausePlan(id, "testing"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if exec.runningCount() != 0 {
		t.Fatal("pause should release in-flight actions")
	}

	if err := p.ResumePlan(id); err != nil {
		t.Fatalf("resume: %v", err)
	}
	ap, _ = p.Plan(id)
	if ap.CurrentStep != 1 || ap.Status != StatusExecuting {
		t.Fatalf("expected executing at step 1, got %s step %d", ap.Status, ap.CurrentStep)
	}
}

func TestCancelLowestPriorityWork(t *testing.T) {
	p, _ := newTestPlanner()
	lowID, _ := p.AddPlan(seqPlan(1, PriorityLow))
	normalID, _ := p.AddPlan(seqPlan(1, PriorityNormal))
	// Execute low first so the normal plan does not pause it before the test.
	if err := p.ExecutePlan(normalID); err != nil {
		t.Fatalf("execute normal: %v", err)
	}
	if err := p.ExecutePlan(lowID); err != nil {
		t.Fatalf("execute low: %v", err)
	}

	p.CancelLowestPriorityWork("interrupted: x")

	low, _ := p.Plan(lowID)
	normal, _ := p.Plan(normalID)
	if low.Status != StatusCancelled {
		t.Fatalf("lowest plan should be cancelled, got %s", low.Status)
	}
	if normal.Status != StatusExecuting {
		t.Fatalf("higher plan should survive, got %s", normal.Status)
	}
}

// #endregion priority

// #region goals

func TestGoalTimeoutFailsPlan(t *testing.T) {
	p, _ := newTestPlanner()
	pl := seqPlan(1, PriorityNormal)
	pl.Goal.Timeout = time.Minute
	id, _ := p.AddPlan(pl)
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}

	p.Tick(time.Now().Add(2 * time.Minute))

	hist := p.History()
	if len(hist) != 1 || hist[0].Status != StatusFailed {
		t.Fatalf("expected a failed plan, got %+v", hist)
	}
}

func TestGoalSucceededShortCircuits(t *testing.T) {
	p, exec := newTestPlanner()
	pl := seqPlan(3, PriorityNormal)
	pl.Goal.Succeeded = func() bool { return true }
	id, _ := p.AddPlan(pl)
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}

	p.Tick(time.Now())

	hist := p.History()
	if len(hist) != 1 || hist[0].Status != StatusCompleted {
		t.Fatalf("expected early completion, got %+v", hist)
	}
	if exec.runningCount() != 0 {
		t.Fatal("early completion should release the in-flight action")
	}
}

// #endregion goals

// #region restore

func TestRestoreResurrectsCancelledPlan(t *testing.T) {
	p, exec := newTestPlanner()
	id, _ := p.AddPlan(seqPlan(3, PriorityNormal))
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	ap, _ := p.Plan(id)
	exec.complete(ap.ActionIDs[0])
	p.Tick(time.Now())

	// Preemption sequence: snapshot, cancel, archive.
	st := p.SaveState()
	p.CancelAllWork("interrupted: THREAT_DETECTED")
	p.Tick(time.Now())
	if _, ok := p.Plan(id); ok {
		t.Fatal("cancelled plan should have been archived")
	}

	if err := p.Restore(st); err != nil {
		t.Fatalf("restore: %v", err)
	}
	ap, ok := p.Plan(id)
	if !ok {
		t.Fatal("plan should be live again after restore")
	}
	if ap.Status != StatusExecuting || ap.CurrentStep != 1 {
		t.Fatalf("expected executing at step 1, got %s step %d", ap.Status, ap.CurrentStep)
	}
	if exec.runningCount() != 1 {
		t.Fatalf("restore should re-submit the pending step, got %d", exec.runningCount())
	}
}

func TestRestoreResumesPausedPlan(t *testing.T) {
	p, _ := newTestPlanner()
	id, _ := p.AddPlan(seqPlan(2, PriorityNormal))
	if err := p.ExecutePlan(id); err != nil {
		t.Fatalf("execute: %v", err)
	}

	st := p.SaveState()
	if err := p.PausePlan(id, "preempted"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := p.Restore(st); err != nil {
		t.Fatalf("restore: %v", err)
	}

	ap, _ := p.Plan(id)
	if ap.Status != StatusExecuting {
		t.Fatalf("expected resumed plan, got %s", ap.Status)
	}
}

// #endregion restore

// #region misc

func TestCancelUnknownPlan(t *testing.T) {
	p, _ := newTestPlanner()
	if err := p.CancelPlan("nope", "x"); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	exec := newFakeExec()
	p := NewPlanner("agent", exec, nil, Config{HistoryCap: 5})

	for i := 0; i < 12; i++ {
		id, _ := p.AddPlan(seqPlan(1, PriorityNormal))
		if err := p.CancelPlan(id, "churn"); err != nil {
			t.Fatalf("cancel: %v", err)
		}
	}
	p.Tick(time.Now())

	if got := len(p.History()); got > 5 {
		t.Fatalf("history exceeded cap: %d", got)
	}
}

// #endregion misc
