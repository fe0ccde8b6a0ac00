// Package plan turns goals into action sequences and drives them to
// completion through the external action executor. The planner is the
// preemption target of the interruption system.
package plan

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/interrupt"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region planner

// Planner owns all plans for one agent.
type Planner struct {
	cfg     Config
	agentID string
	exec    world.ActionExecutor
	bus     events.Bus

	mu         sync.Mutex
	generators []Generator
	plans      map[string]*ActivePlan
	history    []CompletedPlan
}

// NewPlanner creates a planner submitting work to exec.
func NewPlanner(agentID string, exec world.ActionExecutor, bus events.Bus, cfg Config) *Planner {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Planner{
		cfg:     cfg,
		agentID: agentID,
		exec:    exec,
		bus:     bus,
		plans:   make(map[string]*ActivePlan),
	}
}

// RegisterGenerator adds a plan generator. Generators are kept sorted by
// descending priority.
func (p *Planner) RegisterGenerator(g Generator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generators = append(p.generators, g)
	sort.SliceStable(p.generators, func(i, j int) bool {
		return p.generators[i].Priority() > p.generators[j].Priority()
	})
}

// #endregion planner

// #region create

// CreatePlan produces a plan for goal via the registered generators and
// registers it in CREATED status. Fails with ErrNoActions when no
// generator yields any action.
func (p *Planner) CreatePlan(goal Goal, prio Priority, mode Mode) (string, error) {
	p.mu.Lock()
	gens := append([]Generator(nil), p.generators...)
	p.mu.Unlock()

	var actions []world.Action
	for _, g := range gens {
		got, err := generateSafely(g, goal)
		if err != nil {
			log.Printf("[PLAN] %s: generator %s failed for %q: %v", p.agentID, g.Name(), goal.Type, err)
			continue
		}
		if len(got) > 0 {
			actions = got
			break
		}
	}
	if len(actions) == 0 {
		return "", fmt.Errorf("goal %q: %w", goal.Type, ErrNoActions)
	}

	ap := &ActivePlan{
		Plan: Plan{
			ID:        uuid.NewString(),
			Goal:      goal,
			Actions:   actions,
			Mode:      mode,
			Priority:  prio,
			CreatedAt: time.Now(),
		},
		Status: StatusCreated,
	}

	p.mu.Lock()
	p.plans[ap.ID] = ap
	p.mu.Unlock()
	return ap.ID, nil
}

// AddPlan registers a fully specified plan (preconditions, trigger, tags).
// Used for reactive plans and tests; generation is skipped.
func (p *Planner) AddPlan(pl Plan) (string, error) {
	if len(pl.Actions) == 0 {
		return "", fmt.Errorf("goal %q: %w", pl.Goal.Type, ErrNoActions)
	}
	if pl.ID == "" {
		pl.ID = uuid.NewString()
	}
	if pl.CreatedAt.IsZero() {
		pl.CreatedAt = time.Now()
	}
	ap := &ActivePlan{Plan: pl, Status: StatusCreated}
	p.mu.Lock()
	p.plans[ap.ID] = ap
	p.mu.Unlock()
	return ap.ID, nil
}

// generateSafely isolates a panicking generator.
func generateSafely(g Generator, goal Goal) (actions []world.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()
	return g.Generate(goal)
}

// #endregion create

// #region execute

// ExecutePlan starts a created or unblocked plan. Unsatisfied
// preconditions mark it BLOCKED (re-checked every cycle) and return
// ErrPreconditionsNotMet. A higher-priority plan pauses any executing
// lower-priority plans before starting.
func (p *Planner) ExecutePlan(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.executeLocked(id, time.Now())
}

func (p *Planner) executeLocked(id string, now time.Time) error {
	ap, ok := p.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, id)
	}
	if ap.Status != StatusCreated && ap.Status != StatusBlocked && ap.Status != StatusPaused {
		return fmt.Errorf("plan %s not startable from %s", id, ap.Status)
	}

	if !preconditionsHold(ap) {
		if ap.Status != StatusBlocked {
			p.setStatus(ap, StatusBlocked, "preconditions not met")
		}
		return ErrPreconditionsNotMet
	}
	if ap.Status == StatusBlocked {
		p.setStatus(ap, StatusCreated, "preconditions satisfied")
	}

	// Pause lower-priority executing plans, releasing their actions.
	for _, other := range p.plans {
		if other.ID != ap.ID && other.Status == StatusExecuting && other.Priority < ap.Priority {
			p.releaseActions(other, "paused by higher-priority plan")
			p.setStatus(other, StatusPaused, "preempted by "+ap.Goal.Type)
		}
	}

	resuming := ap.Status == StatusPaused
	p.setStatus(ap, StatusExecuting, "started")
	if !resuming {
		ap.StartedAt = now
	}

	if err := p.dispatch(ap); err != nil {
		p.failLocked(ap, fmt.Sprintf("dispatch: %v", err))
		return err
	}

	p.bus.Publish(events.PlanStarted{
		AgentID: p.agentID,
		PlanID:  ap.ID,
		Goal:    ap.Goal.Type,
		At:      now,
	})
	return nil
}

// dispatch submits work according to the execution mode. Callers hold p.mu.
func (p *Planner) dispatch(ap *ActivePlan) error {
	switch ap.Mode {
	case ModeParallel:
		for i := ap.CurrentStep; i < len(ap.Actions); i++ {
			id, err := p.exec.Submit(p.agentID, ap.Actions[i], ap.Priority.actionPriority())
			if err != nil {
				return fmt.Errorf("submit action %d: %w", i, err)
			}
			ap.ActionIDs = append(ap.ActionIDs, id)
		}
	default: // sequential, conditional, and resumed reactive plans
		return p.submitStep(ap)
	}
	return nil
}

// submitStep submits the action at CurrentStep. Callers hold p.mu.
func (p *Planner) submitStep(ap *ActivePlan) error {
	if ap.CurrentStep >= len(ap.Actions) {
		return nil
	}
	id, err := p.exec.Submit(p.agentID, ap.Actions[ap.CurrentStep], ap.Priority.actionPriority())
	if err != nil {
		return fmt.Errorf("submit step %d: %w", ap.CurrentStep, err)
	}
	ap.ActionIDs = []string{id}
	return nil
}

func preconditionsHold(ap *ActivePlan) bool {
	for _, pre := range ap.Preconditions {
		if pre.Holds != nil && !pre.Holds() {
			return false
		}
	}
	return true
}

// #endregion execute

// #region tick

// Tick polls plan progress: re-checks blocked preconditions, arms reactive
// triggers, advances sequential steps, and settles timeouts and successes.
func (p *Planner) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ap := range p.plans {
		switch ap.Status {
		case StatusBlocked:
			if preconditionsHold(ap) {
				if err := p.executeLocked(ap.ID, now); err != nil && err != ErrPreconditionsNotMet {
					log.Printf("[PLAN] %s: unblock %s: %v", p.agentID, ap.ID, err)
				}
			}
		case StatusCreated:
			if ap.Mode == ModeReactive && ap.Trigger != nil && ap.Trigger() {
				if err := p.executeLocked(ap.ID, now); err != nil && err != ErrPreconditionsNotMet {
					log.Printf("[PLAN] %s: trigger %s: %v", p.agentID, ap.ID, err)
				}
			}
		case StatusExecuting:
			p.pollExecuting(ap, now)
		}
	}

	p.sweepTerminal(now)
}

func (p *Planner) pollExecuting(ap *ActivePlan, now time.Time) {
	if ap.Goal.Timeout > 0 && now.Sub(ap.StartedAt) > ap.Goal.Timeout {
		p.releaseActions(ap, "goal timeout")
		p.failLocked(ap, "goal timeout")
		return
	}
	if ap.Goal.Succeeded != nil && ap.Goal.Succeeded() {
		p.releaseActions(ap, "goal already satisfied")
		p.completeLocked(ap, now)
		return
	}

	// Count steps whose actions finished since the last poll. Cancellation
	// paths update status synchronously before this runs, so a vanished
	// action here means completion.
	remaining := ap.ActionIDs[:0]
	finished := 0
	for _, id := range ap.ActionIDs {
		if p.exec.IsRunning(id) {
			remaining = append(remaining, id)
		} else {
			finished++
		}
	}
	ap.ActionIDs = remaining

	if finished == 0 {
		return
	}

	switch ap.Mode {
	case ModeParallel:
		ap.CompletedSteps += finished
		if len(ap.ActionIDs) == 0 {
			p.completeLocked(ap, now)
		}
	default:
		ap.CompletedSteps += finished
		ap.CurrentStep += finished
		if ap.CurrentStep >= len(ap.Actions) {
			p.completeLocked(ap, now)
			return
		}
		if err := p.submitStep(ap); err != nil {
			p.failLocked(ap, fmt.Sprintf("next step: %v", err))
		}
	}
}

// #endregion tick

// #region lifecycle

// PausePlan pauses an executing plan, releasing its in-flight actions.
func (p *Planner) PausePlan(id, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ap, ok := p.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, id)
	}
	if ap.Status != StatusExecuting {
		return fmt.Errorf("plan %s not executing", id)
	}
	p.releaseActions(ap, reason)
	p.setStatus(ap, StatusPaused, reason)
	return nil
}

// ResumePlan restarts a paused plan from its current step.
func (p *Planner) ResumePlan(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ap, ok := p.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, id)
	}
	if ap.Status != StatusPaused {
		return fmt.Errorf("plan %s not paused", id)
	}
	return p.executeLocked(id, time.Now())
}

// CancelPlan cancels a plan and its in-flight actions, recording reason.
func (p *Planner) CancelPlan(id, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ap, ok := p.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, id)
	}
	if ap.Status.Terminal() {
		return nil
	}
	p.releaseActions(ap, reason)
	p.setStatus(ap, StatusCancelled, reason)
	return nil
}

// CancelAllPlans cancels every non-terminal plan.
func (p *Planner) CancelAllPlans(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ap := range p.plans {
		if !ap.Status.Terminal() {
			p.releaseActions(ap, reason)
			p.setStatus(ap, StatusCancelled, reason)
		}
	}
}

// releaseActions cancels a plan's in-flight actions. Callers hold p.mu.
func (p *Planner) releaseActions(ap *ActivePlan, reason string) {
	for _, id := range ap.ActionIDs {
		p.exec.Cancel(id, reason)
	}
	ap.ActionIDs = nil
}

func (p *Planner) completeLocked(ap *ActivePlan, now time.Time) {
	_ = now
	p.setStatus(ap, StatusCompleted, "all steps finished")
}

func (p *Planner) failLocked(ap *ActivePlan, reason string) {
	if ap.Status == StatusCreated || ap.Status == StatusExecuting || ap.Status == StatusBlocked || ap.Status == StatusPaused {
		if ap.Status == StatusCreated {
			// CREATED cannot legally fail; route through blocked.
			p.setStatus(ap, StatusBlocked, reason)
		}
		p.setStatus(ap, StatusFailed, reason)
	}
}

// setStatus validates against the plan state machine. Callers hold p.mu.
func (p *Planner) setStatus(ap *ActivePlan, to Status, reason string) {
	if ap.Status == to {
		return
	}
	if !legalStatus(ap.Status, to) {
		log.Printf("[PLAN] %s: illegal status %s → %s for %s", p.agentID, ap.Status, to, ap.ID)
		return
	}
	ap.Status = to
	ap.StatusReason = reason
}

// sweepTerminal archives terminal plans into the bounded history.
func (p *Planner) sweepTerminal(now time.Time) {
	for id, ap := range p.plans {
		if !ap.Status.Terminal() {
			continue
		}
		delete(p.plans, id)
		p.history = append(p.history, CompletedPlan{
			Plan:           ap.Plan,
			Status:         ap.Status,
			Reason:         ap.StatusReason,
			CompletedSteps: ap.CompletedSteps,
			FinishedAt:     now,
		})
		if cap := p.cfg.HistoryCap; cap > 0 && len(p.history) > cap {
			p.history = p.history[len(p.history)-cap:]
		}
		p.bus.Publish(events.PlanEnded{
			AgentID: p.agentID,
			PlanID:  ap.ID,
			Status:  string(ap.Status),
			Reason:  ap.StatusReason,
			At:      now,
		})
	}
}

// #endregion lifecycle

// #region preemptor

// Planner implements interrupt.Preemptor so the interruption system can
// snapshot, preempt, and later resume planning work.
var _ interrupt.Preemptor = (*Planner)(nil)

// SaveState snapshots in-flight actions and resumable plan positions.
func (p *Planner) SaveState() interrupt.SavedState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := interrupt.SavedState{
		Context: map[string]any{},
		SavedAt: time.Now(),
	}
	st.Actions = p.exec.ActiveActions(p.agentID)
	for _, ap := range p.plans {
		if ap.Status == StatusExecuting || ap.Status == StatusPaused {
			st.Plans = append(st.Plans, interrupt.PlanSnapshot{
				PlanID:      ap.ID,
				CurrentStep: ap.CurrentStep,
			})
		}
	}
	return st
}

// CancelAllWork cancels every plan and every submitted action.
func (p *Planner) CancelAllWork(reason string) {
	p.CancelAllPlans(reason)
	p.exec.CancelAll(p.agentID, reason)
}

// CancelLowPriorityWork cancels LOW-priority plans and actions only.
func (p *Planner) CancelLowPriorityWork(reason string) {
	p.mu.Lock()
	for _, ap := range p.plans {
		if !ap.Status.Terminal() && ap.Priority == PriorityLow {
			p.releaseActions(ap, reason)
			p.setStatus(ap, StatusCancelled, reason)
		}
	}
	p.mu.Unlock()
	p.exec.CancelLowPriority(p.agentID, reason)
}

// CancelLowestPriorityWork cancels only the plans sharing the lowest
// priority currently executing.
func (p *Planner) CancelLowestPriorityWork(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lowest := PriorityCritical + 1
	for _, ap := range p.plans {
		if ap.Status == StatusExecuting && ap.Priority < lowest {
			lowest = ap.Priority
		}
	}
	if lowest > PriorityCritical {
		return
	}
	for _, ap := range p.plans {
		if ap.Status == StatusExecuting && ap.Priority == lowest {
			p.releaseActions(ap, reason)
			p.setStatus(ap, StatusCancelled, reason)
		}
	}
}

// Restore re-invokes saved plans from their last completed step. Plans that
// were cancelled by preemption are resurrected from the archive; paused
// plans are simply resumed. Saved actions are not replayed verbatim.
func (p *Planner) Restore(st interrupt.SavedState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, snap := range st.Plans {
		if ap, ok := p.plans[snap.PlanID]; ok {
			if ap.Status == StatusPaused {
				if err := p.executeLocked(ap.ID, time.Now()); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			continue
		}
		cp, ok := p.findArchived(snap.PlanID)
		if !ok {
			continue
		}
		ap := &ActivePlan{
			Plan:           cp.Plan,
			Status:         StatusCreated,
			CurrentStep:    snap.CurrentStep,
			CompletedSteps: snap.CurrentStep,
		}
		p.plans[ap.ID] = ap
		if err := p.executeLocked(ap.ID, time.Now()); err != nil && err != ErrPreconditionsNotMet && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Planner) findArchived(id string) (CompletedPlan, bool) {
	for i := len(p.history) - 1; i >= 0; i-- {
		if p.history[i].ID == id {
			return p.history[i], true
		}
	}
	return CompletedPlan{}, false
}

// #endregion preemptor

// #region queries

// Plan returns a copy of one active plan.
func (p *Planner) Plan(id string) (ActivePlan, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ap, ok := p.plans[id]
	if !ok {
		return ActivePlan{}, false
	}
	return *ap, true
}

// ActivePlans returns copies of every non-archived plan.
func (p *Planner) ActivePlans() []ActivePlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ActivePlan, 0, len(p.plans))
	for _, ap := range p.plans {
		out = append(out, *ap)
	}
	return out
}

// History returns the bounded completed-plan archive, oldest first.
func (p *Planner) History() []CompletedPlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CompletedPlan(nil), p.history...)
}

// #endregion queries
