// Package agent assembles one agent's behavior pipeline and drives it from
// a single goroutine, visiting subsystems in dependency order so perception
// output is always current before attention and interruption read it.
package agent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/agentstate"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/attention"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/interrupt"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/perception"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/plan"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region config

// Config holds the per-subsystem tick cadences and component tuning.
type Config struct {
	PerceptionInterval time.Duration // ≈2Hz
	AttentionInterval  time.Duration // ≈2Hz
	InterruptInterval  time.Duration // ≈4Hz
	PlanInterval       time.Duration // ≈0.5Hz
	StateInterval      time.Duration // ≈1Hz

	Perception perception.Config
	Attention  attention.Config
	Interrupt  interrupt.Config
	Plan       plan.Config
	State      agentstate.Config

	DecisionTimeout time.Duration // budget for the external decider
	Seed            int64         // state-machine rng seed; 0 → time-based
}

// DefaultConfig returns sensible agent defaults.
func DefaultConfig() Config {
	return Config{
		PerceptionInterval: 500 * time.Millisecond,
		AttentionInterval:  500 * time.Millisecond,
		InterruptInterval:  250 * time.Millisecond,
		PlanInterval:       2 * time.Second,
		StateInterval:      time.Second,
		Perception:         perception.DefaultConfig(),
		Attention:          attention.DefaultConfig(),
		Interrupt:          interrupt.DefaultConfig(),
		Plan:               plan.DefaultConfig(),
		State:              agentstate.DefaultConfig(),
		DecisionTimeout:    2 * time.Second,
		Seed:               0,
	}
}

// Deps are the shared external collaborators. Sensors is required; the
// rest default to no-ops when nil.
type Deps struct {
	Sensors  world.Sensors
	Executor world.ActionExecutor
	Bus      events.Bus
	Memory   world.Memory
	Decider  world.Decider
	Rel      world.Relationships
}

// #endregion config

// #region agent

// Agent owns one NPC's perception, attention, interruption, planning, and
// state machine. Nothing here is shared with other agents.
type Agent struct {
	ID  string
	cfg Config

	sensors world.Sensors
	exec    world.ActionExecutor
	bus     events.Bus
	memory  world.Memory
	decider world.Decider

	Perception *perception.System
	Attention  *attention.System
	Interrupts *interrupt.System
	Planner    *plan.Planner
	Machine    *agentstate.Machine

	mu      sync.Mutex
	lastRun map[string]time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New wires an agent. The planner is registered as the interruption
// system's preemption target, and interrupt outcomes are coupled to the
// state machine before any loop starts.
func New(id string, deps Deps, cfg Config) (*Agent, error) {
	if deps.Sensors == nil {
		return nil, fmt.Errorf("agent %s: sensors are required", id)
	}
	bus := deps.Bus
	if bus == nil {
		bus = events.NopBus{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	a := &Agent{
		ID:      id,
		cfg:     cfg,
		sensors: deps.Sensors,
		exec:    deps.Executor,
		bus:     bus,
		memory:  deps.Memory,
		decider: deps.Decider,
		lastRun: make(map[string]time.Time),
	}

	a.Perception = perception.NewSystem(id, deps.Sensors, cfg.Perception)
	a.Attention = attention.NewSystem(id, bus, cfg.Attention)
	if deps.Rel != nil {
		a.Attention.SetRelationships(deps.Rel)
	}
	a.Interrupts = interrupt.NewSystem(id, bus, nil, cfg.Interrupt)
	a.Planner = plan.NewPlanner(id, deps.Executor, bus, cfg.Plan)
	a.Machine = agentstate.NewMachine(id, bus, cfg.State, seed)

	a.Interrupts.SetPreemptor(a.Planner)
	for _, m := range interrupt.DefaultMonitors(cfg.Perception.PersonalSpace) {
		a.Interrupts.AddMonitor(m)
	}
	a.registerHandlers()
	a.recordEpisodes()

	return a, nil
}

// registerHandlers couples interrupt categories to state transitions.
func (a *Agent) registerHandlers() {
	a.Interrupts.RegisterHandler(interrupt.CategoryThreat, interrupt.Handler{
		Name: "threat",
		Rank: 10,
		Handle: func(i interrupt.Interrupt) error {
			if i.Priority >= interrupt.PriorityCritical {
				a.Machine.TransitionTo(agentstate.StateFighting, i.Reason, false)
			} else {
				a.Machine.TransitionTo(agentstate.StateActive, i.Reason, false)
			}
			return nil
		},
	})
	a.Interrupts.RegisterHandler(interrupt.CategoryHealth, interrupt.Handler{
		Name: "health",
		Rank: 10,
		Handle: func(i interrupt.Interrupt) error {
			if i.Priority >= interrupt.PriorityCritical {
				a.Machine.TransitionTo(agentstate.StateFleeing, i.Reason, false)
			}
			return nil
		},
	})
	a.Interrupts.RegisterHandler(interrupt.CategorySocial, interrupt.Handler{
		Name: "social",
		Rank: 5,
		// Social interrupts never tear down current work.
		ShouldPreempt: func(interrupt.Interrupt) bool { return false },
		Handle: func(i interrupt.Interrupt) error {
			if i.Source != "" {
				a.Attention.ApplyModifier(attention.ModInterest, 0.2)
			}
			return nil
		},
	})
}

// recordEpisodes mirrors notable lifecycle moments into episodic memory.
func (a *Agent) recordEpisodes() {
	if a.memory == nil {
		return
	}
	a.Machine.OnAny(func(tr agentstate.Transition) {
		ep := world.Episode{
			AgentID: a.ID,
			Kind:    "state_change",
			Summary: fmt.Sprintf("%s → %s: %s", tr.From, tr.To, tr.Reason),
			At:      tr.At,
		}
		if err := a.memory.AddEpisode(ep); err != nil {
			log.Printf("[AGENT] %s: memory write failed: %v", a.ID, err)
		}
	})
}

// #endregion agent

// #region tick

// Tick runs every due subsystem once, in dependency order:
// perception → interruption → attention → planning → state. Preemption
// happens inside the interruption step, so the planner's own tick always
// observes already-cancelled actions.
func (a *Agent) Tick(now time.Time) {
	if a.due("perception", now, a.cfg.PerceptionInterval) {
		a.Perception.Tick(now)
	}

	perceived := a.Perception.Snapshot()

	if a.due("interrupt", now, a.cfg.InterruptInterval) {
		a.Interrupts.Tick(now, interrupt.MonitorView{
			Perceived: perceived,
			Health:    a.sensors.Health(),
			MaxHealth: a.sensors.MaxHealth(),
			Weather:   a.sensors.Weather(),
		})
	}

	if a.due("attention", now, a.cfg.AttentionInterval) {
		a.Attention.Tick(now, perceived, a.Interrupts.Active())
	}

	if a.due("plan", now, a.cfg.PlanInterval) {
		a.Planner.Tick(now)
	}

	if a.due("state", now, a.cfg.StateInterval) {
		hasStimuli := len(perceived) > 0 || len(a.Interrupts.Active()) > 0
		a.Machine.Tick(now, hasStimuli)
	}
}

func (a *Agent) due(name string, now time.Time, interval time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if last, ok := a.lastRun[name]; ok && now.Sub(last) < interval {
		return false
	}
	a.lastRun[name] = now
	return true
}

// #endregion tick

// #region lifecycle

// Start launches the driver goroutine. The base period is the interrupt
// cadence, the fastest loop.
func (a *Agent) Start(ctx context.Context) {
	a.mu.Lock()
	if a.cancel != nil || a.stopped {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.mu.Unlock()

	go func() {
		defer close(a.done)
		ticker := time.NewTicker(a.cfg.InterruptInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				a.Tick(now)
			}
		}
	}()
	log.Printf("[AGENT] %s: started", a.ID)
}

// Stop cancels the driver loop, ends all interrupts, cancels all plans and
// in-flight actions, and releases any focus. Idempotent.
func (a *Agent) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	cancel := a.cancel
	done := a.done
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	a.Interrupts.Shutdown()
	a.Planner.CancelAllPlans("agent stopped")
	if a.exec != nil {
		a.exec.CancelAll(a.ID, "agent stopped")
	}
	a.Attention.ReleaseFocus("agent stopped", time.Now())
	log.Printf("[AGENT] %s: stopped", a.ID)
}

// #endregion lifecycle

// #region inbound

// HandleEvent routes an inbound host event (attacked, spoken to, trade)
// to the state machine. Events addressed to other agents are ignored.
// Hosts using a CallbackBus subscribe this method for the inbound kinds.
func (a *Agent) HandleEvent(ev events.Event) {
	if ev.Agent() != a.ID {
		return
	}
	a.Machine.HandleEvent(ev)
	if at, ok := ev.(events.Attacked); ok {
		a.Attention.ApplyModifier(attention.ModFear, 0.3)
		a.Interrupts.Raise(interrupt.Interrupt{
			Category: interrupt.CategoryThreat,
			Reason:   "ATTACKED",
			Priority: interrupt.PriorityCritical,
			Source:   at.By,
			At:       at.At,
		})
	}
}

// #endregion inbound

// #region decisions

// SuggestGoal asks the external decider for a goal suggestion with a
// bounded timeout, falling back to nil ("no opinion") on miss or error.
func (a *Agent) SuggestGoal(ctx context.Context, prompt string) *world.Decision {
	if a.decider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.DecisionTimeout)
	defer cancel()
	d, err := a.decider.Suggest(ctx, prompt, a.cfg.DecisionTimeout)
	if err != nil {
		log.Printf("[AGENT] %s: decider unavailable, using fallback: %v", a.ID, err)
		return nil
	}
	return d
}

// #endregion decisions

// #region health

// Healthy reports whether the agent's subsystems are within safety limits.
func (a *Agent) Healthy() bool {
	return a.Interrupts.Healthy()
}

// #endregion health
