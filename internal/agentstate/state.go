// Package agentstate holds the single coarse, externally visible behavior
// state per agent and enforces the transition adjacency table.
package agentstate

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
)

// #region state

// State is the coarse behavior state.
type State string

const (
	StateIdle       State = "idle"
	StateActive     State = "active"
	StateTalking    State = "talking"
	StateFighting   State = "fighting"
	StateTrading    State = "trading"
	StateCrafting   State = "crafting"
	StatePatrolling State = "patrolling"
	StateSleeping   State = "sleeping"
	StateFollowing  State = "following"
	StateFleeing    State = "fleeing"
	StateDead       State = "dead"
)

// adjacency lists legal non-dead targets per state. Entering dead is always
// legal from any living state; nothing leaves dead.
var adjacency = map[State][]State{
	StateIdle:       {StateActive, StateTalking, StateFighting, StateTrading, StateCrafting, StatePatrolling, StateSleeping, StateFollowing, StateFleeing},
	StateActive:     {StateIdle, StateTalking, StateFighting, StateTrading, StateCrafting, StatePatrolling, StateFollowing, StateFleeing},
	StateTalking:    {StateIdle, StateActive, StateFighting, StateFleeing},
	StateFighting:   {StateIdle, StateActive, StateFleeing},
	StateTrading:    {StateIdle, StateActive, StateTalking},
	StateCrafting:   {StateIdle, StateActive},
	StatePatrolling: {StateIdle, StateActive, StateFighting, StateTalking},
	StateSleeping:   {StateIdle, StateActive, StateFighting},
	StateFollowing:  {StateIdle, StateActive, StateFighting, StateFleeing},
	StateFleeing:    {StateIdle, StateActive, StateFighting},
	StateDead:       {},
}

// Legal reports whether from → to passes the adjacency table.
func Legal(from, to State) bool {
	if from == StateDead {
		return false
	}
	if to == StateDead {
		return true
	}
	for _, s := range adjacency[from] {
		if s == to {
			return true
		}
	}
	return false
}

// #endregion state

// #region types

// Transition is one entry of the bounded transition history.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// Listener observes committed transitions. A panicking listener is logged
// and skipped; the transition stands.
type Listener func(tr Transition)

// Config holds state-machine tuning knobs.
type Config struct {
	HistoryCap int

	// Timed reversions scheduled on entry, randomized in [Min, Max].
	SleepMin, SleepMax time.Duration
	CraftMin, CraftMax time.Duration
	FleeMin, FleeMax   time.Duration

	// Idle heuristics: after IdleDwell without stimuli in a restless
	// state, a self-transition fires with IdleActChance per check.
	IdleDwell     time.Duration
	IdleActChance float64
}

// DefaultConfig returns sensible state-machine defaults.
func DefaultConfig() Config {
	return Config{
		HistoryCap:    64,
		SleepMin:      8 * time.Hour,
		SleepMax:      12 * time.Hour,
		CraftMin:      30 * time.Second,
		CraftMax:      60 * time.Second,
		FleeMin:       10 * time.Second,
		FleeMax:       30 * time.Second,
		IdleDwell:     45 * time.Second,
		IdleActChance: 0.25,
	}
}

// #endregion types

// #region machine

// Machine is the per-agent state holder. TransitionTo is mutually
// exclusive: one in-flight transition at a time.
type Machine struct {
	cfg     Config
	agentID string
	bus     events.Bus

	mu        sync.Mutex
	state     State
	since     time.Time
	history   []Transition
	perState  map[State][]Listener
	global    []Listener
	rng       *rand.Rand

	// state-scoped reversion timer, cleared on exit
	revertAt     time.Time
	revertTo     State
	revertReason string
}

// NewMachine creates a machine starting in idle.
func NewMachine(agentID string, bus events.Bus, cfg Config, seed int64) *Machine {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Machine{
		cfg:      cfg,
		agentID:  agentID,
		bus:      bus,
		state:    StateIdle,
		since:    time.Now(),
		perState: make(map[State][]Listener),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Since returns when the current state was entered.
func (m *Machine) Since() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.since
}

// History returns the bounded transition history, oldest first.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transition(nil), m.history...)
}

// OnState registers a listener for transitions into one state.
func (m *Machine) OnState(st State, l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perState[st] = append(m.perState[st], l)
}

// OnAny registers a listener for every transition.
func (m *Machine) OnAny(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = append(m.global, l)
}

// #endregion machine

// #region transition

// TransitionTo moves the machine to the target state. Illegal requests
// return false and are logged at debug level. force bypasses the adjacency
// table but never leaves dead. A panic in enter/exit logic aborts the
// transition with the state unchanged.
func (m *Machine) TransitionTo(to State, reason string, force bool) (ok bool) {
	m.mu.Lock()
	from := m.state

	if from == StateDead {
		m.mu.Unlock()
		return false
	}
	if !force && !Legal(from, to) {
		m.mu.Unlock()
		log.Printf("[STATE] %s: denied %s → %s (%s)", m.agentID, from, to, reason)
		return false
	}

	now := time.Now()
	prevRevertAt, prevRevertTo, prevRevertReason := m.revertAt, m.revertTo, m.revertReason

	defer func() {
		if r := recover(); r != nil {
			// Abort: restore old state and its timer.
			m.state = from
			m.revertAt, m.revertTo, m.revertReason = prevRevertAt, prevRevertTo, prevRevertReason
			m.mu.Unlock()
			log.Printf("[STATE] %s: transition %s → %s aborted: %v", m.agentID, from, to, r)
			ok = false
		}
	}()

	m.exitState(from)
	m.state = to
	m.since = now
	m.enterState(to, now)

	tr := Transition{From: from, To: to, Reason: reason, At: now}
	m.history = append(m.history, tr)
	if cap := m.cfg.HistoryCap; cap > 0 && len(m.history) > cap {
		m.history = m.history[len(m.history)-cap:]
	}

	stateSubs := append([]Listener(nil), m.perState[to]...)
	globalSubs := append([]Listener(nil), m.global...)
	m.mu.Unlock()

	log.Printf("[STATE] %s: %s → %s (%s)", m.agentID, from, to, reason)
	for _, l := range stateSubs {
		notify(l, tr)
	}
	for _, l := range globalSubs {
		notify(l, tr)
	}
	m.bus.Publish(events.StateChanged{
		AgentID: m.agentID,
		From:    string(from),
		To:      string(to),
		Reason:  reason,
		At:      now,
	})
	return true
}

func notify(l Listener, tr Transition) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[STATE] listener panic on %s → %s: %v", tr.From, tr.To, r)
		}
	}()
	l(tr)
}

// exitState cancels state-scoped timers. Callers hold m.mu.
func (m *Machine) exitState(State) {
	m.revertAt = time.Time{}
	m.revertTo = ""
	m.revertReason = ""
}

// enterState schedules automatic timed reversions. Callers hold m.mu.
func (m *Machine) enterState(to State, now time.Time) {
	switch to {
	case StateSleeping:
		m.scheduleRevert(now, m.cfg.SleepMin, m.cfg.SleepMax, StateIdle, "woke up")
	case StateCrafting:
		m.scheduleRevert(now, m.cfg.CraftMin, m.cfg.CraftMax, StateIdle, "finished crafting")
	case StateFleeing:
		m.scheduleRevert(now, m.cfg.FleeMin, m.cfg.FleeMax, StateIdle, "calmed down")
	}
}

func (m *Machine) scheduleRevert(now time.Time, min, max time.Duration, to State, reason string) {
	d := min
	if max > min {
		d += time.Duration(m.rng.Int63n(int64(max - min)))
	}
	m.revertAt = now.Add(d)
	m.revertTo = to
	m.revertReason = reason
}

// #endregion transition

// #region tick

// Tick fires due reversion timers and the idle-dwell heuristic.
// hasStimuli suppresses the heuristic while anything interesting is near.
func (m *Machine) Tick(now time.Time, hasStimuli bool) {
	m.mu.Lock()
	var revertTo State
	var revertReason string
	if !m.revertAt.IsZero() && now.After(m.revertAt) {
		revertTo, revertReason = m.revertTo, m.revertReason
	}

	var dwellTo State
	var dwellReason string
	if revertTo == "" && !hasStimuli && m.cfg.IdleDwell > 0 && now.Sub(m.since) >= m.cfg.IdleDwell {
		if m.rng.Float64() < m.cfg.IdleActChance {
			switch m.state {
			case StateIdle:
				dwellTo, dwellReason = StatePatrolling, "restless"
			case StateActive, StateTalking, StatePatrolling:
				dwellTo, dwellReason = StateIdle, "nothing going on"
			}
		}
	}
	m.mu.Unlock()

	if revertTo != "" {
		m.TransitionTo(revertTo, revertReason, false)
	} else if dwellTo != "" {
		m.TransitionTo(dwellTo, dwellReason, false)
	}
}

// #endregion tick

// #region event-driven

// HandleEvent maps inbound host events onto transition requests. Requests
// are honored only if legal per the adjacency table.
func (m *Machine) HandleEvent(ev events.Event) {
	switch e := ev.(type) {
	case events.Attacked:
		m.TransitionTo(StateFighting, "attacked by "+e.By, false)
	case events.SpokenTo:
		m.TransitionTo(StateTalking, "spoken to by "+e.By, false)
	case events.TradeStarted:
		m.TransitionTo(StateTrading, "trade with "+e.With, false)
	}
}

// #endregion event-driven
