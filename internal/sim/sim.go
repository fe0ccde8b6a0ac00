// Package sim is a deterministic in-process world: scripted actors, a
// priority-aware action executor, and per-agent sensor views. It backs the
// agentsim demo and the scenario tests.
package sim

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region world

// World holds scripted actors and per-agent vitals.
type World struct {
	mu      sync.RWMutex
	actors  map[string]world.ActorSnapshot
	health  map[string]float64
	maxHP   map[string]float64
	pos     map[string]world.Vec3
	weather world.Weather
	now     time.Time
}

// NewWorld creates an empty world with clear weather.
func NewWorld() *World {
	return &World{
		actors:  make(map[string]world.ActorSnapshot),
		health:  make(map[string]float64),
		maxHP:   make(map[string]float64),
		pos:     make(map[string]world.Vec3),
		weather: world.WeatherClear,
		now:     time.Now(),
	}
}

// PlaceAgent registers an agent's body in the world.
func (w *World) PlaceAgent(id string, at world.Vec3, hp, maxHP float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pos[id] = at
	w.health[id] = hp
	w.maxHP[id] = maxHP
}

// PutActor upserts a scripted actor snapshot.
func (w *World) PutActor(a world.ActorSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actors[a.ID] = a
}

// RemoveActor deletes a scripted actor.
func (w *World) RemoveActor(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.actors, id)
}

// SetHealth updates an agent's health.
func (w *World) SetHealth(id string, hp float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.health[id] = hp
}

// SetWeather updates the world weather.
func (w *World) SetWeather(wx world.Weather) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.weather = wx
}

// #endregion world

// #region sensors

// Sensors is one agent's read view of the world.
type Sensors struct {
	w       *World
	agentID string
}

var _ world.Sensors = (*Sensors)(nil)

// SensorsFor returns the sensor view for one agent.
func (w *World) SensorsFor(agentID string) *Sensors {
	return &Sensors{w: w, agentID: agentID}
}

// NearbyActors returns scripted actors within rangeUnits of the agent.
func (s *Sensors) NearbyActors(rangeUnits float64) ([]world.ActorSnapshot, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	me := s.w.pos[s.agentID]
	var out []world.ActorSnapshot
	for _, a := range s.w.actors {
		if a.ID == s.agentID {
			continue
		}
		if a.Position.Distance(me) <= rangeUnits {
			out = append(out, a)
		}
	}
	return out, nil
}

// Position returns the agent's position.
func (s *Sensors) Position() world.Vec3 {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.pos[s.agentID]
}

// Health returns the agent's current health.
func (s *Sensors) Health() float64 {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.health[s.agentID]
}

// MaxHealth returns the agent's maximum health.
func (s *Sensors) MaxHealth() float64 {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.maxHP[s.agentID]
}

// WorldTime returns the current world time.
func (s *Sensors) WorldTime() time.Time {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.now
}

// Weather returns the current weather.
func (s *Sensors) Weather() world.Weather {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.weather
}

// LineOfSight is always true in the open simulated world.
func (s *Sensors) LineOfSight(world.Vec3, world.Vec3) bool { return true }

// #endregion sensors

// #region executor

// Executor is a thread-safe in-memory action executor. Actions run until
// their configured duration elapses or they are cancelled.
type Executor struct {
	mu       sync.Mutex
	running  map[string]*runningAction
	duration time.Duration
	log      []ExecLogEntry
}

type runningAction struct {
	info  world.ActionInfo
	until time.Time
}

// ExecLogEntry records one executor lifecycle event for assertions.
type ExecLogEntry struct {
	ActionID string
	AgentID  string
	Op       string // "submit" | "cancel"
	Reason   string
}

var _ world.ActionExecutor = (*Executor)(nil)

// NewExecutor creates an executor whose actions take actionDuration.
func NewExecutor(actionDuration time.Duration) *Executor {
	return &Executor{
		running:  make(map[string]*runningAction),
		duration: actionDuration,
	}
}

// Submit starts an action and returns its id.
func (e *Executor) Submit(agentID string, a world.Action, p world.ActionPriority) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	e.running[id] = &runningAction{
		info: world.ActionInfo{
			ID:       id,
			AgentID:  agentID,
			Action:   a,
			Priority: p,
			Started:  now,
		},
		until: now.Add(e.duration),
	}
	e.log = append(e.log, ExecLogEntry{ActionID: id, AgentID: agentID, Op: "submit"})
	return id, nil
}

// Cancel stops one action.
func (e *Executor) Cancel(actionID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ra, ok := e.running[actionID]; ok {
		delete(e.running, actionID)
		e.log = append(e.log, ExecLogEntry{ActionID: actionID, AgentID: ra.info.AgentID, Op: "cancel", Reason: reason})
	}
}

// CancelLowPriority stops every low-priority action of one agent.
func (e *Executor) CancelLowPriority(agentID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, ra := range e.running {
		if ra.info.AgentID == agentID && ra.info.Priority == world.ActionLow {
			delete(e.running, id)
			e.log = append(e.log, ExecLogEntry{ActionID: id, AgentID: agentID, Op: "cancel", Reason: reason})
		}
	}
}

// CancelAll stops every action of one agent.
func (e *Executor) CancelAll(agentID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, ra := range e.running {
		if ra.info.AgentID == agentID {
			delete(e.running, id)
			e.log = append(e.log, ExecLogEntry{ActionID: id, AgentID: agentID, Op: "cancel", Reason: reason})
		}
	}
}

// IsRunning reports whether an action is still in flight. Expired actions
// are settled lazily here.
func (e *Executor) IsRunning(actionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ra, ok := e.running[actionID]
	if !ok {
		return false
	}
	if time.Now().After(ra.until) {
		delete(e.running, actionID)
		return false
	}
	return true
}

// Complete finishes an action immediately. Test hook.
func (e *Executor) Complete(actionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, actionID)
}

// ActiveActions returns the in-flight actions for one agent.
func (e *Executor) ActiveActions(agentID string) []world.ActionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []world.ActionInfo
	for _, ra := range e.running {
		if ra.info.AgentID == agentID {
			out = append(out, ra.info)
		}
	}
	return out
}

// Log returns a copy of the lifecycle log.
func (e *Executor) Log() []ExecLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ExecLogEntry(nil), e.log...)
}

// #endregion executor
