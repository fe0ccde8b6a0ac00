// Package attention scores all current stimuli and arbitrates a single
// focus per agent. It only ranks; it never mutates other subsystems.
package attention

import (
	"log"
	"sync"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/interrupt"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/perception"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region system

// System holds the candidate set, focus, and modulators for one agent.
type System struct {
	cfg     Config
	agentID string
	bus     events.Bus

	mu         sync.RWMutex
	rel        world.Relationships // optional, nil until wired
	mods       Modulators
	focus      *Focus
	candidates map[string]Candidate
	history    []FocusChange
}

// NewSystem creates an attention system publishing focus changes to bus.
func NewSystem(agentID string, bus events.Bus, cfg Config) *System {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &System{
		cfg:     cfg,
		agentID: agentID,
		bus:     bus,
		mods: Modulators{
			Arousal: cfg.ArousalBaseline,
			Stress:  cfg.StressBaseline,
		},
		candidates: make(map[string]Candidate),
	}
}

// SetRelationships wires the host's relationship lookup. Hostile actors
// score higher once it is set; safe to leave unset.
func (s *System) SetRelationships(r world.Relationships) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rel = r
}

// #endregion system

// #region tick

// Tick rebuilds candidates from the latest perception and interruption
// snapshots, advances modulators, and runs the focus-switch rule.
func (s *System) Tick(now time.Time, perceived []perception.PerceivedActor, actives []interrupt.ActiveInterrupt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advanceModulators(now, len(perceived), actives)

	for _, pa := range perceived {
		c := s.scoreActor(pa, now)
		s.candidates[c.Target] = c
	}
	for _, ai := range actives {
		c := s.scoreInterrupt(ai, now)
		// An interrupt candidate competes under the same target key as its
		// source actor; keep whichever scores higher.
		if prev, ok := s.candidates[c.Target]; !ok || c.Value >= prev.Value {
			s.candidates[c.Target] = c
		}
	}

	for key, c := range s.candidates {
		if now.Sub(c.UpdatedAt) > s.cfg.CandidateMaxAge {
			delete(s.candidates, key)
		}
	}

	s.arbitrate(now)
}

// #endregion tick

// #region modulators

func (s *System) advanceModulators(now time.Time, perceivedCount int, actives []interrupt.ActiveInterrupt) {
	m := &s.mods
	m.Arousal -= (m.Arousal - s.cfg.ArousalBaseline) * s.cfg.ArousalDecay
	m.Stress -= (m.Stress - s.cfg.StressBaseline) * s.cfg.StressDecay
	m.Fatigue += s.cfg.FatigueRise

	if perceivedCount > 0 || len(actives) > 0 {
		m.Arousal += s.cfg.PresenceNudge
	}
	for _, ai := range actives {
		if ai.Category == interrupt.CategoryThreat {
			m.Stress += s.cfg.ThreatStress
		}
	}

	m.Arousal = clamp01(m.Arousal)
	m.Stress = clamp01(m.Stress)
	m.Fatigue = clamp01(m.Fatigue)
}

// modulation maps arousal/stress/fatigue onto a scoring multiplier.
// Higher arousal sensitizes, fatigue dampens; stress is applied separately
// to threat-flavored candidates.
func (s *System) modulation() float64 {
	return (0.6 + 0.6*s.mods.Arousal) * (1 - 0.5*s.mods.Fatigue)
}

// Modulators returns the current arousal/stress/fatigue levels.
func (s *System) Modulators() Modulators {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mods
}

// #endregion modulators

// #region scoring

var intentWeights = map[perception.Intent]float64{
	perception.IntentAggressive:        1.0,
	perception.IntentApproachingToTalk: 0.6,
	perception.IntentObserving:         0.4,
	perception.IntentFleeing:           0.3,
	perception.IntentPassing:           0.1,
	perception.IntentUnknown:           0.0,
}

func (s *System) scoreActor(pa perception.PerceivedActor, now time.Time) Candidate {
	factors := make(map[string]float64, 6)

	closeness := 0.0
	if r := s.cfg.AttentionRange; r > 0 && pa.Distance < r {
		closeness = 1 - pa.Distance/r
	}
	factors["closeness"] = closeness

	gaze := 0.0
	if pa.Gaze.IsLooking {
		gaze = 0.4 + 0.6*clamp01(pa.Gaze.Duration.Seconds()/5)
	}
	factors["gaze"] = gaze

	factors["intent"] = intentWeights[pa.Behavior.Intent]

	motion := 0.0
	switch pa.Behavior.Movement {
	case perception.MoveRunning:
		motion = 1.0
	case perception.MoveWalking:
		motion = 0.4
	}
	factors["motion"] = motion

	social := 0.0
	if pa.Social.SpaceViolation {
		social += 0.6
	}
	if pa.Social.AttentionSeeking {
		social += 0.4
	}
	factors["social"] = clamp01(social)

	hostility := 0.0
	if s.rel != nil {
		if strength := s.rel.RelationshipStrength(s.agentID, pa.ID); strength < 0 {
			hostility = clamp01(-strength)
		}
	}
	factors["hostility"] = hostility

	value := s.cfg.WeightCloseness*factors["closeness"] +
		s.cfg.WeightGaze*factors["gaze"] +
		s.cfg.WeightIntent*factors["intent"] +
		s.cfg.WeightMotion*factors["motion"] +
		s.cfg.WeightSocial*factors["social"] +
		s.cfg.WeightHostility*factors["hostility"]

	value *= s.modulation()
	if pa.Behavior.Intent == perception.IntentAggressive {
		value *= 1 + 0.5*s.mods.Stress
	}

	return Candidate{
		Target:    pa.ID,
		Value:     clamp01(value),
		Factors:   factors,
		UpdatedAt: now,
		Source:    SourcePerception,
	}
}

var interruptBase = map[interrupt.Priority]float64{
	interrupt.PriorityLow:      0.3,
	interrupt.PriorityNormal:   0.55,
	interrupt.PriorityHigh:     0.8,
	interrupt.PriorityCritical: 1.0,
}

func (s *System) scoreInterrupt(ai interrupt.ActiveInterrupt, now time.Time) Candidate {
	value := interruptBase[ai.Priority] * s.modulation()
	if ai.Category == interrupt.CategoryThreat {
		value *= 1 + 0.5*s.mods.Stress
	}

	target := ai.Source
	if target == "" {
		target = "interrupt:" + string(ai.Category)
	}
	return Candidate{
		Target:    target,
		Value:     clamp01(value),
		Factors:   map[string]float64{"priority": interruptBase[ai.Priority]},
		UpdatedAt: now,
		Source:    SourceInterrupt,
	}
}

// #endregion scoring

// #region arbitrate

// arbitrate applies the focus-switch rule. Callers hold s.mu.
func (s *System) arbitrate(now time.Time) {
	// A forced focus is only released by expiry or an explicit call.
	if s.focus != nil && s.focus.Forced {
		if !s.focus.ForcedUntil.IsZero() && now.After(s.focus.ForcedUntil) {
			s.dropFocus("forced duration expired", now)
		} else {
			return
		}
	}

	best, ok := s.bestCandidate()
	if !ok {
		return
	}

	switch {
	case s.focus == nil:
		if best.Value >= s.cfg.MinAttention {
			s.setFocus(best, "best candidate", now)
		}
	case best.Target == s.focus.Target:
		s.focus.Strength = best.Value
	case best.Value-s.focus.Strength >= s.cfg.SwitchMargin:
		s.dropFocus("displaced by stronger stimulus", now)
		s.setFocus(best, "stronger stimulus", now)
	}
}

// bestCandidate picks the highest value; ties break on target id so the
// outcome is deterministic across ticks.
func (s *System) bestCandidate() (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range s.candidates {
		if !found || c.Value > best.Value || (c.Value == best.Value && c.Target < best.Target) {
			best = c
			found = true
		}
	}
	return best, found
}

func (s *System) setFocus(c Candidate, reason string, now time.Time) {
	s.focus = &Focus{
		Target:   c.Target,
		Since:    now,
		Reason:   reason,
		Strength: c.Value,
	}
	s.pushHistory(FocusChange{Target: c.Target, Reason: reason, Gained: true, At: now})
	s.bus.Publish(events.FocusGained{
		AgentID:  s.agentID,
		Target:   c.Target,
		Reason:   reason,
		Strength: c.Value,
		At:       now,
	})
}

func (s *System) dropFocus(reason string, now time.Time) {
	if s.focus == nil {
		return
	}
	target := s.focus.Target
	s.focus = nil
	s.pushHistory(FocusChange{Target: target, Reason: reason, Gained: false, At: now})
	s.bus.Publish(events.FocusLost{
		AgentID: s.agentID,
		Target:  target,
		Reason:  reason,
		At:      now,
	})
}

func (s *System) pushHistory(fc FocusChange) {
	s.history = append(s.history, fc)
	if cap := s.cfg.FocusHistoryCap; cap > 0 && len(s.history) > cap {
		s.history = s.history[len(s.history)-cap:]
	}
}

// #endregion arbitrate

// #region api

// Offer injects a pre-scored candidate from an external subsystem. The
// value is clamped to [0,1]; arbitration happens on the next Tick.
func (s *System) Offer(target string, value float64, source Source, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[target] = Candidate{
		Target:    target,
		Value:     clamp01(value),
		Factors:   map[string]float64{"offered": clamp01(value)},
		UpdatedAt: now,
		Source:    source,
	}
}

// Focus returns the current focus, if any.
func (s *System) Focus() (Focus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.focus == nil {
		return Focus{}, false
	}
	return *s.focus, true
}

// Strength returns the current attention value for one target.
func (s *System) Strength(target string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candidates[target].Value
}

// Candidates returns a copy of the current candidate set.
func (s *System) Candidates() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, c)
	}
	return out
}

// History returns the bounded focus-change history, oldest first.
func (s *System) History() []FocusChange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]FocusChange(nil), s.history...)
}

// ForceFocus pins attention on target. A zero duration means until
// explicitly released; otherwise the focus auto-releases after it.
func (s *System) ForceFocus(target, reason string, duration time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focus != nil && s.focus.Target != target {
		s.dropFocus("displaced by forced focus", now)
	}
	f := &Focus{
		Target:   target,
		Since:    now,
		Reason:   reason,
		Strength: 1.0,
		Forced:   true,
	}
	if duration > 0 {
		f.ForcedUntil = now.Add(duration)
	}
	s.focus = f
	s.pushHistory(FocusChange{Target: target, Reason: reason, Gained: true, At: now})
	s.bus.Publish(events.FocusGained{
		AgentID:  s.agentID,
		Target:   target,
		Reason:   reason,
		Strength: 1.0,
		At:       now,
	})
}

// ReleaseFocus drops the current focus. Idempotent: a second call is a
// no-op and publishes nothing.
func (s *System) ReleaseFocus(reason string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropFocus(reason, now)
}

// ApplyModifier injects a signed attention modifier.
func (s *System) ApplyModifier(kind ModifierKind, magnitude float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case ModArousal:
		s.mods.Arousal = clamp01(s.mods.Arousal + magnitude)
	case ModStress, ModFear:
		s.mods.Stress = clamp01(s.mods.Stress + magnitude)
	case ModFatigue:
		s.mods.Fatigue = clamp01(s.mods.Fatigue + magnitude)
	case ModInterest, ModCuriosity:
		s.mods.Arousal = clamp01(s.mods.Arousal + magnitude*0.5)
	case ModFocusBoost:
		if s.focus != nil {
			s.focus.Strength = clamp01(s.focus.Strength + magnitude)
		}
	case ModDistraction:
		if s.focus != nil {
			s.focus.Strength = clamp01(s.focus.Strength - magnitude)
		}
	default:
		log.Printf("[ATTN] %s: unknown modifier %q ignored", s.agentID, kind)
	}
}

// #endregion api

// #region helpers

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
