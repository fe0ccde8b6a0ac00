// Package perception turns raw sensor readings into time-stamped beliefs
// about nearby actors: gaze, movement, inferred intent, social signals.
package perception

import (
	"log"
	"sync"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region system

// System maintains the rolling per-actor belief set for one agent.
type System struct {
	cfg     Config
	agentID string
	sensors world.Sensors

	mu     sync.RWMutex
	actors map[string]*PerceivedActor
}

// NewSystem creates a perception system reading from sensors.
func NewSystem(agentID string, sensors world.Sensors, cfg Config) *System {
	return &System{
		cfg:     cfg,
		agentID: agentID,
		sensors: sensors,
		actors:  make(map[string]*PerceivedActor),
	}
}

// #endregion system

// #region tick

// Tick refreshes beliefs from the current sensor scan. A failed scan keeps
// the previous beliefs; a malformed single snapshot is skipped, not fatal.
func (s *System) Tick(now time.Time) {
	snapshots, err := s.sensors.NearbyActors(s.cfg.MaxSenseDistance)
	if err != nil {
		log.Printf("[PERC] %s: sensor scan error (using %d partial): %v", s.agentID, len(snapshots), err)
	}

	agentPos := s.sensors.Position()

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		if snap.ID == "" {
			log.Printf("[PERC] %s: skipping snapshot with empty id", s.agentID)
			continue
		}
		seen[snap.ID] = true
		s.updateActor(now, agentPos, snap)
	}

	// Actors missing from this scan stay as stale beliefs until they age out.
	for id, pa := range s.actors {
		if !seen[id] {
			pa.Visible = false
			if pa.Gaze.IsLooking {
				s.endGaze(pa, now)
			}
		}
		if now.Sub(pa.LastSeen) > s.cfg.MaxRecordAge {
			delete(s.actors, id)
		}
	}
}

func (s *System) updateActor(now time.Time, agentPos world.Vec3, snap world.ActorSnapshot) {
	pa, ok := s.actors[snap.ID]
	if !ok {
		pa = &PerceivedActor{
			ID:        snap.ID,
			Name:      snap.Name,
			FirstSeen: now,
		}
		s.actors[snap.ID] = pa
	}

	prevDist := pa.Distance
	pa.Name = snap.Name
	pa.Position = snap.Position
	pa.Distance = snap.Position.Distance(agentPos)
	pa.Visible = s.sensors.LineOfSight(agentPos, snap.Position)
	pa.LastSeen = now

	s.updateGaze(pa, now, agentPos, snap)
	s.updateBehavior(pa, ok, prevDist, snap)
	s.updateSocial(pa, snap)

	pa.Behavior.Intent = inferIntent(pa, s.cfg)
}

// #endregion tick

// #region gaze

// updateGaze accumulates looking duration and records look transitions.
// An actor is looking when its facing is within GazeAngleDeg of the
// line to the agent and it is inside AttentionDistance with line of sight.
func (s *System) updateGaze(pa *PerceivedActor, now time.Time, agentPos world.Vec3, snap world.ActorSnapshot) {
	toAgent := agentPos.Sub(snap.Position)
	looking := pa.Visible &&
		pa.Distance <= s.cfg.AttentionDistance &&
		snap.Forward.AngleTo(toAgent) <= s.cfg.GazeAngleDeg

	switch {
	case looking && !pa.Gaze.IsLooking:
		pa.Gaze.IsLooking = true
		pa.Gaze.Since = now
		pa.Gaze.Duration = 0
		s.pushGazeEvent(pa, GazeEvent{Started: true, At: now})
	case looking:
		pa.Gaze.Duration = now.Sub(pa.Gaze.Since)
	case pa.Gaze.IsLooking:
		s.endGaze(pa, now)
	}
}

func (s *System) endGaze(pa *PerceivedActor, now time.Time) {
	pa.Gaze.IsLooking = false
	pa.Gaze.Duration = 0
	s.pushGazeEvent(pa, GazeEvent{Started: false, At: now})
}

func (s *System) pushGazeEvent(pa *PerceivedActor, ev GazeEvent) {
	pa.Gaze.Events = append(pa.Gaze.Events, ev)
	if cap := s.cfg.GazeEventCap; cap > 0 && len(pa.Gaze.Events) > cap {
		pa.Gaze.Events = pa.Gaze.Events[len(pa.Gaze.Events)-cap:]
	}
}

// #endregion gaze

// #region behavior

func (s *System) updateBehavior(pa *PerceivedActor, known bool, prevDist float64, snap world.ActorSnapshot) {
	speed := snap.Velocity.Length()
	pa.Behavior.Speed = speed
	pa.Behavior.Held = snap.Held

	switch {
	case speed < s.cfg.StationaryBelow:
		pa.Behavior.Movement = MoveStationary
	case speed > s.cfg.RunningAbove:
		pa.Behavior.Movement = MoveRunning
	default:
		pa.Behavior.Movement = MoveWalking
	}

	if !known || pa.Behavior.Movement == MoveStationary {
		pa.Behavior.Pattern = PatternNone
		return
	}
	delta := pa.Distance - prevDist
	switch {
	case delta < -0.01:
		pa.Behavior.Pattern = PatternApproaching
	case delta > 0.01:
		pa.Behavior.Pattern = PatternRetreating
	default:
		pa.Behavior.Pattern = PatternCircling
	}
}

// #endregion behavior

// #region social

func (s *System) updateSocial(pa *PerceivedActor, snap world.ActorSnapshot) {
	moving := pa.Behavior.Movement != MoveStationary
	pa.Social.SpaceViolation = pa.Distance < s.cfg.PersonalSpace && moving

	starts := 0
	for _, ev := range pa.Gaze.Events {
		if ev.Started {
			starts++
		}
	}
	pa.Social.AttentionSeeking = pa.Gaze.Duration >= s.cfg.SustainedGaze ||
		starts >= s.cfg.GazeBurstCount

	switch {
	case snap.Held == world.ItemWeapon:
		pa.Social.Body = BodyThreatening
	case snap.Sneaking:
		pa.Social.Body = BodyEvasive
	default:
		pa.Social.Body = BodyNeutral
	}
}

// #endregion social

// #region queries

// Snapshot returns a copy of every current belief record.
func (s *System) Snapshot() []PerceivedActor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PerceivedActor, 0, len(s.actors))
	for _, pa := range s.actors {
		out = append(out, clone(pa))
	}
	return out
}

// Actor returns the belief record for one actor id.
func (s *System) Actor(id string) (PerceivedActor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pa, ok := s.actors[id]
	if !ok {
		return PerceivedActor{}, false
	}
	return clone(pa), true
}

// GazingActors returns every actor currently looking at the agent.
func (s *System) GazingActors() []PerceivedActor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []PerceivedActor
	for _, pa := range s.actors {
		if pa.Gaze.IsLooking {
			out = append(out, clone(pa))
		}
	}
	return out
}

func clone(pa *PerceivedActor) PerceivedActor {
	cp := *pa
	cp.Gaze.Events = append([]GazeEvent(nil), pa.Gaze.Events...)
	return cp
}

// #endregion queries
