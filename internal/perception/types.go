package perception

import (
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region movement

// MovementClass buckets an actor's speed.
type MovementClass string

const (
	MoveStationary MovementClass = "stationary"
	MoveWalking    MovementClass = "walking"
	MoveRunning    MovementClass = "running"
)

// MovementPattern describes motion relative to the observing agent.
type MovementPattern string

const (
	PatternNone        MovementPattern = "none"
	PatternApproaching MovementPattern = "approaching"
	PatternRetreating  MovementPattern = "retreating"
	PatternCircling    MovementPattern = "circling"
)

// #endregion movement

// #region intent

// Intent is the inferred reason an actor is nearby.
type Intent string

const (
	IntentUnknown           Intent = "unknown"
	IntentAggressive        Intent = "aggressive"
	IntentApproachingToTalk Intent = "approaching_to_talk"
	IntentObserving         Intent = "observing"
	IntentFleeing           Intent = "fleeing"
	IntentPassing           Intent = "passing"
)

// #endregion intent

// #region gaze

// GazeEvent is one look-start or look-stop transition.
type GazeEvent struct {
	Started bool // true = began looking, false = stopped
	At      time.Time
}

// GazeRecord tracks whether and for how long an actor has been looking
// at the agent. Events is a bounded ring, oldest evicted first.
type GazeRecord struct {
	IsLooking bool
	Since     time.Time     // start of the current looking streak
	Duration  time.Duration // length of the current looking streak
	Events    []GazeEvent
}

// #endregion gaze

// #region analysis

// BehaviorAnalysis is the per-tick movement and intent read on an actor.
type BehaviorAnalysis struct {
	Speed    float64
	Movement MovementClass
	Pattern  MovementPattern
	Held     world.ItemClass
	Intent   Intent
}

// BodyLanguage is a coarse posture classification.
type BodyLanguage string

const (
	BodyNeutral     BodyLanguage = "neutral"
	BodyThreatening BodyLanguage = "threatening"
	BodyEvasive     BodyLanguage = "evasive"
)

// SocialSignals is the per-tick social read on an actor.
type SocialSignals struct {
	SpaceViolation   bool // inside personal space while moving
	AttentionSeeking bool // sustained or repeated gazing
	Body             BodyLanguage
}

// #endregion analysis

// #region perceived-actor

// PerceivedActor is the agent's current belief about one nearby actor.
// Exactly one record exists per actor identity.
type PerceivedActor struct {
	ID        string
	Name      string
	Position  world.Vec3
	Distance  float64
	Visible   bool
	Gaze      GazeRecord
	Behavior  BehaviorAnalysis
	Social    SocialSignals
	FirstSeen time.Time
	LastSeen  time.Time
}

// #endregion perceived-actor

// #region config

// Config holds perception tuning knobs.
type Config struct {
	MaxSenseDistance  float64       // sensor query radius
	AttentionDistance float64       // max distance at which gaze registers
	GazeAngleDeg      float64       // max angle between facing and line-to-agent
	PersonalSpace     float64       // personal-space radius
	StationaryBelow   float64       // speed below this is stationary
	RunningAbove      float64       // speed above this is running
	SustainedGaze     time.Duration // gaze streak that counts as sustained
	GazeBurstCount    int           // look-starts in the event ring that count as seeking
	GazeEventCap      int           // bounded gaze event ring size
	MaxRecordAge      time.Duration // purge records not seen for this long
}

// DefaultConfig returns sensible perception defaults.
func DefaultConfig() Config {
	return Config{
		MaxSenseDistance:  32,
		AttentionDistance: 16,
		GazeAngleDeg:      30,
		PersonalSpace:     3,
		StationaryBelow:   0.05,
		RunningAbove:      5.0,
		SustainedGaze:     1500 * time.Millisecond,
		GazeBurstCount:    3,
		GazeEventCap:      16,
		MaxRecordAge:      30 * time.Second,
	}
}

// #endregion config
