package world

import (
	"context"
	"time"
)

// The behavior core never owns these collaborators; each is an in-process
// contract provided by the host (game bindings, storage, model client).
// All implementations must tolerate concurrent calls from many agents' loops.

// #region sensors

// Sensors is the read-only view of the world around one agent.
type Sensors interface {
	// NearbyActors returns snapshots for actors within rangeUnits.
	// A non-nil error may accompany partial results; callers use what they got.
	NearbyActors(rangeUnits float64) ([]ActorSnapshot, error)
	Position() Vec3
	Health() float64
	MaxHealth() float64
	WorldTime() time.Time
	Weather() Weather
	LineOfSight(from, to Vec3) bool
}

// #endregion sensors

// #region action-executor

// ActionExecutor runs actions in the world on behalf of agents.
// Shared across agents; must be thread-safe.
type ActionExecutor interface {
	Submit(agentID string, a Action, p ActionPriority) (string, error)
	Cancel(actionID, reason string)
	CancelLowPriority(agentID, reason string)
	CancelAll(agentID, reason string)
	IsRunning(actionID string) bool
	ActiveActions(agentID string) []ActionInfo
}

// #endregion action-executor

// #region memory

// Memory is the narrow episodic/semantic store contract.
// Persistence, decay, and summarization live behind it, out of core scope.
type Memory interface {
	AddEpisode(ep Episode) error
	RecentEpisodes(agentID string, limit int) ([]Episode, error)
	Knowledge(agentID, topic string) (string, bool)
}

// #endregion memory

// #region decider

// Decider is the async decision/text-generation collaborator.
// Suggest must respect ctx; callers always carry a fallback for nil results.
type Decider interface {
	Suggest(ctx context.Context, prompt string, timeout time.Duration) (*Decision, error)
}

// #endregion decider

// #region relationships

// Relationships exposes relationship-strength lookups kept by the social layer.
// Strength is in [-1, 1]: negative hostile, positive friendly.
type Relationships interface {
	RelationshipStrength(agentID, actorID string) float64
}

// #endregion relationships
