package plan

import (
	"errors"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region status

// Status is the plan lifecycle state.
type Status string

const (
	StatusCreated   Status = "created"
	StatusExecuting Status = "executing"
	StatusBlocked   Status = "blocked"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// legalNext is the plan state machine. Terminal statuses have no entries.
var legalNext = map[Status][]Status{
	StatusCreated:   {StatusExecuting, StatusBlocked, StatusCancelled},
	StatusBlocked:   {StatusCreated, StatusCancelled, StatusFailed},
	StatusExecuting: {StatusPaused, StatusCompleted, StatusFailed, StatusCancelled},
	StatusPaused:    {StatusExecuting, StatusCancelled, StatusFailed},
}

// Terminal reports whether st accepts no further transitions.
func (st Status) Terminal() bool {
	return st == StatusCompleted || st == StatusFailed || st == StatusCancelled
}

func legalStatus(from, to Status) bool {
	for _, s := range legalNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// #endregion status

// #region mode

// Mode selects how a plan's actions are dispatched.
type Mode string

const (
	ModeSequential  Mode = "sequential"
	ModeParallel    Mode = "parallel"
	ModeConditional Mode = "conditional" // baseline: dispatched sequentially
	ModeReactive    Mode = "reactive"    // armed, starts when Trigger fires
)

// #endregion mode

// #region priority

// Priority is the plan priority class.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the uppercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

func (p Priority) actionPriority() world.ActionPriority {
	switch p {
	case PriorityLow:
		return world.ActionLow
	case PriorityHigh:
		return world.ActionHigh
	case PriorityCritical:
		return world.ActionCritical
	default:
		return world.ActionNormal
	}
}

// #endregion priority

// #region goal

// Goal describes what a plan pursues.
type Goal struct {
	Type        string
	Description string
	Target      string
	Priority    int // 1 (least) to 10 (most important)
	Succeeded   func() bool // optional early-success predicate
	Timeout     time.Duration
}

// Predicate is a named precondition checked before and during execution.
type Predicate struct {
	Name  string
	Holds func() bool
}

// #endregion goal

// #region plan

// Plan is an ordered or grouped set of actions pursuing a goal.
type Plan struct {
	ID            string
	Goal          Goal
	Actions       []world.Action
	Mode          Mode
	Priority      Priority
	CreatedAt     time.Time
	Preconditions []Predicate
	Trigger       func() bool // reactive plans only
	Tags          []string
}

// ActivePlan wraps a Plan with execution bookkeeping.
// CurrentStep never exceeds len(Actions).
type ActivePlan struct {
	Plan
	Status         Status
	CurrentStep    int
	CompletedSteps int
	StartedAt      time.Time
	ActionIDs      []string // in-flight executor ids
	StatusReason   string
}

// CompletedPlan is one entry of the bounded archive, oldest evicted first.
type CompletedPlan struct {
	Plan
	Status         Status
	Reason         string
	CompletedSteps int
	FinishedAt     time.Time
}

// #endregion plan

// #region generator

// Generator turns a goal into actions. Generators are consulted in
// descending Priority order; the first non-empty result wins.
type Generator interface {
	Name() string
	Priority() int
	Generate(goal Goal) ([]world.Action, error)
}

// #endregion generator

// #region errors

// ErrNoActions is returned when no generator produces actions for a goal.
var ErrNoActions = errors.New("plan generation produced no actions")

// ErrUnknownPlan is returned for operations on a missing plan id.
var ErrUnknownPlan = errors.New("unknown plan")

// ErrPreconditionsNotMet is returned by ExecutePlan when the plan was
// marked BLOCKED instead of started.
var ErrPreconditionsNotMet = errors.New("preconditions not met")

// #endregion errors

// #region config

// Config holds planning tuning knobs.
type Config struct {
	HistoryCap int // bounded completed-plan archive
}

// DefaultConfig returns sensible planning defaults.
func DefaultConfig() Config {
	return Config{HistoryCap: 50}
}

// #endregion config
