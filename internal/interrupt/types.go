package interrupt

import (
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/perception"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region category

// Category partitions interrupts; at most one is active per category.
type Category string

const (
	CategoryThreat        Category = "threat"
	CategoryHealth        Category = "health"
	CategorySocial        Category = "social"
	CategoryEnvironment   Category = "environment"
	CategoryCommunication Category = "communication"
	CategoryResource      Category = "resource"
	CategorySystem        Category = "system"
	CategoryCustom        Category = "custom"
)

// #endregion category

// #region priority

// Priority orders interrupts for supersession and preemption.
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

// #endregion priority

// #region interrupt

// Interrupt is one urgent-condition signal proposed by a monitor or the host.
type Interrupt struct {
	Category Category
	Reason   string
	Priority Priority
	Source   string // optional actor id
	Payload  map[string]any
	At       time.Time
}

// ActiveInterrupt is an Interrupt the system accepted and is tracking.
type ActiveInterrupt struct {
	Interrupt
	ID         string
	Handler    string
	Started    time.Time
	CanRestore bool
}

// EndReason records why an active interrupt ended.
type EndReason string

const (
	EndCompleted  EndReason = "completed"
	EndTimeout    EndReason = "timeout"
	EndCancelled  EndReason = "cancelled"
	EndSuperseded EndReason = "superseded"
	EndShutdown   EndReason = "shutdown"
)

// #endregion interrupt

// #region saved-state

// SavedState snapshots in-flight work right before a preempting interrupt
// is handled. Exactly one exists per restorable active interrupt.
type SavedState struct {
	Actions []world.ActionInfo
	Plans   []PlanSnapshot
	Context map[string]any
	SavedAt time.Time
}

// PlanSnapshot is the minimal record needed to re-invoke a plan from its
// last completed step after an interrupt completes.
type PlanSnapshot struct {
	PlanID      string
	CurrentStep int
}

// Preemptor is the planning layer as seen from interruption: snapshot,
// cancel, and resume in-flight work. Implemented by plan.Planner.
type Preemptor interface {
	SaveState() SavedState
	CancelAllWork(reason string)
	CancelLowPriorityWork(reason string)
	CancelLowestPriorityWork(reason string)
	Restore(s SavedState) error
}

// #endregion saved-state

// #region monitor

// MonitorView is the per-tick world read handed to every monitor.
type MonitorView struct {
	Perceived []perception.PerceivedActor
	Health    float64
	MaxHealth float64
	Weather   world.Weather
}

// Monitor evaluates one domain condition per tick and proposes an
// interrupt when the condition is newly true.
type Monitor interface {
	Name() string
	Check(now time.Time, view MonitorView) *Interrupt
}

// #endregion monitor

// #region stats

// Stats counts interrupt lifecycle outcomes for the health surface.
type Stats struct {
	Raised  int
	Dropped int
	Failed  int
	Ended   int
}

// #endregion stats

// #region config

// Config holds interruption tuning knobs.
type Config struct {
	BurstWindow time.Duration // dedup window per category
	BurstLimit  int           // max raises per category inside the window
	MaxActive   int           // health check ceiling
	DefaultTTL  time.Duration // auto-expiry for actives never ended explicitly
}

// DefaultConfig returns sensible interruption defaults.
func DefaultConfig() Config {
	return Config{
		BurstWindow: 10 * time.Second,
		BurstLimit:  3,
		MaxActive:   10,
		DefaultTTL:  30 * time.Second,
	}
}

// #endregion config
