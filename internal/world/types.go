package world

import (
	"math"
	"time"
)

// #region vec3

// Vec3 is a position or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Length returns the euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Normalized returns v scaled to unit length, or the zero vector if v is zero.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// AngleTo returns the angle in degrees between v and o.
// Returns 180 when either vector is zero (maximally "not pointing at").
func (v Vec3) AngleTo(o Vec3) float64 {
	lv, lo := v.Length(), o.Length()
	if lv == 0 || lo == 0 {
		return 180
	}
	cos := v.Dot(o) / (lv * lo)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// #endregion vec3

// #region item-class

// ItemClass is the coarse category of an actor's held item.
type ItemClass string

const (
	ItemNone     ItemClass = "none"
	ItemWeapon   ItemClass = "weapon"
	ItemTool     ItemClass = "tool"
	ItemFood     ItemClass = "food"
	ItemValuable ItemClass = "valuable"
)

// #endregion item-class

// #region actor-snapshot

// ActorSnapshot is one raw sensor reading for a nearby actor.
type ActorSnapshot struct {
	ID       string
	Name     string
	Position Vec3
	Forward  Vec3 // facing direction, unit length
	Velocity Vec3 // units per second
	Held     ItemClass
	Sneaking bool
}

// #endregion actor-snapshot

// #region weather

// Weather is the coarse world weather reading.
type Weather string

const (
	WeatherClear   Weather = "clear"
	WeatherRain    Weather = "rain"
	WeatherThunder Weather = "thunder"
)

// #endregion weather

// #region action

// ActionPriority orders submitted actions for cancellation policies.
type ActionPriority int

const (
	ActionLow ActionPriority = iota
	ActionNormal
	ActionHigh
	ActionCritical
)

// String returns the lowercase priority name.
func (p ActionPriority) String() string {
	switch p {
	case ActionLow:
		return "low"
	case ActionNormal:
		return "normal"
	case ActionHigh:
		return "high"
	case ActionCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Action is one unit of work handed to the action executor.
type Action struct {
	Type   string // e.g. "move_to", "say", "attack", "use_item"
	Target string // optional actor or location reference
	Params map[string]any
}

// ActionInfo describes one in-flight action owned by the executor.
type ActionInfo struct {
	ID       string
	AgentID  string
	Action   Action
	Priority ActionPriority
	Started  time.Time
}

// #endregion action

// #region episode

// Episode is one entry in an agent's episodic memory.
type Episode struct {
	AgentID string
	Kind    string // e.g. "state_change", "interrupt", "plan"
	Summary string
	At      time.Time
}

// #endregion episode

// #region decision

// Decision is a suggestion returned by the external decision service.
type Decision struct {
	Action     string
	Text       string
	Confidence float64
}

// #endregion decision
