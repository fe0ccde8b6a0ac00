// Package events carries typed notifications between the behavior core and
// the host. Variants are concrete structs rather than string-keyed payloads
// so subscribers can switch on type.
package events

import "time"

// #region kind

// Kind discriminates event variants for subscription filtering.
type Kind string

const (
	KindFocusGained     Kind = "focus_gained"
	KindFocusLost       Kind = "focus_lost"
	KindInterruptRaised Kind = "interrupt_raised"
	KindInterruptEnded  Kind = "interrupt_ended"
	KindInterruptFailed Kind = "interrupt_failed"
	KindPlanStarted     Kind = "plan_started"
	KindPlanEnded       Kind = "plan_ended"
	KindStateChanged    Kind = "state_changed"

	// Inbound: raised by the host toward agents.
	KindAttacked     Kind = "attacked"
	KindSpokenTo     Kind = "spoken_to"
	KindTradeStarted Kind = "trade_started"
)

// #endregion kind

// #region event

// Event is implemented by every variant.
type Event interface {
	EventKind() Kind
	Agent() string
}

// FocusGained announces a new attention focus.
type FocusGained struct {
	AgentID  string
	Target   string
	Reason   string
	Strength float64
	At       time.Time
}

func (e FocusGained) EventKind() Kind { return KindFocusGained }
func (e FocusGained) Agent() string  { return e.AgentID }

// FocusLost announces the end of an attention focus.
type FocusLost struct {
	AgentID string
	Target  string
	Reason  string
	At      time.Time
}

func (e FocusLost) EventKind() Kind { return KindFocusLost }
func (e FocusLost) Agent() string  { return e.AgentID }

// InterruptRaised announces a newly tracked active interrupt.
type InterruptRaised struct {
	AgentID  string
	ID       string
	Category string
	Priority string
	Reason   string
	At       time.Time
}

func (e InterruptRaised) EventKind() Kind { return KindInterruptRaised }
func (e InterruptRaised) Agent() string  { return e.AgentID }

// InterruptEnded announces the end of an active interrupt.
type InterruptEnded struct {
	AgentID   string
	ID        string
	Category  string
	EndReason string
	At        time.Time
}

func (e InterruptEnded) EventKind() Kind { return KindInterruptEnded }
func (e InterruptEnded) Agent() string  { return e.AgentID }

// InterruptFailed records a handler failure for one interrupt.
type InterruptFailed struct {
	AgentID  string
	Category string
	Reason   string
	Err      string
	At       time.Time
}

func (e InterruptFailed) EventKind() Kind { return KindInterruptFailed }
func (e InterruptFailed) Agent() string  { return e.AgentID }

// PlanStarted announces a plan entering execution.
type PlanStarted struct {
	AgentID string
	PlanID  string
	Goal    string
	At      time.Time
}

func (e PlanStarted) EventKind() Kind { return KindPlanStarted }
func (e PlanStarted) Agent() string  { return e.AgentID }

// PlanEnded announces a plan reaching a terminal status.
type PlanEnded struct {
	AgentID string
	PlanID  string
	Status  string // "completed" | "failed" | "cancelled"
	Reason  string
	At      time.Time
}

func (e PlanEnded) EventKind() Kind { return KindPlanEnded }
func (e PlanEnded) Agent() string  { return e.AgentID }

// StateChanged announces a coarse agent-state transition.
type StateChanged struct {
	AgentID string
	From    string
	To      string
	Reason  string
	At      time.Time
}

func (e StateChanged) EventKind() Kind { return KindStateChanged }
func (e StateChanged) Agent() string  { return e.AgentID }

// Attacked is an inbound host event: the agent took a hit.
type Attacked struct {
	AgentID string
	By      string
	Damage  float64
	At      time.Time
}

func (e Attacked) EventKind() Kind { return KindAttacked }
func (e Attacked) Agent() string  { return e.AgentID }

// SpokenTo is an inbound host event: an actor addressed the agent.
type SpokenTo struct {
	AgentID string
	By      string
	Text    string
	At      time.Time
}

func (e SpokenTo) EventKind() Kind { return KindSpokenTo }
func (e SpokenTo) Agent() string  { return e.AgentID }

// TradeStarted is an inbound host event: a trade screen was opened.
type TradeStarted struct {
	AgentID string
	With    string
	At      time.Time
}

func (e TradeStarted) EventKind() Kind { return KindTradeStarted }
func (e TradeStarted) Agent() string  { return e.AgentID }

// #endregion event
