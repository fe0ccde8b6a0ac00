package interrupt

// Handlers are a dispatch table keyed by category. Missing policy funcs fall
// back to the default policy below, so most handlers only set Handle.

// #region handler

// Handler owns the response to interrupts of one category.
type Handler struct {
	Name string
	Rank int // tie-break when several handlers could claim an interrupt

	// ShouldSave decides whether in-flight work is snapshotted before
	// handling. nil → DefaultShouldSave.
	ShouldSave func(i Interrupt) bool

	// ShouldPreempt decides whether current work is preempted.
	// nil → DefaultShouldPreempt.
	ShouldPreempt func(i Interrupt) bool

	// Handle reacts to the interrupt. May return an error; a panic is
	// recovered by the system and treated the same way.
	Handle func(i Interrupt) error
}

// DefaultShouldSave saves state for HIGH and CRITICAL interrupts.
func DefaultShouldSave(i Interrupt) bool {
	return i.Priority >= PriorityHigh
}

// DefaultShouldPreempt preempts for anything above LOW.
func DefaultShouldPreempt(i Interrupt) bool {
	return i.Priority > PriorityLow
}

func (h Handler) shouldSave(i Interrupt) bool {
	if h.ShouldSave != nil {
		return h.ShouldSave(i)
	}
	return DefaultShouldSave(i)
}

func (h Handler) shouldPreempt(i Interrupt) bool {
	if h.ShouldPreempt != nil {
		return h.ShouldPreempt(i)
	}
	return DefaultShouldPreempt(i)
}

// #endregion handler

// #region defaults

// defaultHandler is used for categories with no registered handler.
var defaultHandler = Handler{Name: "default", Rank: 0}

// #endregion defaults
