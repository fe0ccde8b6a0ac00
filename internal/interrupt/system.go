// Package interrupt detects urgent conditions via per-domain monitors and
// arbitrates preemption of the agent's ongoing work.
package interrupt

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/events"
)

// #region system

// System tracks active interrupts for one agent, one per category.
type System struct {
	cfg       Config
	agentID   string
	bus       events.Bus
	preemptor Preemptor

	mu       sync.Mutex
	handlers map[Category]Handler
	monitors []Monitor
	active   map[Category]*ActiveInterrupt
	// pending marks categories with a raise between dedup and install;
	// concurrent raises of a pending category are dropped.
	pending map[Category]bool
	saved   map[string]SavedState // keyed by active interrupt id
	recent  map[Category][]time.Time
	stats   Stats
}

// NewSystem creates an interruption system. preemptor may be nil until the
// planning layer is wired; raises before that never preempt.
func NewSystem(agentID string, bus events.Bus, preemptor Preemptor, cfg Config) *System {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &System{
		cfg:       cfg,
		agentID:   agentID,
		bus:       bus,
		preemptor: preemptor,
		handlers:  make(map[Category]Handler),
		active:    make(map[Category]*ActiveInterrupt),
		pending:   make(map[Category]bool),
		saved:     make(map[string]SavedState),
		recent:    make(map[Category][]time.Time),
	}
}

// SetPreemptor wires the planning layer. Called once during agent assembly.
func (s *System) SetPreemptor(p Preemptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptor = p
}

// RegisterHandler installs h for one category, replacing any previous
// handler of lower or equal rank.
func (s *System) RegisterHandler(cat Category, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.handlers[cat]; ok && prev.Rank > h.Rank {
		return
	}
	s.handlers[cat] = h
}

// AddMonitor appends a monitor evaluated every tick.
func (s *System) AddMonitor(m Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitors = append(s.monitors, m)
}

// #endregion system

// #region tick

// Tick expires stale actives, then runs every monitor against the view.
func (s *System) Tick(now time.Time, view MonitorView) {
	s.expire(now)

	s.mu.Lock()
	monitors := append([]Monitor(nil), s.monitors...)
	s.mu.Unlock()

	for _, m := range monitors {
		intr := checkMonitor(m, now, view)
		if intr == nil {
			continue
		}
		if _, ok := s.Raise(*intr); !ok {
			log.Printf("[INT] %s: dropped %s/%s from monitor %s", s.agentID, intr.Category, intr.Priority, m.Name())
		}
	}
}

// checkMonitor isolates a panicking monitor from the loop.
func checkMonitor(m Monitor, now time.Time, view MonitorView) (intr *Interrupt) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[INT] monitor %s panic: %v", m.Name(), r)
			intr = nil
		}
	}()
	return m.Check(now, view)
}

func (s *System) expire(now time.Time) {
	var expired []string
	s.mu.Lock()
	for _, ai := range s.active {
		if s.cfg.DefaultTTL > 0 && now.Sub(ai.Started) > s.cfg.DefaultTTL {
			expired = append(expired, ai.ID)
		}
	}
	s.mu.Unlock()
	for _, id := range expired {
		s.End(id, EndTimeout)
	}
}

// #endregion tick

// #region raise

// Raise proposes an interrupt. Returns the active id and whether it was
// accepted. Dropped when an equal-or-higher active of the same category
// exists, another raise of the category is still in flight, or the
// category exceeded its burst budget.
func (s *System) Raise(intr Interrupt) (string, bool) {
	if intr.At.IsZero() {
		intr.At = time.Now()
	}

	s.mu.Lock()

	// Dedup against the current active of this category.
	if cur, ok := s.active[intr.Category]; ok && cur.Priority >= intr.Priority {
		s.stats.Dropped++
		s.mu.Unlock()
		return "", false
	}

	// Another raise of this category is between dedup and install; letting
	// a second one through would clobber the first on install, leaving an
	// accepted interrupt that never ends and a saved state nothing owns.
	if s.pending[intr.Category] {
		s.stats.Dropped++
		s.mu.Unlock()
		return "", false
	}

	// Burst limit per category.
	cutoff := intr.At.Add(-s.cfg.BurstWindow)
	kept := s.recent[intr.Category][:0]
	for _, t := range s.recent[intr.Category] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.recent[intr.Category] = kept
	if len(kept) >= s.cfg.BurstLimit {
		s.stats.Dropped++
		s.mu.Unlock()
		return "", false
	}
	s.recent[intr.Category] = append(kept, intr.At)
	s.pending[intr.Category] = true

	superseded := s.active[intr.Category] // lower priority if non-nil
	handler, ok := s.handlers[intr.Category]
	if !ok {
		handler = defaultHandler
	}
	s.stats.Raised++
	preemptor := s.preemptor
	s.mu.Unlock()

	if superseded != nil {
		s.End(superseded.ID, EndSuperseded)
	}

	// Save state before any preemption touches in-flight work.
	var st *SavedState
	canRestore := false
	if preemptor != nil && handler.shouldSave(intr) {
		snap := preemptor.SaveState()
		st = &snap
		canRestore = true
	}

	if preemptor != nil && handler.shouldPreempt(intr) {
		s.preempt(preemptor, intr)
	}

	if handler.Handle != nil {
		if err := handleSafely(handler, intr); err != nil {
			s.mu.Lock()
			delete(s.pending, intr.Category)
			s.stats.Failed++
			s.mu.Unlock()
			log.Printf("[INT] %s: handler %s failed on %s: %v", s.agentID, handler.Name, intr.Category, err)
			s.bus.Publish(events.InterruptFailed{
				AgentID:  s.agentID,
				Category: string(intr.Category),
				Reason:   intr.Reason,
				Err:      err.Error(),
				At:       intr.At,
			})
			return "", false
		}
	}

	ai := &ActiveInterrupt{
		Interrupt:  intr,
		ID:         uuid.NewString(),
		Handler:    handler.Name,
		Started:    intr.At,
		CanRestore: canRestore,
	}

	s.mu.Lock()
	delete(s.pending, intr.Category)
	s.active[intr.Category] = ai
	if st != nil {
		s.saved[ai.ID] = *st
	}
	s.mu.Unlock()

	log.Printf("[INT] %s: raised %s/%s (%s)", s.agentID, intr.Category, intr.Priority, intr.Reason)
	s.bus.Publish(events.InterruptRaised{
		AgentID:  s.agentID,
		ID:       ai.ID,
		Category: string(intr.Category),
		Priority: intr.Priority.String(),
		Reason:   intr.Reason,
		At:       intr.At,
	})
	return ai.ID, true
}

// preempt applies the priority ladder: CRITICAL cancels everything, HIGH
// cancels low-priority work, NORMAL only the lowest, LOW nothing.
func (s *System) preempt(p Preemptor, intr Interrupt) {
	reason := fmt.Sprintf("interrupted: %s", intr.Reason)
	switch intr.Priority {
	case PriorityCritical:
		p.CancelAllWork(reason)
	case PriorityHigh:
		p.CancelLowPriorityWork(reason)
	case PriorityNormal:
		p.CancelLowestPriorityWork(reason)
	}
}

func handleSafely(h Handler, intr Interrupt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(intr)
}

// #endregion raise

// #region end

// End finishes the active interrupt with the given id. On a restorable
// completion the saved state is handed back to planning for resumption.
func (s *System) End(id string, reason EndReason) bool {
	s.mu.Lock()
	var ai *ActiveInterrupt
	for cat, a := range s.active {
		if a.ID == id {
			ai = a
			delete(s.active, cat)
			break
		}
	}
	if ai == nil {
		s.mu.Unlock()
		return false
	}
	st, hasSaved := s.saved[id]
	delete(s.saved, id)
	s.stats.Ended++
	preemptor := s.preemptor
	s.mu.Unlock()

	if reason == EndCompleted && ai.CanRestore && hasSaved && preemptor != nil {
		if err := preemptor.Restore(st); err != nil {
			log.Printf("[INT] %s: restore after %s failed: %v", s.agentID, ai.Category, err)
		}
	}

	s.bus.Publish(events.InterruptEnded{
		AgentID:   s.agentID,
		ID:        ai.ID,
		Category:  string(ai.Category),
		EndReason: string(reason),
		At:        time.Now(),
	})
	return true
}

// Complete ends an interrupt normally, triggering restoration if possible.
func (s *System) Complete(id string) bool { return s.End(id, EndCompleted) }

// Cancel ends an interrupt without restoration.
func (s *System) Cancel(id string) bool { return s.End(id, EndCancelled) }

// Shutdown ends every active interrupt and discards all saved state.
// Idempotent; used when the agent stops.
func (s *System) Shutdown() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for _, ai := range s.active {
		ids = append(ids, ai.ID)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.End(id, EndShutdown)
	}
	s.mu.Lock()
	s.saved = make(map[string]SavedState)
	s.mu.Unlock()
}

// #endregion end

// #region queries

// Active returns the current active interrupts, highest priority first.
func (s *System) Active() []ActiveInterrupt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveInterrupt, 0, len(s.active))
	for _, ai := range s.active {
		out = append(out, *ai)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Healthy reports false when the active count exceeds the safety ceiling.
func (s *System) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) <= s.cfg.MaxActive
}

// Stats returns lifecycle counters.
func (s *System) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// #endregion queries
