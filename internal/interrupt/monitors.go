package interrupt

import (
	"fmt"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/perception"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// Built-in monitors. Each fires on a rising edge only; the system's dedup
// and burst limiting absorb anything that slips through.

// #region threat

// ThreatMonitor raises THREAT_DETECTED when any perceived actor reads as
// aggressive. Weapon inside personal space is CRITICAL, otherwise HIGH.
type ThreatMonitor struct {
	PersonalSpace float64
	active        bool
}

// NewThreatMonitor creates a threat monitor with the given personal-space radius.
func NewThreatMonitor(personalSpace float64) *ThreatMonitor {
	return &ThreatMonitor{PersonalSpace: personalSpace}
}

func (m *ThreatMonitor) Name() string { return "threat" }

func (m *ThreatMonitor) Check(now time.Time, view MonitorView) *Interrupt {
	var worst *perception.PerceivedActor
	critical := false
	for i := range view.Perceived {
		pa := &view.Perceived[i]
		if pa.Behavior.Intent != perception.IntentAggressive {
			continue
		}
		isCrit := pa.Behavior.Held == world.ItemWeapon && pa.Distance < m.PersonalSpace
		if worst == nil || (isCrit && !critical) {
			worst = pa
			critical = isCrit
		}
	}

	if worst == nil {
		m.active = false
		return nil
	}
	if m.active {
		return nil
	}
	m.active = true

	prio := PriorityHigh
	if critical {
		prio = PriorityCritical
	}
	return &Interrupt{
		Category: CategoryThreat,
		Reason:   "THREAT_DETECTED",
		Priority: prio,
		Source:   worst.ID,
		Payload:  map[string]any{"distance": worst.Distance, "held": string(worst.Behavior.Held)},
		At:       now,
	}
}

// #endregion threat

// #region health

// HealthMonitor raises LOW_HEALTH when the health ratio crosses below a
// threshold. CRITICAL below CriticalBelow, HIGH below WarnBelow.
type HealthMonitor struct {
	WarnBelow     float64
	CriticalBelow float64
	active        bool
}

// NewHealthMonitor creates a health monitor with default thresholds.
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{WarnBelow: 0.5, CriticalBelow: 0.25}
}

func (m *HealthMonitor) Name() string { return "health" }

func (m *HealthMonitor) Check(now time.Time, view MonitorView) *Interrupt {
	if view.MaxHealth <= 0 {
		return nil
	}
	ratio := view.Health / view.MaxHealth
	if ratio >= m.WarnBelow {
		m.active = false
		return nil
	}
	if m.active {
		return nil
	}
	m.active = true

	prio := PriorityHigh
	if ratio < m.CriticalBelow {
		prio = PriorityCritical
	}
	return &Interrupt{
		Category: CategoryHealth,
		Reason:   "LOW_HEALTH",
		Priority: prio,
		Payload:  map[string]any{"ratio": ratio},
		At:       now,
	}
}

// #endregion health

// #region social

// SocialMonitor raises when an actor is actively seeking the agent's attention.
type SocialMonitor struct {
	active bool
}

// NewSocialMonitor creates a social monitor.
func NewSocialMonitor() *SocialMonitor { return &SocialMonitor{} }

func (m *SocialMonitor) Name() string { return "social" }

func (m *SocialMonitor) Check(now time.Time, view MonitorView) *Interrupt {
	var seeker *perception.PerceivedActor
	for i := range view.Perceived {
		pa := &view.Perceived[i]
		if pa.Social.AttentionSeeking && pa.Behavior.Intent != perception.IntentAggressive {
			seeker = pa
			break
		}
	}

	if seeker == nil {
		m.active = false
		return nil
	}
	if m.active {
		return nil
	}
	m.active = true

	return &Interrupt{
		Category: CategorySocial,
		Reason:   "ATTENTION_REQUESTED",
		Priority: PriorityNormal,
		Source:   seeker.ID,
		At:       now,
	}
}

// #endregion social

// #region environment

// EnvironmentMonitor raises on dangerous weather.
type EnvironmentMonitor struct {
	active bool
}

// NewEnvironmentMonitor creates an environment monitor.
func NewEnvironmentMonitor() *EnvironmentMonitor { return &EnvironmentMonitor{} }

func (m *EnvironmentMonitor) Name() string { return "environment" }

func (m *EnvironmentMonitor) Check(now time.Time, view MonitorView) *Interrupt {
	if view.Weather != world.WeatherThunder {
		m.active = false
		return nil
	}
	if m.active {
		return nil
	}
	m.active = true

	return &Interrupt{
		Category: CategoryEnvironment,
		Reason:   "SEVERE_WEATHER",
		Priority: PriorityNormal,
		Payload:  map[string]any{"weather": string(view.Weather)},
		At:       now,
	}
}

// #endregion environment

// #region crowd

// CrowdMonitor raises when too many actors press inside a radius.
type CrowdMonitor struct {
	Radius    float64
	Threshold int
	active    bool
}

// NewCrowdMonitor creates a crowd monitor.
func NewCrowdMonitor(radius float64, threshold int) *CrowdMonitor {
	return &CrowdMonitor{Radius: radius, Threshold: threshold}
}

func (m *CrowdMonitor) Name() string { return "crowd" }

func (m *CrowdMonitor) Check(now time.Time, view MonitorView) *Interrupt {
	count := 0
	for i := range view.Perceived {
		if view.Perceived[i].Distance <= m.Radius {
			count++
		}
	}

	if count < m.Threshold {
		m.active = false
		return nil
	}
	if m.active {
		return nil
	}
	m.active = true

	return &Interrupt{
		Category: CategoryEnvironment,
		Reason:   fmt.Sprintf("CROWDED (%d within %.0f)", count, m.Radius),
		Priority: PriorityLow,
		At:       now,
	}
}

// #endregion crowd

// #region default-set

// DefaultMonitors returns the standard monitor set for one agent.
func DefaultMonitors(personalSpace float64) []Monitor {
	return []Monitor{
		NewThreatMonitor(personalSpace),
		NewHealthMonitor(),
		NewSocialMonitor(),
		NewEnvironmentMonitor(),
		NewCrowdMonitor(6, 5),
	}
}

// #endregion default-set
