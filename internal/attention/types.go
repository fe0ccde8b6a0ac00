package attention

import "time"

// #region candidate

// Source identifies which subsystem produced a candidate.
type Source string

const (
	SourcePerception Source = "perception"
	SourceInterrupt  Source = "interrupt"
)

// Candidate is one scored stimulus competing for focus. Value is always
// clamped to [0,1]; Factors names each contribution for explainability.
type Candidate struct {
	Target    string
	Value     float64
	Factors   map[string]float64
	UpdatedAt time.Time
	Source    Source
}

// #endregion candidate

// #region focus

// Focus is the single stimulus the agent currently attends to.
type Focus struct {
	Target      string
	Since       time.Time
	Reason      string
	Strength    float64
	Forced      bool
	ForcedUntil time.Time // zero when no forced duration was given
}

// FocusChange is one entry of the bounded focus history.
type FocusChange struct {
	Target string
	Reason string
	Gained bool
	At     time.Time
}

// #endregion focus

// #region modulators

// Modulators are the global arousal/stress/fatigue levels in [0,1].
type Modulators struct {
	Arousal float64
	Stress  float64
	Fatigue float64
}

// ModifierKind names an externally injectable attention modifier.
type ModifierKind string

const (
	ModArousal     ModifierKind = "arousal"
	ModStress      ModifierKind = "stress"
	ModFatigue     ModifierKind = "fatigue"
	ModFocusBoost  ModifierKind = "focus_boost"
	ModDistraction ModifierKind = "distraction"
	ModInterest    ModifierKind = "interest"
	ModFear        ModifierKind = "fear"
	ModCuriosity   ModifierKind = "curiosity"
)

// #endregion modulators

// #region config

// Config holds attention tuning knobs.
type Config struct {
	MinAttention    float64       // threshold to acquire a focus from nothing
	SwitchMargin    float64       // required lead over the current focus
	CandidateMaxAge time.Duration // unrefreshed candidates are discarded
	AttentionRange  float64       // distance at which closeness falls to zero

	// Factor weights for perception candidates.
	WeightCloseness float64
	WeightGaze      float64
	WeightIntent    float64
	WeightMotion    float64
	WeightSocial    float64
	WeightHostility float64 // applied when a relationship lookup is wired

	// Modulator dynamics per tick.
	ArousalBaseline float64
	StressBaseline  float64
	ArousalDecay    float64 // fraction of distance-to-baseline removed
	StressDecay     float64
	FatigueRise     float64 // additive per tick
	PresenceNudge   float64 // arousal bump while stimuli are present
	ThreatStress    float64 // stress bump while a threat interrupt is active

	FocusHistoryCap int
}

// DefaultConfig returns sensible attention defaults.
func DefaultConfig() Config {
	return Config{
		MinAttention:    0.3,
		SwitchMargin:    0.2,
		CandidateMaxAge: 5 * time.Second,
		AttentionRange:  16,
		WeightCloseness: 0.25,
		WeightGaze:      0.25,
		WeightIntent:    0.3,
		WeightMotion:    0.1,
		WeightSocial:    0.1,
		WeightHostility: 0.15,
		ArousalBaseline: 0.2,
		StressBaseline:  0.1,
		ArousalDecay:    0.05,
		StressDecay:     0.05,
		FatigueRise:     0.0005,
		PresenceNudge:   0.02,
		ThreatStress:    0.05,
		FocusHistoryCap: 32,
	}
}

// #endregion config
