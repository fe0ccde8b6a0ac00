package perception

import "github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"

// #region intent-table

// intentRule is one row of the intent decision table.
type intentRule struct {
	name   string
	intent Intent
	match  func(pa *PerceivedActor, cfg Config) bool
}

// intentRules is evaluated in order; the first match wins. Order is the
// tie-break, so aggressive reads come before social ones.
var intentRules = []intentRule{
	{
		name:   "weapon_in_personal_space",
		intent: IntentAggressive,
		match: func(pa *PerceivedActor, cfg Config) bool {
			return pa.Behavior.Held == world.ItemWeapon && pa.Distance < cfg.PersonalSpace
		},
	},
	{
		name:   "armed_charge",
		intent: IntentAggressive,
		match: func(pa *PerceivedActor, cfg Config) bool {
			return pa.Behavior.Held == world.ItemWeapon &&
				pa.Behavior.Pattern == PatternApproaching &&
				pa.Behavior.Movement == MoveRunning
		},
	},
	{
		name:   "calm_approach_with_gaze",
		intent: IntentApproachingToTalk,
		match: func(pa *PerceivedActor, cfg Config) bool {
			return pa.Gaze.IsLooking && pa.Gaze.Duration >= cfg.SustainedGaze &&
				pa.Behavior.Pattern == PatternApproaching &&
				pa.Behavior.Movement != MoveRunning
		},
	},
	{
		name:   "stationary_watcher",
		intent: IntentObserving,
		match: func(pa *PerceivedActor, cfg Config) bool {
			return pa.Gaze.IsLooking && pa.Gaze.Duration >= cfg.SustainedGaze &&
				pa.Behavior.Movement == MoveStationary
		},
	},
	{
		name:   "running_away",
		intent: IntentFleeing,
		match: func(pa *PerceivedActor, cfg Config) bool {
			return pa.Behavior.Pattern == PatternRetreating &&
				pa.Behavior.Movement == MoveRunning
		},
	},
	{
		name:   "passing_through",
		intent: IntentPassing,
		match: func(pa *PerceivedActor, cfg Config) bool {
			return pa.Behavior.Movement != MoveStationary && !pa.Gaze.IsLooking
		},
	},
}

// inferIntent runs the decision table over the current belief record.
func inferIntent(pa *PerceivedActor, cfg Config) Intent {
	for _, rule := range intentRules {
		if rule.match(pa, cfg) {
			return rule.intent
		}
	}
	return IntentUnknown
}

// #endregion intent-table
