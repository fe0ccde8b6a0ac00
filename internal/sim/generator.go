package sim

import (
	"fmt"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/plan"
	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region generator

// Generator is a rule-based plan generator for the simulated world.
// It is deliberately simple; hosts plug in smarter generators.
type Generator struct{}

var _ plan.Generator = Generator{}

func (Generator) Name() string  { return "sim" }
func (Generator) Priority() int { return 0 }

// Generate maps well-known goal types onto fixed action sequences.
func (Generator) Generate(goal plan.Goal) ([]world.Action, error) {
	switch goal.Type {
	case "wander":
		return []world.Action{
			{Type: "move_to", Params: map[string]any{"dx": 5.0, "dz": 0.0}},
			{Type: "look_around"},
			{Type: "move_to", Params: map[string]any{"dx": -5.0, "dz": 3.0}},
		}, nil
	case "greet":
		return []world.Action{
			{Type: "move_to", Target: goal.Target},
			{Type: "say", Target: goal.Target, Params: map[string]any{"text": "hello"}},
		}, nil
	case "patrol":
		var actions []world.Action
		for i := 0; i < 4; i++ {
			actions = append(actions, world.Action{
				Type:   "move_to",
				Params: map[string]any{"waypoint": fmt.Sprintf("wp-%d", i)},
			})
		}
		return actions, nil
	default:
		return nil, nil
	}
}

// #endregion generator
