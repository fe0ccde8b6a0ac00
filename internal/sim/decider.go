package sim

import (
	"context"
	"time"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/world"
)

// #region decider

// Decider is a rule-based stand-in for the external decision service.
type Decider struct{}

var _ world.Decider = Decider{}

// Suggest proposes an idle goal. A real host would consult its decision
// service here; the simulated one always has the same opinion.
func (Decider) Suggest(ctx context.Context, prompt string, timeout time.Duration) (*world.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &world.Decision{Action: "wander", Text: "nothing urgent nearby", Confidence: 0.3}, nil
}

// #endregion decider
