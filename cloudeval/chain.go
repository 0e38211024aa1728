package cloudeval

import (
	"context"
	"errors"

	"github.com/XapioBroke/aichessbot/engine"
)

// Chain answers from Primary and asks Fallback only when Primary has no
// evaluation stored for the position. Other Primary failures are returned
// unchanged.
type Chain struct {
	Primary  engine.LineEvaluator
	Fallback engine.LineEvaluator
}

func (c Chain) EvaluateFEN(ctx context.Context, fen string) (engine.LineEval, error) {
	line, err := c.Primary.EvaluateFEN(ctx, fen)
	if errors.Is(err, ErrNoEvaluation) && c.Fallback != nil {
		return c.Fallback.EvaluateFEN(ctx, fen)
	}
	return line, err
}
