package sim

import (
	"fmt"
	"math"

	"github.com/velox-sim/velox/internal/params"
)

// MinStepDt is the smallest sub-step the scheduler will emit; requested
// timesteps are floored to it.
const MinStepDt = 0.001

// PlanSteps splits a requested timestep into a stable sequence of
// sub-steps. The sum equals max(requested, MinStepDt) exactly: the last
// sub-step absorbs the rounding remainder so repeated planning never
// drifts. Every sub-step stays within timing.MaxDt, and the count is
// reduced where needed so no degenerate micro-step falls under MinStepDt.
func PlanSteps(requested float64, timing params.Timing) ([]float64, error) {
	if timing.MaxDt <= 0 {
		return nil, fmt.Errorf("sim: timing max_dt must be positive, got %g", timing.MaxDt)
	}
	if math.IsNaN(requested) || math.IsInf(requested, 0) {
		return nil, fmt.Errorf("sim: requested dt is not finite")
	}
	if requested <= 0 {
		return nil, fmt.Errorf("sim: requested dt must be positive, got %g", requested)
	}

	total := math.Max(requested, MinStepDt)
	n := int(math.Ceil(total / timing.MaxDt))
	if n < 1 {
		n = 1
	}
	// the max_dt bound is binding: drop micro-steps only while the
	// resulting sub-steps still fit it
	for n > 1 && total/float64(n) < MinStepDt && total/float64(n-1) <= timing.MaxDt+1e-9 {
		n--
	}

	steps := make([]float64, n)
	base := total / float64(n)
	sum := 0.0
	for i := 0; i < n-1; i++ {
		steps[i] = base
		sum += base
	}
	steps[n-1] = total - sum
	return steps, nil
}
