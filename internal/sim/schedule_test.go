package sim

import (
	"math"
	"testing"

	"github.com/velox-sim/velox/internal/params"
)

func TestPlanStepsExactSum(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
		maxDt     float64
	}{
		{"single step", 0.01, 0.02},
		{"exact split", 0.02, 0.01},
		{"remainder", 0.025, 0.01},
		{"many steps", 0.1, 0.007},
		{"tiny request floored", 0.0001, 0.01},
		{"awkward ratio", 0.0333, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := PlanSteps(tt.requested, params.Timing{NominalDt: 0.01, MaxDt: tt.maxDt})
			if err != nil {
				t.Fatalf("plan failed: %v", err)
			}
			want := math.Max(tt.requested, MinStepDt)
			sum := 0.0
			for _, s := range steps {
				if s > tt.maxDt+1e-9 {
					t.Errorf("sub-step %g exceeds max_dt %g", s, tt.maxDt)
				}
				sum += s
			}
			if sum != want {
				t.Errorf("sum %.17g != requested %.17g", sum, want)
			}
		})
	}
}

func TestPlanStepsMinimumCount(t *testing.T) {
	steps, err := PlanSteps(0.02, params.Timing{MaxDt: 0.01})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(steps) != 2 {
		t.Errorf("expected 2 sub-steps, got %d", len(steps))
	}
}

func TestPlanStepsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
		maxDt     float64
	}{
		{"zero requested", 0, 0.01},
		{"negative requested", -0.01, 0.01},
		{"nan requested", math.NaN(), 0.01},
		{"inf requested", math.Inf(1), 0.01},
		{"zero max_dt", 0.01, 0},
		{"negative max_dt", 0.01, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PlanSteps(tt.requested, params.Timing{MaxDt: tt.maxDt}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
