package tire

import (
	"math"
	"testing"

	"github.com/velox-sim/velox/internal/params"
)

const (
	testFz = 3000.0
	testMu = 0.9
)

func testTire() *params.Tire {
	t := params.Vehicle2().Tire
	return &t
}

func TestNearZeroForceAtZeroSlip(t *testing.T) {
	p := testTire()
	fx := Longitudinal(0, 0, testFz, testMu, p)
	if math.Abs(fx) > 0.05*testFz {
		t.Errorf("longitudinal force at zero slip too large: %g", fx)
	}
	fy, _ := Lateral(0, 0, testFz, testMu, p)
	if math.Abs(fy) > 0.05*testFz {
		t.Errorf("lateral force at zero slip too large: %g", fy)
	}
}

func TestForceBoundedByFriction(t *testing.T) {
	p := testTire()
	limit := testMu*testFz + 1e-9
	for kappa := -1.0; kappa <= 1.0; kappa += 0.05 {
		for alpha := -0.5; alpha <= 0.5; alpha += 0.05 {
			fx, fy := Forces(kappa, alpha, testFz, testMu, p)
			if math.Abs(fx) > limit {
				t.Fatalf("fx %g exceeds mu*Fz at kappa=%g alpha=%g", fx, kappa, alpha)
			}
			if math.Abs(fy) > limit {
				t.Fatalf("fy %g exceeds mu*Fz at kappa=%g alpha=%g", fy, kappa, alpha)
			}
		}
	}
}

func TestLateralForceOpposesSlip(t *testing.T) {
	p := testTire()
	fy, _ := Lateral(0.1, 0, testFz, testMu, p)
	neg, _ := Lateral(-0.1, 0, testFz, testMu, p)
	if fy == 0 || math.Signbit(fy) == math.Signbit(neg) {
		t.Errorf("lateral force does not flip with slip angle: %g vs %g", fy, neg)
	}
}

func TestCombinedSlipReducesForce(t *testing.T) {
	p := testTire()
	kappa := 0.08
	pure := Longitudinal(kappa, 0, testFz, testMu, p)
	combined := CombinedLongitudinal(kappa, 0.3, pure, p)
	if math.Abs(combined) >= math.Abs(pure) {
		t.Errorf("orthogonal slip did not reduce longitudinal force: pure=%g combined=%g", pure, combined)
	}

	alpha := 0.1
	pureY, muY := Lateral(alpha, 0, testFz, testMu, p)
	combY := CombinedLateral(0.4, alpha, 0, muY, testFz, pureY, p)
	if math.Abs(combY) >= math.Abs(pureY) {
		t.Errorf("orthogonal slip did not reduce lateral force: pure=%g combined=%g", pureY, combY)
	}
}
