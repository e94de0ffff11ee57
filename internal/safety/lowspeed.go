// Package safety bounds the state vector near a stop and scores
// loss-of-control severity for telemetry.
package safety

import (
	"math"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/params"
)

// minimum speed-scaled clamp limit in Transition mode
const limitFloor = 1e-3

// LowSpeed is the hysteresis latch that suppresses the kinematic
// singularities of the dynamic model near zero speed. It never fails; it
// only clamps state components and maintains the latch boolean.
//
// One LowSpeed instance is owned by exactly one integrator.
type LowSpeed struct {
	cfg     params.SafetyConfig
	veh     *params.Vehicle
	drift   bool
	latched bool
}

func NewLowSpeed(cfg params.SafetyConfig, veh *params.Vehicle, drift bool) *LowSpeed {
	return &LowSpeed{cfg: cfg, veh: veh, drift: drift}
}

// Reset clears the latch. The latch is otherwise persistent across steps.
func (s *LowSpeed) Reset() { s.latched = false }

func (s *LowSpeed) Latched() bool { return s.latched }

func (s *LowSpeed) Drift() bool { return s.drift }

// Profile returns the active profile for the configured driving style.
func (s *LowSpeed) Profile() params.SafetyProfile {
	if s.drift {
		return s.cfg.Drift
	}
	return s.cfg.Normal
}

// Severity is the worst normalized magnitude of the bounded states.
func (s *LowSpeed) Severity(x dynamo.State) float64 {
	p := s.Profile()
	return math.Max(
		math.Abs(x[dynamo.IdxYawRate])/p.YawRateLimit,
		math.Abs(x[dynamo.IdxSlip])/p.SlipAngleLimit,
	)
}

// blend is the continuous pre-latch factor: 1 at/below engage speed, 0
// at/above release speed, linear in between.
func (s *LowSpeed) blend(speed float64) float64 {
	p := s.Profile()
	band := p.ReleaseSpeed - p.EngageSpeed
	if band <= 0 {
		if speed <= p.ReleaseSpeed {
			return 1
		}
		return 0
	}
	return math.Max(0, math.Min(1, (p.ReleaseSpeed-speed)/band))
}

// Stage reports the mode for the given state without touching the latch.
func (s *LowSpeed) Stage(x dynamo.State) dynamo.Stage {
	p := s.Profile()
	speed := math.Abs(x[dynamo.IdxSpeed])
	severity := s.Severity(x)
	if s.latched && (speed < p.EngageSpeed || severity > 1) {
		return dynamo.StageEmergency
	}
	if s.latched || s.blend(speed) > 0 {
		return dynamo.StageTransition
	}
	return dynamo.StageNormal
}

// Apply clamps x in place and returns the resulting stage. The latch is
// updated only when updateLatch is set: intermediate integration stages
// clamp against the latch state frozen at the start of the step.
//
// Engage and release are asymmetric: the latch engages when speed drops
// under the engage speed or severity exceeds 1, and releases only once
// speed exceeds the release speed with severity back within bounds.
func (s *LowSpeed) Apply(x dynamo.State, updateLatch bool) dynamo.Stage {
	p := s.Profile()
	speed := math.Abs(x[dynamo.IdxSpeed])
	severity := s.Severity(x)

	if updateLatch {
		if speed < p.EngageSpeed || severity > 1 {
			s.latched = true
		} else if speed > p.ReleaseSpeed && severity <= 1 {
			s.latched = false
		}
	}

	stage := s.Stage(x)
	if stage == dynamo.StageNormal && s.drift {
		// drift mode runs unclamped outside the latch band
		return stage
	}

	yawTarget, slipTarget := s.kinematicTargets(x, speed)

	switch stage {
	case dynamo.StageEmergency:
		x[dynamo.IdxYawRate] = clamp(yawTarget, p.YawRateLimit)
		x[dynamo.IdxSlip] = clamp(slipTarget, p.SlipAngleLimit)
	case dynamo.StageTransition:
		b := s.blend(speed)
		scale := math.Max(limitFloor, math.Min(1, speed/p.ReleaseSpeed))
		yaw := clamp(x[dynamo.IdxYawRate], p.YawRateLimit*scale)
		slip := clamp(x[dynamo.IdxSlip], p.SlipAngleLimit*scale)
		x[dynamo.IdxYawRate] = yaw + b*(yawTarget-yaw)
		x[dynamo.IdxSlip] = slip + b*(slipTarget-slip)
	}

	s.clampWheelSpeeds(x, speed)
	return stage
}

// kinematicTargets derives the bicycle-consistent yaw rate and slip angle
// for the current steering and speed; both collapse to zero near a stop.
func (s *LowSpeed) kinematicTargets(x dynamo.State, speed float64) (yawRate, slip float64) {
	if speed <= s.cfg.StopSpeedEpsilon {
		return 0, 0
	}
	lwb := s.veh.Wheelbase()
	tanD := math.Tan(x[dynamo.IdxSteer])
	beta := math.Atan(tanD * s.veh.LR / lwb)
	return x[dynamo.IdxSpeed] * math.Cos(beta) * tanD / lwb, beta
}

// clampWheelSpeeds keeps wheel angular speeds physical: never negative,
// and zero when latched at a standstill.
func (s *LowSpeed) clampWheelSpeeds(x dynamo.State, speed float64) {
	if len(x) < dynamo.StateDimSTD {
		return
	}
	stopped := s.latched && speed <= s.cfg.StopSpeedEpsilon
	for _, i := range []int{dynamo.IdxOmegaF, dynamo.IdxOmegaR} {
		if stopped || x[i] < 0 {
			x[i] = 0
		}
	}
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
