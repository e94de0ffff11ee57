// Package input validates and clamps raw driver input before any physics
// runs. Invalid input stops a step before state is touched.
package input

import (
	"fmt"
	"math"
	"strings"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/params"
)

// Mode selects how driver input maps to control commands.
type Mode int

const (
	// Keyboard carries throttle/brake pedals and a steering nudge.
	Keyboard Mode = iota
	// Direct carries an absolute steering angle and per-axle torques.
	Direct
)

func (m Mode) String() string {
	if m == Direct {
		return "direct"
	}
	return "keyboard"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "keyboard", "":
		return Keyboard, nil
	case "direct":
		return Direct, nil
	default:
		return 0, fmt.Errorf("%w: unknown control mode %q", dynamo.ErrInvalidInput, s)
	}
}

// Input is one raw driver sample. Fields outside the active mode are
// ignored.
type Input struct {
	Mode      Mode
	Dt        float64
	Timestamp float64

	// keyboard mode
	Throttle      float64
	Brake         float64
	SteeringNudge float64

	// direct mode
	SteeringAngle float64
	AxleTorques   []float64
}

// Clone returns a deep copy.
func (in Input) Clone() Input {
	c := in
	if in.AxleTorques != nil {
		c.AxleTorques = make([]float64, len(in.AxleTorques))
		copy(c.AxleTorques, in.AxleTorques)
	}
	return c
}

// Range is a closed numeric bound.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits is the configured bound set, derived from one vehicle.
type Limits struct {
	Throttle   Range
	Brake      Range
	Nudge      Range
	SteerAngle Range
	AxleTorque []Range
}

// LimitsFor builds limits from a vehicle: pedals are normalized, the
// steering angle follows the actuator envelope, and per-axle torque is
// bounded by the full-acceleration wheel torque.
func LimitsFor(veh *params.Vehicle) Limits {
	tMax := veh.Mass * veh.WheelRadius * veh.Longitudinal.AMax
	tMin := veh.Mass * veh.WheelRadius * veh.Longitudinal.AMin
	axle := Range{Min: tMin, Max: tMax}
	return Limits{
		Throttle:   Range{Min: 0, Max: 1},
		Brake:      Range{Min: 0, Max: 1},
		Nudge:      Range{Min: -1, Max: 1},
		SteerAngle: Range{Min: veh.Steering.Min, Max: veh.Steering.Max},
		AxleTorque: []Range{axle, axle},
	}
}

// Limiter is side-effect-free: it never mutates its argument.
type Limiter struct {
	limits Limits
}

func NewLimiter(limits Limits) *Limiter {
	return &Limiter{limits: limits}
}

// Validate fails fast with a field-named error on structurally invalid
// input: non-positive dt, negative timestamp, non-finite fields, fields
// outside their configured range, or a torque array whose length does not
// match the configured bounds.
func (l *Limiter) Validate(in Input) error {
	if err := l.validateShape(in); err != nil {
		return err
	}
	switch in.Mode {
	case Keyboard:
		if !l.limits.Throttle.Contains(in.Throttle) {
			return fmt.Errorf("%w: throttle %g outside [%g, %g]", dynamo.ErrInvalidInput, in.Throttle, l.limits.Throttle.Min, l.limits.Throttle.Max)
		}
		if !l.limits.Brake.Contains(in.Brake) {
			return fmt.Errorf("%w: brake %g outside [%g, %g]", dynamo.ErrInvalidInput, in.Brake, l.limits.Brake.Min, l.limits.Brake.Max)
		}
		if !l.limits.Nudge.Contains(in.SteeringNudge) {
			return fmt.Errorf("%w: steering_nudge %g outside [%g, %g]", dynamo.ErrInvalidInput, in.SteeringNudge, l.limits.Nudge.Min, l.limits.Nudge.Max)
		}
	case Direct:
		if !l.limits.SteerAngle.Contains(in.SteeringAngle) {
			return fmt.Errorf("%w: steering_angle %g outside [%g, %g]", dynamo.ErrInvalidInput, in.SteeringAngle, l.limits.SteerAngle.Min, l.limits.SteerAngle.Max)
		}
		for i, tq := range in.AxleTorques {
			if !l.limits.AxleTorque[i].Contains(tq) {
				return fmt.Errorf("%w: axle_torque[%d] %g outside [%g, %g]", dynamo.ErrInvalidInput, i, tq, l.limits.AxleTorque[i].Min, l.limits.AxleTorque[i].Max)
			}
		}
	}
	return nil
}

// validateShape checks the invariants clamping cannot repair.
func (l *Limiter) validateShape(in Input) error {
	if in.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidInput, in.Dt)
	}
	if in.Timestamp < 0 {
		return fmt.Errorf("%w: timestamp must be non-negative, got %g", dynamo.ErrInvalidInput, in.Timestamp)
	}
	fields := map[string]float64{
		"dt":             in.Dt,
		"timestamp":      in.Timestamp,
		"throttle":       in.Throttle,
		"brake":          in.Brake,
		"steering_nudge": in.SteeringNudge,
		"steering_angle": in.SteeringAngle,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrInvalidInput, name)
		}
	}
	if in.Mode == Direct {
		if len(in.AxleTorques) != len(l.limits.AxleTorque) {
			return fmt.Errorf("%w: got %d axle torques, configured for %d", dynamo.ErrInvalidInput, len(in.AxleTorques), len(l.limits.AxleTorque))
		}
		for i, tq := range in.AxleTorques {
			if math.IsNaN(tq) || math.IsInf(tq, 0) {
				return fmt.Errorf("%w: axle_torque[%d] is not finite", dynamo.ErrInvalidInput, i)
			}
		}
	}
	return nil
}

// Clamp validates the input shape and returns a defensive copy with every
// mode-relevant numeric field clamped into its configured range.
func (l *Limiter) Clamp(in Input) (Input, error) {
	if err := l.validateShape(in); err != nil {
		return Input{}, err
	}
	out := in.Clone()
	switch in.Mode {
	case Keyboard:
		out.Throttle = l.limits.Throttle.Clamp(in.Throttle)
		out.Brake = l.limits.Brake.Clamp(in.Brake)
		out.SteeringNudge = l.limits.Nudge.Clamp(in.SteeringNudge)
	case Direct:
		out.SteeringAngle = l.limits.SteerAngle.Clamp(in.SteeringAngle)
		for i := range out.AxleTorques {
			out.AxleTorques[i] = l.limits.AxleTorque[i].Clamp(in.AxleTorques[i])
		}
	}
	return out, nil
}
