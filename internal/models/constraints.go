package models

import (
	"math"

	"github.com/velox-sim/velox/internal/params"
)

// SteeringConstraint zeroes the steering velocity at either angle limit
// and clamps it into the rate envelope otherwise.
func SteeringConstraint(angle, rate float64, s params.Steering) float64 {
	if (angle <= s.Min && rate <= 0) || (angle >= s.Max && rate >= 0) {
		return 0
	}
	return math.Max(s.RateMin, math.Min(s.RateMax, rate))
}

// AccelerationConstraint clamps the acceleration command into the
// longitudinal envelope. The positive limit is de-rated above v_switch so
// available drive power falls off with speed.
func AccelerationConstraint(v, accel float64, l params.Longitudinal) float64 {
	posLimit := l.AMax
	if v > l.VSwitch && v > 0 {
		posLimit = l.AMax * l.VSwitch / v
	}
	if (v <= l.VMin && accel <= 0) || (v >= l.VMax && accel >= 0) {
		return 0
	}
	return math.Max(l.AMin, math.Min(posLimit, accel))
}
