// Package telemetry defines the per-tick snapshot contract. The flattened
// field layout and its units (m, m/s, rad, rad/s, N, Nm, W, J) are a
// wire contract consumed by the comparison tooling; changing a key breaks
// recorded traces.
package telemetry

import (
	"sort"

	"github.com/samber/lo"

	"github.com/velox-sim/velox/internal/dynamo"
)

// Pose is the global vehicle pose.
type Pose struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

type Velocity struct {
	Speed        float64 `json:"speed"`
	Longitudinal float64 `json:"longitudinal"`
	Lateral      float64 `json:"lateral"`
	YawRate      float64 `json:"yaw_rate"`
	GlobalX      float64 `json:"global_x"`
	GlobalY      float64 `json:"global_y"`
}

type Acceleration struct {
	Longitudinal float64 `json:"longitudinal"`
	Lateral      float64 `json:"lateral"`
}

type Traction struct {
	SlipAngle          float64 `json:"slip_angle"`
	FrontSlipAngle     float64 `json:"front_slip_angle"`
	RearSlipAngle      float64 `json:"rear_slip_angle"`
	FrictionSaturation float64 `json:"friction_saturation"`
	Drifting           bool    `json:"drifting"`
}

type Steering struct {
	DesiredAngle float64 `json:"desired_angle"`
	ActualAngle  float64 `json:"actual_angle"`
	DesiredRate  float64 `json:"desired_rate"`
	ActualRate   float64 `json:"actual_rate"`
}

type Controller struct {
	Throttle   float64 `json:"throttle"`
	Brake      float64 `json:"brake"`
	DriveForce float64 `json:"drive_force"`
	BrakeForce float64 `json:"brake_force"`
}

type Powertrain struct {
	FrontTorque   float64 `json:"front_torque"`
	RearTorque    float64 `json:"rear_torque"`
	Power         float64 `json:"power"`
	StateOfCharge float64 `json:"state_of_charge"`
}

// Axle is the per-axle traction block.
type Axle struct {
	Torque              float64 `json:"torque"`
	NormalForce         float64 `json:"normal_force"`
	WheelSpeed          float64 `json:"wheel_speed"`
	SlipRatio           float64 `json:"slip_ratio"`
	FrictionUtilization float64 `json:"friction_utilization"`
}

type Totals struct {
	Distance float64 `json:"distance_m"`
	Energy   float64 `json:"energy_j"`
	SimTime  float64 `json:"sim_time_s"`
}

type Safety struct {
	Stage   dynamo.Stage `json:"stage"`
	Forced  bool         `json:"forced"`
	Latched bool         `json:"latched"`
}

// Frame is one telemetry snapshot. It is a plain value: produced fresh
// each tick and never mutated after being returned. Callers that need to
// accumulate must copy.
type Frame struct {
	Pose          Pose         `json:"pose"`
	Velocity      Velocity     `json:"velocity"`
	Acceleration  Acceleration `json:"acceleration"`
	Traction      Traction     `json:"traction"`
	Steering      Steering     `json:"steering"`
	Controller    Controller   `json:"controller"`
	Powertrain    Powertrain   `json:"powertrain"`
	FrontAxle     Axle         `json:"axle_front"`
	RearAxle      Axle         `json:"axle_rear"`
	Totals        Totals       `json:"totals"`
	Safety        Safety       `json:"safety"`
	LossOfControl float64      `json:"loss_of_control"`
}

// Default returns a zeroed frame with full state of charge.
func Default() Frame {
	f := Frame{}
	f.Powertrain.StateOfCharge = 1.0
	return f
}

// Merge overwrites f with src. Merging is pure value assignment, so it is
// idempotent: no field accumulates across repeated merges.
func (f *Frame) Merge(src Frame) { *f = src }

func b2f(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// Flatten returns the dotted-key numeric view consumed by the comparison
// tool. Booleans map to 0/1 and the safety stage to its ordinal.
func (f Frame) Flatten() map[string]float64 {
	return map[string]float64{
		"pose.x":   f.Pose.X,
		"pose.y":   f.Pose.Y,
		"pose.yaw": f.Pose.Yaw,

		"velocity.speed":        f.Velocity.Speed,
		"velocity.longitudinal": f.Velocity.Longitudinal,
		"velocity.lateral":      f.Velocity.Lateral,
		"velocity.yaw_rate":     f.Velocity.YawRate,
		"velocity.global_x":     f.Velocity.GlobalX,
		"velocity.global_y":     f.Velocity.GlobalY,

		"acceleration.longitudinal": f.Acceleration.Longitudinal,
		"acceleration.lateral":      f.Acceleration.Lateral,

		"traction.slip_angle":          f.Traction.SlipAngle,
		"traction.front_slip_angle":    f.Traction.FrontSlipAngle,
		"traction.rear_slip_angle":     f.Traction.RearSlipAngle,
		"traction.friction_saturation": f.Traction.FrictionSaturation,
		"traction.drifting":            b2f(f.Traction.Drifting),

		"steering.desired_angle": f.Steering.DesiredAngle,
		"steering.actual_angle":  f.Steering.ActualAngle,
		"steering.desired_rate":  f.Steering.DesiredRate,
		"steering.actual_rate":   f.Steering.ActualRate,

		"controller.throttle":    f.Controller.Throttle,
		"controller.brake":       f.Controller.Brake,
		"controller.drive_force": f.Controller.DriveForce,
		"controller.brake_force": f.Controller.BrakeForce,

		"powertrain.front_torque":    f.Powertrain.FrontTorque,
		"powertrain.rear_torque":     f.Powertrain.RearTorque,
		"powertrain.power":           f.Powertrain.Power,
		"powertrain.state_of_charge": f.Powertrain.StateOfCharge,

		"axle_front.torque":               f.FrontAxle.Torque,
		"axle_front.normal_force":         f.FrontAxle.NormalForce,
		"axle_front.wheel_speed":          f.FrontAxle.WheelSpeed,
		"axle_front.slip_ratio":           f.FrontAxle.SlipRatio,
		"axle_front.friction_utilization": f.FrontAxle.FrictionUtilization,

		"axle_rear.torque":               f.RearAxle.Torque,
		"axle_rear.normal_force":         f.RearAxle.NormalForce,
		"axle_rear.wheel_speed":          f.RearAxle.WheelSpeed,
		"axle_rear.slip_ratio":           f.RearAxle.SlipRatio,
		"axle_rear.friction_utilization": f.RearAxle.FrictionUtilization,

		"totals.distance_m": f.Totals.Distance,
		"totals.energy_j":   f.Totals.Energy,
		"totals.sim_time_s": f.Totals.SimTime,

		"safety.stage":   float64(f.Safety.Stage),
		"safety.forced":  b2f(f.Safety.Forced),
		"safety.latched": b2f(f.Safety.Latched),

		"loss_of_control": f.LossOfControl,
	}
}

// FieldNames returns the flattened key set in sorted order.
func FieldNames() []string {
	keys := lo.Keys(Frame{}.Flatten())
	sort.Strings(keys)
	return keys
}
