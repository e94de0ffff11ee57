package sim

import (
	"math"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/input"
	"github.com/velox-sim/velox/internal/models"
	"github.com/velox-sim/velox/internal/safety"
	"github.com/velox-sim/velox/internal/telemetry"
	"github.com/velox-sim/velox/internal/tire"
)

// assemble builds the telemetry frame for the state reached after the
// last sub-step of a tick.
func (d *Daemon) assemble(in input.Input, u dynamo.Control, x dynamo.State) telemetry.Frame {
	p := d.veh
	mu := p.Friction()

	v := x[dynamo.IdxSpeed]
	slip := x[dynamo.IdxSlip]
	yawRate := x[dynamo.IdxYawRate]
	delta := x[dynamo.IdxSteer]

	accel := models.AccelerationConstraint(v, u[dynamo.IdxAccel], p.Longitudinal)
	steerRate := models.SteeringConstraint(delta, u[dynamo.IdxSteerRate], p.Steering)
	latAccel := v * yawRate

	alphaF, alphaR := models.SlipAngles(p, x)
	sF, sR := models.SlipRatios(p, x)
	fzF, fzR := models.NormalLoads(p, accel)

	f := telemetry.Default()

	f.Pose = telemetry.Pose{
		X:   x[dynamo.IdxX],
		Y:   x[dynamo.IdxY],
		Yaw: x[dynamo.IdxYaw],
	}
	f.Velocity = telemetry.Velocity{
		Speed:        v,
		Longitudinal: v * math.Cos(slip),
		Lateral:      v * math.Sin(slip),
		YawRate:      yawRate,
		GlobalX:      v * math.Cos(x[dynamo.IdxYaw]+slip),
		GlobalY:      v * math.Sin(x[dynamo.IdxYaw]+slip),
	}
	f.Acceleration = telemetry.Acceleration{
		Longitudinal: accel,
		Lateral:      latAccel,
	}

	saturation := math.Hypot(accel, latAccel) / (mu * dynamo.Gravity)
	f.Traction = telemetry.Traction{
		SlipAngle:          slip,
		FrontSlipAngle:     alphaF,
		RearSlipAngle:      alphaR,
		FrictionSaturation: saturation,
		Drifting:           d.drift || d.safe.Severity(x) > 1,
	}

	desiredAngle := delta
	if in.Mode == input.Direct {
		desiredAngle = in.SteeringAngle
	}
	f.Steering = telemetry.Steering{
		DesiredAngle: desiredAngle,
		ActualAngle:  delta,
		DesiredRate:  u[dynamo.IdxSteerRate],
		ActualRate:   steerRate,
	}

	force := p.Mass * accel
	f.Controller = telemetry.Controller{
		Throttle:   in.Throttle,
		Brake:      in.Brake,
		DriveForce: math.Max(0, force),
		BrakeForce: math.Max(0, -force),
	}

	totalTorque := force * p.WheelRadius
	split := p.EngineSplit
	if accel < 0 {
		split = p.BrakeSplit
	}
	f.Powertrain = telemetry.Powertrain{
		FrontTorque:   split * totalTorque,
		RearTorque:    (1 - split) * totalTorque,
		Power:         force * v,
		StateOfCharge: d.soc,
	}

	f.FrontAxle = d.axle(split*totalTorque, fzF, sF, alphaF, x, dynamo.IdxOmegaF, mu)
	f.RearAxle = d.axle((1-split)*totalTorque, fzR, sR, alphaR, x, dynamo.IdxOmegaR, mu)

	f.Totals = telemetry.Totals{
		Distance: d.distance,
		Energy:   d.energy,
		SimTime:  d.simTime,
	}

	stage := d.safe.Stage(x)
	f.Safety = telemetry.Safety{
		Stage:   stage,
		Forced:  stage == dynamo.StageEmergency,
		Latched: d.safe.Latched(),
	}

	f.LossOfControl = d.det.Update(safety.Metrics{
		YawRate:    yawRate,
		SlipAngle:  slip,
		LatAccel:   latAccel,
		WheelSlips: []float64{sF, sR},
	}, in.Dt)

	return f
}

func (d *Daemon) axle(torque, fz, slipRatio, slipAngle float64, x dynamo.State, omegaIdx int, mu float64) telemetry.Axle {
	p := d.veh
	wheelSpeed := x[dynamo.IdxSpeed] / p.WheelRadius
	if len(x) > omegaIdx {
		wheelSpeed = x[omegaIdx]
	}
	utilization := 0.0
	if fz > 0 {
		fx, fy := tire.Forces(slipRatio, slipAngle, fz, mu, &p.Tire)
		utilization = math.Hypot(fx, fy) / (mu * fz)
	}
	return telemetry.Axle{
		Torque:              torque,
		NormalForce:         fz,
		WheelSpeed:          wheelSpeed,
		SlipRatio:           slipRatio,
		FrictionUtilization: utilization,
	}
}
