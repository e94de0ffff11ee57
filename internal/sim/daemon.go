package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/input"
	"github.com/velox-sim/velox/internal/integrate"
	"github.com/velox-sim/velox/internal/models"
	"github.com/velox-sim/velox/internal/params"
	"github.com/velox-sim/velox/internal/safety"
	"github.com/velox-sim/velox/internal/telemetry"
)

// Daemon orchestrates a full input step: limit input, plan sub-steps,
// integrate each, accumulate totals, assemble telemetry.
//
// A Daemon is not safe for concurrent use. Callers must serialize Step
// and Reset; a multi-sub-step tick runs to completion once started.
type Daemon struct {
	bundle *params.Bundle
	log    *logrus.Logger

	veh     *params.Vehicle
	vehID   int
	model   models.Model
	integ   *integrate.Integrator
	safe    *safety.LowSpeed
	det     *safety.Detector
	limiter *input.Limiter
	mode    input.Mode
	drift   bool
	timing  params.Timing

	simTime  float64
	distance float64
	energy   float64
	soc      float64

	last     telemetry.Frame
	prepared bool
}

// ResetOptions selects the model, vehicle and driving style for a fresh
// simulator. A Reset builds a brand-new integrator/safety pair so no
// latch state leaks across vehicles.
type ResetOptions struct {
	Model        models.Kind
	VehicleID    int
	InitialState []float64
	Dt           float64 // 0 keeps the bundle's nominal dt
	Drift        bool
	ControlMode  input.Mode
}

// Snapshot is the read-only view returned by Daemon.Snapshot.
type Snapshot struct {
	State     dynamo.State    `json:"state"`
	Telemetry telemetry.Frame `json:"telemetry"`
	Dt        float64         `json:"dt"`
	SimTime   float64         `json:"simulation_time_s"`
}

// NewDaemon wraps an already-prepared configuration bundle. Call Reset
// before the first Step.
func NewDaemon(bundle *params.Bundle, log *logrus.Logger) *Daemon {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Daemon{bundle: bundle, log: log}
}

// Prepare loads the configuration bundle the daemon runs with. A load
// failure is recovered locally: the compiled-in defaults are substituted
// and a warning surfaced, never an error.
func Prepare(path string, log *logrus.Logger) *params.Bundle {
	if path == "" {
		return params.DefaultBundle()
	}
	b, err := params.Load(path)
	if err != nil {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.Warnf("config load failed (%v), using built-in defaults", err)
		return params.DefaultBundle()
	}
	return b
}

// Reset constructs a fresh simulator: parameters, model, integrator and
// safety pair, zeroed totals.
func (d *Daemon) Reset(opts ResetOptions) error {
	veh, err := d.bundle.Vehicle(opts.VehicleID)
	if err != nil {
		return err
	}

	model := models.New(opts.Model, veh)
	safe := safety.NewLowSpeed(d.bundle.Safety, veh, opts.Drift)
	integ := integrate.New(model, safe, veh)
	if err := integ.Reset(opts.InitialState); err != nil {
		return fmt.Errorf("sim: reset: %w", err)
	}

	d.veh = veh
	d.vehID = opts.VehicleID
	d.model = model
	d.safe = safe
	d.integ = integ
	d.det = safety.NewDetector(d.bundle.Detector)
	d.limiter = input.NewLimiter(input.LimitsFor(veh))
	d.mode = opts.ControlMode
	d.drift = opts.Drift

	d.timing = d.bundle.Timing
	if opts.Dt > 0 {
		d.timing.NominalDt = opts.Dt
	}

	d.simTime = 0
	d.distance = 0
	d.energy = 0
	d.soc = 1.0
	d.last = telemetry.Default()
	d.prepared = true
	return nil
}

// Step advances the simulation by the input's dt and returns a fresh
// telemetry frame. Invalid input stops the step before any physics runs.
func (d *Daemon) Step(in input.Input) (telemetry.Frame, error) {
	if !d.prepared {
		return telemetry.Frame{}, dynamo.ErrNotPrepared
	}
	in.Mode = d.mode
	if in.Dt == 0 {
		in.Dt = d.timing.NominalDt
	}

	clamped, err := d.limiter.Clamp(in)
	if err != nil {
		return telemetry.Frame{}, err
	}
	steps, err := PlanSteps(clamped.Dt, d.timing)
	if err != nil {
		return telemetry.Frame{}, err
	}

	var u dynamo.Control
	var x dynamo.State
	for _, dt := range steps {
		u = d.controlFor(clamped, dt)
		x = d.integ.Step(u, dt)

		speed := x[dynamo.IdxSpeed]
		accel := models.AccelerationConstraint(speed, u[dynamo.IdxAccel], d.veh.Longitudinal)
		d.distance += math.Abs(speed) * dt
		d.energy += accel * speed * dt
		d.simTime += dt

		power := d.veh.Mass * accel * speed
		if d.veh.BatteryCapacity > 0 {
			d.soc = math.Max(0, math.Min(1, d.soc-power*dt/d.veh.BatteryCapacity))
		}
	}

	frame := d.assemble(clamped, u, x)
	d.last = frame
	return frame, nil
}

// StepControl advances the simulation by dt under an explicit
// (steering rate, acceleration) pair, bypassing the driver-input mapping.
// Used for scenario playback and cross-checking against the reference
// implementation.
func (d *Daemon) StepControl(u dynamo.Control, dt float64) (telemetry.Frame, error) {
	if !d.prepared {
		return telemetry.Frame{}, dynamo.ErrNotPrepared
	}
	steps, err := PlanSteps(dt, d.timing)
	if err != nil {
		return telemetry.Frame{}, err
	}

	var x dynamo.State
	for _, sub := range steps {
		x = d.integ.Step(u, sub)

		speed := x[dynamo.IdxSpeed]
		accel := models.AccelerationConstraint(speed, u[dynamo.IdxAccel], d.veh.Longitudinal)
		d.distance += math.Abs(speed) * sub
		d.energy += accel * speed * sub
		d.simTime += sub

		power := d.veh.Mass * accel * speed
		if d.veh.BatteryCapacity > 0 {
			d.soc = math.Max(0, math.Min(1, d.soc-power*sub/d.veh.BatteryCapacity))
		}
	}

	frame := d.assemble(input.Input{Mode: d.mode, Dt: dt}, u, x)
	d.last = frame
	return frame, nil
}

// Snapshot returns the current state, last telemetry and clock.
func (d *Daemon) Snapshot() Snapshot {
	var x dynamo.State
	if d.integ != nil {
		x = d.integ.State()
	}
	return Snapshot{
		State:     x,
		Telemetry: d.last,
		Dt:        d.timing.NominalDt,
		SimTime:   d.simTime,
	}
}

// State returns a copy of the current state vector.
func (d *Daemon) State() dynamo.State {
	if d.integ == nil {
		return nil
	}
	return d.integ.State()
}

// Vehicle returns the active parameter set.
func (d *Daemon) Vehicle() *params.Vehicle { return d.veh }

// controlFor derives the concrete (steering rate, acceleration) pair for
// one sub-step from the clamped driver input.
func (d *Daemon) controlFor(in input.Input, dt float64) dynamo.Control {
	switch in.Mode {
	case input.Direct:
		x := d.integ.State()
		rate := (in.SteeringAngle - x[dynamo.IdxSteer]) / dt
		rate = math.Max(d.veh.Steering.RateMin, math.Min(d.veh.Steering.RateMax, rate))
		total := 0.0
		for _, tq := range in.AxleTorques {
			total += tq
		}
		accel := total / (d.veh.Mass * d.veh.WheelRadius)
		return dynamo.Control{rate, accel}
	default:
		rate := in.SteeringNudge * d.veh.Steering.RateMax
		accel := in.Throttle*d.veh.Longitudinal.AMax + in.Brake*d.veh.Longitudinal.AMin
		return dynamo.Control{rate, accel}
	}
}
