// Package integrate advances the vehicle state: classical RK4 for the
// dynamic model, a clamped explicit Euler step for the kinematic one.
package integrate

import (
	"fmt"
	"math"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/models"
	"github.com/velox-sim/velox/internal/params"
	"github.com/velox-sim/velox/internal/safety"
)

// Integrator owns the mutable state vector. It is paired with exactly one
// model and one safety latch; a model or vehicle change requires a new
// Integrator so no stale latch or dimension assumptions carry over.
type Integrator struct {
	model models.Model
	safe  *safety.LowSpeed
	veh   *params.Vehicle

	x dynamo.State

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State

	prevAccel float64
	hasPrev   bool
}

func New(model models.Model, safe *safety.LowSpeed, veh *params.Vehicle) *Integrator {
	return &Integrator{model: model, safe: safe, veh: veh}
}

// Reset initializes the state from raw via the model and clamps it once.
func (it *Integrator) Reset(raw []float64) error {
	x, err := it.model.Init(raw)
	if err != nil {
		return err
	}
	it.x = x
	it.safe.Reset()
	it.safe.Apply(it.x, true)
	it.prevAccel = 0
	it.hasPrev = false
	return nil
}

// State returns a copy of the owned state vector.
func (it *Integrator) State() dynamo.State { return it.x.Clone() }

// Model returns the active dynamics model.
func (it *Integrator) Model() models.Model { return it.model }

// Step advances the state by dt under the given control and returns a
// copy of the new state. A non-positive dt or a derivative of the wrong
// length is a programming error and panics.
func (it *Integrator) Step(u dynamo.Control, dt float64) dynamo.State {
	if dt <= 0 {
		panic(fmt.Sprintf("integrate: %v (dt=%g)", dynamo.ErrNonPositiveDt, dt))
	}

	v0 := it.x[dynamo.IdxSpeed]

	if it.model.Kind() == models.Kinematic {
		it.stepKinematic(u, dt)
	} else {
		it.stepRK4(u, dt)
	}

	// zero-crossing guard: braking through zero must stop, not reverse
	if v0 >= 0 && it.x[dynamo.IdxSpeed] < 0 {
		it.x[dynamo.IdxSpeed] = 0
	}

	it.safe.Apply(it.x, true)
	return it.x.Clone()
}

// stepKinematic takes one explicit Euler step with hard actuator clamps
// and a friction-circle bound on the steering angle.
func (it *Integrator) stepKinematic(u dynamo.Control, dt float64) {
	s := it.veh.Steering
	l := it.veh.Longitudinal

	rate := math.Max(s.RateMin, math.Min(s.RateMax, u[dynamo.IdxSteerRate]))
	accel := math.Max(l.AMin, math.Min(l.AMax, u[dynamo.IdxAccel]))
	if l.JMax > 0 && it.hasPrev {
		lo := it.prevAccel - l.JMax*dt
		hi := it.prevAccel + l.JMax*dt
		accel = math.Max(lo, math.Min(hi, accel))
	}
	it.prevAccel = accel
	it.hasPrev = true

	it.clampSteerBudget()
	f := it.derive(it.x, dynamo.Control{rate, accel}, dt)
	for i := range it.x {
		it.x[i] += dt * f[i]
	}
	it.clampSteerBudget()
	it.syncKinematicStates()
}

// syncKinematicStates rewrites the yaw-rate and slip-angle states from the
// bicycle relations. In the kinematic variant both are derived quantities;
// integrating them independently lets them drift off the clamped steering
// angle and out of the friction budget.
func (it *Integrator) syncKinematicStates() {
	lwb := it.veh.Wheelbase()
	tanD := math.Tan(it.x[dynamo.IdxSteer])
	beta := math.Atan(tanD * it.veh.LR / lwb)
	it.x[dynamo.IdxYawRate] = it.x[dynamo.IdxSpeed] * math.Cos(beta) * tanD / lwb
	it.x[dynamo.IdxSlip] = beta
}

// clampSteerBudget bounds the steering angle so the implied lateral
// acceleration v^2*tan(delta)/wb stays inside the friction budget mu*g.
func (it *Integrator) clampSteerBudget() {
	v := math.Abs(it.x[dynamo.IdxSpeed])
	budget := it.veh.Friction() * dynamo.Gravity
	max := it.veh.Steering.Max
	if v2 := v * v; v2 > 1e-6 {
		max = math.Min(max, math.Atan(budget*it.veh.Wheelbase()/v2))
	}
	it.x[dynamo.IdxSteer] = math.Max(-max, math.Min(max, it.x[dynamo.IdxSteer]))
}

// stepRK4 performs classical 4-stage Runge-Kutta integration. The state
// is safety-clamped before every stage evaluation: RK4 probes perturbed
// intermediate states that could otherwise be physically invalid, e.g. a
// negative wheel speed.
func (it *Integrator) stepRK4(u dynamo.Control, dt float64) {
	n := it.model.Dim()
	it.ensureScratch(n)

	it.safe.Apply(it.x, false)
	copy(it.k1, it.derive(it.x, u, dt))

	for i := 0; i < n; i++ {
		it.scratch[i] = it.x[i] + dt*0.5*it.k1[i]
	}
	it.safe.Apply(it.scratch, false)
	copy(it.k2, it.derive(it.scratch, u, dt))

	for i := 0; i < n; i++ {
		it.scratch[i] = it.x[i] + dt*0.5*it.k2[i]
	}
	it.safe.Apply(it.scratch, false)
	copy(it.k3, it.derive(it.scratch, u, dt))

	for i := 0; i < n; i++ {
		it.scratch[i] = it.x[i] + dt*it.k3[i]
	}
	it.safe.Apply(it.scratch, false)
	copy(it.k4, it.derive(it.scratch, u, dt))

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		it.x[i] += dt6 * (it.k1[i] + 2*it.k2[i] + 2*it.k3[i] + it.k4[i])
	}
}

func (it *Integrator) derive(x dynamo.State, u dynamo.Control, dt float64) dynamo.State {
	f := it.model.Derive(x, u, dt)
	if len(f) != it.model.Dim() {
		panic(fmt.Sprintf("integrate: %v (derivative has %d components, model %s has %d)",
			dynamo.ErrDimensionMismatch, len(f), it.model.Kind(), it.model.Dim()))
	}
	return f
}

func (it *Integrator) ensureScratch(n int) {
	if len(it.k1) != n {
		it.k1 = make(dynamo.State, n)
		it.k2 = make(dynamo.State, n)
		it.k3 = make(dynamo.State, n)
		it.k4 = make(dynamo.State, n)
		it.scratch = make(dynamo.State, n)
	}
}
