package models

import (
	"math"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/params"
)

// KinematicST is the kinematic single-track (bicycle) model. The yaw-rate
// and slip-angle states are carried along kinematically so the layout
// matches the dynamic variant.
type KinematicST struct {
	veh *params.Vehicle
}

func NewKinematic(veh *params.Vehicle) *KinematicST {
	return &KinematicST{veh: veh}
}

func (m *KinematicST) Kind() Kind { return Kinematic }
func (m *KinematicST) Dim() int   { return dynamo.StateDimST }

func (m *KinematicST) Init(raw []float64) (dynamo.State, error) {
	return initState(raw, m.Dim())
}

func (m *KinematicST) Speed(x dynamo.State) float64 { return x[dynamo.IdxSpeed] }

func (m *KinematicST) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	p := m.veh
	delta := x[dynamo.IdxSteer]
	v := x[dynamo.IdxSpeed]
	psi := x[dynamo.IdxYaw]
	slip := x[dynamo.IdxSlip]

	steerRate := SteeringConstraint(delta, u[dynamo.IdxSteerRate], p.Steering)
	accel := AccelerationConstraint(v, u[dynamo.IdxAccel], p.Longitudinal)

	lwb := p.Wheelbase()
	tanD := math.Tan(delta)
	beta := math.Atan(tanD * p.LR / lwb)

	f := make(dynamo.State, dynamo.StateDimST)
	f[dynamo.IdxX] = v * math.Cos(psi+beta)
	f[dynamo.IdxY] = v * math.Sin(psi+beta)
	f[dynamo.IdxSteer] = steerRate
	f[dynamo.IdxSpeed] = accel
	f[dynamo.IdxYaw] = v * math.Cos(beta) * tanD / lwb

	// chain-rule rates keeping the yaw-rate and slip states consistent
	// with the geometric relations above
	cosD2 := math.Cos(delta) * math.Cos(delta)
	ratio := p.LR / lwb
	dBeta := (p.LR * steerRate) / (lwb * cosD2 * (1 + tanD*tanD*ratio*ratio))
	f[dynamo.IdxYawRate] = (accel*math.Cos(slip)*tanD -
		v*math.Sin(slip)*dBeta*tanD +
		v*math.Cos(slip)*steerRate/cosD2) / lwb
	f[dynamo.IdxSlip] = dBeta

	return f
}
