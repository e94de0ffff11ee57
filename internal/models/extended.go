package models

import (
	"math"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/params"
	"github.com/velox-sim/velox/internal/tire"
)

// Low-speed blend parameters: below blendVS the kinematic derivative
// dominates, the tanh width blendVB keeps the handover continuous.
const (
	blendVS = 0.2
	blendVB = 0.05

	// minimum contact-patch speed for the slip denominators
	wheelSpeedEps = 1e-2
)

// ExtendedST is the extended dynamic single-track model: the kinematic
// layout plus front/rear wheel angular speeds, with combined-slip tire
// forces and longitudinal load transfer.
type ExtendedST struct {
	veh *params.Vehicle
	kin *KinematicST
}

func NewExtended(veh *params.Vehicle) *ExtendedST {
	return &ExtendedST{veh: veh, kin: NewKinematic(veh)}
}

func (m *ExtendedST) Kind() Kind { return ExtendedDynamic }
func (m *ExtendedST) Dim() int   { return dynamo.StateDimSTD }

// Init seeds the wheel speeds rolling-consistent with the initial body
// speed when the caller did not provide them.
func (m *ExtendedST) Init(raw []float64) (dynamo.State, error) {
	x, err := initState(raw, m.Dim())
	if err != nil {
		return nil, err
	}
	if len(raw) <= dynamo.IdxOmegaF {
		omega := x[dynamo.IdxSpeed] / m.veh.WheelRadius
		x[dynamo.IdxOmegaF] = omega
		x[dynamo.IdxOmegaR] = omega
	}
	return x, nil
}

func (m *ExtendedST) Speed(x dynamo.State) float64 { return x[dynamo.IdxSpeed] }

// SlipAngles returns the front and rear tire slip angles. Both are zero
// below the contact-speed epsilon where the ratio degenerates.
func SlipAngles(veh *params.Vehicle, x dynamo.State) (alphaF, alphaR float64) {
	v := x[dynamo.IdxSpeed]
	slip := x[dynamo.IdxSlip]
	yawRate := x[dynamo.IdxYawRate]
	vLon := v * math.Cos(slip)
	if math.Abs(vLon) < wheelSpeedEps {
		return 0, 0
	}
	vLat := v * math.Sin(slip)
	alphaF = math.Atan((vLat+yawRate*veh.LF)/vLon) - x[dynamo.IdxSteer]
	alphaR = math.Atan((vLat - yawRate*veh.LR) / vLon)
	return alphaF, alphaR
}

// SlipRatios returns the front and rear longitudinal slip ratios for a
// state carrying wheel speeds; a 7-state vector reports zero slip.
func SlipRatios(veh *params.Vehicle, x dynamo.State) (sF, sR float64) {
	if len(x) < dynamo.StateDimSTD {
		return 0, 0
	}
	uwF, uwR := contactSpeeds(veh, x)
	sF = 1 - veh.WheelRadius*x[dynamo.IdxOmegaF]/math.Max(uwF, wheelSpeedEps)
	sR = 1 - veh.WheelRadius*x[dynamo.IdxOmegaR]/math.Max(uwR, wheelSpeedEps)
	return sF, sR
}

// NormalLoads returns the per-axle vertical forces under the given
// longitudinal acceleration.
func NormalLoads(veh *params.Vehicle, accel float64) (fzF, fzR float64) {
	lwb := veh.Wheelbase()
	fzF = veh.Mass * (-accel*veh.HCg + dynamo.Gravity*veh.LR) / lwb
	fzR = veh.Mass * (accel*veh.HCg + dynamo.Gravity*veh.LF) / lwb
	return fzF, fzR
}

// contactSpeeds projects the body velocity onto the wheel headings.
func contactSpeeds(veh *params.Vehicle, x dynamo.State) (uwF, uwR float64) {
	v := x[dynamo.IdxSpeed]
	slip := x[dynamo.IdxSlip]
	delta := x[dynamo.IdxSteer]
	yawRate := x[dynamo.IdxYawRate]
	vLon := v * math.Cos(slip)
	vLat := v * math.Sin(slip)
	uwF = math.Max(0, vLon*math.Cos(delta)+(vLat+veh.LF*yawRate)*math.Sin(delta))
	uwR = math.Max(0, vLon)
	return uwF, uwR
}

func (m *ExtendedST) Derive(x dynamo.State, u dynamo.Control, dt float64) dynamo.State {
	p := m.veh
	mu := p.Friction()
	delta := x[dynamo.IdxSteer]
	v := x[dynamo.IdxSpeed]
	psi := x[dynamo.IdxYaw]
	yawRate := x[dynamo.IdxYawRate]
	slip := x[dynamo.IdxSlip]

	steerRate := SteeringConstraint(delta, u[dynamo.IdxSteerRate], p.Steering)
	accel := AccelerationConstraint(v, u[dynamo.IdxAccel], p.Longitudinal)

	alphaF, alphaR := SlipAngles(p, x)
	sF, sR := SlipRatios(p, x)
	fzF, fzR := NormalLoads(p, accel)

	fxF, fyF := tire.Forces(sF, alphaF, fzF, mu, &p.Tire)
	fxR, fyR := tire.Forces(sR, alphaR, fzR, mu, &p.Tire)

	// net body force and yaw moment
	sinD, cosD := math.Sin(delta), math.Cos(delta)
	fx := cosD*fxF - sinD*fyF + fxR
	fy := sinD*fxF + cosD*fyF + fyR
	mz := p.LF*(sinD*fxF+cosD*fyF) - p.LR*fyR

	// acceleration command realized as brake/engine torque on the axles
	var tB, tE float64
	if accel > 0 {
		tE = p.Mass * p.WheelRadius * accel
	} else {
		tB = p.Mass * p.WheelRadius * accel
	}

	sinB, cosB := math.Sin(slip), math.Cos(slip)
	fd := make(dynamo.State, dynamo.StateDimSTD)
	fd[dynamo.IdxX] = v * math.Cos(psi+slip)
	fd[dynamo.IdxY] = v * math.Sin(psi+slip)
	fd[dynamo.IdxSteer] = steerRate
	fd[dynamo.IdxSpeed] = (cosB*fx + sinB*fy) / p.Mass
	fd[dynamo.IdxYaw] = yawRate
	fd[dynamo.IdxYawRate] = mz / p.YawInertia
	fd[dynamo.IdxSlip] = -yawRate + (-sinB*fx+cosB*fy)/(p.Mass*math.Max(math.Abs(v), wheelSpeedEps))
	fd[dynamo.IdxOmegaF] = (-p.WheelRadius*fxF + p.BrakeSplit*tB + p.EngineSplit*tE) / p.WheelInertia
	fd[dynamo.IdxOmegaR] = (-p.WheelRadius*fxR + (1-p.BrakeSplit)*tB + (1-p.EngineSplit)*tE) / p.WheelInertia

	// blend with the kinematic derivative through the low-speed
	// singularity region
	w := 0.5 * (math.Tanh((v-blendVS)/blendVB) + 1)
	fk := m.kin.Derive(x[:dynamo.StateDimST], u, dt)
	f := make(dynamo.State, dynamo.StateDimSTD)
	for i := 0; i < dynamo.StateDimST; i++ {
		f[i] = w*fd[i] + (1-w)*fk[i]
	}
	// kinematic wheel speeds follow the body speed
	dOmegaKin := accel / p.WheelRadius
	f[dynamo.IdxOmegaF] = w*fd[dynamo.IdxOmegaF] + (1-w)*dOmegaKin
	f[dynamo.IdxOmegaR] = w*fd[dynamo.IdxOmegaR] + (1-w)*dOmegaKin

	return f
}
