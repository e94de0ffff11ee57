package dynamo

import "math"

// State is the ordered simulation state vector. Component meaning is fixed
// per model variant; see the Idx* constants.
type State []float64

// State vector layout shared by the single-track models. The kinematic
// variant uses indices 0..6, the extended dynamic variant adds the two
// wheel angular speeds.
const (
	IdxX        = 0 // global x position [m]
	IdxY        = 1 // global y position [m]
	IdxSteer    = 2 // steering angle [rad]
	IdxSpeed    = 3 // longitudinal speed [m/s]
	IdxYaw      = 4 // heading [rad]
	IdxYawRate  = 5 // yaw rate [rad/s]
	IdxSlip     = 6 // body slip angle [rad]
	IdxOmegaF   = 7 // front wheel angular speed [rad/s]
	IdxOmegaR   = 8 // rear wheel angular speed [rad/s]
	StateDimST  = 7
	StateDimSTD = 9
)

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Control is the [steering rate, longitudinal acceleration] command pair.
type Control []float64

const (
	IdxSteerRate = 0 // steering angle rate [rad/s]
	IdxAccel     = 1 // longitudinal acceleration [m/s^2]
	ControlDim   = 2
)

// Stage tags the low-speed safety state machine mode.
type Stage int

const (
	StageNormal Stage = iota
	StageTransition
	StageEmergency
)

func (s Stage) String() string {
	switch s {
	case StageNormal:
		return "normal"
	case StageTransition:
		return "transition"
	case StageEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Gravity is the gravitational acceleration used throughout the friction
// budget math [m/s^2].
const Gravity = 9.81
