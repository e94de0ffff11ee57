package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/velox-sim/velox/internal/dynamo"
)

// Steering holds the steering actuator envelope.
type Steering struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	RateMin float64 `yaml:"rate_min"`
	RateMax float64 `yaml:"rate_max"`
}

// Longitudinal holds the speed and acceleration envelope.
type Longitudinal struct {
	VMin    float64 `yaml:"v_min"`
	VMax    float64 `yaml:"v_max"`
	VSwitch float64 `yaml:"v_switch"`
	AMax    float64 `yaml:"a_max"`
	AMin    float64 `yaml:"a_min"`
	JMax    float64 `yaml:"j_max"` // optional jerk limit; 0 disables
}

// Tire holds the magic-formula coefficient set. Naming follows the
// Pacejka convention: p_* pure-slip, r_* combined-slip.
type Tire struct {
	PCx1 float64 `yaml:"p_cx1"`
	PDx1 float64 `yaml:"p_dx1"`
	PDx3 float64 `yaml:"p_dx3"`
	PEx1 float64 `yaml:"p_ex1"`
	PKx1 float64 `yaml:"p_kx1"`
	PHx1 float64 `yaml:"p_hx1"`
	PVx1 float64 `yaml:"p_vx1"`
	RBx1 float64 `yaml:"r_bx1"`
	RBx2 float64 `yaml:"r_bx2"`
	RCx1 float64 `yaml:"r_cx1"`
	REx1 float64 `yaml:"r_ex1"`
	RHx1 float64 `yaml:"r_hx1"`

	PCy1 float64 `yaml:"p_cy1"`
	PDy1 float64 `yaml:"p_dy1"`
	PDy3 float64 `yaml:"p_dy3"`
	PEy1 float64 `yaml:"p_ey1"`
	PKy1 float64 `yaml:"p_ky1"`
	PHy1 float64 `yaml:"p_hy1"`
	PHy3 float64 `yaml:"p_hy3"`
	PVy1 float64 `yaml:"p_vy1"`
	PVy3 float64 `yaml:"p_vy3"`
	RBy1 float64 `yaml:"r_by1"`
	RBy2 float64 `yaml:"r_by2"`
	RBy3 float64 `yaml:"r_by3"`
	RCy1 float64 `yaml:"r_cy1"`
	REy1 float64 `yaml:"r_ey1"`
	RHy1 float64 `yaml:"r_hy1"`
	RVy1 float64 `yaml:"r_vy1"`
	RVy3 float64 `yaml:"r_vy3"`
	RVy4 float64 `yaml:"r_vy4"`
	RVy5 float64 `yaml:"r_vy5"`
	RVy6 float64 `yaml:"r_vy6"`
}

// Vehicle bundles every parameter consumed by the dynamics models.
// Immutable for the lifetime of one simulator.
type Vehicle struct {
	Name string `yaml:"name"`

	Length float64 `yaml:"l"`
	Width  float64 `yaml:"w"`

	Mass       float64 `yaml:"m"`
	YawInertia float64 `yaml:"I_z"`

	LF float64 `yaml:"a"` // CoG to front axle [m]
	LR float64 `yaml:"b"` // CoG to rear axle [m]

	HCg          float64 `yaml:"h_cg"` // CoG height [m]
	WheelRadius  float64 `yaml:"R_w"`
	WheelInertia float64 `yaml:"I_y_w"`

	// Split of brake and engine torque onto the front axle.
	BrakeSplit  float64 `yaml:"T_sb"`
	EngineSplit float64 `yaml:"T_se"`

	Mu          float64 `yaml:"mu"`
	LatAccelMax float64 `yaml:"lat_accel_max"` // alternative to mu

	// Usable battery energy for the state-of-charge readout [J].
	BatteryCapacity float64 `yaml:"battery_capacity"`

	Steering     Steering     `yaml:"steering"`
	Longitudinal Longitudinal `yaml:"longitudinal"`
	Tire         Tire         `yaml:"tire"`
}

// Wheelbase returns l_f + l_r.
func (v *Vehicle) Wheelbase() float64 { return v.LF + v.LR }

// Friction returns the friction coefficient, deriving it from the lateral
// acceleration budget when mu itself is not configured.
func (v *Vehicle) Friction() float64 {
	if v.Mu > 0 {
		return v.Mu
	}
	if v.LatAccelMax > 0 {
		return v.LatAccelMax / dynamo.Gravity
	}
	return defaultMu
}

// Timing drives sub-stepping: a step request is split so no sub-step
// exceeds MaxDt.
type Timing struct {
	NominalDt float64 `yaml:"nominal_dt"`
	MaxDt     float64 `yaml:"max_dt"`
}

// SafetyProfile parameterizes the low-speed latch for one driving style.
type SafetyProfile struct {
	EngageSpeed    float64 `yaml:"engage_speed"`
	ReleaseSpeed   float64 `yaml:"release_speed"`
	YawRateLimit   float64 `yaml:"yaw_rate_limit"`
	SlipAngleLimit float64 `yaml:"slip_angle_limit"`
}

// Validate enforces release >= engage > 0 and positive limits.
func (p SafetyProfile) Validate() error {
	if p.EngageSpeed <= 0 {
		return fmt.Errorf("safety profile: engage_speed must be positive, got %g", p.EngageSpeed)
	}
	if p.ReleaseSpeed < p.EngageSpeed {
		return fmt.Errorf("safety profile: release_speed %g below engage_speed %g", p.ReleaseSpeed, p.EngageSpeed)
	}
	if p.YawRateLimit <= 0 || p.SlipAngleLimit <= 0 {
		return fmt.Errorf("safety profile: limits must be positive, got yaw %g slip %g", p.YawRateLimit, p.SlipAngleLimit)
	}
	return nil
}

// SafetyConfig holds both driving-style profiles plus the near-stop epsilon.
type SafetyConfig struct {
	Normal           SafetyProfile `yaml:"normal"`
	Drift            SafetyProfile `yaml:"drift"`
	StopSpeedEpsilon float64       `yaml:"stop_speed_epsilon"`
}

// Detector thresholds for the loss-of-control severity scorer.
type DetectorConfig struct {
	YawRateThreshold   float64 `yaml:"yaw_rate_threshold"`
	YawRateRate        float64 `yaml:"yaw_rate_rate"`
	SlipAngleThreshold float64 `yaml:"slip_angle_threshold"`
	SlipAngleRate      float64 `yaml:"slip_angle_rate"`
	LatAccelThreshold  float64 `yaml:"lat_accel_threshold"`
	LatAccelRate       float64 `yaml:"lat_accel_rate"`
	WheelSlipThreshold float64 `yaml:"wheel_slip_threshold"`
	WheelSlipRate      float64 `yaml:"wheel_slip_rate"`
}

// Bundle is the immutable configuration set the daemon is prepared with.
type Bundle struct {
	Vehicles map[int]*Vehicle `yaml:"vehicles"`
	Safety   SafetyConfig     `yaml:"safety"`
	Detector DetectorConfig   `yaml:"detector"`
	Timing   Timing           `yaml:"timing"`
}

// Vehicle returns the parameter set for a vehicle id, or an error when the
// id is unknown.
func (b *Bundle) Vehicle(id int) (*Vehicle, error) {
	v, ok := b.Vehicles[id]
	if !ok {
		return nil, fmt.Errorf("params: unknown vehicle id %d", id)
	}
	return v, nil
}

// Load reads a YAML bundle from path, merging it over the compiled-in
// defaults so partial files are usable.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b := DefaultBundle()
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("params: parse %s: %w", path, err)
	}
	if err := b.Safety.Normal.Validate(); err != nil {
		return nil, err
	}
	if err := b.Safety.Drift.Validate(); err != nil {
		return nil, err
	}
	if b.Timing.MaxDt <= 0 {
		return nil, fmt.Errorf("params: timing max_dt must be positive, got %g", b.Timing.MaxDt)
	}
	return b, nil
}

// Save writes a bundle as YAML, mainly for generating editable templates.
func Save(path string, b *Bundle) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
