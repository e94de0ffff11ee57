package safety

import (
	"fmt"
	"math"

	"github.com/velox-sim/velox/internal/params"
)

// Metrics is one sample of the monitored loss-of-control quantities.
type Metrics struct {
	YawRate    float64
	SlipAngle  float64
	LatAccel   float64
	WheelSlips []float64
}

type sample struct {
	value float64
	valid bool
}

// Detector scores loss-of-control severity from the magnitude and rate of
// the monitored metrics. Purely diagnostic: it never modifies the state.
type Detector struct {
	cfg  params.DetectorConfig
	prev map[string]sample
}

func NewDetector(cfg params.DetectorConfig) *Detector {
	return &Detector{cfg: cfg, prev: make(map[string]sample)}
}

// Reset drops all previous samples; the next Update reports zero.
func (d *Detector) Reset() {
	d.prev = make(map[string]sample)
}

// Update folds in one sample and returns the overall severity: the
// maximum over all metrics of the combined magnitude+rate excess. A
// metric scores only when both its magnitude and its rate of change
// exceed their thresholds.
func (d *Detector) Update(m Metrics, dt float64) float64 {
	severity := 0.0
	severity = math.Max(severity, d.score("yaw_rate", m.YawRate, d.cfg.YawRateThreshold, d.cfg.YawRateRate, dt))
	severity = math.Max(severity, d.score("slip_angle", m.SlipAngle, d.cfg.SlipAngleThreshold, d.cfg.SlipAngleRate, dt))
	severity = math.Max(severity, d.score("lat_accel", m.LatAccel, d.cfg.LatAccelThreshold, d.cfg.LatAccelRate, dt))
	for i, ws := range m.WheelSlips {
		key := fmt.Sprintf("wheel_slip_%d", i)
		severity = math.Max(severity, d.score(key, ws, d.cfg.WheelSlipThreshold, d.cfg.WheelSlipRate, dt))
	}
	return severity
}

func (d *Detector) score(key string, value, threshold, rateThreshold, dt float64) float64 {
	prev := d.prev[key]
	d.prev[key] = sample{value: value, valid: true}

	if !prev.valid || dt <= 0 || threshold <= 0 || rateThreshold <= 0 {
		return 0
	}
	mag := math.Abs(value)
	rate := math.Abs(value-prev.value) / dt
	if mag < threshold || rate < rateThreshold {
		return 0
	}
	return math.Max(0, 0.5*((mag-threshold)/threshold)+0.5*((rate-rateThreshold)/rateThreshold))
}
