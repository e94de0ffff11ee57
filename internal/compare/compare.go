// Package compare cross-checks this implementation against an
// independent reference using JSON scenario fixtures.
package compare

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/input"
	"github.com/velox-sim/velox/internal/models"
	"github.com/velox-sim/velox/internal/params"
	"github.com/velox-sim/velox/internal/sim"
)

// Segment is one constant-control stretch of a scenario trace.
type Segment struct {
	Steps     int      `json:"steps"`
	SteerRate float64  `json:"steerRate"`
	Accel     float64  `json:"accel"`
	Dt        *float64 `json:"dt,omitempty"` // overrides the scenario dt
}

// Tolerances bound the acceptable per-field deviation.
type Tolerances struct {
	Default float64            `json:"default"`
	Fields  map[string]float64 `json:"fields,omitempty"`
}

// For returns the tolerance for one flattened field.
func (t Tolerances) For(field string) float64 {
	if v, ok := t.Fields[field]; ok {
		return v
	}
	return t.Default
}

// Scenario is one JSON fixture.
type Scenario struct {
	Name         string     `json:"name"`
	Model        string     `json:"model"`
	VehicleID    int        `json:"vehicleId"`
	InitialState []float64  `json:"initialState"`
	Dt           float64    `json:"dt"`
	Trace        []Segment  `json:"trace"`
	Tolerances   Tolerances `json:"tolerances"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("compare: parse %s: %w", path, err)
	}
	if s.Dt <= 0 {
		return nil, fmt.Errorf("compare: scenario %q: dt must be positive", s.Name)
	}
	return &s, nil
}

// Run plays the scenario against this implementation and returns one
// flattened telemetry frame per step.
func Run(s *Scenario, bundle *params.Bundle) ([]map[string]float64, error) {
	kind, err := models.ParseKind(s.Model)
	if err != nil {
		return nil, err
	}
	d := sim.NewDaemon(bundle, nil)
	err = d.Reset(sim.ResetOptions{
		Model:        kind,
		VehicleID:    s.VehicleID,
		InitialState: s.InitialState,
		Dt:           s.Dt,
		ControlMode:  input.Keyboard,
	})
	if err != nil {
		return nil, err
	}

	var frames []map[string]float64
	for _, seg := range s.Trace {
		dt := s.Dt
		if seg.Dt != nil {
			dt = *seg.Dt
		}
		for i := 0; i < seg.Steps; i++ {
			frame, err := d.StepControl(dynamo.Control{seg.SteerRate, seg.Accel}, dt)
			if err != nil {
				return nil, fmt.Errorf("compare: scenario %q: %w", s.Name, err)
			}
			frames = append(frames, frame.Flatten())
		}
	}
	return frames, nil
}

// LoadReference reads a reference trace: a JSON array of flattened
// dotted-key frames.
func LoadReference(path string) ([]map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var frames []map[string]float64
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("compare: parse %s: %w", path, err)
	}
	return frames, nil
}

// FieldReport is the deviation summary for one flattened field.
type FieldReport struct {
	Field     string
	RMSE      float64
	MaxAbs    float64
	Tolerance float64
	Exceeded  bool
}

// Report summarizes one scenario comparison.
type Report struct {
	Scenario string
	Steps    int
	Fields   []FieldReport
}

// Failures returns the fields whose deviation exceeds tolerance.
func (r *Report) Failures() []FieldReport {
	return lo.Filter(r.Fields, func(f FieldReport, _ int) bool { return f.Exceeded })
}

// Diff compares two equally long flattened traces field by field,
// computing per-field RMSE and max-abs-diff against the tolerances.
func Diff(name string, got, ref []map[string]float64, tol Tolerances) (*Report, error) {
	if len(got) != len(ref) {
		return nil, fmt.Errorf("compare: trace length mismatch: got %d frames, reference has %d", len(got), len(ref))
	}
	if len(got) == 0 {
		return &Report{Scenario: name}, nil
	}

	fields := lo.Uniq(append(lo.Keys(got[0]), lo.Keys(ref[0])...))
	sort.Strings(fields)

	report := &Report{Scenario: name, Steps: len(got)}
	sq := make([]float64, len(got))
	for _, field := range fields {
		maxAbs := 0.0
		for i := range got {
			diff := got[i][field] - ref[i][field]
			sq[i] = diff * diff
			maxAbs = math.Max(maxAbs, math.Abs(diff))
		}
		rmse := math.Sqrt(stat.Mean(sq, nil))
		t := tol.For(field)
		report.Fields = append(report.Fields, FieldReport{
			Field:     field,
			RMSE:      rmse,
			MaxAbs:    maxAbs,
			Tolerance: t,
			Exceeded:  rmse > t || maxAbs > t,
		})
	}
	return report, nil
}
