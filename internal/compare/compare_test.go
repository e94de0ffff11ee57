package compare

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/velox-sim/velox/internal/params"
)

func testScenario() *Scenario {
	return &Scenario{
		Name:      "straight-accelerate",
		Model:     "st",
		VehicleID: 2,
		Dt:        0.01,
		Trace: []Segment{
			{Steps: 20, Accel: 2.0},
			{Steps: 10, SteerRate: 0.1},
		},
		Tolerances: Tolerances{Default: 1e-9},
	}
}

func TestSelfComparisonWithinTolerance(t *testing.T) {
	s := testScenario()
	bundle := params.DefaultBundle()

	got, err := Run(s, bundle)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(got) != 30 {
		t.Fatalf("got %d frames, want 30", len(got))
	}

	ref, err := Run(s, bundle)
	if err != nil {
		t.Fatalf("reference run failed: %v", err)
	}

	report, err := Diff(s.Name, got, ref, s.Tolerances)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if failures := report.Failures(); len(failures) != 0 {
		t.Errorf("self-comparison exceeded tolerance in %d fields, first: %+v", len(failures), failures[0])
	}
}

func TestDiffLengthMismatch(t *testing.T) {
	got := []map[string]float64{{"pose.x": 1}}
	ref := []map[string]float64{{"pose.x": 1}, {"pose.x": 2}}
	if _, err := Diff("short", got, ref, Tolerances{Default: 1}); err == nil {
		t.Error("expected error for trace length mismatch")
	}
}

func TestDiffFlagsDeviation(t *testing.T) {
	got := []map[string]float64{{"pose.x": 1.0, "pose.y": 0}}
	ref := []map[string]float64{{"pose.x": 1.5, "pose.y": 0}}
	tol := Tolerances{Default: 1e-3, Fields: map[string]float64{"pose.x": 1.0}}

	report, err := Diff("dev", got, ref, tol)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if len(report.Failures()) != 0 {
		t.Errorf("0.5 deviation within per-field tolerance 1.0 flagged: %+v", report.Failures())
	}

	tight := Tolerances{Default: 1e-3}
	report, _ = Diff("dev", got, ref, tight)
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Field != "pose.x" {
		t.Errorf("expected exactly pose.x to fail, got %+v", failures)
	}
}

func TestLoadScenarioRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")

	data, err := json.Marshal(testScenario())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Name != "straight-accelerate" || s.Model != "st" || len(s.Trace) != 2 {
		t.Errorf("scenario fields lost in round trip: %+v", s)
	}
}

func TestLoadScenarioRejectsBadDt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"name":"bad","model":"st","dt":0}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); err == nil {
		t.Error("expected error for non-positive dt")
	}
}
