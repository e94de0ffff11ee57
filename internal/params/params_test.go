package params

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/velox-sim/velox/internal/dynamo"
)

func TestDefaultBundleValidates(t *testing.T) {
	b := DefaultBundle()
	if err := b.Safety.Normal.Validate(); err != nil {
		t.Errorf("normal profile invalid: %v", err)
	}
	if err := b.Safety.Drift.Validate(); err != nil {
		t.Errorf("drift profile invalid: %v", err)
	}
	if b.Timing.MaxDt <= 0 || b.Timing.NominalDt <= 0 {
		t.Errorf("timing defaults not positive: %+v", b.Timing)
	}
	for _, id := range []int{1, 2, 3} {
		v, err := b.Vehicle(id)
		if err != nil {
			t.Fatalf("vehicle %d missing: %v", id, err)
		}
		if v.Mass <= 0 || v.Wheelbase() <= 0 || v.YawInertia <= 0 {
			t.Errorf("vehicle %d has degenerate geometry: %+v", id, v)
		}
		if v.Friction() <= 0 {
			t.Errorf("vehicle %d has no friction budget", id)
		}
	}
}

func TestUnknownVehicle(t *testing.T) {
	if _, err := DefaultBundle().Vehicle(42); err == nil {
		t.Error("expected error for unknown vehicle id")
	}
}

func TestFrictionDerivation(t *testing.T) {
	tests := []struct {
		name string
		veh  Vehicle
		want float64
	}{
		{"explicit mu wins", Vehicle{Mu: 1.1, LatAccelMax: 5.0}, 1.1},
		{"derived from lateral budget", Vehicle{LatAccelMax: 4.905}, 0.5},
		{"fallback", Vehicle{}, defaultMu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.veh.Friction(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Friction() = %g, want %g", got, tt.want)
			}
		})
	}
	if dynamo.Gravity != 9.81 {
		t.Errorf("gravity constant changed: %g", dynamo.Gravity)
	}
}

func TestSafetyProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       SafetyProfile
		wantErr bool
	}{
		{"valid", SafetyProfile{EngageSpeed: 0.4, ReleaseSpeed: 0.8, YawRateLimit: 2, SlipAngleLimit: 0.35}, false},
		{"zero engage", SafetyProfile{ReleaseSpeed: 0.8, YawRateLimit: 2, SlipAngleLimit: 0.35}, true},
		{"release below engage", SafetyProfile{EngageSpeed: 0.8, ReleaseSpeed: 0.4, YawRateLimit: 2, SlipAngleLimit: 0.35}, true},
		{"zero yaw limit", SafetyProfile{EngageSpeed: 0.4, ReleaseSpeed: 0.8, SlipAngleLimit: 0.35}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "velox.yaml")
	partial := []byte("timing:\n  nominal_dt: 0.005\n  max_dt: 0.02\n")
	if err := os.WriteFile(path, partial, 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if b.Timing.NominalDt != 0.005 || b.Timing.MaxDt != 0.02 {
		t.Errorf("timing override lost: %+v", b.Timing)
	}
	// untouched sections keep their defaults
	if _, err := b.Vehicle(2); err != nil {
		t.Errorf("vehicle defaults lost on partial load: %v", err)
	}
	if b.Safety.Normal.EngageSpeed != DefaultSafety().Normal.EngageSpeed {
		t.Error("safety defaults lost on partial load")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "timing: [unclosed"},
		{"bad max_dt", "timing:\n  max_dt: -1\n"},
		{"bad profile", "safety:\n  normal:\n    engage_speed: 0.9\n    release_speed: 0.1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected load error")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	orig := DefaultBundle()
	if err := Save(path, orig); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	v2, err := b.Vehicle(2)
	if err != nil {
		t.Fatal(err)
	}
	want := Vehicle2()
	if v2.Mass != want.Mass || v2.LF != want.LF || v2.Longitudinal.VMax != want.Longitudinal.VMax {
		t.Errorf("vehicle 2 changed across round trip: %+v", v2)
	}
}
