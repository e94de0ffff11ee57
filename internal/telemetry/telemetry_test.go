package telemetry

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/velox-sim/velox/internal/dynamo"
)

func sampleFrame() Frame {
	f := Default()
	f.Pose = Pose{X: 1.5, Y: -0.2, Yaw: 0.1}
	f.Velocity.Speed = 12.0
	f.Totals = Totals{Distance: 120, Energy: 5000, SimTime: 10}
	f.Safety = Safety{Stage: dynamo.StageTransition, Forced: false, Latched: true}
	f.Traction.Drifting = true
	f.LossOfControl = 0.3
	return f
}

func TestMergeIdempotent(t *testing.T) {
	src := sampleFrame()
	var dst Frame
	dst.Merge(src)
	once := dst

	dst.Merge(src)
	dst.Merge(src)
	if diff := cmp.Diff(once, dst); diff != "" {
		t.Errorf("repeated merges changed the frame:\n%s", diff)
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("merge result differs from source:\n%s", diff)
	}
}

func TestDefaultFullCharge(t *testing.T) {
	f := Default()
	if f.Powertrain.StateOfCharge != 1.0 {
		t.Errorf("default state of charge = %g, want 1", f.Powertrain.StateOfCharge)
	}
	if f.Totals != (Totals{}) {
		t.Errorf("default totals not zero: %+v", f.Totals)
	}
}

func TestFlattenEncoding(t *testing.T) {
	f := sampleFrame()
	flat := f.Flatten()

	if flat["pose.x"] != 1.5 || flat["velocity.speed"] != 12.0 {
		t.Error("numeric fields not carried through")
	}
	if flat["traction.drifting"] != 1 || flat["safety.forced"] != 0 || flat["safety.latched"] != 1 {
		t.Error("booleans must flatten to 0/1")
	}
	if flat["safety.stage"] != float64(dynamo.StageTransition) {
		t.Errorf("stage should flatten to its ordinal, got %g", flat["safety.stage"])
	}
}

func TestFieldNamesSortedAndComplete(t *testing.T) {
	names := FieldNames()
	if !sort.StringsAreSorted(names) {
		t.Error("field names not sorted")
	}
	flat := Frame{}.Flatten()
	if len(names) != len(flat) {
		t.Errorf("got %d field names, flatten has %d keys", len(names), len(flat))
	}
	for _, name := range names {
		if _, ok := flat[name]; !ok {
			t.Errorf("field name %q missing from flattened view", name)
		}
	}
}
