// Package models implements the single-track vehicle dynamics variants
// behind one uniform interface.
package models

import (
	"fmt"
	"strings"

	"github.com/velox-sim/velox/internal/dynamo"
	"github.com/velox-sim/velox/internal/params"
)

// Kind selects a dynamics model variant at construction time.
type Kind int

const (
	// Kinematic is the bicycle-geometry single-track model.
	Kinematic Kind = iota
	// ExtendedDynamic is the tire-slip-aware single-track model with
	// front/rear wheel speed states.
	ExtendedDynamic
)

func (k Kind) String() string {
	switch k {
	case Kinematic:
		return "st"
	case ExtendedDynamic:
		return "std"
	default:
		return "unknown"
	}
}

// ParseKind maps a model name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "st", "kinematic":
		return Kinematic, nil
	case "std", "dynamic", "extended":
		return ExtendedDynamic, nil
	default:
		return 0, fmt.Errorf("models: unknown model %q", s)
	}
}

// Model is the uniform shape both variants implement. Derive never
// mutates x and always returns a vector of length Dim.
type Model interface {
	Kind() Kind
	Dim() int
	Init(raw []float64) (dynamo.State, error)
	Derive(x dynamo.State, u dynamo.Control, dt float64) dynamo.State
	Speed(x dynamo.State) float64
}

// New constructs the model variant for kind against one vehicle.
func New(kind Kind, veh *params.Vehicle) Model {
	switch kind {
	case ExtendedDynamic:
		return NewExtended(veh)
	default:
		return NewKinematic(veh)
	}
}

// initState copies raw into a fresh state of length dim, zero-padding the
// tail. A raw vector longer than dim is a caller bug.
func initState(raw []float64, dim int) (dynamo.State, error) {
	if len(raw) > dim {
		return nil, fmt.Errorf("%w: initial state has %d components, model has %d",
			dynamo.ErrDimensionMismatch, len(raw), dim)
	}
	x := make(dynamo.State, dim)
	copy(x, raw)
	return x, nil
}
