package wireschema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsGoodGeometry(t *testing.T) {
	store := buildSyntheticStore(10, 5.0)
	pitched, err := Correct(store, Pitch)
	require.NoError(t, err)
	require.NoError(t, Validate(pitched, 1e-6, true))
}

func TestValidateRejectsEmptyStore(t *testing.T) {
	err := Validate(Store{}, 1e-6, true)
	require.Error(t, err)
}

func TestValidateFailFastStopsAtFirstIssue(t *testing.T) {
	err := Validate(Store{}, 1e-6, true)
	require.Error(t, err)
	var ve *ValidationError
	require.NotErrorAs(t, err, &ve, "fail-fast mode returns the first error directly, not an aggregated ValidationError")
}

func TestValidateAggregatesAllIssues(t *testing.T) {
	err := Validate(Store{}, 1e-6, false)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.GreaterOrEqual(t, len(ve.Issues), 1)
}

func TestValidateRejectsNonParallelWire(t *testing.T) {
	store := buildSyntheticStore(6, 5.0)
	pitched, err := Correct(store, Pitch)
	require.NoError(t, err)

	// Tilt one wire's head off-axis so it's no longer parallel to the rest.
	bad := pitched.clone()
	w := bad.Wires[2]
	w.Head.X += 50
	bad.Wires[2] = w

	err = Validate(bad, 1e-6, true)
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangeFacePlane(t *testing.T) {
	store := buildSyntheticStore(4, 5.0)
	bad := store.clone()
	bad.Faces = []Face{{Ident: 0, Planes: []int{99}}}
	err := Validate(bad, 1e-6, false)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
