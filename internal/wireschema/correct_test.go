package wireschema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectMonotonicLevels(t *testing.T) {
	store := buildSyntheticStore(10, 5.0)
	require.Equal(t, Loaded, store.Level)

	ordered, err := Correct(store, Order)
	require.NoError(t, err)
	require.Equal(t, Order, ordered.Level)

	directed, err := Correct(ordered, Direction)
	require.NoError(t, err)
	require.Equal(t, Direction, directed.Level)

	pitched, err := Correct(directed, Pitch)
	require.NoError(t, err)
	require.Equal(t, Pitch, pitched.Level)

	// Correcting straight from Loaded to Pitch must match the stepwise route.
	direct, err := Correct(store, Pitch)
	require.NoError(t, err)
	require.Equal(t, Pitch, direct.Level)
	require.Len(t, direct.Wires, len(pitched.Wires))
	for i := range direct.Wires {
		requireWireClose(t, pitched.Wires[i], direct.Wires[i])
	}
}

func TestCorrectRejectsDowngrade(t *testing.T) {
	store := buildSyntheticStore(6, 4.0)
	pitched, err := Correct(store, Pitch)
	require.NoError(t, err)

	_, err = Correct(pitched, Order)
	require.Error(t, err)
}

func TestCorrectIsNoopAtSameLevel(t *testing.T) {
	store := buildSyntheticStore(6, 4.0)
	pitched, err := Correct(store, Pitch)
	require.NoError(t, err)

	again, err := Correct(pitched, Pitch)
	require.NoError(t, err)
	require.Equal(t, pitched.Level, again.Level)
	for i := range pitched.Wires {
		requireWireClose(t, pitched.Wires[i], again.Wires[i])
	}
}

func TestApplyOrderRequiresLoaded(t *testing.T) {
	_, err := ApplyOrder(Store{Level: Empty})
	require.Error(t, err)
}

func TestApplyDirectionRequiresOrder(t *testing.T) {
	store := buildSyntheticStore(6, 4.0)
	_, err := ApplyDirection(store)
	require.Error(t, err)
}

func TestApplyPitchRequiresDirection(t *testing.T) {
	store := buildSyntheticStore(6, 4.0)
	ordered, err := Correct(store, Order)
	require.NoError(t, err)
	_, err = ApplyPitch(ordered)
	require.Error(t, err)
}

func TestCorrectedGeometryValidates(t *testing.T) {
	store := buildSyntheticStore(14, 4.5)
	pitched, err := Correct(store, Pitch)
	require.NoError(t, err)
	require.NoError(t, Validate(pitched, 1e-6, true))
}

func requireWireClose(t *testing.T, a, b Wire) {
	t.Helper()
	const eps = 1e-9
	require.InDelta(t, a.Tail.X, b.Tail.X, eps)
	require.InDelta(t, a.Tail.Y, b.Tail.Y, eps)
	require.InDelta(t, a.Tail.Z, b.Tail.Z, eps)
	require.InDelta(t, a.Head.X, b.Head.X, eps)
	require.InDelta(t, a.Head.Y, b.Head.Y, eps)
	require.InDelta(t, a.Head.Z, b.Head.Z, eps)
}
