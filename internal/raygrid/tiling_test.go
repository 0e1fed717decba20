package raygrid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// boundsActivity returns a single-bin "always active" Activity for a
// bounding-box layer.
func boundsActivity(layer int) Activity {
	return Activity{Layer: layer, Offset: 0, Values: []float64{1}, Threshold: 0}
}

func windowActivity(layer, center, width int) Activity {
	values := make([]float64, width)
	for i := range values {
		values[i] = 1
	}
	return Activity{Layer: layer, Offset: center - width/2, Values: values, Threshold: 0}
}

func TestTileE1SingleHexagonalBlob(t *testing.T) {
	coords, _ := microboonishCoordinates(t)

	activities := []Activity{
		boundsActivity(0),
		boundsActivity(1),
		windowActivity(2, 1200, 1),
		windowActivity(3, 1200, 1),
		windowActivity(4, 1728, 1),
	}

	blobs, err := Tile(coords, activities, 1e-3)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	blob := blobs[0]
	require.Len(t, blob.Corners, 6)
	for _, s := range blob.Strips {
		if s.Layer >= 2 {
			require.Equal(t, 1, s.width())
		}
	}
}

func TestTileE2VestigialPrune(t *testing.T) {
	coords, _ := microboonishCoordinates(t)

	activities := []Activity{
		boundsActivity(0),
		boundsActivity(1),
		windowActivity(2, 1200, 3),
		windowActivity(3, 1200, 3),
		windowActivity(4, 1728, 1),
	}

	blobs, err := Tile(coords, activities, 1e-3)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	blob := blobs[0]
	for _, s := range blob.Strips {
		switch s.Layer {
		case 4:
			require.Equal(t, 1, s.width())
		case 2, 3:
			// Prune never widens a strip beyond the activity window that fed it.
			require.LessOrEqual(t, s.width(), 3)
		}
	}
}

func TestTileEmptyActivityYieldsNoBlobs(t *testing.T) {
	coords, _ := microboonishCoordinates(t)
	activities := []Activity{
		boundsActivity(0),
		boundsActivity(1),
		{Layer: 2, Offset: 1200, Values: []float64{0, 0, 0}, Threshold: 0},
		windowActivity(3, 1200, 1),
		windowActivity(4, 1728, 1),
	}
	blobs, err := Tile(coords, activities, 1e-3)
	require.NoError(t, err)
	require.Empty(t, blobs)
}

func TestTileRejectsTooFewActivities(t *testing.T) {
	coords, _ := microboonishCoordinates(t)
	_, err := Tile(coords, []Activity{boundsActivity(0)}, 1e-3)
	require.Error(t, err)
}

func TestTileCompletenessEveryCornerInEveryStrip(t *testing.T) {
	coords, _ := microboonishCoordinates(t)
	activities := []Activity{
		boundsActivity(0),
		boundsActivity(1),
		windowActivity(2, 1200, 3),
		windowActivity(3, 1200, 3),
		windowActivity(4, 1728, 2),
	}
	blobs, err := Tile(coords, activities, 1e-3)
	require.NoError(t, err)
	require.NotEmpty(t, blobs)

	const nudge = 1e-3
	for _, b := range blobs {
		for _, c := range b.Corners {
			for _, s := range b.Strips {
				rel := coords.PitchRelative(pitchValue(coords, s.Layer, c.Point), s.Layer)
				adjusted := nudgeToward(rel, blobCenterRel(coords, b, s.Layer), nudge)
				require.GreaterOrEqualf(t, adjusted, float64(s.Lo)-1e-6, "corner below strip %+v", s)
				require.Lessf(t, adjusted, float64(s.Hi)+1e-6, "corner above strip %+v", s)
			}
		}
	}
}

func TestActivityStripsGroupsConsecutive(t *testing.T) {
	a := Activity{Layer: 0, Offset: 10, Values: []float64{0, 1, 1, 0, 1, 0}, Threshold: 0.5}
	strips := a.Strips()
	require.Len(t, strips, 2)
	require.Equal(t, Strip{Layer: 0, Lo: 11, Hi: 13}, strips[0])
	require.Equal(t, Strip{Layer: 0, Lo: 14, Hi: 15}, strips[1])
}
