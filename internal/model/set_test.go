package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setWithIDs(t *testing.T, ids ...int) *CameraSet {
	t.Helper()
	s := NewCameraSet()
	for _, id := range ids {
		if id == 0 {
			continue
		}
		require.NoError(t, s.Add(id, NewCamera(id)))
	}
	return s
}

func TestNewCameraSet(t *testing.T) {
	s := NewCameraSet()

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.Current())
	assert.Equal(t, InfoMinimal, s.Info)
	assert.Equal(t, AxisPosition, s.Axis)
	assert.Equal(t, PageMovement, s.Page)

	c := s.CurrentCamera()
	require.NotNil(t, c)
	assert.Equal(t, "Camera 1", c.Label)
	assert.Equal(t, DefaultFOV, c.FOV)
	assert.True(t, c.Control.SelectCamera)
	assert.True(t, c.MultipleAxes)
}

func TestAddKeepsOrder(t *testing.T) {
	s := setWithIDs(t, 0, 7, 3, 5)
	assert.Equal(t, []int{0, 3, 5, 7}, s.IDs())
	assert.Equal(t, 0, s.Current())
}

func TestAddDuplicate(t *testing.T) {
	s := NewCameraSet()

	require.NoError(t, s.Add(5, NewCamera(5)))
	err := s.Add(5, NewCamera(5))
	assert.ErrorIs(t, err, ErrInvalidCameraID)
	assert.Equal(t, 2, s.Len())
}

func TestAddNegative(t *testing.T) {
	s := NewCameraSet()
	assert.ErrorIs(t, s.Add(-1, NewCamera(-1)), ErrInvalidCameraID)
}

func TestNextPreviousNoWrap(t *testing.T) {
	s := setWithIDs(t, 0, 2, 9)

	_, err := s.Previous()
	assert.ErrorIs(t, err, ErrInvalidCameraID)

	id, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	require.NoError(t, s.Select(id))

	id, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, 9, id)
	require.NoError(t, s.Select(id))

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrInvalidCameraID)
	assert.Equal(t, 9, s.Current())

	id, err = s.Previous()
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestSelectUnknown(t *testing.T) {
	s := NewCameraSet()
	assert.ErrorIs(t, s.Select(4), ErrInvalidCameraID)
	assert.Equal(t, 0, s.Current())
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name        string
		ids         []int
		current     int
		del         int
		wantErr     error
		wantIDs     []int
		wantCurrent int
	}{
		{"last camera", []int{0}, 0, 0, ErrLastCamera, []int{0}, 0},
		{"unknown id", []int{0, 5}, 0, 3, ErrInvalidCameraID, []int{0, 5}, 0},
		{"other camera keeps selection", []int{0, 5}, 5, 0, nil, []int{5}, 5},
		{"current selects previous", []int{0, 3, 5}, 5, 5, nil, []int{0, 3}, 3},
		{"current first selects lowest", []int{0, 3, 5}, 0, 0, nil, []int{3, 5}, 3},
		{"current middle", []int{0, 3, 5}, 3, 3, nil, []int{0, 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setWithIDs(t, tt.ids...)
			require.NoError(t, s.Select(tt.current))

			err := s.Delete(tt.del)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantIDs, s.IDs())
			assert.Equal(t, tt.wantCurrent, s.Current())
			_, ok := s.Camera(s.Current())
			assert.True(t, ok)
		})
	}
}

func TestReplaceCameras(t *testing.T) {
	s := NewCameraSet()

	s.ReplaceCameras(map[int]*Camera{4: NewCamera(4), 2: NewCamera(2)})
	assert.Equal(t, []int{2, 4}, s.IDs())
	assert.Equal(t, 2, s.Current())

	s.ReplaceCameras(nil)
	assert.Equal(t, []int{0}, s.IDs())
	assert.Equal(t, 0, s.Current())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Direction", AxisDirection.String())
	assert.Equal(t, "Camera", PageCameraManagement.String())
	assert.Equal(t, "Full", InfoFull.String())
	assert.Equal(t, "Ready", StateReady.String())
	assert.Equal(t, "Axis(7)", Axis(7).String())
	assert.False(t, Axis(3).Valid())
	assert.False(t, Page(-1).Valid())
	assert.True(t, InfoNone.Valid())
}
