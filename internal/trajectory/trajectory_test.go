package trajectory

import (
	"math"
	"testing"

	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/stretchr/testify/assert"
)

func TestPathLengthAndCounts(t *testing.T) {
	tr := New(KindFiltered)
	tr.Append(0, StepInitial, kinematics.Pose{})
	tr.Append(0.1, StepPredict, kinematics.Pose{X: 3})
	tr.Append(0.1, StepUpdate, kinematics.Pose{X: 3, Y: 4})
	tr.Append(0.2, StepCatchUp, kinematics.Pose{X: 3, Y: 4, Theta: 1})

	assert.Equal(t, 4, tr.Len())
	assert.InDelta(t, 7, tr.PathLength(), 1e-12)
	assert.Equal(t, 1, tr.Count(StepPredict))
	assert.Equal(t, 0, tr.Count(StepIntegrate))

	xs, ys := tr.XY()
	assert.Equal(t, []float64{0, 3, 3, 3}, xs)
	assert.Equal(t, []float64{0, 0, 4, 4}, ys)
}

func TestEndpointDistance(t *testing.T) {
	a := New(KindFiltered)
	b := New(KindBaseline)
	assert.True(t, math.IsNaN(EndpointDistance(a, b)))

	a.Append(0, StepInitial, kinematics.Pose{X: 1, Y: 1})
	b.Append(0, StepInitial, kinematics.Pose{X: 4, Y: 5})
	assert.InDelta(t, 5, EndpointDistance(a, b), 1e-12)
}

func TestLastOnEmpty(t *testing.T) {
	_, ok := New(KindBaseline).Last()
	assert.False(t, ok)
	assert.Empty(t, New(KindBaseline).Poses())
}
