package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestScoreFullConfluenceLong(t *testing.T) {
	t.Parallel()
	got := Score(SetupStrongLong, fp(-0.0001), fp(0.8), ip(3))
	assert.Equal(t, 3, got)
}

func TestScoreFullConfluenceShort(t *testing.T) {
	t.Parallel()
	got := Score(SetupStrongShort, fp(0.0003), fp(1.4), ip(1))
	assert.Equal(t, 3, got)
}

func TestScoreFundingBoundaries(t *testing.T) {
	t.Parallel()
	// the neutral band edges are exclusive
	assert.Equal(t, 0, Score(SetupStrongLong, fp(0.0005), nil, nil))
	assert.Equal(t, 1, Score(SetupStrongLong, fp(0.0004), nil, nil))
	assert.Equal(t, 0, Score(SetupStrongShort, fp(-0.0005), nil, nil))
	assert.Equal(t, 1, Score(SetupStrongShort, fp(-0.0004), nil, nil))
}

func TestScoreRatioBoundary(t *testing.T) {
	t.Parallel()
	// exactly balanced positioning favors neither side
	assert.Equal(t, 0, Score(SetupStrongLong, nil, fp(1.0), nil))
	assert.Equal(t, 0, Score(SetupStrongShort, nil, fp(1.0), nil))
}

func TestScoreLiquidationsNeedAtLeastOne(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Score(SetupStrongLong, nil, nil, ip(0)))
	assert.Equal(t, 1, Score(SetupStrongLong, nil, nil, ip(1)))
	// liquidation point is direction-agnostic
	assert.Equal(t, 1, Score("neutral", nil, nil, ip(5)))
}

func TestScoreNilInputsContributeNothing(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Score(SetupStrongLong, nil, nil, nil))
}

func TestScoreUnknownSetupOnlyCountsLiquidations(t *testing.T) {
	t.Parallel()
	got := Score("breakout_watch", fp(-0.01), fp(0.5), ip(2))
	assert.Equal(t, 1, got)
}
