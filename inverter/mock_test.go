package inverter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockImplementsController(t *testing.T) {
	var _ Controller = NewMock()
}

func TestMockSetTouSegmentAndDisableAll(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	require.NoError(t, m.SetTouSegment(ctx, 0, "battery_first", "00:00", "05:44", true))
	require.Len(t, m.TouSegments, 1)
	assert.Equal(t, "battery_first", m.TouSegments[0].Mode)

	require.NoError(t, m.DisableAllTouSegments(ctx))
	assert.Empty(t, m.TouSegments)
}

func TestMockSettersRoundTrip(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	require.NoError(t, m.SetGridCharge(ctx, true))
	on, err := m.GridChargeEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, m.SetChargingPowerRatePct(ctx, 33))
	pct, err := m.ChargingPowerRatePct(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33, pct)
}

func TestMockPropagatesConfiguredError(t *testing.T) {
	m := NewMock()
	m.Err = assert.AnError

	_, err := m.BatterySocPct(context.Background())
	assert.Equal(t, assert.AnError, err)

	assert.Equal(t, assert.AnError, m.SetGridCharge(context.Background(), true))
}
