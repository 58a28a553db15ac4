package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPhaseReader struct {
	l1, l2, l3      float64
	gridChargeOn    bool
	chargingRatePct int
	setCalls        []int
	readErr         error
}

func (m *mockPhaseReader) PhaseCurrentsA(ctx context.Context) (float64, float64, float64, error) {
	return m.l1, m.l2, m.l3, m.readErr
}

func (m *mockPhaseReader) GridChargeEnabled(ctx context.Context) (bool, error) {
	return m.gridChargeOn, nil
}

func (m *mockPhaseReader) ChargingPowerRatePct(ctx context.Context) (int, error) {
	return m.chargingRatePct, nil
}

func (m *mockPhaseReader) SetChargingPowerRatePct(ctx context.Context, pct int) error {
	m.chargingRatePct = pct
	m.setCalls = append(m.setCalls, pct)
	return nil
}

func testGuardConfig() Config {
	return Config{
		VoltageV:                230,
		MaxFuseAmps:              25,
		SafetyMargin:             0.9,
		ConfiguredChargeRatePct:  40,
		StepSizePct:              5,
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testGuardConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.SafetyMargin = 0
	assert.Error(t, bad.Validate())

	bad2 := cfg
	bad2.MaxFuseAmps = 0
	assert.Error(t, bad2.Validate())
}

func TestAvailableChargingPctClipsToConfiguredRate(t *testing.T) {
	cfg := testGuardConfig()
	reader := &mockPhaseReader{l1: 1, l2: 1, l3: 1} // trivial load, plenty of headroom
	g, err := New(reader, cfg)
	require.NoError(t, err)

	pct, err := g.AvailableChargingPct(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(cfg.ConfiguredChargeRatePct), pct)
}

func TestAvailableChargingPctZeroWhenOverloaded(t *testing.T) {
	cfg := testGuardConfig()
	maxPerPhase := cfg.MaxPowerPerPhaseW()
	overloadCurrent := (maxPerPhase * 2) / cfg.VoltageV
	reader := &mockPhaseReader{l1: overloadCurrent, l2: 0, l3: 0}
	g, err := New(reader, cfg)
	require.NoError(t, err)

	pct, err := g.AvailableChargingPct(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestAdjustChargingPowerNoOpWhenGridChargeDisabled(t *testing.T) {
	cfg := testGuardConfig()
	reader := &mockPhaseReader{gridChargeOn: false, chargingRatePct: 20}
	g, err := New(reader, cfg)
	require.NoError(t, err)

	require.NoError(t, g.AdjustChargingPower(context.Background()))
	assert.Empty(t, reader.setCalls)
}

func TestAdjustChargingPowerStepsTowardTarget(t *testing.T) {
	cfg := testGuardConfig()
	reader := &mockPhaseReader{gridChargeOn: true, chargingRatePct: 10, l1: 1, l2: 1, l3: 1}
	g, err := New(reader, cfg)
	require.NoError(t, err)

	require.NoError(t, g.AdjustChargingPower(context.Background()))
	require.Len(t, reader.setCalls, 1)
	assert.Equal(t, 15, reader.setCalls[0]) // stepped up by StepSizePct toward the 40% ceiling
}

func TestAdjustChargingPowerNoWriteWhenWithinStepOfTarget(t *testing.T) {
	cfg := testGuardConfig()
	reader := &mockPhaseReader{gridChargeOn: true, chargingRatePct: 38, l1: 1, l2: 1, l3: 1}
	g, err := New(reader, cfg)
	require.NoError(t, err)

	require.NoError(t, g.AdjustChargingPower(context.Background()))
	assert.Empty(t, reader.setCalls)
}
