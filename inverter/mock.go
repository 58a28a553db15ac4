package inverter

import "context"

// TouSegmentState is the recorded state of one mock TOU slot.
type TouSegmentState struct {
	Mode      string
	StartHHMM string
	EndHHMM   string
	Enabled   bool
}

// Mock is an in-memory Controller for tests and local development. Zero value is usable.
type Mock struct {
	SocPct                  float64
	GridChargeOn            bool
	ChargingRatePct         int
	DischargingRatePct      int
	ChargeStopPct           int
	DischargeStopPct        int
	L1, L2, L3              float64
	GridImportKW            float64
	TouSegments             map[int]TouSegmentState

	Err error // if set, every method returns this error instead of succeeding
}

// NewMock returns a Mock with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		SocPct:           50,
		ChargeStopPct:    100,
		DischargeStopPct: 10,
		TouSegments:       make(map[int]TouSegmentState),
	}
}

func (m *Mock) BatterySocPct(ctx context.Context) (float64, error)        { return m.SocPct, m.Err }
func (m *Mock) GridChargeEnabled(ctx context.Context) (bool, error)       { return m.GridChargeOn, m.Err }
func (m *Mock) ChargingPowerRatePct(ctx context.Context) (int, error)     { return m.ChargingRatePct, m.Err }
func (m *Mock) DischargingPowerRatePct(ctx context.Context) (int, error)  { return m.DischargingRatePct, m.Err }
func (m *Mock) ChargeStopSocPct(ctx context.Context) (int, error)         { return m.ChargeStopPct, m.Err }
func (m *Mock) DischargeStopSocPct(ctx context.Context) (int, error)      { return m.DischargeStopPct, m.Err }
func (m *Mock) L1CurrentA(ctx context.Context) (float64, error)          { return m.L1, m.Err }
func (m *Mock) L2CurrentA(ctx context.Context) (float64, error)          { return m.L2, m.Err }
func (m *Mock) L3CurrentA(ctx context.Context) (float64, error)          { return m.L3, m.Err }
func (m *Mock) CurrentGridImportKW(ctx context.Context) (float64, error) { return m.GridImportKW, m.Err }

func (m *Mock) SetGridCharge(ctx context.Context, enabled bool) error {
	if m.Err != nil {
		return m.Err
	}
	m.GridChargeOn = enabled
	return nil
}

func (m *Mock) SetChargingPowerRatePct(ctx context.Context, pct int) error {
	if m.Err != nil {
		return m.Err
	}
	m.ChargingRatePct = pct
	return nil
}

func (m *Mock) SetDischargingPowerRatePct(ctx context.Context, pct int) error {
	if m.Err != nil {
		return m.Err
	}
	m.DischargingRatePct = pct
	return nil
}

func (m *Mock) SetChargeStopSocPct(ctx context.Context, pct int) error {
	if m.Err != nil {
		return m.Err
	}
	m.ChargeStopPct = pct
	return nil
}

func (m *Mock) SetDischargeStopSocPct(ctx context.Context, pct int) error {
	if m.Err != nil {
		return m.Err
	}
	m.DischargeStopPct = pct
	return nil
}

func (m *Mock) SetTouSegment(ctx context.Context, id int, mode string, startHHMM, endHHMM string, enabled bool) error {
	if m.Err != nil {
		return m.Err
	}
	if m.TouSegments == nil {
		m.TouSegments = make(map[int]TouSegmentState)
	}
	m.TouSegments[id] = TouSegmentState{Mode: mode, StartHHMM: startHHMM, EndHHMM: endHHMM, Enabled: enabled}
	return nil
}

func (m *Mock) DisableAllTouSegments(ctx context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	m.TouSegments = make(map[int]TouSegmentState)
	return nil
}
