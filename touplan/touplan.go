// Package touplan projects a canonical hourly schedule down onto the inverter's time-of-use
// segment format: a bounded list of battery-first/load-first windows, with a wake-up gap inserted
// before any charging window that follows an idle or discharging hour, and a mandatory end-of-day
// load-first tail so the inverter never sleeps through midnight.
package touplan

import (
	"github.com/cepro/homebess/schedule"
	timeutils "github.com/cepro/homebess/time_utils"
)

// Mode is the inverter's window mode.
type Mode string

const (
	BatteryFirst Mode = "battery_first"
	LoadFirst    Mode = "load_first"
)

// Segment is one inverter time-of-use window.
type Segment struct {
	ID               int
	Mode             Mode
	StartHHMM        string
	EndHHMM          string
	Enabled          bool
	GridCharge       bool
	DischargeRatePct int
}

// HourDispatch is the per-hour setting the control loop enforces at the top of the hour.
type HourDispatch struct {
	GridCharge       bool
	DischargeRatePct int
}

// TouPlan is the projector's output: a detailed segment list (including wake-up and tail
// segments), a compact list trimmed to maxTouSegments for writing to the inverter, and the
// per-hour dispatch table.
type TouPlan struct {
	Detailed []Segment
	Compact  []Segment
	Dispatch [24]HourDispatch
}

// HourlySettings returns the dispatch for hour h, or the zero value (grid charge off, no
// discharge) if h is out of range.
func (p TouPlan) HourlySettings(h int) HourDispatch {
	if h < 0 || h > 23 {
		return HourDispatch{}
	}
	return p.Dispatch[h]
}

type hourState struct {
	mode             Mode
	gridCharge       bool
	dischargeRatePct int
	charging         bool
}

func hourStateFor(interval schedule.Interval) hourState {
	switch interval.State {
	case schedule.Charging:
		return hourState{mode: BatteryFirst, gridCharge: true, dischargeRatePct: 0, charging: true}
	case schedule.Discharging:
		return hourState{mode: LoadFirst, gridCharge: false, dischargeRatePct: 100, charging: false}
	default:
		return hourState{mode: BatteryFirst, gridCharge: false, dischargeRatePct: 0, charging: false}
	}
}

// Project consolidates sch into a TouPlan bounded to maxSegments compact battery-first windows.
func Project(sch schedule.Schedule, maxSegments int) TouPlan {
	var dispatch [24]HourDispatch
	for h := 0; h < 24; h++ {
		st := hourStateFor(sch.Intervals[h])
		dispatch[h] = HourDispatch{GridCharge: st.gridCharge, DischargeRatePct: st.dischargeRatePct}
	}

	var detailed []Segment
	segStart := 0
	segState := hourStateFor(sch.Intervals[0])

	closeRegular := func(endHour int) {
		detailed = append(detailed, Segment{
			Mode:             segState.mode,
			StartHHMM:        timeutils.HHMM(segStart, 0),
			EndHHMM:          timeutils.HHMM(endHour, 59),
			Enabled:          true,
			GridCharge:       segState.gridCharge,
			DischargeRatePct: segState.dischargeRatePct,
		})
	}

	for h := 1; h < 24; h++ {
		cur := hourStateFor(sch.Intervals[h])
		if cur == segState {
			continue
		}

		startingCharge := cur.charging && !segState.charging

		if startingCharge {
			detailed = append(detailed, Segment{
				Mode:             segState.mode,
				StartHHMM:        timeutils.HHMM(segStart, 0),
				EndHHMM:          timeutils.HHMM(h-1, 44),
				Enabled:          true,
				GridCharge:       segState.gridCharge,
				DischargeRatePct: segState.dischargeRatePct,
			})
			detailed = append(detailed, Segment{
				Mode:             LoadFirst,
				StartHHMM:        timeutils.HHMM(h-1, 45),
				EndHHMM:          timeutils.HHMM(h-1, 59),
				Enabled:          true,
				GridCharge:       false,
				DischargeRatePct: 100,
			})
			dispatch[h-1] = HourDispatch{GridCharge: false, DischargeRatePct: 100}
		} else {
			closeRegular(h - 1)
		}

		segStart = h
		segState = cur
	}

	// The last regular segment always ends at 23:44; the mandatory tail segment owns 23:45-23:59.
	detailed = append(detailed, Segment{
		Mode:             segState.mode,
		StartHHMM:        timeutils.HHMM(segStart, 0),
		EndHHMM:          timeutils.HHMM(23, 44),
		Enabled:          true,
		GridCharge:       segState.gridCharge,
		DischargeRatePct: segState.dischargeRatePct,
	})
	detailed = append(detailed, Segment{
		Mode:             LoadFirst,
		StartHHMM:        timeutils.HHMM(23, 45),
		EndHHMM:          timeutils.HHMM(23, 59),
		Enabled:          true,
		GridCharge:       false,
		DischargeRatePct: 100,
	})
	dispatch[23] = HourDispatch{GridCharge: false, DischargeRatePct: 100}

	compact := compactBatteryFirst(detailed, maxSegments)

	for i := range detailed {
		detailed[i].ID = i
	}
	for i := range compact {
		compact[i].ID = i
	}

	return TouPlan{Detailed: detailed, Compact: compact, Dispatch: dispatch}
}

// compactBatteryFirst merges consecutive battery-first windows in the detailed list (load-first
// windows are implicit gaps on the inverter and are dropped from the compact list) and trims the
// result to maxSegments.
func compactBatteryFirst(detailed []Segment, maxSegments int) []Segment {
	var compact []Segment
	for _, seg := range detailed {
		if seg.Mode != BatteryFirst {
			continue
		}
		if n := len(compact); n > 0 && compact[n-1].EndHHMM == predecessorEnd(seg.StartHHMM) {
			compact[n-1].EndHHMM = seg.EndHHMM
			compact[n-1].GridCharge = compact[n-1].GridCharge || seg.GridCharge
			continue
		}
		compact = append(compact, seg)
	}
	if maxSegments > 0 && len(compact) > maxSegments {
		compact = compact[:maxSegments]
	}
	return compact
}

// predecessorEnd returns the HH:MM that would immediately precede startHHMM if the two windows
// were contiguous, i.e. startHHMM minus one minute.
func predecessorEnd(startHHMM string) string {
	h := int(startHHMM[0]-'0')*10 + int(startHHMM[1]-'0')
	m := int(startHHMM[3]-'0')*10 + int(startHHMM[4]-'0')
	m--
	if m < 0 {
		m = 59
		h--
		if h < 0 {
			h = 23
		}
	}
	return timeutils.HHMM(h, m)
}
