// Package domain holds the shared data contracts for powergram.
package domain

import "strings"

// ChargeState is the battery charging state as reported by the host.
type ChargeState string

const (
	Charging    ChargeState = "charging"
	Discharging ChargeState = "discharging"
	Full        ChargeState = "full"
	Unknown     ChargeState = "unknown"
)

// ParseChargeState normalizes raw state text from upower or sysfs.
// Anything unrecognized (e.g. "not charging", "pending-charge") maps
// to Unknown.
func ParseChargeState(raw string) ChargeState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "charging":
		return Charging
	case "discharging":
		return Discharging
	case "full", "fully-charged":
		return Full
	default:
		return Unknown
	}
}

// UnknownPercent is the sentinel percent value meaning "no battery
// data this cycle". Callers treat it as a sensing gap, not an error.
const UnknownPercent = -1

// BatteryReading is one battery sample. Produced fresh on every poll;
// only its scalar fields are ever persisted.
type BatteryReading struct {
	Percent int
	State   ChargeState
}

// Known reports whether the reading carries real data.
func (r BatteryReading) Known() bool { return r.Percent >= 0 }

// ThermalReading is one CPU temperature / fan sample. Absence of
// temperature data is a valid outcome, not an error.
type ThermalReading struct {
	CPUTempC float64
	HasTemp  bool
	Fan      string
}

// AlertState is the persisted low-battery alert mode. It only moves
// normal→alert (low battery while not charging) and alert→normal
// (percent back at or above the hysteresis bound).
type AlertState string

const (
	AlertNormal AlertState = "normal"
	AlertActive AlertState = "alert"
)
