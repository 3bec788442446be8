package monitor

import (
	"fmt"

	"github.com/powergram/powergram/internal/domain"
)

func tempLine(t domain.ThermalReading) string {
	if !t.HasTemp {
		return "n/a"
	}
	return fmt.Sprintf("%.1f°C", t.CPUTempC)
}

func crossed20Message(b domain.BatteryReading, t domain.ThermalReading) string {
	return fmt.Sprintf("⚠️ Battery reached 20%%\nNow: %d%% (%s)\nCPU temp: %s\nFan: %s",
		b.Percent, b.State, tempLine(t), t.Fan)
}

func lowBatteryMessage(b domain.BatteryReading, t domain.ThermalReading) string {
	return fmt.Sprintf("⚠️ Low battery: %d%% (%s)\nCPU temp: %s\nFan: %s",
		b.Percent, b.State, tempLine(t), t.Fan)
}

func recoveryMessage(b domain.BatteryReading, t domain.ThermalReading) string {
	return fmt.Sprintf("✅ Charge recovered to %d%%\nCPU temp: %s\nFan: %s",
		b.Percent, tempLine(t), t.Fan)
}

// chargeChangeMessage picks phrasing by transition direction:
// plugged-in, unplugged, or a generic "A → B" for the rest.
func chargeChangeMessage(prev, cur domain.ChargeState, percent int) string {
	switch {
	case cur == domain.Charging && (prev == domain.Discharging || prev == domain.Unknown):
		return fmt.Sprintf("🔌 Power CONNECTED • %d%%", percent)
	case prev == domain.Charging && (cur == domain.Discharging || cur == domain.Full):
		return fmt.Sprintf("🔋 Power DISCONNECTED • %d%%", percent)
	default:
		return fmt.Sprintf("ℹ️ Battery state: %s → %s • %d%%", prev, cur, percent)
	}
}
