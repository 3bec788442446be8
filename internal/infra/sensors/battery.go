package sensors

import (
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/powergram/powergram/internal/domain"
)

const upowerBatteryDevice = "/org/freedesktop/UPower/devices/battery_BAT0"

var (
	upowerPercentRe = regexp.MustCompile(`percentage:\s*(\d+)%`)
	upowerStateRe   = regexp.MustCompile(`state:\s*([\w-]+)`)
)

// ReadBattery returns the current battery percentage and charge
// state. It queries upower first and falls back to the BAT0 sysfs
// files. When neither source has data it returns the unknown
// sentinel; it never returns an error.
func (r *Reader) ReadBattery() domain.BatteryReading {
	if out, err := exec.Command("upower", "-i", upowerBatteryDevice).Output(); err == nil {
		if reading, ok := parseUpower(string(out)); ok {
			return reading
		}
	}
	if reading, ok := readSysfsBattery(); ok {
		return reading
	}
	return domain.BatteryReading{Percent: domain.UnknownPercent, State: domain.Unknown}
}

func parseUpower(out string) (domain.BatteryReading, bool) {
	pm := upowerPercentRe.FindStringSubmatch(out)
	sm := upowerStateRe.FindStringSubmatch(out)
	if pm == nil || sm == nil {
		return domain.BatteryReading{}, false
	}
	percent, err := strconv.Atoi(pm[1])
	if err != nil {
		return domain.BatteryReading{}, false
	}
	return domain.BatteryReading{
		Percent: percent,
		State:   domain.ParseChargeState(sm[1]),
	}, true
}

func readSysfsBattery() (domain.BatteryReading, bool) {
	capData, err := os.ReadFile("/sys/class/power_supply/BAT0/capacity")
	if err != nil {
		return domain.BatteryReading{}, false
	}
	statusData, err := os.ReadFile("/sys/class/power_supply/BAT0/status")
	if err != nil {
		return domain.BatteryReading{}, false
	}
	percent, err := strconv.Atoi(strings.TrimSpace(string(capData)))
	if err != nil {
		return domain.BatteryReading{}, false
	}
	return domain.BatteryReading{
		Percent: percent,
		State:   domain.ParseChargeState(string(statusData)),
	}, true
}
