package sensors

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxThermalZoneTemp scans /sys/class/thermal thermal zones and
// returns the maximum temperature in °C. Raw values above 1000 are
// milli-degrees and get normalized.
func maxThermalZoneTemp() (float64, bool) {
	paths, _ := filepath.Glob("/sys/class/thermal/thermal_zone*/temp")
	var best float64
	var has bool
	for _, p := range paths {
		raw, ok := readIntFile(p)
		if !ok {
			continue
		}
		v := float64(raw)
		if raw > 1000 {
			v = float64(raw) / 1000
		}
		if !has || v > best {
			best, has = v, true
		}
	}
	return best, has
}

// maxHwmonFanRPM scans hwmon fan inputs and returns the maximum RPM.
func maxHwmonFanRPM() (int, bool) {
	paths, _ := filepath.Glob("/sys/class/hwmon/hwmon*/fan*_input")
	var best int
	var has bool
	for _, p := range paths {
		rpm, ok := readIntFile(p)
		if !ok {
			continue
		}
		if !has || rpm > best {
			best, has = rpm, true
		}
	}
	return best, has
}

func readIntFile(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return v, true
}
