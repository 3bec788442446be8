// Package sensors reads battery, CPU temperature and fan state from
// the host. It shells out to upower and lm-sensors when available and
// falls back to sysfs pseudo-files. All readers degrade to "no data"
// instead of returning errors.
package sensors

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os/exec"
	"strings"
	"sync/atomic"
)

// preferredTempLabels are CPU-package sensor labels, matched
// case-insensitively as substrings.
var preferredTempLabels = []string{"package id", "tctl", "tdie"}

// Reader queries host power and thermal state.
type Reader struct {
	// broken latches after the first sensors(1) failure so an
	// unsupported host does not pay a subprocess spawn every poll.
	// Never cleared without a process restart.
	broken atomic.Bool
}

// New creates a Reader. With disableSensors set, the lm-sensors
// source is skipped for the life of the process and only sysfs
// fallbacks are used.
func New(disableSensors bool) *Reader {
	r := &Reader{}
	if disableSensors {
		r.broken.Store(true)
	}
	return r
}

// sensorsJSON runs `sensors -j` and decodes its chip→label→field map.
// Returns nil if the source is disabled, broken, or fails now (which
// marks it broken).
func (r *Reader) sensorsJSON() map[string]any {
	if r.broken.Load() {
		return nil
	}
	out, err := exec.Command("sensors", "-j").Output()
	if err != nil {
		log.Printf("[sensors] sensors -j failed, disabling for this process: %v", err)
		r.broken.Store(true)
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		log.Printf("[sensors] sensors -j returned bad JSON, disabling for this process: %v", err)
		r.broken.Store(true)
		return nil
	}
	return data
}

// CPUTemp returns the CPU temperature in °C rounded to one decimal.
// ok is false when no source has data.
func (r *Reader) CPUTemp() (float64, bool) {
	if t, ok := cpuTempFromSensors(r.sensorsJSON()); ok {
		return round1(t), true
	}
	if t, ok := maxThermalZoneTemp(); ok {
		return round1(t), true
	}
	return 0, false
}

// FanStatus returns a textual fan description: "running ~ N RPM",
// "off/idle", or "unknown" when no fan data is exposed.
func (r *Reader) FanStatus() string {
	rpm, ok := maxFanFromSensors(r.sensorsJSON())
	if !ok {
		rpm, ok = maxHwmonFanRPM()
	}
	if !ok {
		return "unknown"
	}
	if rpm > 0 {
		return fmt.Sprintf("running ~ %d RPM", rpm)
	}
	return "off/idle"
}

// cpuTempFromSensors scans the decoded sensors map for temp*_input
// fields. Readings under preferred CPU-package labels win and the
// maximum among them is taken; otherwise the first label seen is used.
func cpuTempFromSensors(data map[string]any) (float64, bool) {
	var preferred, first float64
	var hasPreferred, hasFirst bool

	for _, chip := range data {
		labels, ok := chip.(map[string]any)
		if !ok {
			continue
		}
		for label, fields := range labels {
			fieldMap, ok := fields.(map[string]any)
			if !ok {
				continue
			}
			tmax, has := maxFieldValue(fieldMap, "temp", "_input")
			if !has {
				continue
			}
			if isPreferredLabel(label) {
				if !hasPreferred || tmax > preferred {
					preferred, hasPreferred = tmax, true
				}
			} else if !hasFirst {
				first, hasFirst = tmax, true
			}
		}
	}
	if hasPreferred {
		return preferred, true
	}
	return first, hasFirst
}

// maxFanFromSensors scans for fan*_input fields and returns the
// maximum RPM across all chips and labels.
func maxFanFromSensors(data map[string]any) (int, bool) {
	var best float64
	var has bool
	for _, chip := range data {
		labels, ok := chip.(map[string]any)
		if !ok {
			continue
		}
		for _, fields := range labels {
			fieldMap, ok := fields.(map[string]any)
			if !ok {
				continue
			}
			if v, found := maxFieldValue(fieldMap, "fan", "_input"); found {
				if !has || v > best {
					best, has = v, true
				}
			}
		}
	}
	return int(best), has
}

// maxFieldValue returns the maximum numeric field whose key matches
// prefix*suffix within one label's field map.
func maxFieldValue(fields map[string]any, prefix, suffix string) (float64, bool) {
	var best float64
	var has bool
	for k, v := range fields {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, suffix) {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			continue
		}
		if !has || f > best {
			best, has = f, true
		}
	}
	return best, has
}

func isPreferredLabel(label string) bool {
	l := strings.ToLower(label)
	for _, p := range preferredTempLabels {
		if strings.Contains(l, p) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
