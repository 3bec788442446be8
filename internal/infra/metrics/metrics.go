// Package metrics provides Prometheus metrics for powergram:
// gauges for the latest sensor readings and counters for the poll
// loop, notification fan-out and command execution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Sensors ────────────────────────────────────────────────────────────────

// BatteryPercent is the last observed battery charge level.
var BatteryPercent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "powergram",
	Name:      "battery_percent",
	Help:      "Last observed battery charge percentage.",
})

// CPUTemp is the last observed CPU temperature.
var CPUTemp = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "powergram",
	Name:      "cpu_temp_celsius",
	Help:      "Last observed CPU temperature in Celsius.",
})

// ─── Monitoring ─────────────────────────────────────────────────────────────

// PollCycles counts completed monitoring cycles (cycles with battery data).
var PollCycles = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "powergram",
	Name:      "poll_cycles_total",
	Help:      "Total completed monitoring cycles.",
})

// PollCyclesSkipped counts cycles aborted for lack of battery data.
var PollCyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "powergram",
	Name:      "poll_cycles_skipped_total",
	Help:      "Total cycles skipped because no battery data was available.",
})

// NotificationsSent counts notification messages by transition kind.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "powergram",
	Name:      "notifications_sent_total",
	Help:      "Total notification messages dispatched to subscribers.",
}, []string{"kind"})

// ─── Command channel ────────────────────────────────────────────────────────

// CommandsExecuted counts shell command executions by entry point.
var CommandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "powergram",
	Name:      "commands_executed_total",
	Help:      "Total shell commands executed.",
}, []string{"mode"})

// CommandTimeouts counts commands killed at their wall-clock limit.
var CommandTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "powergram",
	Name:      "command_timeouts_total",
	Help:      "Total commands terminated for exceeding their time limit.",
})
