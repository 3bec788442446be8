// Package monitor implements the battery poll cycle: it samples the
// sensors, derives transition events against the persisted state, and
// fans notifications out to subscribers. Every transition notifies
// each subscriber at most once; persistence happens after dispatch so
// a crash in between re-sends rather than loses a transition.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/powergram/powergram/internal/domain"
	"github.com/powergram/powergram/internal/infra/metrics"
	"github.com/powergram/powergram/internal/infra/sqlite"
)

// Sensors is the sensor source the engine samples each cycle.
type Sensors interface {
	ReadBattery() domain.BatteryReading
	CPUTemp() (float64, bool)
	FanStatus() string
}

// Store persists the monitor scalars and holds the subscriber set.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Subscribers() ([]int64, error)
}

// Notifier delivers one message to one recipient, best-effort. A
// failed delivery must not affect other recipients.
type Notifier interface {
	Send(chatID int64, text string)
}

// Config holds the engine tuning parameters. AlertThreshold must be
// strictly below AlertHysteresis; the gap prevents flapping on noisy
// readings around a single value.
type Config struct {
	AlertThreshold  int
	AlertHysteresis int
	Interval        time.Duration
}

// Snapshot is the last successful sensor sample, kept for the status
// API and /battery command.
type Snapshot struct {
	Percent  int                `json:"percent"`
	State    domain.ChargeState `json:"state"`
	CPUTempC float64            `json:"cpu_temp_c,omitempty"`
	HasTemp  bool               `json:"has_temp"`
	Fan      string             `json:"fan"`
	At       time.Time          `json:"at"`
}

// Engine drives the monitoring cycles.
type Engine struct {
	cfg      Config
	sensors  Sensors
	store    Store
	notifier Notifier

	inFlight atomic.Bool // at most one cycle at a time

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a monitoring engine.
func New(cfg Config, sensors Sensors, store Store, notifier Notifier) *Engine {
	return &Engine{cfg: cfg, sensors: sensors, store: store, notifier: notifier}
}

// Run drives the poll loop until ctx is cancelled. The first cycle
// runs immediately. Call in a goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.Poll()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Poll()
		}
	}
}

// Poll executes one monitoring cycle. A tick arriving while a cycle
// is still in flight is dropped, never queued.
func (e *Engine) Poll() {
	if !e.inFlight.CompareAndSwap(false, true) {
		log.Printf("[monitor] previous cycle still running, skipping tick")
		return
	}
	defer e.inFlight.Store(false)
	e.cycle()
}

// Status returns the last successful sensor snapshot.
func (e *Engine) Status() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// notice is one pending notification for this cycle.
type notice struct {
	kind string
	text string
}

func (e *Engine) cycle() {
	battery := e.sensors.ReadBattery()
	if !battery.Known() {
		// Transient sensing gap: no state mutation this cycle.
		metrics.PollCyclesSkipped.Inc()
		log.Printf("[monitor] no battery data, skipping cycle")
		return
	}

	temp, hasTemp := e.sensors.CPUTemp()
	fan := e.sensors.FanStatus()

	metrics.PollCycles.Inc()
	metrics.BatteryPercent.Set(float64(battery.Percent))
	if hasTemp {
		metrics.CPUTemp.Set(temp)
	}

	e.mu.Lock()
	e.snap = Snapshot{
		Percent:  battery.Percent,
		State:    battery.State,
		CPUTempC: temp,
		HasTemp:  hasTemp,
		Fan:      fan,
		At:       time.Now(),
	}
	e.mu.Unlock()

	lastPercent, hasLastPercent := e.getInt(sqlite.KeyLastPercent)
	lastCharge, hasLastCharge := e.store.Get(sqlite.KeyLastCharge)
	alertRaw, _ := e.store.Get(sqlite.KeyAlertState)
	inAlert := alertRaw == string(domain.AlertActive)

	thermal := domain.ThermalReading{CPUTempC: temp, HasTemp: hasTemp, Fan: fan}

	var notices []notice
	newAlert := inAlert

	// One-shot notice for crossing the 20% line. It suppresses the
	// hysteresis branch this cycle to avoid double-notifying at the
	// same crossing, but not the charge-change notice below.
	crossed20 := hasLastPercent && lastPercent > 20 && battery.Percent <= 20
	if crossed20 {
		notices = append(notices, notice{"crossed20", crossed20Message(battery, thermal)})
	} else {
		switch {
		case !inAlert && battery.Percent <= e.cfg.AlertThreshold && battery.State != domain.Charging:
			newAlert = true
			notices = append(notices, notice{"alert", lowBatteryMessage(battery, thermal)})
		case inAlert && battery.Percent >= e.cfg.AlertHysteresis:
			newAlert = false
			notices = append(notices, notice{"recovery", recoveryMessage(battery, thermal)})
		}
	}

	// Charge-state change: never on the very first cycle.
	if hasLastCharge && lastCharge != string(battery.State) {
		notices = append(notices, notice{
			"charge",
			chargeChangeMessage(domain.ChargeState(lastCharge), battery.State, battery.Percent),
		})
	}

	if err := e.dispatch(notices); err != nil {
		// Leave the scalars untouched so the next cycle detects the
		// same transition again and re-sends it.
		log.Printf("[monitor] dispatch failed, deferring persistence: %v", err)
		return
	}

	// Persist after dispatch: a crash in between re-sends the same
	// notification next cycle instead of silently dropping it.
	if newAlert != inAlert {
		state := domain.AlertNormal
		if newAlert {
			state = domain.AlertActive
		}
		e.set(sqlite.KeyAlertState, string(state))
		log.Printf("[monitor] alert state → %s (%d%%)", state, battery.Percent)
	}
	e.set(sqlite.KeyLastCharge, string(battery.State))
	e.set(sqlite.KeyLastPercent, strconv.Itoa(battery.Percent))
}

// dispatch sends every notice to every subscriber, fire-and-forget
// per recipient. With no subscribers nothing is sent, but the caller
// still updates the state scalars so a later subscribe does not
// replay a historical transition. A failed subscriber read is an
// error: the caller must not persist over an undelivered transition.
func (e *Engine) dispatch(notices []notice) error {
	if len(notices) == 0 {
		return nil
	}
	subscribers, err := e.store.Subscribers()
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	for _, n := range notices {
		for _, chatID := range subscribers {
			e.notifier.Send(chatID, n.text)
			metrics.NotificationsSent.WithLabelValues(n.kind).Inc()
		}
	}
	return nil
}

func (e *Engine) getInt(key string) (int, bool) {
	raw, ok := e.store.Get(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// set writes best-effort: persistence failures are logged and
// swallowed, never fatal to the cycle.
func (e *Engine) set(key, value string) {
	if err := e.store.Set(key, value); err != nil {
		log.Printf("[monitor] persist %s: %v", key, err)
	}
}
