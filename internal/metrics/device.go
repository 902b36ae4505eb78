// Package metrics provides Prometheus metrics for the device loops.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	temperature = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "climalight",
		Subsystem: "sensor",
		Name:      "temperature_celsius",
		Help:      "Last valid temperature reading",
	})

	humidity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "climalight",
		Subsystem: "sensor",
		Name:      "humidity_percent",
		Help:      "Last valid relative humidity reading",
	})

	sensorReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "sensor",
		Name:      "reads_total",
		Help:      "Sensor samples by outcome",
	}, []string{"result"})

	ledMode = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "climalight",
		Subsystem: "led",
		Name:      "mode",
		Help:      "Current LED mode",
	})

	ledColor = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "climalight",
		Subsystem: "led",
		Name:      "color",
		Help:      "Current packed RGB color",
	})

	displayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "led",
		Name:      "display_errors_total",
		Help:      "Display writes that failed",
	})

	buttonPresses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "button",
		Name:      "presses_total",
		Help:      "Classified button presses",
	}, []string{"kind"})

	commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "command",
		Name:      "received_total",
		Help:      "Remote commands by source and result",
	}, []string{"source", "result"})

	reports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "report",
		Name:      "publish_total",
		Help:      "Status reports by result",
	}, []string{"result"})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "config",
		Name:      "reloads_total",
		Help:      "Config file reloads by result",
	}, []string{"result"})

	// Local mirror for the diagnostics endpoint.
	counts   = make(map[string]float64)
	countsMu sync.RWMutex
)

// SetReading records the last stored sensor values.
func SetReading(t, h float64) {
	temperature.Set(t)
	humidity.Set(h)
	count("sensor_valid")
	sensorReads.WithLabelValues("valid").Inc()
}

// IncSensorInvalid counts a discarded sample.
func IncSensorInvalid() {
	sensorReads.WithLabelValues("invalid").Inc()
	count("sensor_invalid")
}

// SetLED records the current mode and color.
func SetLED(mode int, color uint32) {
	ledMode.Set(float64(mode))
	ledColor.Set(float64(color))
}

// IncDisplayError counts a failed display write.
func IncDisplayError() {
	displayErrors.Inc()
	count("display_errors")
}

// IncButtonPress counts a press by kind (short, long, ignored).
func IncButtonPress(kind string) {
	buttonPresses.WithLabelValues(kind).Inc()
	count("button_" + kind)
}

// RegisterEdgeCounters exposes the button detector's own counters. The
// detector runs in the edge-event context and only touches atomics, so
// the values are pulled at scrape time. Call once per process.
func RegisterEdgeCounters(debounced, dropped func() uint64) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "button",
		Name:      "edges_debounced_total",
		Help:      "Edges discarded inside the debounce window",
	}, func() float64 { return float64(debounced()) })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "climalight",
		Subsystem: "button",
		Name:      "events_dropped_total",
		Help:      "Press events dropped because the queue was full",
	}, func() float64 { return float64(dropped()) })
}

// IncCommand counts a remote command by source and result.
func IncCommand(source, result string) {
	commands.WithLabelValues(source, result).Inc()
	count("command_" + result)
}

// IncReport counts a report attempt by result (published, failed).
func IncReport(result string) {
	reports.WithLabelValues(result).Inc()
	count("report_" + result)
}

// IncConfigReload counts a config reload by result (applied, failed).
func IncConfigReload(result string) {
	configReloads.WithLabelValues(result).Inc()
	count("config_" + result)
}

// Counts returns a copy of the local counter mirror.
func Counts() map[string]float64 {
	countsMu.RLock()
	defer countsMu.RUnlock()
	result := make(map[string]float64, len(counts))
	for k, v := range counts {
		result[k] = v
	}
	return result
}

func count(key string) {
	countsMu.Lock()
	counts[key]++
	countsMu.Unlock()
}
