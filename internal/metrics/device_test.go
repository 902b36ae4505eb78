package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smazurov/climalight/internal/state"
)

func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) == 1 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not registered", name)
	return 0
}

func TestSetLED_Gauges(t *testing.T) {
	bootMode, bootColor := state.New().View()
	tests := []struct {
		name      string
		mode      int
		color     uint32
		wantMode  float64
		wantColor float64
	}{
		{"boot state", int(bootMode), uint32(bootColor), 0, 65280},
		{"fast blink blue", int(state.ModeFastBlink), uint32(state.Blue), float64(state.ModeFastBlink), float64(state.Blue)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLED(tt.mode, tt.color)
			if got := gaugeValue(t, "climalight_led_mode"); got != tt.wantMode {
				t.Errorf("led mode = %v, want %v", got, tt.wantMode)
			}
			if got := gaugeValue(t, "climalight_led_color"); got != tt.wantColor {
				t.Errorf("led color = %v, want %v", got, tt.wantColor)
			}
		})
	}
}

func TestCounts_Mirror(t *testing.T) {
	before := Counts()

	IncButtonPress("short")
	IncButtonPress("short")
	IncCommand("mqtt", "rejected")
	IncReport("failed")
	IncSensorInvalid()
	SetReading(21.3, 55.7)

	after := Counts()
	checks := map[string]float64{
		"button_short":     2,
		"command_rejected": 1,
		"report_failed":    1,
		"sensor_invalid":   1,
		"sensor_valid":     1,
	}
	for key, delta := range checks {
		if got := after[key] - before[key]; got != delta {
			t.Errorf("%s delta = %v, want %v", key, got, delta)
		}
	}
}

func TestCounts_ReturnsCopy(t *testing.T) {
	IncDisplayError()
	c := Counts()
	c["display_errors"] = -1
	if Counts()["display_errors"] < 0 {
		t.Error("Counts() should return a copy")
	}
}

func TestCounts_Concurrent(_ *testing.T) {
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				IncReport("published")
				_ = Counts()
			}
		}()
	}
	wg.Wait()
}
