package led

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/climalight/internal/state"
)

func TestNoopDisplay(t *testing.T) {
	d := newNoop(newTestLogger())

	if err := d.Fill(state.Red); err != nil {
		t.Errorf("Fill() returned error: %v", err)
	}
	if err := d.Show(); err != nil {
		t.Errorf("Show() returned error: %v", err)
	}
	if d.shown != state.Red {
		t.Errorf("shown = %v, want %v", d.shown, state.Red)
	}

	_ = d.Clear()
	_ = d.Show()
	if d.shown != 0 {
		t.Errorf("shown after Clear = %v, want 0", d.shown)
	}
}

func fakeMulticolorLED(t *testing.T, name, maxBrightness string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"multi_intensity": "0 0 0",
		"multi_index":     "red green blue",
		"brightness":      "0",
		"trigger":         "[none] heartbeat",
	}
	if maxBrightness != "" {
		files["max_brightness"] = maxBrightness
	}
	for f, content := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readAttr(t *testing.T, root, name, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name, attr))
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestSysfsDisplay(t *testing.T) {
	tests := []struct {
		name           string
		maxBrightness  string
		color          state.Color
		wantIntensity  string
		wantBrightness string
	}{
		{"fill green", "255", state.Green, "0 255 0", "255"},
		{"custom color", "1", state.RGB(10, 20, 30), "10 20 30", "1"},
		{"missing max_brightness", "", state.Yellow, "255 255 0", "255"},
		{"black is off", "255", 0, "0 0 0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fakeMulticolorLED(t, "rgb:status", tt.maxBrightness)

			d, err := newSysfs(root, "rgb:status")
			if err != nil {
				t.Fatalf("newSysfs() error = %v", err)
			}
			if got := readAttr(t, root, "rgb:status", "trigger"); got != "none" {
				t.Errorf("trigger = %q, want none", got)
			}

			_ = d.Fill(tt.color)
			if err := d.Show(); err != nil {
				t.Fatalf("Show() error = %v", err)
			}
			if got := readAttr(t, root, "rgb:status", "multi_intensity"); got != tt.wantIntensity {
				t.Errorf("multi_intensity = %q, want %q", got, tt.wantIntensity)
			}
			if got := readAttr(t, root, "rgb:status", "brightness"); got != tt.wantBrightness {
				t.Errorf("brightness = %q, want %q", got, tt.wantBrightness)
			}

			if err := d.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if got := readAttr(t, root, "rgb:status", "brightness"); got != "0" {
				t.Errorf("brightness after Close = %q, want 0", got)
			}
		})
	}
}

func TestSysfsDisplay_RequiresMulticolorClass(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "led0"), 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := newSysfs(root, "led0"); err == nil {
		t.Error("newSysfs() accepted an LED without multi_intensity")
	}
}
