package led

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smazurov/climalight/internal/state"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Display using the Linux multicolor LED class.
// The LED must expose multi_index in red, green, blue order.
type sysfs struct {
	path          string
	maxBrightness int
	pending       state.Color
}

// newSysfs opens a multicolor LED by its class name (e.g. "rgb:status").
func newSysfs(root, name string) (*sysfs, error) {
	ledPath := filepath.Join(root, name)

	if _, err := os.Stat(filepath.Join(ledPath, "multi_intensity")); err != nil {
		return nil, fmt.Errorf("LED %q is not a multicolor LED: %w", name, err)
	}

	maxBrightness := 255
	if data, err := os.ReadFile(filepath.Join(ledPath, "max_brightness")); err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && v > 0 {
			maxBrightness = v
		}
	}

	// Take manual control away from any kernel trigger
	if err := os.WriteFile(filepath.Join(ledPath, "trigger"), []byte("none"), 0644); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to set LED trigger to none: %w", err)
	}

	return &sysfs{path: ledPath, maxBrightness: maxBrightness}, nil
}

func (s *sysfs) Clear() error {
	s.pending = 0
	return nil
}

func (s *sysfs) Fill(c state.Color) error {
	s.pending = c
	return nil
}

// Show writes the channel intensities and then the overall brightness.
func (s *sysfs) Show() error {
	r, g, b := s.pending.RGB()
	intensity := fmt.Sprintf("%d %d %d", r, g, b)
	if err := os.WriteFile(filepath.Join(s.path, "multi_intensity"), []byte(intensity), 0644); err != nil {
		return fmt.Errorf("failed to set LED intensity: %w", err)
	}

	brightness := "0"
	if s.pending != 0 {
		brightness = strconv.Itoa(s.maxBrightness)
	}
	if err := os.WriteFile(filepath.Join(s.path, "brightness"), []byte(brightness), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

func (s *sysfs) Close() error {
	s.pending = 0
	return s.Show()
}
