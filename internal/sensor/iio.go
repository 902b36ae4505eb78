package sensor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const iioDevicesPath = "/sys/bus/iio/devices"

// iioDriverNames are the kernel drivers exposing a DHT-style sensor.
var iioDriverNames = []string{"dht11"}

// iio reads a DHT sensor through the Linux IIO sysfs interface. Each read
// triggers a conversion in the driver; values are reported in milli-units.
type iio struct {
	path string
}

func newIIO(root, device string) (*iio, error) {
	if device != "" {
		if !filepath.IsAbs(device) {
			device = filepath.Join(root, device)
		}
		if _, err := os.Stat(filepath.Join(device, "in_temp_input")); err != nil {
			return nil, fmt.Errorf("IIO device %s has no temperature channel: %w", device, err)
		}
		return &iio{path: device}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list IIO devices: %w", err)
	}
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		name, err := os.ReadFile(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		for _, driver := range iioDriverNames {
			if strings.TrimSpace(string(name)) == driver {
				return &iio{path: dir}, nil
			}
		}
	}
	return nil, errors.New("no dht11 IIO device found")
}

func (s *iio) Temperature() (float64, error) {
	return s.readMilli("in_temp_input")
}

func (s *iio) Humidity() (float64, error) {
	return s.readMilli("in_humidityrelative_input")
}

func (s *iio) readMilli(attr string) (float64, error) {
	data, err := os.ReadFile(filepath.Join(s.path, attr))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", attr, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", attr, err)
	}
	return float64(v) / 1000, nil
}
